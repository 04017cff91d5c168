package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/NordCoder/StillbirthNotify/internal/sbreport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := sbreport.NewRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "sbreport:", err)
		os.Exit(1)
	}
}
