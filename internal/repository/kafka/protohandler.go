package kafka

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/proto"

	"github.com/NordCoder/StillbirthNotify/internal/obs/retry"
)

// ProtoHandler decodes each value into a fresh M. An undecodable value is a
// permanent failure, so the consumer skips it instead of redelivering.
func ProtoHandler[M proto.Message](ctor func() M, handle func(context.Context, []byte, M) error) Handler {
	return func(ctx context.Context, key, value []byte) error {
		msg := ctor()
		if err := proto.Unmarshal(value, msg); err != nil {
			return retry.Permanent(fmt.Errorf("decode %T: %w", msg, err))
		}
		return handle(ctx, key, msg)
	}
}
