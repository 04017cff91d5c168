package sbreport

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/NordCoder/StillbirthNotify/internal/report"
)

type options struct {
	api      string
	token    string
	timeout  time.Duration
	query    Query
	format   string
	output   string
	fromFile string
}

// NewRootCmd builds the sbreport command tree. API and token default to $SBREPORT_API and $SBREPORT_TOKEN.
func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "sbreport",
		Short:         "Stillbirth report tiles, previews and spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.api, "api", envOr("SBREPORT_API", "http://localhost:8080"), "API base URL")
	pf.StringVar(&o.token, "token", os.Getenv("SBREPORT_TOKEN"), "bearer access token")
	pf.DurationVar(&o.timeout, "timeout", 30*time.Second, "request timeout")
	pf.StringVar(&o.query.From, "from", "", "first notification date, YYYY-MM-DD")
	pf.StringVar(&o.query.To, "to", "", "last notification date, YYYY-MM-DD")
	pf.Int64Var(&o.query.LocationID, "location", 0, "location id (defaults to the token's location)")
	pf.StringVar(&o.fromFile, "input", "", "read raw records from a JSON file instead of the API")

	root.AddCommand(newTilesCmd(o), newPreviewCmd(o), newExportCmd(o))
	return root
}

func newTilesCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tiles",
		Short: "Print dashboard tile counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := o.records(cmd)
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), o.format, report.ProcessRawData(records))
		},
	}
	cmd.Flags().StringVarP(&o.format, "format", "f", "yaml", "output format: yaml or json")
	return cmd
}

func newPreviewCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print one preview row per baby",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := o.records(cmd)
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), o.format, report.PreparePreviewData(records))
		},
	}
	cmd.Flags().StringVarP(&o.format, "format", "f", "yaml", "output format: yaml or json")
	return cmd
}

func newExportCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the preview and tile summary to an xlsx file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := o.records(cmd)
			if err != nil {
				return err
			}
			f, err := os.Create(o.output)
			if err != nil {
				return err
			}
			if err := report.WritePreviewXLSX(f, report.PreparePreviewData(records), report.ProcessRawData(records)); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", o.output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&o.output, "output", "o", "stillbirths.xlsx", "destination file")
	return cmd
}

func (o *options) records(cmd *cobra.Command) ([]report.Record, error) {
	if o.fromFile != "" {
		return readRecords(o.fromFile)
	}
	return NewClient(o.api, o.token, o.timeout).Raw(cmd.Context(), o.query)
}

func readRecords(path string) ([]report.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []report.Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
