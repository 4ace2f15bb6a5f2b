package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/mviewer/internal/samplelog"
)

func newSamplesCmd() *cobra.Command {
	var archive string
	var limit int
	var asJSON bool
	var summary bool

	cmd := &cobra.Command{
		Use:   "samples",
		Short: "Inspect a session's archived pick samples",
		Long: `Reads the parquet archive a session writes when it closes and prints one
line per channel measurement.`,
		Example: `  # Print the first 20 samples
  mviewer samples --archive ./archive/3f2b.parquet --limit 20

  # Emit JSON lines
  mviewer samples --archive ./archive/3f2b.parquet --json

  # Per-channel statistics
  mviewer samples --archive ./archive/3f2b.parquet --summary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := samplelog.ReadParquet(archive)
			if err != nil {
				return fmt.Errorf("failed to load archive: %w", err)
			}
			if summary {
				return samplelog.Summarize(samples).WriteYAML(cmd.OutOrStdout())
			}
			if limit > 0 && len(samples) > limit {
				samples = samples[:limit]
			}
			return printSamples(cmd.OutOrStdout(), samples, asJSON)
		},
	}

	cmd.Flags().StringVar(&archive, "archive", "", "Path to a sample archive (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of samples to print (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print samples as JSON lines")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print per-channel statistics as YAML")

	_ = cmd.MarkFlagRequired("archive")

	return cmd
}

func printSamples(w io.Writer, samples []samplelog.Sample, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for _, s := range samples {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
		return nil
	}

	fmt.Fprintf(w, "%-24s %-6s %10s %10s %12s %12s %12s %8s\n", "time", "chan", "x", "y", "flux", "ra", "dec", "npixel")
	for _, s := range samples {
		at := time.UnixMilli(s.TimestampMs).UTC().Format(time.RFC3339)
		fmt.Fprintf(w, "%-24s %-6s %10.2f %10.2f %12.5g %12.6f %12.6f %8d\n",
			at, s.Channel, s.PickX, s.PickY, s.FluxRef, s.RARef, s.DecRef, s.NPixel)
	}
	fmt.Fprintf(w, "%d samples\n", len(samples))
	return nil
}
