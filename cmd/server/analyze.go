package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"aura-backend/internal/export"
	"aura-backend/internal/ingest"
	"aura-backend/internal/insights"
	"aura-backend/internal/metrics"
	"aura-backend/internal/normalize"
	"aura-backend/internal/outwriter"
	"aura-backend/internal/report"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	analyzeFormat  string
	analyzeParquet string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Run ingest, metrics and insights on a local CSV or JSON file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := analyzeFile(args[0])
		if err != nil {
			return err
		}

		format := analyzeFormat
		isTTY := term.IsTerminal(int(os.Stdout.Fd()))
		if format == outwriter.TableOut && !isTTY && !cmd.Flags().Changed("format") {
			format = outwriter.MarkdownOut
		}
		if err := outwriter.Write(cmd.OutOrStdout(), a, format, isTTY && !color.NoColor); err != nil {
			return err
		}

		if analyzeParquet != "" {
			records := export.ConvertMetrics("", a.Source, a.Metrics, time.Now())
			if err := export.WriteMetricsFile(records, analyzeParquet); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "metrics written to %s\n", analyzeParquet)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", outwriter.TableOut, "output format: table, md or json")
	analyzeCmd.Flags().StringVar(&analyzeParquet, "parquet", "", "also write the metrics to this Parquet file")
}

// analyzeFile runs the pipeline the HTTP service runs for one session
func analyzeFile(path string) (outwriter.Analysis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return outwriter.Analysis{}, fmt.Errorf("read %s: %w", path, err)
	}
	parsed, err := ingest.Decode(filepath.Base(path), raw)
	if err != nil {
		return outwriter.Analysis{}, err
	}
	df, coercion := normalize.NewNormalizer().Normalize(parsed)
	ms := metrics.Compute(df, normalize.Infer(df))

	return outwriter.Analysis{
		Source:   df.Source,
		Rows:     df.Len(),
		Metrics:  ms,
		Insights: insights.Derive(df, ms),
		Coercion: coercion.Summary(),
		Report:   report.NewAssembler().DatasetReport(df),
	}, nil
}
