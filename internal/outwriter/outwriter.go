// Package outwriter prints local analysis results for the command line.
package outwriter

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"aura-backend/internal/models"
	"aura-backend/internal/report"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Output formats
const (
	TableOut    = "table"
	MarkdownOut = "md"
	JSONOut     = "json"
)

// Analysis is the result of a local ingest, normalize, metrics and insights run
type Analysis struct {
	Source   string                 `json:"source"`
	Rows     int                    `json:"rows"`
	Metrics  []models.Metric        `json:"metrics"`
	Insights []models.Insight       `json:"insights"`
	Coercion models.CoercionSummary `json:"coercion"`
	Report   *models.Report         `json:"-"`
}

// Write dispatches on the output format
func Write(w io.Writer, a Analysis, format string, useColors bool) error {
	switch format {
	case JSONOut:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
		return nil
	case MarkdownOut:
		rep := a.Report
		if rep == nil {
			rep = &models.Report{Metrics: a.Metrics, Insights: a.Insights}
		}
		_, err := io.WriteString(w, report.Markdown(rep))
		return err
	case TableOut:
		return writeTables(w, a, useColors)
	default:
		return fmt.Errorf("unknown output format %q (want table, md or json)", format)
	}
}

func writeTables(w io.Writer, a Analysis, useColors bool) error {
	if _, err := fmt.Fprintf(w, "%s: %d rows, %d cells coerced to null\n\n", a.Source, a.Rows, a.Coercion.Count); err != nil {
		return err
	}
	if err := writeMetricsTable(w, a.Metrics, useColors); err != nil {
		return err
	}
	if len(a.Insights) == 0 {
		_, err := fmt.Fprintln(w, "\nNo insights produced for current dataset.")
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return writeInsightsTable(w, a.Insights, useColors)
}

func writeMetricsTable(w io.Writer, ms []models.Metric, useColors bool) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Key", "Value", "Computed", "Description"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	green, grey := colorFuncs(useColors, color.FgGreen, color.FgHiBlack)
	var data [][]string
	for _, m := range ms {
		computed := grey("no")
		if m.Computed {
			computed = green("yes")
		}
		data = append(data, []string{m.Key, report.FormatValue(m.Value), computed, m.Description})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeInsightsTable(w io.Writer, ins []models.Insight, useColors bool) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"ID", "Priority", "Confidence", "Summary"})

	red, yellow := colorFuncs(useColors, color.FgRed, color.FgYellow)
	var data [][]string
	for _, i := range ins {
		priority := i.Priority
		switch priority {
		case "High":
			priority = red(priority)
		case "Medium":
			priority = yellow(priority)
		}
		data = append(data, []string{i.ID, priority, strconv.FormatFloat(i.Confidence, 'f', 2, 64), i.Summary})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func colorFuncs(useColors bool, a, b color.Attribute) (func(...any) string, func(...any) string) {
	if !useColors {
		return fmt.Sprint, fmt.Sprint
	}
	return color.New(a).SprintFunc(), color.New(b).SprintFunc()
}
