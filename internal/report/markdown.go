package report

import (
	"fmt"
	"strconv"
	"strings"

	"aura-backend/internal/models"
)

// Markdown renders a report as a markdown document
func Markdown(r *models.Report) string {
	var b strings.Builder
	b.WriteString("# " + Title + "\n\n")

	if r.ExecutiveSummary != "" {
		b.WriteString(r.ExecutiveSummary + "\n\n")
	}
	if len(r.Metrics) > 0 {
		b.WriteString(metricsMarkdown(r.Metrics) + "\n\n")
	}
	b.WriteString(insightsMarkdown(r.Insights) + "\n")
	if len(r.Hypotheses) > 0 {
		b.WriteString("\n" + hypothesesMarkdown(r.Hypotheses) + "\n")
	}
	if len(r.Profile) > 0 {
		b.WriteString("\n" + profileMarkdown(r.Profile) + "\n")
	}
	if r.ValidatorScorecard != nil {
		b.WriteString("\n" + scorecardMarkdown(*r.ValidatorScorecard) + "\n")
	}
	return b.String()
}

// FormatValue renders a metric value; nil is shown as n/a
func FormatValue(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func metricsMarkdown(ms []models.Metric) string {
	lines := []string{"## Metrics"}
	for _, m := range ms {
		status := "⚪"
		if m.Computed {
			status = "✅"
		}
		lines = append(lines, fmt.Sprintf("- %s **%s**: %s — _%s_", status, m.Key, FormatValue(m.Value), m.Description))
	}
	return strings.Join(lines, "\n")
}

func insightsMarkdown(ins []models.Insight) string {
	if len(ins) == 0 {
		return "## Insights\n_No insights produced for current dataset._"
	}
	out := []string{"## Insights"}
	for _, i := range ins {
		out = append(out, fmt.Sprintf("### %s (%s)", i.Title, i.ID))
		field := func(label, value string) {
			if value != "" {
				out = append(out, fmt.Sprintf("- %s: %s", label, value))
			}
		}
		field("Hypothesis", i.Hypothesis)
		field("Problem", i.Problem)
		field("Impact", i.Impact)
		field("Stakeholders", strings.Join(i.Stakeholders, ", "))
		field("Domain", i.Domain)
		field("Metrics", strings.Join(i.Metrics, ", "))
		for _, m := range i.Measurements {
			field("Measurement", fmt.Sprintf("%s = %s%s", m.Name, strconv.FormatFloat(m.Value, 'f', -1, 64), m.Unit))
		}
		field("Confidence", strconv.FormatFloat(i.Confidence, 'f', -1, 64))
		if i.Priority != "" || i.Complexity != "" {
			field("Priority", fmt.Sprintf("%s | Complexity: %s", i.Priority, i.Complexity))
		}
		field("Summary", i.Summary)
		field("Consequence if ignored", i.ConsequenceIfIgnored)
		field("Methodology", i.Methodology)
		field("Evidence", i.Evidence)
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

func hypothesesMarkdown(hyps []models.Hypothesis) string {
	out := []string{"## Hypotheses"}
	for _, h := range hyps {
		out = append(out, fmt.Sprintf("### %s (%s)", h.Title, h.ID))
		out = append(out, "- Problem: "+h.Problem)
		out = append(out, "- Domain: "+h.Domain)
		for _, m := range h.Metrics {
			out = append(out, fmt.Sprintf("- Metric: %s (%s)", m.Name, m.Method))
		}
		out = append(out, fmt.Sprintf("- Complexity: %d dev week(s)", h.Complexity.DevWeeks))
		out = append(out, "- Summary: "+h.Summary)
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

func profileMarkdown(ps []models.ColumnProfile) string {
	out := []string{
		"## Column profile",
		"| column | kind | non-null | null rate | distinct | entropy | key | mean | median |",
		"|---|---|---|---|---|---|---|---|---|",
	}
	for _, p := range ps {
		key := ""
		if p.IsLikelyKey {
			key = "yes"
		}
		mean, median := "", ""
		if p.Stats != nil {
			mean = strconv.FormatFloat(p.Stats.Mean, 'f', -1, 64)
			median = strconv.FormatFloat(p.Stats.Median, 'f', -1, 64)
		}
		out = append(out, fmt.Sprintf("| %s | %s | %d | %s | %d | %s | %s | %s | %s |",
			p.Name, p.Kind, p.NonNullRows,
			strconv.FormatFloat(p.NullRate, 'f', -1, 64), p.DistinctCount,
			strconv.FormatFloat(p.Entropy, 'f', -1, 64), key, mean, median))
	}
	return strings.Join(out, "\n")
}

func scorecardMarkdown(sc models.Scorecard) string {
	out := []string{fmt.Sprintf("## Validation (passed: %t)", sc.Passed)}
	for _, c := range sc.Checks {
		mark := "✅"
		if !c.OK {
			mark = "❌"
		}
		line := fmt.Sprintf("- %s %s", mark, c.Name)
		if len(c.Missing) > 0 {
			line += " (missing: " + strings.Join(c.Missing, ", ") + ")"
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
