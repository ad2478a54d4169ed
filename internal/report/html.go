package report

import (
	"bytes"
	"fmt"
	"html/template"

	"aura-backend/internal/models"
)

var funcs = template.FuncMap{
	"value": FormatValue,
	"pct":   func(f float64) string { return fmt.Sprintf("%.1f%%", f*100) },
}

var reportTmpl = template.Must(template.New("report").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
.missing { color: #999; }
.insight { border-left: 3px solid #4a7; padding-left: 1em; margin-bottom: 1.5em; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{with .ExecutiveSummary}}<p>{{.}}</p>{{end}}
{{if .Metrics}}
<h2>Metrics</h2>
<table>
<tr><th>key</th><th>value</th><th>description</th></tr>
{{range .Metrics}}<tr{{if not .Computed}} class="missing"{{end}}><td>{{.Key}}</td><td>{{value .Value}}</td><td>{{.Description}}</td></tr>
{{end}}</table>
{{end}}
<h2>Insights</h2>
{{range .Insights}}<div class="insight">
<h3>{{.Title}} <small>({{.ID}})</small></h3>
<ul>
{{with .Hypothesis}}<li>Hypothesis: {{.}}</li>{{end}}
{{with .Problem}}<li>Problem: {{.}}</li>{{end}}
<li>Impact: {{.Impact}}</li>
<li>Domain: {{.Domain}}</li>
<li>Confidence: {{.Confidence}}</li>
{{with .Priority}}<li>Priority: {{.}}</li>{{end}}
<li>Summary: {{.Summary}}</li>
{{with .ConsequenceIfIgnored}}<li>Consequence if ignored: {{.}}</li>{{end}}
</ul>
</div>
{{else}}<p><em>No insights produced for current dataset.</em></p>
{{end}}
{{if .Hypotheses}}
<h2>Hypotheses</h2>
{{range .Hypotheses}}<div class="insight">
<h3>{{.Title}} <small>({{.ID}})</small></h3>
<ul>
<li>Problem: {{.Problem}}</li>
<li>Domain: {{.Domain}}</li>
<li>Complexity: {{.Complexity.DevWeeks}} dev week(s)</li>
<li>Summary: {{.Summary}}</li>
</ul>
</div>
{{end}}
{{end}}
{{if .Profile}}
<h2>Column profile</h2>
<table>
<tr><th>column</th><th>kind</th><th>non-null</th><th>null rate</th><th>distinct</th><th>entropy</th><th>key</th></tr>
{{range .Profile}}<tr><td>{{.Name}}</td><td>{{.Kind}}</td><td>{{.NonNullRows}}</td><td>{{pct .NullRate}}</td><td>{{.DistinctCount}}</td><td>{{.Entropy}}</td><td>{{if .IsLikelyKey}}yes{{end}}</td></tr>
{{end}}</table>
{{end}}
{{with .ValidatorScorecard}}
<h2>Validation</h2>
<p>Passed: {{.Passed}}</p>
{{end}}
</body>
</html>
`))

// HTML renders a report as a standalone HTML page
func HTML(r *models.Report) (string, error) {
	data := *r
	if data.Title == "" {
		data.Title = Title
	}
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}
