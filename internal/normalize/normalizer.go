package normalize

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"aura-backend/internal/logging"
	"aura-backend/internal/models"
	"aura-backend/internal/state"
)

// Column names the pipeline understands after normalization
const (
	ColUserID      = "user_id"
	ColAIUsed      = "ai_used"
	ColCWS         = "cws"
	ColProvisioned = "provisioned"
	ColDuration    = "duration_min"
	ColStartedAt   = "started_at"
)

// TimestampCandidates is searched in order; only the first present column is parsed
var TimestampCandidates = []string{"started_at", "start_time", "timestamp", "ts", "date"}

// BoolColumns are coerced to bool when present
var BoolColumns = []string{ColAIUsed, ColCWS, ColProvisioned}

var truthy = map[string]bool{"1": true, "true": true, "yes": true, "y": true, "t": true}

// maxSamples bounds the coercion failures kept verbatim in a report
const maxSamples = 20

// Normalizer cleans raw datasets into the typed form the metrics expect
type Normalizer struct {
	dateFormats []string
	log         *slog.Logger
}

// NewNormalizer creates a normalizer with the default timestamp layouts
func NewNormalizer() *Normalizer {
	return &Normalizer{
		dateFormats: []string{
			time.RFC3339,                // 2024-01-15T10:00:00Z
			time.RFC3339Nano,            // with fractional seconds
			"2006-01-02 15:04:05Z07:00", // tz-aware: 2024-01-15 10:00:00+02:00
			"2006-01-02 15:04:05",       // SQL datetime
			"2006-01-02T15:04:05",       // ISO without zone
			"2006-01-02 15:04",          // minute precision
			"2006-01-02",                // ISO: 2024-01-15
			"01/02/2006",                // US: 01/15/2024
			"2006/01/02",                // Alt ISO
			"02-Jan-2006",               // Text: 15-Jan-2024
			"January 2, 2006",           // Full text
		},
		log: logging.New("normalize"),
	}
}

// Normalize returns a new DataFrame with folded column names and coerced
// timestamp, boolean and duration columns. The input is not modified.
// Cells that cannot be coerced become nil and are listed in the report.
func (n *Normalizer) Normalize(df *state.DataFrame) (*state.DataFrame, CoercionReport) {
	report := CoercionReport{ByColumn: map[string]int{}}
	if df == nil {
		return &state.DataFrame{Rows: []state.Row{}}, report
	}

	headers, rename := foldHeaders(df.Headers)
	out := &state.DataFrame{
		Headers: headers,
		Rows:    make([]state.Row, len(df.Rows)),
		Source:  df.Source,
	}
	for i, raw := range df.Rows {
		row := make(state.Row, len(headers))
		for _, h := range headers {
			row[h] = nil
		}
		for _, orig := range df.Headers {
			row[rename[orig]] = raw[orig]
		}
		out.Rows[i] = row
	}

	if col := TimestampColumn(out); col != "" {
		for i, row := range out.Rows {
			v := row[col]
			if v == nil {
				continue
			}
			ts, ok := n.ParseTimestamp(v)
			if !ok {
				row[col] = nil
				report.record(RowCoercionError{Row: i, Column: col, Value: fmt.Sprint(v), Reason: "unparseable timestamp"})
				continue
			}
			row[col] = ts
		}
	}

	for _, col := range BoolColumns {
		if !out.HasColumn(col) {
			continue
		}
		for _, row := range out.Rows {
			row[col] = ParseBool(row[col])
		}
	}

	if out.HasColumn(ColDuration) {
		for i, row := range out.Rows {
			v := row[ColDuration]
			if v == nil {
				continue
			}
			f, ok := ParseNumber(v)
			if !ok {
				row[ColDuration] = nil
				report.record(RowCoercionError{Row: i, Column: ColDuration, Value: fmt.Sprint(v), Reason: "not a number"})
				continue
			}
			row[ColDuration] = f
		}
	}

	if report.Count > 0 {
		n.log.Debug("absorbed cell coercion failures", "source", out.Source, "count", report.Count, "by_column", report.ByColumn)
	}
	return out, report
}

// foldHeaders trims and lowercases names. Colliding names keep the position
// of their first occurrence.
func foldHeaders(raw []string) ([]string, map[string]string) {
	rename := make(map[string]string, len(raw))
	seen := make(map[string]bool, len(raw))
	headers := make([]string, 0, len(raw))
	for _, h := range raw {
		folded := strings.ToLower(strings.TrimSpace(h))
		rename[h] = folded
		if !seen[folded] {
			seen[folded] = true
			headers = append(headers, folded)
		}
	}
	return headers, rename
}

// TimestampColumn returns the first timestamp candidate present in the frame
func TimestampColumn(df *state.DataFrame) string {
	for _, c := range TimestampCandidates {
		if df.HasColumn(c) {
			return c
		}
	}
	return ""
}

// ParseTimestamp accepts time.Time values and strings in any known layout
func (n *Normalizer) ParseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		for _, format := range n.dateFormats {
			if ts, err := time.Parse(format, s); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// ParseBool reports whether the lowercased text form of the value is one of
// 1/true/yes/y/t. Surrounding whitespace is not trimmed, so " yes" is false.
// nil is false.
func ParseBool(v any) bool {
	var s string
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}
	return truthy[strings.ToLower(s)]
}

// ParseNumber converts numeric-looking values to float64. NaN and Inf are rejected.
func ParseNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// RowCoercionError describes a single cell that was replaced by nil.
// It never fails a request.
type RowCoercionError struct {
	Row    int
	Column string
	Value  string
	Reason string
}

func (e RowCoercionError) Error() string {
	return fmt.Sprintf("row %d column %s: %s (%q)", e.Row, e.Column, e.Reason, e.Value)
}

// CoercionReport counts absorbed failures and keeps the first few verbatim
type CoercionReport struct {
	Count    int
	Samples  []RowCoercionError
	ByColumn map[string]int
}

func (r *CoercionReport) record(e RowCoercionError) {
	r.Count++
	r.ByColumn[e.Column]++
	if len(r.Samples) < maxSamples {
		r.Samples = append(r.Samples, e)
	}
}

// Summary converts the report to its API form
func (r CoercionReport) Summary() models.CoercionSummary {
	s := models.CoercionSummary{Count: r.Count}
	if r.Count == 0 {
		return s
	}
	s.ByCol = r.ByColumn
	for _, e := range r.Samples {
		s.Samples = append(s.Samples, models.CoercionIssue{Row: e.Row, Column: e.Column, Value: e.Value, Reason: e.Reason})
	}
	return s
}
