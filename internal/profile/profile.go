package profile

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"aura-backend/internal/models"
	"aura-backend/internal/state"
)

// Column kinds
const (
	KindEmpty    = "empty"
	KindBool     = "bool"
	KindNumeric  = "numeric"
	KindDatetime = "datetime"
	KindText     = "text"
)

// Likely-key thresholds: high uniqueness and few nulls
const (
	keyUniqueness = 0.95
	keyNullRate   = 0.05
)

// Columns profiles every column of a normalized frame, in header order
func Columns(df *state.DataFrame) []models.ColumnProfile {
	if df == nil {
		return []models.ColumnProfile{}
	}
	profiles := make([]models.ColumnProfile, len(df.Headers))
	for i, name := range df.Headers {
		profiles[i] = Column(df, name)
	}
	return profiles
}

// Column analyzes quality metrics for a single column
func Column(df *state.DataFrame, name string) models.ColumnProfile {
	p := models.ColumnProfile{
		Name:      name,
		TotalRows: df.Len(),
	}

	counts := make(map[string]int)
	kinds := make(map[string]bool)
	var numbers []float64
	for _, row := range df.Rows {
		v, ok := row[name]
		if !ok || isNull(v) {
			continue
		}
		p.NonNullRows++
		counts[key(v)]++
		kinds[kindOf(v)] = true
		if f, ok := number(v); ok {
			numbers = append(numbers, f)
		}
	}
	p.DistinctCount = len(counts)
	p.Kind = mergeKinds(kinds)

	if p.TotalRows > 0 {
		p.NullRate = round3(float64(p.TotalRows-p.NonNullRows) / float64(p.TotalRows))
	}
	if p.NonNullRows > 0 {
		p.UniquenessRatio = round3(float64(p.DistinctCount) / float64(p.NonNullRows))
	}
	p.Entropy = round3(entropy(counts, p.NonNullRows))
	p.IsLikelyKey = p.NonNullRows > 1 && p.UniquenessRatio > keyUniqueness && p.NullRate < keyNullRate
	if p.Kind == KindNumeric {
		p.Stats = Stats(numbers)
	}
	return p
}

// Stats computes min, max, mean and median. It returns nil for no values.
func Stats(values []float64) *models.NumericStats {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return &models.NumericStats{
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   round3(sum / float64(n)),
		Median: median,
	}
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

func isNull(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(t)
		return s == "" || s == "null" || s == "NULL" || s == "None"
	}
	return false
}

func key(v any) string {
	if ts, ok := v.(time.Time); ok {
		return ts.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}

func kindOf(v any) string {
	switch t := v.(type) {
	case bool:
		return KindBool
	case float64, int, int64:
		return KindNumeric
	case time.Time:
		return KindDatetime
	case string:
		if _, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return KindNumeric
		}
	}
	return KindText
}

func mergeKinds(kinds map[string]bool) string {
	switch len(kinds) {
	case 0:
		return KindEmpty
	case 1:
		for k := range kinds {
			return k
		}
	}
	return KindText
}

// entropy computes Shannon entropy in bits
func entropy(counts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	e := 0.0
	for _, c := range counts {
		if c > 0 {
			p := float64(c) / float64(total)
			e -= p * math.Log2(p)
		}
	}
	return e
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
