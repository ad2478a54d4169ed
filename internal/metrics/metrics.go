// Package metrics computes the fixed descriptive metric set over a
// normalized session dataset.
package metrics

import (
	"fmt"
	"math"

	"aura-backend/internal/models"
	"aura-backend/internal/normalize"
	"aura-backend/internal/state"
)

// Metric keys, in output order
const (
	KeyAS     = "AS"
	KeyARp    = "ARp"
	KeyAIcov  = "AIcov"
	KeyCWS    = "CWS"
	KeyProvOK = "ProvOK"
)

// ContractVersion identifies the metric contract served by /analyze
const ContractVersion = "1.0"

// AdoptionSessions is the session count from which a user counts as adopted
const AdoptionSessions = 3

type definition struct {
	key      string
	requires string
	rounding string
	cap      normalize.Capabilities
	desc     string
	// descMissing is reported when the required column is absent
	descMissing string
	compute     func(df *state.DataFrame) float64
}

var definitions = []definition{
	{
		key: KeyAS, requires: normalize.ColUserID, rounding: "integer", cap: normalize.HasUserID,
		desc: "Active seats (unique users)", descMissing: "Active seats (unique users)",
		compute: activeSeats,
	},
	{
		key: KeyARp, requires: normalize.ColUserID, rounding: "3 decimals", cap: normalize.HasUserID,
		desc: "Adoption rate (proxy: users with ≥3 sessions)", descMissing: "Adoption rate (proxy)",
		compute: func(df *state.DataFrame) float64 { return round3(adoptionRate(df)) },
	},
	{
		key: KeyAIcov, requires: normalize.ColAIUsed, rounding: "3 decimals", cap: normalize.HasAIUsed,
		desc: "Share of sessions with AI usage", descMissing: "Share of sessions with AI usage",
		compute: func(df *state.DataFrame) float64 { return round3(trueShare(df, normalize.ColAIUsed)) },
	},
	{
		key: KeyCWS, requires: normalize.ColCWS, rounding: "integer", cap: normalize.HasCWS,
		desc: "Count of collaboration (Code With Me) sessions", descMissing: "Count of collaboration sessions",
		compute: func(df *state.DataFrame) float64 { return float64(trueCount(df, normalize.ColCWS)) },
	},
	{
		key: KeyProvOK, requires: normalize.ColProvisioned, rounding: "3 decimals", cap: normalize.HasProvisioned,
		desc: "Provisioning success rate", descMissing: "Provisioning success rate",
		compute: func(df *state.DataFrame) float64 { return round3(trueShare(df, normalize.ColProvisioned)) },
	},
}

// Compute returns the five metrics in fixed order. A metric whose required
// column is missing is listed with a nil value and Computed false.
func Compute(df *state.DataFrame, caps normalize.Capabilities) []models.Metric {
	out := make([]models.Metric, 0, len(definitions))
	for _, d := range definitions {
		if !caps.Has(d.cap) {
			out = append(out, models.Metric{Key: d.key, Description: d.descMissing})
			continue
		}
		v := d.compute(df)
		out = append(out, models.Metric{Key: d.key, Value: &v, Description: d.desc, Computed: true})
	}
	return out
}

// Contract describes the metric set: which column each key needs and how it is rounded
func Contract() models.MetricsContract {
	c := models.MetricsContract{Version: ContractVersion}
	for _, d := range definitions {
		c.Metrics = append(c.Metrics, models.MetricRequirement{Key: d.key, Requires: d.requires, Rounding: d.rounding})
	}
	return c
}

// Index maps metric keys to metrics
type Index map[string]models.Metric

// Lookup builds an Index over a metric list
func Lookup(ms []models.Metric) Index {
	idx := make(Index, len(ms))
	for _, m := range ms {
		idx[m.Key] = m
	}
	return idx
}

// Value returns the computed value of key, false if it is absent or not computed
func (idx Index) Value(key string) (float64, bool) {
	m, ok := idx[key]
	if !ok || !m.Computed || m.Value == nil {
		return 0, false
	}
	return *m.Value, true
}

func activeSeats(df *state.DataFrame) float64 {
	return float64(len(sessionsPerUser(df)))
}

func adoptionRate(df *state.DataFrame) float64 {
	perUser := sessionsPerUser(df)
	if len(perUser) == 0 {
		return 0
	}
	adopted := 0
	for _, n := range perUser {
		if n >= AdoptionSessions {
			adopted++
		}
	}
	return float64(adopted) / float64(len(perUser))
}

// sessionsPerUser counts rows per non-null user id
func sessionsPerUser(df *state.DataFrame) map[string]int {
	counts := make(map[string]int)
	for _, row := range df.Rows {
		id := row[normalize.ColUserID]
		if id == nil {
			continue
		}
		if f, ok := id.(float64); ok && math.IsNaN(f) {
			continue
		}
		counts[userKey(id)]++
	}
	return counts
}

// userKey keeps values of different types distinct
func userKey(v any) string {
	return fmt.Sprintf("%T:%v", v, v)
}

func trueCount(df *state.DataFrame, col string) int {
	n := 0
	for _, row := range df.Rows {
		if b, _ := row[col].(bool); b {
			n++
		}
	}
	return n
}

// trueShare is the mean of a bool column over all rows, 0 when empty
func trueShare(df *state.DataFrame, col string) float64 {
	if df.Len() == 0 {
		return 0
	}
	return float64(trueCount(df, col)) / float64(df.Len())
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
