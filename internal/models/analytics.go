package models

// Metric is a single named descriptive metric computed from a dataset.
// Value is nil whenever Computed is false.
type Metric struct {
	Key         string   `json:"key"`
	Value       *float64 `json:"value"`
	Description string   `json:"description"`
	Computed    bool     `json:"computed"`
}

// Measurement is a named value attached to a domain insight
type Measurement struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// Figure points at a chart asset referenced by an insight
type Figure struct {
	Caption string `json:"caption"`
	Path    string `json:"path"`
}

// Insight is a structured finding produced by a rule or a domain source.
// The required fields (id, domain, title, summary, confidence, impact) are
// never tagged omitempty so the validator can see them empty.
type Insight struct {
	ID                   string   `json:"id"`
	Title                string   `json:"title"`
	Hypothesis           string   `json:"hypothesis,omitempty"`
	Problem              string   `json:"problem,omitempty"`
	Impact               string   `json:"impact"`
	Stakeholders         []string `json:"stakeholders,omitempty"`
	Domain               string   `json:"domain"`
	DataFields           []string `json:"data_fields,omitempty"`
	Confidence           float64  `json:"confidence"`
	Metrics              []string `json:"metrics,omitempty"`
	Complexity           string   `json:"complexity,omitempty"`
	Risks                []string `json:"risks,omitempty"`
	Priority             string   `json:"priority,omitempty"`
	Summary              string   `json:"summary"`
	Teams                []string `json:"teams,omitempty"`
	ConsequenceIfIgnored string   `json:"consequence_if_ignored,omitempty"`
	Comments             string   `json:"comments,omitempty"`

	Measurements []Measurement `json:"measurements,omitempty"`
	Figures      []Figure      `json:"figures,omitempty"`
	Methodology  string        `json:"methodology,omitempty"`
	Evidence     string        `json:"evidence,omitempty"`
}

// HypothesisMetric names a metric and how it is measured
type HypothesisMetric struct {
	Name   string `json:"name"`
	Method string `json:"method"`
}

// Complexity is the delivery estimate of a hypothesis
type Complexity struct {
	DevWeeks int `json:"dev_weeks"`
}

// Hypothesis is a testable proposal produced by a domain source
type Hypothesis struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Problem    string             `json:"problem"`
	Domain     string             `json:"domain"`
	Metrics    []HypothesisMetric `json:"metrics"`
	Complexity Complexity         `json:"complexity"`
	Summary    string             `json:"summary"`
}

// Check is one line of a validator scorecard
type Check struct {
	Name    string   `json:"name"`
	OK      bool     `json:"ok"`
	Missing []string `json:"missing,omitzero"`
}

// Scorecard is the validator verdict for a report document
type Scorecard struct {
	Checks []Check `json:"checks"`
	Passed bool    `json:"passed"`
}

// ColumnProfile summarizes one column of a dataset
type ColumnProfile struct {
	Name            string        `json:"name"`
	Kind            string        `json:"kind"`
	TotalRows       int           `json:"total_rows"`
	NonNullRows     int           `json:"non_null_rows"`
	NullRate        float64       `json:"null_rate"`
	DistinctCount   int           `json:"distinct_count"`
	UniquenessRatio float64       `json:"uniqueness_ratio"`
	Entropy         float64       `json:"entropy"`
	IsLikelyKey     bool          `json:"is_likely_key"`
	Stats           *NumericStats `json:"stats,omitempty"`
}

// NumericStats summarizes the values of a numeric column
type NumericStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Report is the assembled document served by /api/run and rendered by /report
type Report struct {
	ID                 string          `json:"id"`
	Title              string          `json:"-"`
	ExecutiveSummary   string          `json:"executive_summary"`
	Metrics            []Metric        `json:"metrics,omitempty"`
	Profile            []ColumnProfile `json:"profile,omitempty"`
	Insights           []Insight       `json:"insights"`
	Hypotheses         []Hypothesis    `json:"hypotheses"`
	Appendix           string          `json:"appendix"`
	ValidatorScorecard *Scorecard      `json:"validator_scorecard,omitempty"`
}
