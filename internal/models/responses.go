package models

// IngestInfo describes the dataset currently held by a session
type IngestInfo struct {
	Rows      int      `json:"rows"`
	Cols      []string `json:"cols"`
	Source    string   `json:"source"`
	SessionID string   `json:"session_id,omitempty"`
	UploadID  string   `json:"upload_id,omitempty"`
}

// IngestResponse is returned by the /ingest endpoints
type IngestResponse struct {
	Status   string     `json:"status"`
	Ingested IngestInfo `json:"ingested"`
}

// MetricRequirement names the column a metric depends on
type MetricRequirement struct {
	Key      string `json:"key"`
	Requires string `json:"requires"`
	Rounding string `json:"rounding"`
}

// MetricsContract describes the fixed metric list served by /analyze
type MetricsContract struct {
	Version string              `json:"version"`
	Metrics []MetricRequirement `json:"metrics"`
}

// CoercionSummary reports how many cells were absorbed as null during normalization
type CoercionSummary struct {
	Count   int             `json:"count"`
	Samples []CoercionIssue `json:"samples,omitempty"`
	ByCol   map[string]int  `json:"by_column,omitempty"`
}

// CoercionIssue is a single absorbed cell failure
type CoercionIssue struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// AnalyzeResponse is returned by /analyze
type AnalyzeResponse struct {
	Status   string          `json:"status"`
	Contract MetricsContract `json:"contract"`
	Metrics  []Metric        `json:"metrics"`
	Ingest   IngestInfo      `json:"ingest"`
	Profile  []ColumnProfile `json:"profile"`
	Coercion CoercionSummary `json:"coercion"`
}

// InsightsResponse is returned by /insights
type InsightsResponse struct {
	Status   string    `json:"status"`
	Count    int       `json:"count"`
	Insights []Insight `json:"insights"`
}

// UsageResponse is returned by /admin/usage
type UsageResponse struct {
	Status string         `json:"status"`
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
}

// DBIngestRequest for /ingest/db. Source names a configured database.
type DBIngestRequest struct {
	Source string `json:"source"`
	Table  string `json:"table"`
	Limit  int    `json:"limit"`
}

// ErrorResponse is the body of every non-2xx JSON reply
type ErrorResponse struct {
	Detail string `json:"detail"`
}
