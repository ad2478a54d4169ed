package normalize

import (
	"strings"

	"aura-backend/internal/state"
)

// Capabilities records which optional columns a normalized frame carries.
// Metrics and rules consult it instead of probing columns ad hoc.
type Capabilities uint8

const (
	HasUserID Capabilities = 1 << iota
	HasAIUsed
	HasCWS
	HasProvisioned
	HasTimestamp
	HasDuration
)

var capabilityNames = []struct {
	cap  Capabilities
	name string
}{
	{HasUserID, "user_id"},
	{HasAIUsed, "ai_used"},
	{HasCWS, "cws"},
	{HasProvisioned, "provisioned"},
	{HasTimestamp, "timestamp"},
	{HasDuration, "duration_min"},
}

// Infer derives the capability set of a normalized frame
func Infer(df *state.DataFrame) Capabilities {
	var c Capabilities
	if df.HasColumn(ColUserID) {
		c |= HasUserID
	}
	if df.HasColumn(ColAIUsed) {
		c |= HasAIUsed
	}
	if df.HasColumn(ColCWS) {
		c |= HasCWS
	}
	if df.HasColumn(ColProvisioned) {
		c |= HasProvisioned
	}
	if df != nil && TimestampColumn(df) != "" {
		c |= HasTimestamp
	}
	if df.HasColumn(ColDuration) {
		c |= HasDuration
	}
	return c
}

// Has reports whether every flag in f is set
func (c Capabilities) Has(f Capabilities) bool { return c&f == f }

// Names lists the set flags in declaration order
func (c Capabilities) Names() []string {
	names := []string{}
	for _, cn := range capabilityNames {
		if c.Has(cn.cap) {
			names = append(names, cn.name)
		}
	}
	return names
}

func (c Capabilities) String() string {
	if c == 0 {
		return "none"
	}
	return strings.Join(c.Names(), "|")
}
