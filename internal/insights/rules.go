// Package insights turns computed metrics into rule-based findings.
package insights

import (
	"math"

	"aura-backend/internal/metrics"
	"aura-backend/internal/models"
	"aura-backend/internal/normalize"
	"aura-backend/internal/state"
)

// Thresholds
const (
	LowAICoverage     = 0.20
	ProvisioningFloor = 0.95
)

// Rule is a single threshold check over the metric set
type Rule interface {
	ID() string
	Match(idx metrics.Index) bool
	Build(df *state.DataFrame) models.Insight
}

// Rules returns the rule sequence in evaluation order
func Rules() []Rule {
	return []Rule{lowAICoverage{}, provisioningIssues{}, collabMissing{}}
}

// Derive evaluates every rule in order; each fires at most once
func Derive(df *state.DataFrame, ms []models.Metric) []models.Insight {
	idx := metrics.Lookup(ms)
	out := []models.Insight{}
	for _, r := range Rules() {
		if r.Match(idx) {
			out = append(out, r.Build(df))
		}
	}
	return out
}

type lowAICoverage struct{}

func (lowAICoverage) ID() string { return "ai-low-coverage" }

func (lowAICoverage) Match(idx metrics.Index) bool {
	v, ok := idx.Value(metrics.KeyAIcov)
	return ok && v < LowAICoverage
}

func (r lowAICoverage) Build(df *state.DataFrame) models.Insight {
	return models.Insight{
		ID:                   r.ID(),
		Title:                "Low AI feature coverage",
		Hypothesis:           "AI features are underused across teams",
		Problem:              "Potential productivity uplift from AI assistance is not realized",
		Impact:               "Reduced dev throughput; slower code reviews; longer time-to-ship",
		Stakeholders:         []string{"DPE Manager", "Team Leads", "Developers"},
		Domain:               "developer_productivity",
		DataFields:           dataFields(df, normalize.ColAIUsed),
		Confidence:           CoverageConfidence(df.Len()),
		Metrics:              []string{metrics.KeyAIcov, metrics.KeyARp},
		Complexity:           "Medium",
		Risks:                []string{"Over-attributing value to AI", "Privacy concerns if tracking too granular"},
		Priority:             "High",
		Summary:              "AI usage < 20%; consider enablement, prompts, or policy to drive adoption.",
		Teams:                []string{"Platform/DevEx", "Security/Compliance (policy)"},
		ConsequenceIfIgnored: "AI ROI remains unrealized; org falls behind peers",
	}
}

// CoverageConfidence grows with the row count and saturates between 0.4 and 0.9
func CoverageConfidence(rows int) float64 {
	c := math.Max(0.4, math.Min(0.9, float64(rows)/1000.0))
	return math.Round(c*100) / 100
}

type provisioningIssues struct{}

func (provisioningIssues) ID() string { return "provisioning-issues" }

func (provisioningIssues) Match(idx metrics.Index) bool {
	v, ok := idx.Value(metrics.KeyProvOK)
	return ok && v < ProvisioningFloor
}

func (r provisioningIssues) Build(df *state.DataFrame) models.Insight {
	return models.Insight{
		ID:                   r.ID(),
		Title:                "Provisioning success below target",
		Hypothesis:           "Provisioning errors block usage and adoption",
		Problem:              "Users cannot start sessions reliably",
		Impact:               "Lower adoption & satisfaction; more support load",
		Stakeholders:         []string{"Platform Ops", "IT"},
		Domain:               "platform_reliability",
		DataFields:           dataFields(df, normalize.ColProvisioned),
		Confidence:           0.7,
		Metrics:              []string{metrics.KeyProvOK, metrics.KeyARp},
		Complexity:           "Low",
		Risks:                []string{"Misclassification of transient errors"},
		Priority:             "High",
		Summary:              "Provisioning success rate < 95%; investigate error sources and retry policies.",
		Teams:                []string{"Platform Ops", "SRE"},
		ConsequenceIfIgnored: "Adoption stalls; reputational risk",
	}
}

type collabMissing struct{}

func (collabMissing) ID() string { return "collab-missing" }

func (collabMissing) Match(idx metrics.Index) bool {
	v, ok := idx.Value(metrics.KeyCWS)
	return ok && v == 0
}

func (r collabMissing) Build(df *state.DataFrame) models.Insight {
	return models.Insight{
		ID:                   r.ID(),
		Title:                "Collaboration sessions not observed",
		Hypothesis:           "Teams are not using collaboration features",
		Problem:              "Missed opportunities for pair reviews/mentoring",
		Impact:               "Slower onboarding; knowledge silos",
		Stakeholders:         []string{"Team Leads", "Developers"},
		Domain:               "continuous_learning",
		DataFields:           dataFields(df, normalize.ColCWS),
		Confidence:           0.6,
		Metrics:              []string{metrics.KeyCWS, metrics.KeyARp},
		Complexity:           "Low",
		Risks:                []string{"CWS not instrumented in dataset"},
		Priority:             "Medium",
		Summary:              "No collaboration sessions recorded; consider enablement and docs.",
		Teams:                []string{"DevEx", "Developer Education"},
		ConsequenceIfIgnored: "Slower ramp-up; lower code quality",
	}
}

// dataFields lists, in frame order, the frame columns among the rule
// column, user_id and started_at
func dataFields(df *state.DataFrame, col string) []string {
	fields := []string{}
	if df == nil {
		return fields
	}
	for _, h := range df.Headers {
		if h == col || h == normalize.ColUserID || h == normalize.ColStartedAt {
			fields = append(fields, h)
		}
	}
	return fields
}
