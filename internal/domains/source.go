// Package domains provides the insight sources combined into an assembled report.
package domains

import (
	"context"

	"aura-backend/internal/insights"
	"aura-backend/internal/metrics"
	"aura-backend/internal/models"
	"aura-backend/internal/normalize"
	"aura-backend/internal/state"
)

// DomainInsightSource produces the insights and hypotheses of one domain.
// Static sources ignore the frame; it may be nil.
type DomainInsightSource interface {
	Name() string
	Generate(ctx context.Context, df *state.DataFrame) ([]models.Insight, []models.Hypothesis, error)
}

// Defaults returns the built-in sources in registration order
func Defaults() []DomainInsightSource {
	return []DomainInsightSource{DataQuality{}, Product{}, Financial{}, Usage{}}
}

// DataQuality reports on null-rate stability
type DataQuality struct{}

func (DataQuality) Name() string { return "data_quality" }

func (DataQuality) Generate(context.Context, *state.DataFrame) ([]models.Insight, []models.Hypothesis, error) {
	i := models.Insight{
		ID:           "dq-ins-1",
		Domain:       "data_quality",
		Title:        "Null ratio remains stable",
		Summary:      "Share of NULLs in key columns < 0.5% WoW.",
		Confidence:   0.8,
		Impact:       "Trust in downstream analytics sustained.",
		Measurements: []models.Measurement{{Name: "null_rate_pct", Value: 0.4, Unit: "%"}},
		Figures:      []models.Figure{{Caption: "NULL rate trend", Path: "figs/null_rate.png"}},
		Methodology:  "Daily null scan across fact tables",
		Evidence:     "sql/check_nulls.sql",
	}
	h := models.Hypothesis{
		ID:         "dq-hyp-1",
		Title:      "Introduce stricter ingestion checks",
		Problem:    "Prevent anomalies in upstream ingestion",
		Domain:     "data_quality",
		Metrics:    []models.HypothesisMetric{{Name: "alerts_count", Method: "count"}},
		Complexity: models.Complexity{DevWeeks: 1},
		Summary:    "Enable column-level constraints on raw layer.",
	}
	return []models.Insight{i}, []models.Hypothesis{h}, nil
}

// Product reports on activation
type Product struct{}

func (Product) Name() string { return "product" }

func (Product) Generate(context.Context, *state.DataFrame) ([]models.Insight, []models.Hypothesis, error) {
	i := models.Insight{
		ID:           "prd-ins-1",
		Domain:       "product",
		Title:        "Activation rate improved",
		Summary:      "Activation +3.2pp WoW after new onboarding.",
		Confidence:   0.7,
		Impact:       "Improved early retention expected.",
		Measurements: []models.Measurement{{Name: "activation_delta_pp", Value: 3.2, Unit: "pp"}},
		Figures:      []models.Figure{{Caption: "Activation trend", Path: "figs/activation.png"}},
		Methodology:  "Cohort activation D7",
		Evidence:     "sql/activation.sql",
	}
	h := models.Hypothesis{
		ID:         "prd-hyp-1",
		Title:      "Personalize step 2 CTA",
		Problem:    "Reduce drop at step 2",
		Domain:     "product",
		Metrics:    []models.HypothesisMetric{{Name: "step2_ctr", Method: "rate"}},
		Complexity: models.Complexity{DevWeeks: 2},
		Summary:    "A/B test context CTA on step 2.",
	}
	return []models.Insight{i}, []models.Hypothesis{h}, nil
}

// Financial reports on revenue per paying user
type Financial struct{}

func (Financial) Name() string { return "financial" }

func (Financial) Generate(context.Context, *state.DataFrame) ([]models.Insight, []models.Hypothesis, error) {
	i := models.Insight{
		ID:           "fin-ins-1",
		Domain:       "financial",
		Title:        "ARPPU +5% WoW",
		Summary:      "Gross ARPPU increased; mix shift to high tiers.",
		Confidence:   0.6,
		Impact:       "Potential monthly revenue +2-3%.",
		Measurements: []models.Measurement{{Name: "arppu_delta_pct", Value: 5, Unit: "%"}},
		Figures:      []models.Figure{{Caption: "ARPPU trend", Path: "figs/arppu.png"}},
		Methodology:  "Week-over-week",
		Evidence:     "sql/arppu_wow.sql",
	}
	h := models.Hypothesis{
		ID:         "fin-hyp-1",
		Title:      "Price ladder test",
		Problem:    "Capture higher WTP segments",
		Domain:     "financial",
		Metrics:    []models.HypothesisMetric{{Name: "gross_revenue", Method: "sum"}},
		Complexity: models.Complexity{DevWeeks: 2},
		Summary:    "Run multivariate price ladder on top SKUs.",
	}
	return []models.Insight{i}, []models.Hypothesis{h}, nil
}

// Usage runs the metric rules over the session dataset. It contributes
// nothing when there is no dataset.
type Usage struct{}

func (Usage) Name() string { return "usage" }

func (Usage) Generate(ctx context.Context, df *state.DataFrame) ([]models.Insight, []models.Hypothesis, error) {
	if df.Len() == 0 {
		return nil, nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ms := metrics.Compute(df, normalize.Infer(df))
	return insights.Derive(df, ms), nil, nil
}
