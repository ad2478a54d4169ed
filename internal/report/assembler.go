// Package report assembles, validates and renders analytics reports.
package report

import (
	"context"
	"fmt"
	"log/slog"

	"aura-backend/internal/domains"
	"aura-backend/internal/insights"
	"aura-backend/internal/logging"
	"aura-backend/internal/metrics"
	"aura-backend/internal/models"
	"aura-backend/internal/normalize"
	"aura-backend/internal/profile"
	"aura-backend/internal/state"
	"aura-backend/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Title heads every rendered report
const Title = "AURA Analytics — Report (MVP)"

// ExecutiveSummary is the summary of the assembled weekly report
const ExecutiveSummary = "Automated weekly report (demo)."

// Assembler combines domain sources into a validated report
type Assembler struct {
	sources []domains.DomainInsightSource
	log     *slog.Logger
	newID   func() string
}

// NewAssembler creates an assembler over the given sources, or the
// built-in ones when none are given
func NewAssembler(sources ...domains.DomainInsightSource) *Assembler {
	if len(sources) == 0 {
		sources = domains.Defaults()
	}
	return &Assembler{
		sources: sources,
		log:     logging.New("report"),
		newID:   func() string { return "rep-" + uuid.NewString() },
	}
}

type sourceResult struct {
	insights   []models.Insight
	hypotheses []models.Hypothesis
}

// Assemble runs every source concurrently and concatenates their output in
// registration order. Any source error fails the whole report.
func (a *Assembler) Assemble(ctx context.Context, df *state.DataFrame) (*models.Report, error) {
	results := make([]sourceResult, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			ins, hyps, err := src.Generate(gctx, df)
			if err != nil {
				return fmt.Errorf("source %s: %w", src.Name(), err)
			}
			results[i] = sourceResult{insights: ins, hypotheses: hyps}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &models.Report{
		ID:               a.newID(),
		Title:            Title,
		ExecutiveSummary: ExecutiveSummary,
		Insights:         []models.Insight{},
		Hypotheses:       []models.Hypothesis{},
	}
	for _, res := range results {
		r.Insights = append(r.Insights, res.insights...)
		r.Hypotheses = append(r.Hypotheses, res.hypotheses...)
	}

	sc := validation.ValidateReport(r)
	r.ValidatorScorecard = &sc
	a.log.Debug("assembled report", "id", r.ID, "sources", len(a.sources),
		"insights", len(r.Insights), "hypotheses", len(r.Hypotheses), "passed", sc.Passed)
	return r, nil
}

// DatasetReport describes one dataset: its metrics, column profile and rule insights
func (a *Assembler) DatasetReport(df *state.DataFrame) *models.Report {
	ms := metrics.Compute(df, normalize.Infer(df))
	return &models.Report{
		ID:               a.newID(),
		Title:            Title,
		ExecutiveSummary: fmt.Sprintf("Dataset %s: %d rows, %d columns.", df.Source, df.Len(), len(df.Headers)),
		Metrics:          ms,
		Profile:          profile.Columns(df),
		Insights:         insights.Derive(df, ms),
		Hypotheses:       []models.Hypothesis{},
	}
}
