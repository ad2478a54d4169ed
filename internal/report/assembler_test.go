package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"aura-backend/internal/domains"
	"aura-backend/internal/models"
	"aura-backend/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowSource struct {
	name  string
	delay time.Duration
	err   error
}

func (s slowSource) Name() string { return s.name }

func (s slowSource) Generate(ctx context.Context, _ *state.DataFrame) ([]models.Insight, []models.Hypothesis, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	if s.err != nil {
		return nil, nil, s.err
	}
	return []models.Insight{{ID: s.name}}, []models.Hypothesis{{ID: s.name + "-h"}}, nil
}

func TestAssemble_NoDataset(t *testing.T) {
	r, err := NewAssembler().Assemble(context.Background(), nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(r.ID, "rep-"))
	assert.Equal(t, ExecutiveSummary, r.ExecutiveSummary)
	assert.GreaterOrEqual(t, len(r.Insights), 2)
	assert.GreaterOrEqual(t, len(r.Hypotheses), 1)
	assert.Equal(t, "dq-ins-1", r.Insights[0].ID)
	assert.Equal(t, "fin-hyp-1", r.Hypotheses[2].ID)

	require.NotNil(t, r.ValidatorScorecard)
	assert.True(t, r.ValidatorScorecard.Passed)
}

func TestAssemble_IncludesUsageInsights(t *testing.T) {
	df := &state.DataFrame{
		Headers: []string{"user_id", "ai_used"},
		Rows:    []state.Row{{"user_id": "u1", "ai_used": false}},
	}
	r, err := NewAssembler().Assemble(context.Background(), df)
	require.NoError(t, err)
	require.Len(t, r.Insights, 4)
	assert.Equal(t, "ai-low-coverage", r.Insights[3].ID)
	assert.True(t, r.ValidatorScorecard.Passed)
}

func TestAssemble_KeepsRegistrationOrder(t *testing.T) {
	a := NewAssembler(
		slowSource{name: "first", delay: 30 * time.Millisecond},
		slowSource{name: "second"},
		slowSource{name: "third", delay: 10 * time.Millisecond},
	)
	r, err := a.Assemble(context.Background(), nil)
	require.NoError(t, err)

	var got []string
	for _, i := range r.Insights {
		got = append(got, i.ID)
	}
	assert.Equal(t, []string{"first", "second", "third"}, got)
	assert.Equal(t, "third-h", r.Hypotheses[2].ID)
}

func TestAssemble_SourceErrorFails(t *testing.T) {
	boom := errors.New("boom")
	a := NewAssembler(domains.DataQuality{}, slowSource{name: "broken", err: boom})

	_, err := a.Assemble(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
}

func TestAssemble_FailsValidationWithoutHypotheses(t *testing.T) {
	r, err := NewAssembler(domains.Usage{}).Assemble(context.Background(), &state.DataFrame{
		Headers: []string{"cws"},
		Rows:    []state.Row{{"cws": false}},
	})
	require.NoError(t, err)
	assert.False(t, r.ValidatorScorecard.Passed)
}

func TestDatasetReport(t *testing.T) {
	df := &state.DataFrame{
		Headers: []string{"user_id", "provisioned"},
		Rows:    []state.Row{{"user_id": "u1", "provisioned": false}},
		Source:  "ide.csv",
	}
	r := NewAssembler().DatasetReport(df)

	assert.Len(t, r.Metrics, 5)
	assert.Len(t, r.Profile, 2)
	require.Len(t, r.Insights, 1)
	assert.Equal(t, "provisioning-issues", r.Insights[0].ID)
	assert.Contains(t, r.ExecutiveSummary, "ide.csv")
	assert.Nil(t, r.ValidatorScorecard)
}
