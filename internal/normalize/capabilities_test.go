package normalize

import (
	"testing"

	"aura-backend/internal/state"

	"github.com/stretchr/testify/assert"
)

func TestInfer(t *testing.T) {
	df := &state.DataFrame{Headers: []string{"user_id", "cws", "timestamp", "duration_min"}}
	c := Infer(df)

	assert.True(t, c.Has(HasUserID))
	assert.True(t, c.Has(HasCWS|HasTimestamp))
	assert.False(t, c.Has(HasAIUsed))
	assert.False(t, c.Has(HasUserID|HasProvisioned))
	assert.Equal(t, []string{"user_id", "cws", "timestamp", "duration_min"}, c.Names())
	assert.Equal(t, "user_id|cws|timestamp|duration_min", c.String())
}

func TestInfer_Empty(t *testing.T) {
	assert.Equal(t, Capabilities(0), Infer(nil))
	assert.Equal(t, "none", Infer(&state.DataFrame{}).String())
	assert.Empty(t, Capabilities(0).Names())
}
