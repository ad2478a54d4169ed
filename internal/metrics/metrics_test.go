package metrics

import (
	"testing"

	"aura-backend/internal/normalize"
	"aura-backend/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(headers []string, rows ...state.Row) *state.DataFrame {
	return &state.DataFrame{Headers: headers, Rows: rows}
}

func compute(df *state.DataFrame) Index {
	return Lookup(Compute(df, normalize.Infer(df)))
}

func TestCompute_FixedOrder(t *testing.T) {
	ms := Compute(frame(nil), 0)
	require.Len(t, ms, 5)
	var keys []string
	for _, m := range ms {
		keys = append(keys, m.Key)
		assert.False(t, m.Computed)
		assert.Nil(t, m.Value)
	}
	assert.Equal(t, []string{KeyAS, KeyARp, KeyAIcov, KeyCWS, KeyProvOK}, keys)
}

func TestCompute_AllColumns(t *testing.T) {
	df := frame([]string{"user_id", "ai_used", "cws", "provisioned"},
		state.Row{"user_id": "u1", "ai_used": true, "cws": false, "provisioned": true},
		state.Row{"user_id": "u1", "ai_used": false, "cws": true, "provisioned": true},
		state.Row{"user_id": "u1", "ai_used": false, "cws": false, "provisioned": false},
		state.Row{"user_id": "u2", "ai_used": false, "cws": true, "provisioned": true},
		state.Row{"user_id": nil, "ai_used": false, "cws": false, "provisioned": true},
		state.Row{"user_id": "u3", "ai_used": false, "cws": false, "provisioned": true},
	)
	idx := compute(df)

	v, ok := idx.Value(KeyAS)
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	v, _ = idx.Value(KeyARp)
	assert.Equal(t, 0.333, v)

	v, _ = idx.Value(KeyAIcov)
	assert.Equal(t, 0.167, v)

	v, _ = idx.Value(KeyCWS)
	assert.Equal(t, 2.0, v)

	v, _ = idx.Value(KeyProvOK)
	assert.Equal(t, 0.833, v)

	assert.Equal(t, "Adoption rate (proxy: users with ≥3 sessions)", idx[KeyARp].Description)
}

func TestCompute_ASRequiresUserID(t *testing.T) {
	idx := compute(frame([]string{"ai_used"}, state.Row{"ai_used": true}))

	_, ok := idx.Value(KeyAS)
	assert.False(t, ok)
	assert.False(t, idx[KeyAS].Computed)
	assert.Nil(t, idx[KeyAS].Value)
	assert.Equal(t, "Adoption rate (proxy)", idx[KeyARp].Description)

	v, ok := idx.Value(KeyAIcov)
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestCompute_AIcovIsRoundedShare(t *testing.T) {
	for n := 1; n <= 12; n++ {
		df := frame([]string{"ai_used"})
		for i := 0; i < n; i++ {
			df.Rows = append(df.Rows, state.Row{"ai_used": i%3 == 0})
		}
		v, ok := compute(df).Value(KeyAIcov)
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		assert.Equal(t, round3(float64((n+2)/3)/float64(n)), v, "n=%d", n)
	}
}

func TestCompute_EmptyFrameWithColumns(t *testing.T) {
	idx := compute(frame([]string{"user_id", "ai_used", "provisioned"}))

	v, ok := idx.Value(KeyAS)
	require.True(t, ok)
	assert.Zero(t, v)

	v, ok = idx.Value(KeyARp)
	require.True(t, ok)
	assert.Zero(t, v)

	v, _ = idx.Value(KeyAIcov)
	assert.Zero(t, v)
	v, _ = idx.Value(KeyProvOK)
	assert.Zero(t, v)
}

func TestCompute_UserIDTypesStayDistinct(t *testing.T) {
	df := frame([]string{"user_id"},
		state.Row{"user_id": "1"},
		state.Row{"user_id": 1.0},
	)
	v, _ := compute(df).Value(KeyAS)
	assert.Equal(t, 2.0, v)
}

func TestContract(t *testing.T) {
	c := Contract()
	assert.Equal(t, ContractVersion, c.Version)
	require.Len(t, c.Metrics, 5)
	assert.Equal(t, "user_id", c.Metrics[0].Requires)
	assert.Equal(t, "provisioned", c.Metrics[4].Requires)
	assert.Equal(t, "3 decimals", c.Metrics[2].Rounding)
}

func TestIndex_ValueMissingKey(t *testing.T) {
	_, ok := Index{}.Value(KeyCWS)
	assert.False(t, ok)
}
