package normalize

import (
	"fmt"
	"testing"
	"time"

	"aura-backend/internal/state"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FoldsHeaders(t *testing.T) {
	in := &state.DataFrame{
		Headers: []string{" User_ID ", "AI_Used", "ai_used"},
		Rows:    []state.Row{{" User_ID ": "u1", "AI_Used": "no", "ai_used": "yes"}},
		Source:  "raw.csv",
	}

	out, report := NewNormalizer().Normalize(in)
	assert.Equal(t, []string{"user_id", "ai_used"}, out.Headers)
	assert.Equal(t, "raw.csv", out.Source)
	assert.Equal(t, "u1", out.Rows[0]["user_id"])
	// the later duplicate wins
	assert.Equal(t, true, out.Rows[0]["ai_used"])
	assert.Zero(t, report.Count)

	// input untouched
	assert.Equal(t, "no", in.Rows[0]["AI_Used"])
	assert.Len(t, in.Headers, 3)
}

func TestNormalize_CoercesTypedColumns(t *testing.T) {
	in := &state.DataFrame{
		Headers: []string{"user_id", "started_at", "ai_used", "cws", "provisioned", "duration_min"},
		Rows: []state.Row{
			{"user_id": "u1", "started_at": "2024-01-15T10:00:00Z", "ai_used": "1", "cws": "false", "provisioned": "Y", "duration_min": "12.5"},
			{"user_id": "u2", "started_at": "not a date", "ai_used": nil, "cws": 1.0, "provisioned": "no", "duration_min": "abc"},
			{"user_id": "u3", "started_at": nil, "ai_used": true, "cws": "T", "provisioned": 0.0, "duration_min": nil},
		},
	}

	out, report := NewNormalizer().Normalize(in)
	rows := out.Rows

	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), rows[0]["started_at"])
	assert.Nil(t, rows[1]["started_at"])
	assert.Nil(t, rows[2]["started_at"])

	assert.Equal(t, []any{true, false, true}, []any{rows[0]["ai_used"], rows[1]["ai_used"], rows[2]["ai_used"]})
	assert.Equal(t, []any{false, true, true}, []any{rows[0]["cws"], rows[1]["cws"], rows[2]["cws"]})
	assert.Equal(t, []any{true, false, false}, []any{rows[0]["provisioned"], rows[1]["provisioned"], rows[2]["provisioned"]})

	assert.Equal(t, 12.5, rows[0]["duration_min"])
	assert.Nil(t, rows[1]["duration_min"])
	assert.Nil(t, rows[2]["duration_min"])

	require.Equal(t, 2, report.Count)
	want := []RowCoercionError{
		{Row: 1, Column: "started_at", Value: "not a date", Reason: "unparseable timestamp"},
		{Row: 1, Column: "duration_min", Value: "abc", Reason: "not a number"},
	}
	if diff := cmp.Diff(want, report.Samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, map[string]int{"started_at": 1, "duration_min": 1}, report.ByColumn)
}

func TestNormalize_OnlyFirstTimestampCandidate(t *testing.T) {
	in := &state.DataFrame{
		Headers: []string{"ts", "start_time"},
		Rows:    []state.Row{{"ts": "2024-01-01", "start_time": "2024-02-01"}},
	}
	out, _ := NewNormalizer().Normalize(in)

	assert.IsType(t, time.Time{}, out.Rows[0]["start_time"])
	assert.Equal(t, "2024-01-01", out.Rows[0]["ts"])
}

func TestNormalize_SampleCap(t *testing.T) {
	in := &state.DataFrame{Headers: []string{"duration_min"}}
	for i := 0; i < 50; i++ {
		in.Rows = append(in.Rows, state.Row{"duration_min": fmt.Sprintf("bad-%d", i)})
	}

	_, report := NewNormalizer().Normalize(in)
	assert.Equal(t, 50, report.Count)
	assert.Len(t, report.Samples, maxSamples)

	summary := report.Summary()
	assert.Equal(t, 50, summary.Count)
	assert.Len(t, summary.Samples, maxSamples)
	assert.Equal(t, 50, summary.ByCol["duration_min"])
}

func TestNormalize_NilFrame(t *testing.T) {
	out, report := NewNormalizer().Normalize(nil)
	assert.Equal(t, 0, out.Len())
	assert.Zero(t, report.Summary().Count)
}

func TestParseTimestamp_Layouts(t *testing.T) {
	n := NewNormalizer()
	for _, s := range []string{
		"2024-01-15T10:00:00Z",
		"2024-01-15T10:00:00.123456Z",
		"2024-01-15 10:00:00",
		"2024-01-15T10:00:00",
		"2024-01-15 10:00",
		"2024-01-15",
		"01/15/2024",
		"2024/01/15",
		"15-Jan-2024",
		"January 15, 2024",
	} {
		ts, ok := n.ParseTimestamp(s)
		require.True(t, ok, s)
		assert.Equal(t, 2024, ts.Year(), s)
		assert.Equal(t, time.January, ts.Month(), s)
		assert.Equal(t, 15, ts.Day(), s)
	}

	_, ok := n.ParseTimestamp(12.0)
	assert.False(t, ok)
}

func TestParseTimestamp_UTCOffset(t *testing.T) {
	n := NewNormalizer()

	ts, ok := n.ParseTimestamp("2024-05-06 08:12:00+02:00")
	require.True(t, ok)
	assert.True(t, ts.Equal(time.Date(2024, 5, 6, 6, 12, 0, 0, time.UTC)), ts)

	ts, ok = n.ParseTimestamp("2024-05-06 08:12:00.250-05:00")
	require.True(t, ok)
	assert.True(t, ts.Equal(time.Date(2024, 5, 6, 13, 12, 0, 250_000_000, time.UTC)), ts)
}

func TestParseBool(t *testing.T) {
	for _, v := range []any{"1", "true", "TRUE", "Yes", "y", "t", true, 1.0} {
		assert.True(t, ParseBool(v), "%v", v)
	}
	for _, v := range []any{nil, "0", "false", "no", "", "2", " yes", "true ", false, 0.0, 1.5} {
		assert.False(t, ParseBool(v), "%v", v)
	}
}

func TestParseNumber(t *testing.T) {
	f, ok := ParseNumber(" 3.25 ")
	require.True(t, ok)
	assert.Equal(t, 3.25, f)

	f, ok = ParseNumber(true)
	require.True(t, ok)
	assert.Equal(t, 1.0, f)

	for _, v := range []any{"NaN", "inf", "x", []int{1}} {
		_, ok := ParseNumber(v)
		assert.False(t, ok, "%v", v)
	}
}
