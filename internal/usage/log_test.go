package usage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) (*Log, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	l, err := NewLog(filepath.Join(t.TempDir(), "data", "usage.jsonl"), reg)
	require.NoError(t, err)
	l.now = func() time.Time { return time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC) }
	return l, reg
}

func TestLog_AppendWritesJSONLines(t *testing.T) {
	l, _ := newTestLog(t)
	require.NoError(t, l.Append(KindIngest, map[string]any{"rows": 3, "kind": "spoofed"}))
	require.NoError(t, l.Append(KindAnalyze, nil))

	raw, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "ingest", first["kind"])
	assert.Equal(t, "2024-02-03T04:05:06Z", first["ts"])
	assert.Equal(t, 3.0, first["rows"])
}

func TestLog_Counts(t *testing.T) {
	l, _ := newTestLog(t)

	counts, total, err := l.Counts()
	require.NoError(t, err)
	assert.Empty(t, counts)
	assert.Zero(t, total)

	for _, k := range []string{KindIngest, KindAnalyze, KindIngest, KindReport} {
		require.NoError(t, l.Append(k, nil))
	}
	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not json\n{\"ts\":\"x\"}\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	counts, total, err = l.Counts()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ingest": 2, "analyze": 1, "report": 1}, counts)
	assert.Equal(t, 4, total)
}

func TestLog_RejectsEmptyKind(t *testing.T) {
	l, _ := newTestLog(t)
	assert.Error(t, l.Append("", nil))
}

func TestLog_ConcurrentAppends(t *testing.T) {
	l, _ := newTestLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Append(KindRun, map[string]any{"payload": strings.Repeat("x", 512)}))
		}()
	}
	wg.Wait()

	counts, total, err := l.Counts()
	require.NoError(t, err)
	assert.Equal(t, 20, counts[KindRun])
	assert.Equal(t, 20, total)
}

func TestLog_PrometheusCounter(t *testing.T) {
	l, reg := newTestLog(t)
	require.NoError(t, l.Append(KindExport, nil))
	require.NoError(t, l.Append(KindExport, nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(l.events.WithLabelValues(KindExport)))

	n, err := testutil.GatherAndCount(reg, "aura_usage_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewLog_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	dir := t.TempDir()
	_, err := NewLog(filepath.Join(dir, "a.jsonl"), reg)
	require.NoError(t, err)
	_, err = NewLog(filepath.Join(dir, "b.jsonl"), reg)
	assert.Error(t, err)
}
