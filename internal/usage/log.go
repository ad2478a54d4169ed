// Package usage records service events in an append-only JSON-lines log and
// keeps per-upload ingest markers.
package usage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"aura-backend/internal/logging"

	"github.com/prometheus/client_golang/prometheus"
)

// Event kinds written by the service
const (
	KindIngest   = "ingest"
	KindAnalyze  = "analyze"
	KindInsights = "insights"
	KindReport   = "report"
	KindExport   = "export"
	KindRun      = "run"
)

// Log is an append-only JSON-lines event log. Appends are serialized.
type Log struct {
	mu     sync.Mutex
	path   string
	now    func() time.Time
	events *prometheus.CounterVec
	log    *slog.Logger
}

// NewLog opens the log at path, creating its directory. The event counter is
// registered with reg when it is not nil.
func NewLog(path string, reg prometheus.Registerer) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create usage log dir: %w", err)
	}
	l := &Log{
		path: path,
		now:  time.Now,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aura_usage_events_total",
			Help: "Usage events appended to the log, by kind.",
		}, []string{"kind"}),
		log: logging.New("usage"),
	}
	if reg != nil {
		if err := reg.Register(l.events); err != nil {
			return nil, fmt.Errorf("register usage counter: %w", err)
		}
	}
	return l, nil
}

// Path returns the log file location
func (l *Log) Path() string { return l.path }

// Append writes one event line {ts, kind, ...fields}. Fields cannot
// override ts or kind.
func (l *Log) Append(kind string, fields map[string]any) error {
	if kind == "" {
		return errors.New("usage event kind must not be empty")
	}
	event := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		event[k] = v
	}
	event["ts"] = l.now().UTC().Format(time.RFC3339Nano)
	event["kind"] = kind

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode usage event: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open usage log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append usage event: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close usage log: %w", err)
	}
	l.events.WithLabelValues(kind).Inc()
	return nil
}

// Counts aggregates events per kind. Malformed lines are skipped; a missing
// log counts as empty.
func (l *Log) Counts() (map[string]int, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	counts := map[string]int{}
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return counts, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open usage log: %w", err)
	}
	defer f.Close()

	total, skipped := 0, 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		var event struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil || event.Kind == "" {
			skipped++
			continue
		}
		counts[event.Kind]++
		total++
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read usage log: %w", err)
	}
	if skipped > 0 {
		l.log.Debug("skipped malformed usage lines", "count", skipped)
	}
	return counts, total, nil
}
