package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"aura-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(ttl)
	s.now = clock.Now
	return s, clock
}

func TestStore_PutReplacesDataset(t *testing.T) {
	s, clock := newTestStore(time.Hour)

	first := &DataFrame{Headers: []string{"user_id"}, Rows: []Row{{"user_id": "u1"}}}
	s.Put("a", first, models.IngestInfo{Rows: 1, Source: "first.csv"}, models.CoercionSummary{})
	clock.Advance(time.Minute)

	second := &DataFrame{Headers: []string{"user_id"}}
	s.Put("a", second, models.IngestInfo{Source: "second.csv"}, models.CoercionSummary{})

	sess, ok := s.Get("a")
	require.True(t, ok)
	assert.Same(t, second, sess.Frame)
	assert.Equal(t, "second.csv", sess.Info.Source)
	// creation time survives replacement
	assert.True(t, sess.CreatedAt.Before(sess.LastSeen))
	assert.Equal(t, 1, s.Len())
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	s.Put("a", &DataFrame{Source: "a"}, models.IngestInfo{}, models.CoercionSummary{})

	_, ok := s.Get("b")
	assert.False(t, ok)

	sess, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", sess.Frame.Source)
}

func TestStore_ExpiresIdleSessions(t *testing.T) {
	s, clock := newTestStore(10 * time.Minute)
	s.Put("idle", &DataFrame{}, models.IngestInfo{}, models.CoercionSummary{})
	s.Put("busy", &DataFrame{}, models.IngestInfo{}, models.CoercionSummary{})

	clock.Advance(8 * time.Minute)
	_, ok := s.Get("busy")
	require.True(t, ok)

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 1, s.Sweep(clock.Now()))

	_, ok = s.Get("idle")
	assert.False(t, ok)
	_, ok = s.Get("busy")
	assert.True(t, ok)
}

func TestStore_GetDropsExpired(t *testing.T) {
	s, clock := newTestStore(time.Minute)
	s.Put("x", &DataFrame{}, models.IngestInfo{}, models.CoercionSummary{})
	clock.Advance(2 * time.Minute)

	_, ok := s.Get("x")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Delete(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	s.Put("x", &DataFrame{}, models.IngestInfo{}, models.CoercionSummary{})

	assert.True(t, s.Delete("x"))
	assert.False(t, s.Delete("x"))
}

func TestStore_RunStopsOnCancel(t *testing.T) {
	s := NewStore(time.Nanosecond)
	s.Put("x", &DataFrame{}, models.IngestInfo{}, models.CoercionSummary{})

	ctx, cancel := context.WithCancel(context.Background())
	swept := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond, func(n int) {
			select {
			case swept <- n:
			default:
			}
		})
		close(done)
	}()

	select {
	case n := <-swept:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never ran")
	}
	cancel()
	<-done
}

func TestDataFrame_Helpers(t *testing.T) {
	var nilFrame *DataFrame
	assert.False(t, nilFrame.HasColumn("x"))
	assert.Equal(t, 0, nilFrame.Len())

	df := &DataFrame{Headers: []string{"user_id", "cws"}, Rows: []Row{{}, {}}}
	assert.True(t, df.HasColumn("cws"))
	assert.False(t, df.HasColumn("CWS"))
	assert.Equal(t, 2, df.Len())
}
