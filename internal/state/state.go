package state

import (
	"context"
	"sync"
	"time"

	"aura-backend/internal/models"
)

// DefaultSessionID is used when a request carries no session identifier
const DefaultSessionID = "default"

// Row maps a column name to a cell value.
// After normalization a value is nil, string, float64, bool or time.Time.
type Row map[string]any

// DataFrame represents a loaded tabular dataset
type DataFrame struct {
	Headers []string
	Rows    []Row
	Source  string
}

// HasColumn reports whether the frame carries the named column
func (df *DataFrame) HasColumn(name string) bool {
	if df == nil {
		return false
	}
	for _, h := range df.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Len returns the row count, zero for a nil frame
func (df *DataFrame) Len() int {
	if df == nil {
		return 0
	}
	return len(df.Rows)
}

// Session holds the dataset ingested by one client
type Session struct {
	ID        string
	Frame     *DataFrame
	Info      models.IngestInfo
	Coercion  models.CoercionSummary
	CreatedAt time.Time
	LastSeen  time.Time
}

// Store keeps one dataset per session. Frames are treated as immutable once
// stored; replacing a dataset swaps the pointer.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store whose sessions expire after ttl of inactivity
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Put replaces the dataset of the given session, creating it if needed
func (s *Store) Put(id string, df *DataFrame, info models.IngestInfo, coercion models.CoercionSummary) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &Session{
		ID:        id,
		Frame:     df,
		Info:      info,
		Coercion:  coercion,
		CreatedAt: now,
		LastSeen:  now,
	}
	if prev, ok := s.sessions[id]; ok {
		sess.CreatedAt = prev.CreatedAt
	}
	s.sessions[id] = sess
	return sess
}

// Get returns a copy of the session and refreshes its idle timer.
// Expired sessions are reported as absent.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	now := s.now()
	if s.expired(sess, now) {
		delete(s.sessions, id)
		return Session{}, false
	}
	sess.LastSeen = now
	return *sess, true
}

// Delete drops a session
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many were dropped
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps expired sessions every interval until ctx is done
func (s *Store) Run(ctx context.Context, interval time.Duration, onSweep func(dropped int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.LastSeen) > s.ttl
}
