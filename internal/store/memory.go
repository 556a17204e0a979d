package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	// ErrNotFound is returned when a session id is unknown or expired.
	ErrNotFound = errors.New("session not found")
)

// Session is the widget state of one dashboard tab.
type Session struct {
	ID        string        `json:"id"`
	State     weather.State `json:"state"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// SessionStore is a concurrency-safe in-memory store of sessions.
type SessionStore struct {
	mu sync.RWMutex

	// key: session id
	data map[string]Session

	// retention configuration
	maxSessions int           // max number of sessions kept
	maxAge      time.Duration // idle time after which a session expires

	now func() time.Time
}

// NewSessionStore creates a new SessionStore with optional limits.
// Non-positive limits are treated as unlimited.
func NewSessionStore(maxSessions int, maxAge time.Duration) *SessionStore {
	return &SessionStore{
		data:        make(map[string]Session),
		maxSessions: maxSessions,
		maxAge:      maxAge,
		now:         time.Now,
	}
}

// Create stores a new session holding st and returns it.
func (s *SessionStore) Create(st weather.State) Session {
	now := s.now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		State:     st,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[sess.ID] = sess
	s.enforceCountLocked()
	return sess
}

// Get returns the session with id, unless it is unknown or expired.
func (s *SessionStore) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data[id]
	if !ok || s.expired(sess) {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

// Save replaces the state of an existing session.
func (s *SessionStore) Save(id string, st weather.State) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.data[id]
	if !ok || s.expired(sess) {
		return Session{}, ErrNotFound
	}
	sess.State = st
	sess.UpdatedAt = s.now().UTC()
	s.data[id] = sess
	return sess, nil
}

// Prune drops expired sessions and returns how many were removed.
func (s *SessionStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.data {
		if s.expired(sess) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *SessionStore) expired(sess Session) bool {
	if s.maxAge <= 0 {
		return false
	}
	return s.now().Sub(sess.UpdatedAt) > s.maxAge
}

// enforceCountLocked evicts the least recently updated sessions.
func (s *SessionStore) enforceCountLocked() {
	if s.maxSessions <= 0 || len(s.data) <= s.maxSessions {
		return
	}

	all := make([]Session, 0, len(s.data))
	for _, sess := range s.data {
		all = append(all, sess)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].UpdatedAt.Before(all[j].UpdatedAt)
	})

	over := len(all) - s.maxSessions
	for _, sess := range all[:over] {
		delete(s.data, sess.ID)
	}
}
