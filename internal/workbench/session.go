package workbench

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadprep/internal"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one operator's working table between requests.
type Session struct {
	ID        string
	Operation string
	Files     []string
	Table     *internal.Table
	Feedback  internal.Feedback
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store keeps sessions in memory. Tables handed out are copies, so callers
// can read them without holding the lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session), now: time.Now}
}

func (s *Store) Create(operation string, files []string, t *internal.Table, fb internal.Feedback) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &Session{
		ID:        uuid.New().String(),
		Operation: operation,
		Files:     append([]string(nil), files...),
		Table:     t.Clone(),
		Feedback:  fb,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[sess.ID] = sess
	return sess.snapshot()
}

func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return sess.snapshot(), nil
}

// Apply runs edit against the session's current table. On success the
// returned table replaces it; on failure only the feedback is recorded.
func (s *Store) Apply(id string, edit func(*internal.Table) (*internal.Table, internal.Feedback, error)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	out, fb, err := edit(sess.Table)
	sess.Feedback = fb
	sess.UpdatedAt = s.now()
	if err == nil && out != nil {
		sess.Table = out
	}
	return sess.snapshot(), err
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (sess *Session) snapshot() Session {
	cp := *sess
	cp.Files = append([]string(nil), sess.Files...)
	cp.Table = sess.Table.Clone()
	return cp
}
