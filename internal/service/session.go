package service

import (
	"errors"
	"sync"

	"github.com/hakalabs/hakabot/internal/domain"
	"github.com/hakalabs/hakabot/internal/repository"
)

// ChatSession is the live state of one widget conversation. All mutable
// fields are guarded by mu; the pending flag is the per-session gate that
// drops a second submission while one is in flight.
type ChatSession struct {
	ID string

	mu       sync.Mutex
	token    string
	pending  bool
	messages []*domain.Message
}

// Messages returns a snapshot of the transcript in insertion order
func (s *ChatSession) Messages() []*domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *ChatSession) find(messageID string) *domain.Message {
	for _, m := range s.messages {
		if m.ID == messageID {
			return m
		}
	}
	return nil
}

// SessionManager owns the live sessions, one per conversation. Sessions are
// hydrated from the repository on first access so a transcript survives a
// server restart.
type SessionManager struct {
	repo *repository.SessionRepository

	mu       sync.Mutex
	sessions map[string]*ChatSession
}

// NewSessionManager creates a new session manager
func NewSessionManager(repo *repository.SessionRepository) *SessionManager {
	return &SessionManager{
		repo:     repo,
		sessions: make(map[string]*ChatSession),
	}
}

// Load returns the live session for id, hydrating it from the repository
// when needed. It never creates a session: an empty or unknown id yields
// domain.ErrNotFound.
func (m *SessionManager) Load(id string) (*ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id)
}

// load is Load without the lock; callers hold m.mu
func (m *SessionManager) load(id string) (*ChatSession, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	if sess, ok := m.sessions[id]; ok {
		return sess, nil
	}
	stored, err := m.repo.GetSession(id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, domain.ErrNotFound
	}
	messages, err := m.repo.GetMessages(id)
	if err != nil {
		return nil, err
	}
	sess := &ChatSession{ID: id, token: stored.UpstreamToken, messages: messages}
	m.sessions[id] = sess
	return sess, nil
}

// GetOrCreate returns the live session for id, creating a fresh one when
// the id is empty or unknown.
func (m *SessionManager) GetOrCreate(id string) (*ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.load(id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	stored := &domain.Session{}
	if err := m.repo.CreateSession(stored); err != nil {
		return nil, err
	}
	sess = &ChatSession{ID: stored.ID}
	m.sessions[stored.ID] = sess
	return sess, nil
}
