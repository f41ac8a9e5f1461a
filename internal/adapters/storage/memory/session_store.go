package memory

import (
	"sync"
	"time"

	"github.com/PabloGalante/persona-relay/internal/domain"
)

// userLock serializes chat turns of a single user. refs counts holders and
// waiters so the lock can be dropped once nobody needs it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// SessionStore is an in-memory implementation of domain.SessionStore.
// It is NOT persistent: transcripts live as long as the process.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.UserID]*domain.Session
	locks    map[domain.UserID]*userLock
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.UserID]*domain.Session),
		locks:    make(map[domain.UserID]*userLock),
		now:      time.Now,
	}
}

func (s *SessionStore) LockUser(userID domain.UserID) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			s.mu.Lock()
			defer s.mu.Unlock()
			l.refs--
			if l.refs == 0 {
				delete(s.locks, userID)
			}
		})
	}
}

func (s *SessionStore) BeginTurn(userID domain.UserID, seed []domain.Message, msg domain.Message) (*domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, exists := s.sessions[userID]
	if !exists {
		msgs := make([]domain.Message, 0, len(seed)+2)
		for _, m := range seed {
			if m.CreatedAt.IsZero() {
				m.CreatedAt = now
			}
			msgs = append(msgs, m)
		}
		sess = &domain.Session{
			UserID:    userID,
			CreatedAt: now,
			Messages:  msgs,
		}
		s.sessions[userID] = sess
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	sess.Messages = append(sess.Messages, msg)
	sess.UpdatedAt = now
	return sess.Clone(), !exists, nil
}

func (s *SessionStore) AppendMessages(userID domain.UserID, msgs ...domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return domain.ErrSessionNotFound
	}

	now := s.now()
	for _, m := range msgs {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		sess.Messages = append(sess.Messages, m)
	}
	sess.UpdatedAt = now
	return nil
}

// GetSession returns a copy of the user's session.
func (s *SessionStore) GetSession(userID domain.UserID) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *SessionStore) DeleteSession(userID domain.UserID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[userID]; !ok {
		return false, nil
	}
	delete(s.sessions, userID)
	return true, nil
}

func (s *SessionStore) CountSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
