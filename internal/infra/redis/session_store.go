package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"vocab-quiz/internal/quiz"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Controllers stay in process (they own timers and a live connection);
// Redis only carries a marker per session holding its current state, so
// other instances and operators can see what is running. The marker ttl
// should outlast a whole quiz.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*quiz.Controller
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*quiz.Controller),
	}
}

func (s *SessionStore) Add(session *quiz.Controller) {
	state := session.State()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	s.mark(session.ID(), state)
}

// MarkState rewrites the marker of a registered session and renews its ttl.
// Sessions already removed are ignored.
func (s *SessionStore) MarkState(id string, state quiz.State) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[id]; !ok {
		return
	}
	s.mark(id, state)
}

// best-effort
func (s *SessionStore) mark(id string, state quiz.State) {
	_ = s.client.Set(context.Background(), s.key(id), state.String(), s.ttl).Err()
}

func (s *SessionStore) Get(id string) (*quiz.Controller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *SessionStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
