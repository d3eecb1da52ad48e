package fetcher

import "sync"

// session holds the current session token in memory. Persisting it is the
// caller's business.
type session struct {
	mu    sync.RWMutex
	token string
}

func (s *session) get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *session) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// clear drops the token and reports whether one was held
func (s *session) clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.token != ""
	s.token = ""
	return had
}
