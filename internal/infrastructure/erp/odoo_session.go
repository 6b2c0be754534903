package erp

import "sync"

// Session is the authenticated identity used for object calls. It is owned
// by one OdooClient and lives for the process unless invalidated.
type Session struct {
	mu  sync.Mutex
	uid int64
}

// Invalidate forgets the cached uid so the next call re-authenticates.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.uid = 0
	s.mu.Unlock()
}

// establish returns the cached uid or runs login while holding the lock, so
// concurrent callers share a single authenticate round trip.
func (s *Session) establish(login func() (int64, error)) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uid != 0 {
		return s.uid, nil
	}
	uid, err := login()
	if err != nil {
		return 0, err
	}
	s.uid = uid
	return uid, nil
}
