package app

import (
	"sync"
	"time"
)

// ExpireFunc receives timer fires. The session decides whether the
// fire is still current; the scheduler only guarantees at most one
// outstanding timer per session and at most one fire per arm.
type ExpireFunc func(sessionID string, questionIndex int)

// Scheduler owns one cancellable countdown per session. Arm pre-empts
// any previous timer for the same session; Cancel is idempotent.
type Scheduler struct {
	mu       sync.Mutex
	onExpire ExpireFunc
	armed    map[string]*armedTimer
}

type armedTimer struct {
	timer         *time.Timer
	questionIndex int
}

func NewScheduler() *Scheduler {
	return &Scheduler{armed: make(map[string]*armedTimer)}
}

// OnExpire sets the fire callback. Must be called before the first Arm.
func (s *Scheduler) OnExpire(fn ExpireFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = fn
}

// Arm schedules a fire for (sessionID, questionIndex) after d,
// cancelling any timer previously armed for the session.
func (s *Scheduler) Arm(sessionID string, questionIndex int, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.armed[sessionID]; ok {
		prev.timer.Stop()
	}
	entry := &armedTimer{questionIndex: questionIndex}
	entry.timer = time.AfterFunc(d, func() {
		s.fire(sessionID, entry)
	})
	s.armed[sessionID] = entry
}

// Cancel stops the session's outstanding timer, if any. Safe to call
// on an already-fired or already-cancelled timer.
func (s *Scheduler) Cancel(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.armed[sessionID]; ok {
		entry.timer.Stop()
		delete(s.armed, sessionID)
	}
}

// Armed reports whether the session currently has an outstanding timer.
func (s *Scheduler) Armed(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.armed[sessionID]
	return ok
}

func (s *Scheduler) fire(sessionID string, entry *armedTimer) {
	s.mu.Lock()
	current, ok := s.armed[sessionID]
	if !ok || current != entry {
		// Pre-empted between the timer firing and us taking the lock.
		s.mu.Unlock()
		return
	}
	delete(s.armed, sessionID)
	fn := s.onExpire
	s.mu.Unlock()

	if fn != nil {
		fn(sessionID, entry.questionIndex)
	}
}
