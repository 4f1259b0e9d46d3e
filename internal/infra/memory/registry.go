package memory

import (
	"context"
	"sync"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// Registry is the in-process implementation of app.SessionRegistry: a
// mutex-guarded map of independent session actors.
type Registry struct {
	factory *app.SessionFactory

	mu          sync.RWMutex
	sessions    map[string]*app.Session
	removeHooks []func(sessionID string)
}

func NewRegistry(factory *app.SessionFactory) *Registry {
	return &Registry{
		factory:  factory,
		sessions: make(map[string]*app.Session),
	}
}

func (r *Registry) Create(ctx context.Context, sessionID, quizID string) (*app.Session, error) {
	r.mu.RLock()
	_, exists := r.sessions[sessionID]
	r.mu.RUnlock()
	if exists {
		return nil, domain.ErrSessionExists
	}

	// Catalog load happens outside the lock; a losing racer is detected
	// on insert.
	session, err := r.factory.New(ctx, sessionID, quizID, r.Remove)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[sessionID]; exists {
		return nil, domain.ErrSessionExists
	}
	r.sessions[sessionID] = session
	return session, nil
}

func (r *Registry) Get(sessionID string) (*app.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	return session, ok
}

func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	_, existed := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	hooks := r.removeHooks
	r.mu.Unlock()

	if !existed {
		return
	}
	for _, hook := range hooks {
		hook(sessionID)
	}
}

// OnRemove registers a hook invoked after a session is removed.
// Decorators (e.g. the Redis liveness registry) use this to observe
// removals that the session triggers itself on reaching ENDED.
func (r *Registry) OnRemove(hook func(sessionID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeHooks = append(r.removeHooks, hook)
}
