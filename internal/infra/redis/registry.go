package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"live-quiz-service/internal/app"
)

// Registry decorates an app.SessionRegistry with Redis liveness keys.
// Notes:
//   - Session actors stay in-process; Redis only marks which session
//     IDs are live so operators can see sessions across a fleet.
//   - For true distribution you'd pair this with a pub/sub projector
//     that fans out session events between instances.
type Registry struct {
	inner  app.SessionRegistry
	client *redis.Client
	ttl    time.Duration
}

// removeNotifier is implemented by registries that can report removals
// they perform themselves (sessions remove on ENDED).
type removeNotifier interface {
	OnRemove(hook func(sessionID string))
}

func NewRegistry(inner app.SessionRegistry, client *redis.Client, ttl time.Duration) *Registry {
	r := &Registry{inner: inner, client: client, ttl: ttl}
	if n, ok := inner.(removeNotifier); ok {
		n.OnRemove(func(sessionID string) {
			_ = client.Del(context.Background(), r.key(sessionID)).Err()
		})
	}
	return r
}

func (r *Registry) Create(ctx context.Context, sessionID, quizID string) (*app.Session, error) {
	session, err := r.inner.Create(ctx, sessionID, quizID)
	if err != nil {
		return nil, err
	}
	// best-effort liveness marker
	_ = r.client.Set(ctx, r.key(sessionID), "1", r.ttl).Err()
	return session, nil
}

func (r *Registry) Get(sessionID string) (*app.Session, bool) {
	return r.inner.Get(sessionID)
}

func (r *Registry) Remove(sessionID string) {
	// Key cleanup happens via the inner registry's remove hook so
	// session-triggered removals clear it too.
	r.inner.Remove(sessionID)
}

func (r *Registry) key(sessionID string) string {
	return "session:live:" + sessionID
}
