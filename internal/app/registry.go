package app

import "context"

// SessionRegistry creates, looks up, and destroys session actors. It is
// the only globally shared mutable structure; implementations need a
// concurrent-safe map, never a cross-session lock.
type SessionRegistry interface {
	// Create builds a session actor for sessionID backed by the quiz's
	// catalog. Fails with domain.ErrSessionExists if the ID is live.
	Create(ctx context.Context, sessionID, quizID string) (*Session, error)
	Get(sessionID string) (*Session, bool)
	// Remove drops the session; called once it has ENDED.
	Remove(sessionID string)
}

// SessionFactory builds sessions with their shared collaborators. The
// catalog is loaded once at create time and copied into the session,
// keeping it immutable for the session's lifetime.
type SessionFactory struct {
	Catalogs CatalogRepository
	Deps     SessionDeps
}

// New loads the catalog for quizID and builds a WAITING session.
// onEnded is invoked (on its own goroutine) when the session reaches
// ENDED; registries pass their Remove here.
func (f *SessionFactory) New(ctx context.Context, sessionID, quizID string, onEnded func(sessionID string)) (*Session, error) {
	catalog, err := f.Catalogs.GetCatalog(ctx, quizID)
	if err != nil {
		return nil, err
	}
	deps := f.Deps
	deps.OnEnded = onEnded
	return NewSession(sessionID, catalog, deps), nil
}
