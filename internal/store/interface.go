// Package store persists browsing sessions and defines the errors shared by
// every persistence backend.
package store

import (
	"context"

	"github.com/elephoto/elephoto-server/internal/domain"
)

// SessionStore keeps browsing sessions between requests.
// Backends expire idle sessions on their own.
type SessionStore interface {
	// GetSession returns ErrNotFound for unknown or expired sessions.
	GetSession(ctx context.Context, id string) (*domain.BrowsingSession, error)
	SaveSession(ctx context.Context, session *domain.BrowsingSession) error
	// DeleteSession is a no-op for unknown sessions.
	DeleteSession(ctx context.Context, id string) error
	Close() error
}
