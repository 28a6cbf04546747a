// Package redis is a SessionStore backed by Redis, for deployments that run
// more than one server process.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redisclient "github.com/redis/go-redis/v9"

	"github.com/elephoto/elephoto-server/internal/domain"
	"github.com/elephoto/elephoto-server/internal/store"
)

const keyPrefix = "elephoto:session:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// SessionStore keeps browsing sessions as JSON strings with a TTL.
type SessionStore struct {
	client *redisclient.Client
	logger *slog.Logger
	ttl    time.Duration
}

var _ store.SessionStore = (*SessionStore)(nil)

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*SessionStore, error) {
	client := redisclient.NewClient(&redisclient.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		Protocol: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}

	if logger != nil {
		logger.Info("Redis session store connected", "addr", opts.Addr, "db", opts.DB)
	}

	return &SessionStore{
		client: client,
		logger: logger,
		ttl:    domain.SessionTTL,
	}, nil
}

// WithTTL overrides how long idle sessions are kept.
func (s *SessionStore) WithTTL(ttl time.Duration) *SessionStore {
	s.ttl = ttl
	return s
}

// GetSession retrieves a browsing session by ID.
func (s *SessionStore) GetSession(ctx context.Context, id string) (*domain.BrowsingSession, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redisclient.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	return store.UnmarshalSession(data)
}

// SaveSession writes a browsing session and restarts its expiry clock.
func (s *SessionStore) SaveSession(ctx context.Context, session *domain.BrowsingSession) error {
	data, err := store.MarshalSession(session)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, keyPrefix+session.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// DeleteSession removes a browsing session.
func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *SessionStore) Close() error {
	return s.client.Close()
}
