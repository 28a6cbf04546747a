package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/elephoto/elephoto-server/internal/domain"
)

// Store is the Badger-backed SessionStore.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	ttl    time.Duration
}

var _ SessionStore = (*Store)(nil)

// New opens (or creates) the session database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	return open(opts, logger)
}

// NewInMemory opens a session database that lives only in memory.
func NewInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("Badger session store opened", "path", opts.Dir, "in_memory", opts.InMemory)
	}

	return &Store{
		db:     db,
		logger: logger,
		ttl:    domain.SessionTTL,
	}, nil
}

// WithTTL overrides how long idle sessions are kept.
func (s *Store) WithTTL(ttl time.Duration) *Store {
	s.ttl = ttl
	return s
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing session store")
	}
	return s.db.Close()
}

// RunGC reclaims space in the value log. Safe to call periodically.
func (s *Store) RunGC() {
	for {
		if err := s.db.RunValueLogGC(0.5); err != nil {
			return
		}
	}
}
