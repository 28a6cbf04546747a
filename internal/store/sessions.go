package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/elephoto/elephoto-server/internal/domain"
)

// GetSession retrieves a browsing session by ID.
func (s *Store) GetSession(_ context.Context, id string) (*domain.BrowsingSession, error) {
	key := buildKey(browsingSessionPrefix, id)
	defer releaseKey(key)

	var session *domain.BrowsingSession
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			var err error
			session, err = UnmarshalSession(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	return session, nil
}

// SaveSession writes a browsing session and restarts its expiry clock.
func (s *Store) SaveSession(_ context.Context, session *domain.BrowsingSession) error {
	data, err := MarshalSession(session)
	if err != nil {
		return err
	}

	key := buildKey(browsingSessionPrefix, session.ID)
	defer releaseKey(key)

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, data)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// DeleteSession removes a browsing session.
func (s *Store) DeleteSession(_ context.Context, id string) error {
	key := buildKey(browsingSessionPrefix, id)
	defer releaseKey(key)

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}
