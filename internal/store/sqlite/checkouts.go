package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/elephoto/elephoto-server/internal/domain"
	"github.com/elephoto/elephoto-server/internal/store"
)

const checkoutColumns = `id, album_id, photo_ids, amount_cents, currency, created_at, completed_at`

func scanCheckout(scanner interface{ Scan(dest ...any) error }) (*domain.Checkout, error) {
	var c domain.Checkout

	var (
		photoIDs    string
		createdAt   string
		completedAt sql.NullString
	)

	err := scanner.Scan(
		&c.ID,
		&c.AlbumID,
		&photoIDs,
		&c.AmountCents,
		&c.Currency,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	c.PhotoIDs, err = decodeIDs(photoIDs)
	if err != nil {
		return nil, err
	}
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.CompletedAt, err = parseNullableTime(completedAt)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// CreateCheckout records a checkout session opened with the processor.
func (s *Store) CreateCheckout(ctx context.Context, c *domain.Checkout) error {
	photoIDs, err := encodeIDs(c.PhotoIDs)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkouts (
			id, album_id, photo_ids, amount_cents, currency, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.AlbumID,
		photoIDs,
		c.AmountCents,
		c.Currency,
		formatTime(c.CreatedAt),
		nullTimeString(c.CompletedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetCheckout retrieves a checkout by processor session ID.
// Returns store.ErrNotFound if none was recorded.
func (s *Store) GetCheckout(ctx context.Context, id string) (*domain.Checkout, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+checkoutColumns+` FROM checkouts WHERE id = ?`, id)

	c, err := scanCheckout(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CompleteCheckout stamps completed_at on first completion; later calls keep it.
// Returns store.ErrNotFound if no checkout has the ID.
func (s *Store) CompleteCheckout(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE checkouts SET completed_at = COALESCE(completed_at, ?) WHERE id = ?`,
		formatTime(at), id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
