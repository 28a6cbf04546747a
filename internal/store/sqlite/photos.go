package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/elephoto/elephoto-server/internal/domain"
	"github.com/elephoto/elephoto-server/internal/store"
)

// photoColumns must match the scan order in scanPhoto.
const photoColumns = `id, album_id, display_key, original_ref, list_price,
	blur_hash, paid, paid_at, created_at`

func scanPhoto(scanner interface{ Scan(dest ...any) error }) (*domain.Photo, error) {
	var p domain.Photo

	var (
		originalRef sql.NullString
		listPrice   string
		paid        int
		paidAt      sql.NullString
		createdAt   string
	)

	err := scanner.Scan(
		&p.ID,
		&p.AlbumID,
		&p.DisplayKey,
		&originalRef,
		&listPrice,
		&p.BlurHash,
		&paid,
		&paidAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	p.Original = domain.OriginalFromRef(originalRef.String)
	p.Paid = paid != 0

	p.ListPrice, err = decimal.NewFromString(listPrice)
	if err != nil {
		return nil, fmt.Errorf("parse list price %q: %w", listPrice, err)
	}
	p.PaidAt, err = parseNullableTime(paidAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// CreatePhotos inserts a batch of photos in a single transaction.
// Either every photo is stored or none is.
func (s *Store) CreatePhotos(ctx context.Context, photos []*domain.Photo) error {
	if len(photos) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO photos (
			id, album_id, display_key, original_ref, list_price,
			blur_hash, paid, paid_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range photos {
		paid := 0
		if p.Paid {
			paid = 1
		}
		_, err := stmt.ExecContext(ctx,
			p.ID,
			p.AlbumID,
			p.DisplayKey,
			nullString(domain.OriginalRef(p.Original)),
			p.ListPrice.String(),
			p.BlurHash,
			paid,
			nullTimeString(p.PaidAt),
			formatTime(p.CreatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrAlreadyExists
			}
			return fmt.Errorf("insert photo %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// GetPhoto retrieves a photo by ID.
// Returns store.ErrNotFound if the photo does not exist.
func (s *Store) GetPhoto(ctx context.Context, id string) (*domain.Photo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE id = ?`, id)

	p, err := scanPhoto(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetPhotosByIDs retrieves photos for multiple IDs, keyed by ID.
// Missing photos are omitted from the map.
func (s *Store) GetPhotosByIDs(ctx context.Context, ids []string) (map[string]*domain.Photo, error) {
	photos := make(map[string]*domain.Photo, len(ids))
	if len(ids) == 0 {
		return photos, nil
	}

	placeholders, args := inClause(ids)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return photos, nil
}

// ListPhotosByAlbum returns an album's photos in upload order.
func (s *Store) ListPhotosByAlbum(ctx context.Context, albumID string) ([]*domain.Photo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE album_id = ? ORDER BY created_at, rowid`, albumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []*domain.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return photos, nil
}

// MarkPhotosPaid sets the paid flag on every photo in ids with one statement.
// Already-paid photos keep their original paid_at, so replays are harmless.
// Unknown ids are skipped. Returns the number of photos matched.
func (s *Store) MarkPhotosPaid(ctx context.Context, ids []string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders, args := inClause(ids)
	args = append([]any{formatTime(at)}, args...)

	result, err := s.db.ExecContext(ctx,
		`UPDATE photos SET paid = 1, paid_at = COALESCE(paid_at, ?) WHERE id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
