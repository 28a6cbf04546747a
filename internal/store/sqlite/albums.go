package sqlite

import (
	"context"
	"database/sql"

	"github.com/elephoto/elephoto-server/internal/domain"
	"github.com/elephoto/elephoto-server/internal/store"
)

const albumColumns = `id, code, created_at`

func scanAlbum(scanner interface{ Scan(dest ...any) error }) (*domain.Album, error) {
	var a domain.Album
	var createdAt string

	if err := scanner.Scan(&a.ID, &a.Code, &createdAt); err != nil {
		return nil, err
	}

	var err error
	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAlbum inserts a new album.
// Returns store.ErrAlreadyExists if the code is taken.
func (s *Store) CreateAlbum(ctx context.Context, album *domain.Album) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO albums (id, code, created_at) VALUES (?, ?, ?)`,
		album.ID,
		album.Code,
		formatTime(album.CreatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetAlbum retrieves an album by ID.
// Returns store.ErrNotFound if the album does not exist.
func (s *Store) GetAlbum(ctx context.Context, id string) (*domain.Album, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+albumColumns+` FROM albums WHERE id = ?`, id)

	a, err := scanAlbum(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetAlbumByCode retrieves an album by its normalized access code.
// Returns store.ErrNotFound if no album uses the code.
func (s *Store) GetAlbumByCode(ctx context.Context, code string) (*domain.Album, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+albumColumns+` FROM albums WHERE code = ?`, code)

	a, err := scanAlbum(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAlbums returns all albums, newest first.
func (s *Store) ListAlbums(ctx context.Context) ([]*domain.Album, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+albumColumns+` FROM albums ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var albums []*domain.Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return albums, nil
}

// DeleteAlbum removes an album and, through the foreign key, its photos.
// Returns store.ErrNotFound if the album does not exist.
func (s *Store) DeleteAlbum(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id)
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
