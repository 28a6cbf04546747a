package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/elephoto/elephoto-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestAlbum creates an album with the given ID and code.
func insertTestAlbum(t *testing.T, s *Store, id, code string) *domain.Album {
	t.Helper()
	a := &domain.Album{ID: id, Code: code, CreatedAt: time.Now()}
	if err := s.CreateAlbum(context.Background(), a); err != nil {
		t.Fatalf("CreateAlbum(%s): %v", id, err)
	}
	return a
}

// insertTestPhoto creates a purchasable, unpaid photo in albumID.
func insertTestPhoto(t *testing.T, s *Store, id, albumID string) *domain.Photo {
	t.Helper()
	p := &domain.Photo{
		ID:         id,
		AlbumID:    albumID,
		DisplayKey: "X/display_" + id + ".jpg",
		Original:   domain.Purchasable{Ref: "X/original_" + id + ".jpg"},
		ListPrice:  domain.DefaultListPrice,
		CreatedAt:  time.Now(),
	}
	if err := s.CreatePhotos(context.Background(), []*domain.Photo{p}); err != nil {
		t.Fatalf("CreatePhotos(%s): %v", id, err)
	}
	return p
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode: got %q, want %q", journalMode, "wal")
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys: got %d, want 1", fk)
	}

	for _, table := range []string{"albums", "photos", "checkouts", "payment_events"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s.Close()

	s, err = Open(dbPath, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	s.Close()
}
