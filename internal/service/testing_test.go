package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/elephoto/elephoto-server/internal/domain"
	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/media/images"
	"github.com/elephoto/elephoto-server/internal/payment"
	"github.com/elephoto/elephoto-server/internal/sse"
	"github.com/elephoto/elephoto-server/internal/store"
	"github.com/elephoto/elephoto-server/internal/store/sqlite"
)

const testPublicURL = "https://fotos.example.com"

// testEnv wires real SQLite, Badger and filesystem storage in a temp dir.
type testEnv struct {
	db        *sqlite.Store
	sessions  *store.Store
	originals *images.Storage
	displays  *images.Storage
	links     Links
	logger    *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sessions, err := store.NewInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sessions.Close() })

	originals, err := images.NewStorage(dir, "originals")
	require.NoError(t, err)
	displays, err := images.NewStorage(dir, "displays")
	require.NoError(t, err)

	return &testEnv{
		db:        db,
		sessions:  sessions,
		originals: originals,
		displays:  displays,
		links:     NewLinks(testPublicURL),
		logger:    logger,
	}
}

// seedAlbum creates an album with n purchasable photos whose originals exist
// in storage. Photo ids are "pho-{code}-{i}".
func (e *testEnv) seedAlbum(t *testing.T, code string, n int) (*domain.Album, []*domain.Photo) {
	t.Helper()
	ctx := context.Background()

	album := &domain.Album{ID: "alb-" + strings.ToLower(code), Code: code, CreatedAt: time.Now()}
	require.NoError(t, e.db.CreateAlbum(ctx, album))

	photos := make([]*domain.Photo, 0, n)
	for i := 0; i < n; i++ {
		photoID := fmt.Sprintf("pho-%s-%d", strings.ToLower(code), i)
		originalKey := fmt.Sprintf("%s/original_%d.jpg", code, i)
		require.NoError(t, e.originals.Save(originalKey, []byte("original bytes of "+photoID)))

		photos = append(photos, &domain.Photo{
			ID:         photoID,
			AlbumID:    album.ID,
			DisplayKey: fmt.Sprintf("%s/display_%d.jpg", code, i),
			Original:   domain.Purchasable{Ref: originalKey},
			ListPrice:  domain.DefaultListPrice,
			CreatedAt:  time.Now(),
		})
	}
	require.NoError(t, e.db.CreatePhotos(ctx, photos))
	return album, photos
}

// addPhoto inserts one extra photo into album.
func (e *testEnv) addPhoto(t *testing.T, album *domain.Album, photoID string, original domain.Original) *domain.Photo {
	t.Helper()
	p := &domain.Photo{
		ID:         photoID,
		AlbumID:    album.ID,
		DisplayKey: album.Code + "/display_" + photoID + ".jpg",
		Original:   original,
		ListPrice:  domain.DefaultListPrice,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, e.db.CreatePhotos(context.Background(), []*domain.Photo{p}))
	return p
}

func (e *testEnv) access() *AccessService {
	return NewAccessService(e.db, e.sessions, nil, e.links, e.logger)
}

func (e *testEnv) cart() *CartService {
	return NewCartService(e.db, e.sessions, e.links, e.logger)
}

// enterAlbum resolves code for sessionID and fills the cart with photos.
func (e *testEnv) enterAlbum(t *testing.T, sessionID, code string, photos ...*domain.Photo) {
	t.Helper()
	ctx := context.Background()
	_, err := e.access().Resolve(ctx, sessionID, "127.0.0.1", code)
	require.NoError(t, err)
	for _, p := range photos {
		_, err := e.cart().Add(ctx, sessionID, p.ID)
		require.NoError(t, err)
	}
}

func requireCode(t *testing.T, err error, code domainerrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, domainerrors.CodeOf(err), "unexpected error: %v", err)
}

// fakeProcessor records session requests instead of calling a processor.
type fakeProcessor struct {
	mu       sync.Mutex
	requests []*payment.SessionRequest
	err      error
}

func (p *fakeProcessor) CreateSession(_ context.Context, req *payment.SessionRequest) (*payment.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.requests = append(p.requests, req)
	id := fmt.Sprintf("cs_test_%d", len(p.requests))
	return &payment.Session{ID: id, URL: "https://checkout.stripe.test/pay/" + id}, nil
}

func (p *fakeProcessor) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// fakeVerifier accepts the signature "valid" and decodes the payload as a
// PaymentNotification.
type fakeVerifier struct{}

func (fakeVerifier) Verify(payload []byte, signature string) (*domain.PaymentNotification, error) {
	if signature != "valid" {
		return nil, fmt.Errorf("%w: signature mismatch", payment.ErrInvalidSignature)
	}
	var n domain.PaymentNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}
	return &n, nil
}

func notificationPayload(t *testing.T, n domain.PaymentNotification) []byte {
	t.Helper()
	data, err := json.Marshal(n)
	require.NoError(t, err)
	return data
}

// recordingEmitter keeps every emitted event.
type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(event sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) emitted() []sse.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sse.Event(nil), r.events...)
}

// flakyLedger fails MarkPhotosPaid while fail is set.
type flakyLedger struct {
	*sqlite.Store
	mu   sync.Mutex
	fail bool
}

func (l *flakyLedger) MarkPhotosPaid(ctx context.Context, ids []string, at time.Time) (int64, error) {
	l.mu.Lock()
	fail := l.fail
	l.mu.Unlock()
	if fail {
		return 0, errors.New("database is locked")
	}
	return l.Store.MarkPhotosPaid(ctx, ids, at)
}

func (l *flakyLedger) setFail(fail bool) {
	l.mu.Lock()
	l.fail = fail
	l.mu.Unlock()
}

// countingCatalog counts album lookups.
type countingCatalog struct {
	*sqlite.Store
	mu      sync.Mutex
	lookups int
}

func (c *countingCatalog) GetAlbumByCode(ctx context.Context, code string) (*domain.Album, error) {
	c.mu.Lock()
	c.lookups++
	c.mu.Unlock()
	return c.Store.GetAlbumByCode(ctx, code)
}
