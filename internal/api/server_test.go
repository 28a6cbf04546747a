package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/elephoto/elephoto-server/internal/auth"
	"github.com/elephoto/elephoto-server/internal/domain"
	"github.com/elephoto/elephoto-server/internal/http/response"
	"github.com/elephoto/elephoto-server/internal/id"
	"github.com/elephoto/elephoto-server/internal/media/images"
	"github.com/elephoto/elephoto-server/internal/payment"
	"github.com/elephoto/elephoto-server/internal/service"
	"github.com/elephoto/elephoto-server/internal/sse"
	"github.com/elephoto/elephoto-server/internal/store"
	"github.com/elephoto/elephoto-server/internal/store/sqlite"
)

const (
	testPublicURL     = "https://fotos.example.com"
	testWebhookSecret = "whsec_api_test"
	testAdminUser     = "admin"
	testAdminPassword = "correct horse battery staple"
)

// testServer wraps the API server with the stores behind it.
type testServer struct {
	*Server
	api       humatest.TestAPI
	db        *sqlite.Store
	sessions  *store.Store
	originals *images.Storage
	displays  *images.Storage
	processor *fakeProcessor
	cleanup   func()
}

// setupTestServer creates a server over real SQLite, Badger and file storage
// in a temp dir. Only the payment processor is faked.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.Open(tmpDir+"/test.db", logger)
	require.NoError(t, err)

	sessions, err := store.NewInMemory(logger)
	require.NoError(t, err)

	originals, err := images.NewStorage(tmpDir, "originals")
	require.NoError(t, err)
	displays, err := images.NewStorage(tmpDir, "displays")
	require.NoError(t, err)

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(authKey, time.Hour)
	require.NoError(t, err)
	passwordHash, err := auth.HashPassword(testAdminPassword)
	require.NoError(t, err)

	sseManager := sse.NewManager(logger)
	links := service.NewLinks(testPublicURL)
	processor := &fakeProcessor{}

	services := &Services{
		Access:    service.NewAccessService(db, sessions, nil, links, logger),
		Cart:      service.NewCartService(db, sessions, links, logger),
		Checkout:  service.NewCheckoutService(db, sessions, processor, db, links, "eur", logger),
		Reconcile: service.NewReconcileService(payment.NewStripeVerifier(testWebhookSecret), db, db, db, sseManager, service.AcknowledgeOnFailure, logger),
		Unlock:    service.NewUnlockService(db, sessions, originals, links, logger),
		Album: service.NewAlbumService(db, originals, displays,
			images.NewProcessor(images.DefaultProcessorOptions(), logger), logger),
		AdminAuth: service.NewAdminAuthService(testAdminUser, passwordHash, tokenService, logger),
	}

	server := NewServer(Config{
		PublicURL:      testPublicURL,
		MaxUploadBytes: 8 << 20,
	}, db, sessions, services, &StorageServices{Displays: displays}, sseManager, logger)

	return &testServer{
		Server:    server,
		api:       humatest.Wrap(t, server.API()),
		db:        db,
		sessions:  sessions,
		originals: originals,
		displays:  displays,
		processor: processor,
		cleanup: func() {
			server.Close()
			_ = sessions.Close()
			_ = db.Close()
		},
	}
}

// seedAlbum stores an album with n purchasable photos and their originals.
func (ts *testServer) seedAlbum(t *testing.T, code string, n int) (*domain.Album, []*domain.Photo) {
	t.Helper()
	ctx := context.Background()

	album := &domain.Album{ID: "alb-" + strings.ToLower(code), Code: code, CreatedAt: time.Now()}
	require.NoError(t, ts.db.CreateAlbum(ctx, album))

	photos := make([]*domain.Photo, 0, n)
	for i := 0; i < n; i++ {
		photoID := fmt.Sprintf("pho-%s-%d", strings.ToLower(code), i)
		originalKey := fmt.Sprintf("%s/original_%d.jpg", code, i)
		displayKey := fmt.Sprintf("%s/display_%d.jpg", code, i)
		require.NoError(t, ts.originals.Save(originalKey, []byte("original bytes of "+photoID)))
		require.NoError(t, ts.displays.Save(displayKey, []byte("display bytes of "+photoID)))

		photos = append(photos, &domain.Photo{
			ID:         photoID,
			AlbumID:    album.ID,
			DisplayKey: displayKey,
			Original:   domain.Purchasable{Ref: originalKey},
			ListPrice:  domain.DefaultListPrice,
			CreatedAt:  time.Now(),
		})
	}
	require.NoError(t, ts.db.CreatePhotos(ctx, photos))
	return album, photos
}

// newBrowser returns the cookie header of a fresh browsing session.
func newBrowser() string {
	return "Cookie: " + SessionCookieName + "=" + id.NewSessionID()
}

// adminToken logs in and returns the Authorization header.
func (ts *testServer) adminToken(t *testing.T) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/admin/login", map[string]any{
		"username": testAdminUser,
		"password": testAdminPassword,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var login struct {
		Data AdminLoginResponse `json:"data"`
	}
	decodeBody(t, resp, &login)
	require.NotEmpty(t, login.Data.Token)
	return "Authorization: Bearer " + login.Data.Token
}

// signedWebhook builds a checkout.session.completed event for ids and signs it.
func signedWebhook(t *testing.T, eventID, albumID, checkoutID string, ids []string) ([]byte, string) {
	t.Helper()

	event := map[string]any{
		"id":          eventID,
		"object":      "event",
		"api_version": "2020-08-27",
		"type":        domain.EventTypeCheckoutCompleted,
		"data": map[string]any{
			"object": map[string]any{
				"id":                  checkoutID,
				"object":              "checkout.session",
				"client_reference_id": albumID,
				"metadata":            payment.EncodeIDs(ids),
			},
		},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return payload, StripeSignatureHeader + ": " + signed.Header
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), v), resp.Body.String())
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	decodeBody(t, resp, &env)
	return env
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: 90, B: uint8(y * 255 / h), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
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
	sid := fmt.Sprintf("cs_test_%d", len(p.requests))
	return &payment.Session{ID: sid, URL: "https://checkout.stripe.test/pay/" + sid}, nil
}

func (p *fakeProcessor) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// envelopeOf is the response envelope with a typed payload.
type envelopeOf[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

func decodeData[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelopeOf[T]
	decodeBody(t, resp, &env)
	require.True(t, env.Success, resp.Body.String())
	return env.Data
}
