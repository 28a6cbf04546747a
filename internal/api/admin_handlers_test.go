package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elephoto/elephoto-server/internal/domain"
)

func TestAdminLogin_WrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/admin/login", map[string]any{
		"username": testAdminUser,
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	env := decodeEnvelope(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
}

func TestAdminLogin_MissingFields(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/admin/login", map[string]any{
		"username": "",
		"password": "",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decodeEnvelope(t, resp).Code)
}

func TestAdminLogin_RateLimited(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	body := map[string]any{"username": testAdminUser, "password": "wrong"}
	var last int
	for i := 0; i < 20; i++ {
		last = ts.api.Post("/api/v1/admin/login", body).Code
		if last == http.StatusTooManyRequests {
			break
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/admin/albums"},
		{http.MethodGet, "/api/v1/admin/payments/failed"},
		{http.MethodPost, "/api/v1/admin/payments/evt_1/retry"},
		{http.MethodPost, "/api/v1/admin/albums"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := ts.api.Do(tt.method, tt.path, "Authorization: Bearer not-a-token")
			assert.Equal(t, http.StatusUnauthorized, resp.Code, resp.Body.String())
		})
	}
}

func TestAdminListAlbums(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.seedAlbum(t, "LISTME1", 1)
	token := ts.adminToken(t)

	resp := ts.api.Get("/api/v1/admin/albums", token)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	list := decodeData[ListAlbumsResponse](t, resp)
	require.Len(t, list.Albums, 1)
	assert.Equal(t, "LISTME1", list.Albums[0].Code)
	assert.Zero(t, list.Albums[0].Watching)
}

func TestAdminFailedPayments_ListAndRetry(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ctx := context.Background()
	_, photos := ts.seedAlbum(t, "RETRY01", 2)
	now := time.Now()
	require.NoError(t, ts.db.RecordPaymentEvent(ctx, &domain.PaymentEvent{
		EventID:    "evt_failed",
		Type:       domain.EventTypeCheckoutCompleted,
		SessionID:  "cs_failed",
		PhotoIDs:   []string{photos[0].ID, photos[1].ID},
		Outcome:    domain.OutcomeFailed,
		Error:      "database is locked",
		ReceivedAt: now,
		UpdatedAt:  now,
	}))
	token := ts.adminToken(t)

	resp := ts.api.Get("/api/v1/admin/payments/failed", token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	failed := decodeData[struct {
		Events []PaymentEventResponse `json:"events"`
	}](t, resp)
	require.Len(t, failed.Events, 1)
	assert.Equal(t, "evt_failed", failed.Events[0].EventID)
	assert.Equal(t, "failed", failed.Events[0].Outcome)

	resp = ts.api.Post("/api/v1/admin/payments/evt_failed/retry", token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	retried := decodeData[PaymentEventResponse](t, resp)
	assert.Equal(t, "applied", retried.Outcome)
	assert.Empty(t, retried.Error)

	for _, p := range photos {
		photo, err := ts.db.GetPhoto(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, photo.Paid)
	}

	resp = ts.api.Post("/api/v1/admin/payments/evt_failed/retry", token)
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = ts.api.Post("/api/v1/admin/payments/evt_missing/retry", token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

// albumUpload builds a multipart body with a code and the given files.
func albumUpload(t *testing.T, code string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("code", code))
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, "Content-Type: " + mw.FormDataContentType()
}

func TestAdminCreateAlbum(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	token := ts.adminToken(t)
	body, contentType := albumUpload(t, "novo2024", map[string][]byte{
		"IMG_0001.png": testPNG(t, 64, 48),
		"IMG_0002.png": testPNG(t, 48, 64),
	})

	resp := ts.api.Post("/api/v1/admin/albums", token, contentType, body)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decodeData[CreateAlbumResponse](t, resp)
	assert.Equal(t, "NOVO2024", created.Album.Code)
	require.Len(t, created.Photos, 2)

	// The new album is immediately browsable, display copies included.
	browser := newBrowser()
	resp = ts.api.Post("/api/v1/session/resolve", browser, map[string]any{"code": "NOVO2024"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	displayPath := created.Photos[0].DisplayURL[len(testPublicURL):]
	resp = ts.api.Get(displayPath)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/jpeg", resp.Header().Get("Content-Type"))
}

func TestAdminCreateAlbum_Rejects(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.seedAlbum(t, "TAKEN01", 1)
	token := ts.adminToken(t)

	tests := []struct {
		name   string
		code   string
		files  map[string][]byte
		status int
	}{
		{"invalid code", "bad code!", map[string][]byte{"a.png": testPNG(t, 8, 8)}, http.StatusBadRequest},
		{"no files", "EMPTY01", nil, http.StatusBadRequest},
		{"not an image", "TEXT01", map[string][]byte{"notes.png": []byte("hello")}, http.StatusBadRequest},
		{"duplicate code", "taken01", map[string][]byte{"a.png": testPNG(t, 8, 8)}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := albumUpload(t, tt.code, tt.files)
			resp := ts.api.Post("/api/v1/admin/albums", token, contentType, body)
			assert.Equal(t, tt.status, resp.Code, resp.Body.String())
			assert.False(t, decodeEnvelope(t, resp).Success)
		})
	}
}
