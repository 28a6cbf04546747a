package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedia_ServesDisplayCopy(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, photos := ts.seedAlbum(t, "MEDIA01", 1)

	resp := ts.api.Get("/media/" + photos[0].DisplayKey)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "display bytes of "+photos[0].ID, resp.Body.String())
	assert.Contains(t, resp.Header().Get("Cache-Control"), "public")
}

func TestMedia_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	tests := []string{
		"/media/NOPE/display_0.jpg",
		"/media/..%2F..%2Foriginals%2FMEDIA01%2Foriginal_0.jpg",
	}
	for _, path := range tests {
		resp := ts.api.Get(path)
		assert.Equal(t, http.StatusNotFound, resp.Code, path)
	}
}

func TestDownloadOriginal_RequiresPayment(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, photos := ts.seedAlbum(t, "GATE01", 2)
	browser := newBrowser()
	path := "/api/v1/photos/" + photos[0].ID + "/original"

	// No album entered yet.
	resp := ts.api.Get(path, browser)
	assert.Equal(t, http.StatusForbidden, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/session/resolve", browser, map[string]any{"code": "GATE01"})
	require.Equal(t, http.StatusOK, resp.Code)

	// Album entered, photo unpaid.
	resp = ts.api.Get(path, browser)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.NotContains(t, resp.Body.String(), "original bytes")

	_, err := ts.db.MarkPhotosPaid(context.Background(), []string{photos[0].ID}, time.Now())
	require.NoError(t, err)

	resp = ts.api.Get(path, browser)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "original bytes of "+photos[0].ID, resp.Body.String())
	assert.Equal(t, "private, no-store", resp.Header().Get("Cache-Control"))

	resp = ts.api.Get("/api/v1/photos/pho-unknown/original", browser)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDownloadOriginal_OtherAlbum(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	_, photos := ts.seedAlbum(t, "ALBUMA", 1)
	ts.seedAlbum(t, "ALBUMB", 1)
	_, err := ts.db.MarkPhotosPaid(context.Background(), []string{photos[0].ID}, time.Now())
	require.NoError(t, err)

	browser := newBrowser()
	resp := ts.api.Post("/api/v1/session/resolve", browser, map[string]any{"code": "ALBUMB"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/photos/"+photos[0].ID+"/original", browser)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}
