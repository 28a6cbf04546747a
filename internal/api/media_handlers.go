package api

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/elephoto/elephoto-server/internal/http/response"
	"github.com/elephoto/elephoto-server/internal/media/images"
)

// handleDownloadOriginal streams a purchased original.
// GET /api/v1/photos/{id}/original
func (s *Server) handleDownloadOriginal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	photoID := chi.URLParam(r, "id")

	sessionID, err := GetSessionID(ctx)
	if err != nil {
		response.InternalError(w, "browsing session missing", s.logger)
		return
	}

	obj, err := s.services.Unlock.OpenOriginal(ctx, sessionID, photoID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	defer obj.Close()

	filename := photoID + path.Ext(obj.Name)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Cache-Control", "private, no-store")

	s.logger.Info("original downloaded", "photo_id", photoID, "bytes", obj.Size)
	http.ServeContent(w, r, filename, time.Time{}, obj)
}

// handleMedia serves public watermarked display copies.
// GET /media/{key...}
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		response.NotFound(w, "not found", s.logger)
		return
	}

	obj, err := s.storage.Displays.Open(key)
	if errors.Is(err, images.ErrNotFound) {
		response.NotFound(w, "not found", s.logger)
		return
	}
	if err != nil {
		// Invalid keys (traversal attempts) land here too.
		s.logger.Debug("display copy unavailable", "key", key, "error", err)
		response.NotFound(w, "not found", s.logger)
		return
	}
	defer obj.Close()

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, obj.Name, time.Time{}, obj)
}
