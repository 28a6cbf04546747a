package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/elephoto/elephoto-server/internal/domain"
	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/media/images"
	"github.com/elephoto/elephoto-server/internal/store"
)

// ClaimStatus is the per-photo result of a claim.
type ClaimStatus string

// Claim statuses.
const (
	ClaimReady       ClaimStatus = "ready"
	ClaimPending     ClaimStatus = "pending"
	ClaimUnavailable ClaimStatus = "unavailable"
	ClaimFailed      ClaimStatus = "failed"
)

// ClaimItem describes one cart photo after a claim.
type ClaimItem struct {
	PhotoID     string
	Status      ClaimStatus
	DownloadURL string
	Size        int64
	SHA256      string
	Reason      string
}

// ClaimResult is the outcome of claiming a whole cart. Items keep cart order.
type ClaimResult struct {
	Items []ClaimItem
}

// Count returns how many items ended with status.
func (r *ClaimResult) Count(status ClaimStatus) int {
	n := 0
	for _, item := range r.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// Partial reports whether some purchasable items could not be handed out.
func (r *ClaimResult) Partial() bool {
	return r.Count(ClaimReady) > 0 && (r.Count(ClaimFailed) > 0 || r.Count(ClaimPending) > 0)
}

// UnlockService hands out originals after payment.
type UnlockService struct {
	catalog   Catalog
	sessions  store.SessionStore
	originals ObjectStore
	links     Links
	logger    *slog.Logger
}

// NewUnlockService creates a new unlock service.
func NewUnlockService(catalog Catalog, sessions store.SessionStore, originals ObjectStore, links Links, logger *slog.Logger) *UnlockService {
	return &UnlockService{
		catalog:   catalog,
		sessions:  sessions,
		originals: originals,
		links:     links,
		logger:    logger,
	}
}

// Claim walks the session's cart and returns a download for every paid
// original. One item failing never stops the others. The cart is cleared
// afterwards; paid photos stay downloadable from the gallery.
func (s *UnlockService) Claim(ctx context.Context, sessionID string) (*ClaimResult, error) {
	session, err := loadSession(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load session")
	}

	result := &ClaimResult{Items: make([]ClaimItem, 0, session.Cart.Len())}
	if session.Cart.Len() == 0 {
		return result, nil
	}

	photos, err := s.catalog.GetPhotosByIDs(ctx, session.Cart.PhotoIDs())
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load cart photos")
	}

	for _, item := range session.Cart.Items {
		result.Items = append(result.Items, s.claimOne(item, photos[item.PhotoID]))
	}

	session.Cart.Clear()
	session.Touch()
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		s.logger.Warn("failed to clear cart after claim", "session_id", sessionID, "error", err)
	}

	s.logger.Info("cart claimed",
		"album_code", session.AlbumCode,
		"ready", result.Count(ClaimReady),
		"pending", result.Count(ClaimPending),
		"unavailable", result.Count(ClaimUnavailable),
		"failed", result.Count(ClaimFailed),
	)
	return result, nil
}

func (s *UnlockService) claimOne(item domain.CartItem, photo *domain.Photo) ClaimItem {
	out := ClaimItem{PhotoID: item.PhotoID}

	if _, ok := item.Original.(domain.Purchasable); !ok {
		out.Status = ClaimUnavailable
		out.Reason = "photo has no original"
		return out
	}
	if photo == nil {
		out.Status = ClaimFailed
		out.Reason = "photo no longer exists"
		return out
	}
	if !photo.Paid {
		out.Status = ClaimPending
		out.Reason = "payment not confirmed yet"
		return out
	}

	ref := domain.OriginalRef(photo.Original)
	if ref == "" {
		out.Status = ClaimUnavailable
		out.Reason = "photo has no original"
		return out
	}

	obj, err := s.originals.Open(ref)
	if err != nil {
		s.logger.Error("original unavailable", "photo_id", photo.ID, "error", err)
		out.Status = ClaimFailed
		out.Reason = "original could not be read"
		return out
	}
	out.Size = obj.Size
	_ = obj.Close()

	sum, err := s.originals.Hash(ref)
	if err != nil {
		s.logger.Error("original checksum failed", "photo_id", photo.ID, "error", err)
		out.Status = ClaimFailed
		out.Reason = "original could not be read"
		return out
	}

	out.Status = ClaimReady
	out.SHA256 = sum
	out.DownloadURL = s.links.OriginalURL(photo.ID)
	return out
}

// OpenOriginal opens the original of a paid photo in the session's active album.
// The caller closes the returned object.
func (s *UnlockService) OpenOriginal(ctx context.Context, sessionID, photoID string) (*images.Object, error) {
	session, err := requireAlbum(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, err
	}

	photo, err := s.catalog.GetPhoto(ctx, photoID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("photo not found")
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load photo")
	}
	if photo.AlbumID != session.AlbumID {
		return nil, domainerrors.Forbidden("photo does not belong to this album")
	}
	if !photo.Paid {
		return nil, domainerrors.Forbidden("photo has not been paid for")
	}

	ref := domain.OriginalRef(photo.Original)
	if ref == "" {
		return nil, domainerrors.NotFound("photo has no original")
	}

	obj, err := s.originals.Open(ref)
	if errors.Is(err, images.ErrNotFound) {
		s.logger.Error("paid original missing from storage", "photo_id", photoID)
		return nil, domainerrors.NotFound("original not found")
	}
	if err != nil {
		return nil, domainerrors.Upstream("original could not be read").WithCause(err)
	}
	return obj, nil
}
