package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/elephoto/elephoto-server/internal/domain"
	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/pricing"
	"github.com/elephoto/elephoto-server/internal/store"
)

// Limiter decides whether a caller identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// AccessService resolves access codes into albums and scopes the browsing
// session to the album it unlocked.
type AccessService struct {
	catalog  Catalog
	sessions store.SessionStore
	limiter  Limiter
	links    Links
	logger   *slog.Logger
}

// NewAccessService creates a new access service. limiter may be nil.
func NewAccessService(catalog Catalog, sessions store.SessionStore, limiter Limiter, links Links, logger *slog.Logger) *AccessService {
	return &AccessService{
		catalog:  catalog,
		sessions: sessions,
		limiter:  limiter,
		links:    links,
		logger:   logger,
	}
}

// GalleryPhoto is a photo as shown to a customer. It never carries the
// original's storage key.
type GalleryPhoto struct {
	ID          string
	DisplayURL  string
	BlurHash    string
	ListPrice   string
	Paid        bool
	Purchasable bool
	InCart      bool
	// DownloadURL is set once the photo is paid and has an original.
	DownloadURL string
}

// SessionView is the state of a browsing session.
type SessionView struct {
	AlbumID   string
	AlbumCode string
	Cart      *CartSummary
}

// Resolve normalizes raw, looks up the album with that code and makes it the
// session's active album. Entering any code empties the cart.
// clientKey identifies the caller for rate limiting (usually the client IP).
func (s *AccessService) Resolve(ctx context.Context, sessionID, clientKey, raw string) (*domain.Album, error) {
	code := domain.NormalizeCode(raw)
	if code == "" {
		return nil, domainerrors.Validation("access code is required")
	}
	if !domain.ValidCode(code) {
		return nil, domainerrors.Validationf("access code must contain only letters A-Z and digits, at most %d characters", domain.MaxCodeLength)
	}

	if s.limiter != nil && !s.limiter.Allow(clientKey) {
		s.logger.Warn("access code attempts rate limited", "client", clientKey)
		return nil, domainerrors.RateLimited("too many attempts, please wait a minute and try again")
	}

	album, err := s.catalog.GetAlbumByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("no album matches this code")
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to look up album")
	}

	session, err := loadSession(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load session")
	}

	session.EnterAlbum(album)
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save session")
	}

	s.logger.Debug("album unlocked", "album_code", album.Code, "session_id", sessionID)
	return album, nil
}

// ListPhotos returns the photos of the session's active album.
func (s *AccessService) ListPhotos(ctx context.Context, sessionID string) ([]GalleryPhoto, error) {
	session, err := requireAlbum(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, err
	}

	photos, err := s.catalog.ListPhotosByAlbum(ctx, session.AlbumID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list photos")
	}

	out := make([]GalleryPhoto, 0, len(photos))
	for _, p := range photos {
		g := GalleryPhoto{
			ID:          p.ID,
			DisplayURL:  s.links.DisplayURL(p.DisplayKey),
			BlurHash:    p.BlurHash,
			ListPrice:   pricing.Display(p.ListPrice),
			Paid:        p.Paid,
			Purchasable: p.IsPurchasable(),
			InCart:      session.Cart.Contains(p.ID),
		}
		if p.Paid && g.Purchasable {
			g.DownloadURL = s.links.OriginalURL(p.ID)
		}
		out = append(out, g)
	}
	return out, nil
}

// Current returns the active album and cart of a session. A session that
// never resolved a code has an empty view.
func (s *AccessService) Current(ctx context.Context, sessionID string) (*SessionView, error) {
	session, err := loadSession(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load session")
	}
	return &SessionView{
		AlbumID:   session.AlbumID,
		AlbumCode: session.AlbumCode,
		Cart:      summarize(session, s.links),
	}, nil
}

// Logout forgets the active album and the cart.
func (s *AccessService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to end session")
	}
	return nil
}

// ActiveAlbum returns the album id the session unlocked, or "" if none.
func (s *AccessService) ActiveAlbum(ctx context.Context, sessionID string) (string, error) {
	session, err := loadSession(ctx, s.sessions, sessionID)
	if err != nil {
		return "", err
	}
	return session.AlbumID, nil
}

func requireAlbum(ctx context.Context, sessions store.SessionStore, sessionID string) (*domain.BrowsingSession, error) {
	session, err := loadSession(ctx, sessions, sessionID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load session")
	}
	if !session.HasAlbum() {
		return nil, domainerrors.Forbidden("enter an access code first")
	}
	return session, nil
}
