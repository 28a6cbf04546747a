package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/elephoto/elephoto-server/internal/domain"
	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/pricing"
	"github.com/elephoto/elephoto-server/internal/store"
)

// CartService manages the photo selection held by a browsing session.
type CartService struct {
	catalog  Catalog
	sessions store.SessionStore
	links    Links
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(catalog Catalog, sessions store.SessionStore, links Links, logger *slog.Logger) *CartService {
	return &CartService{
		catalog:  catalog,
		sessions: sessions,
		links:    links,
		logger:   logger,
	}
}

// CartLine is one cart item with the price its position earns.
type CartLine struct {
	Position    int
	PhotoID     string
	DisplayURL  string
	Purchasable bool
	Price       decimal.Decimal
	AmountCents int64
}

// CartSummary is the priced content of a cart.
type CartSummary struct {
	Items []CartLine
	// Total is exact; TotalDisplay is what the customer sees and is charged.
	Total        decimal.Decimal
	TotalDisplay string
	TotalCents   int64
}

// Count returns the number of items in the cart.
func (c *CartSummary) Count() int {
	return len(c.Items)
}

// Add puts a photo of the active album in the cart. Adding a photo that is
// already there changes nothing.
func (s *CartService) Add(ctx context.Context, sessionID, photoID string) (*CartSummary, error) {
	session, err := requireAlbum(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Cart.Contains(photoID) {
		return summarize(session, s.links), nil
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

	session.Cart.Add(domain.CartItem{
		PhotoID:    photo.ID,
		DisplayKey: photo.DisplayKey,
		ListPrice:  photo.ListPrice,
		Original:   photo.Original,
	})
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return summarize(session, s.links), nil
}

// Remove drops a photo from the cart. Removing an absent photo changes nothing.
func (s *CartService) Remove(ctx context.Context, sessionID, photoID string) (*CartSummary, error) {
	session, err := loadSession(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load session")
	}

	if session.Cart.Remove(photoID) {
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
	}
	return summarize(session, s.links), nil
}

// Clear empties the cart and keeps the active album.
func (s *CartService) Clear(ctx context.Context, sessionID string) (*CartSummary, error) {
	session, err := loadSession(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load session")
	}

	if session.Cart.Len() > 0 {
		session.Cart.Clear()
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
	}
	return summarize(session, s.links), nil
}

// Summary prices the current cart.
func (s *CartService) Summary(ctx context.Context, sessionID string) (*CartSummary, error) {
	session, err := loadSession(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load session")
	}
	return summarize(session, s.links), nil
}

func (s *CartService) save(ctx context.Context, session *domain.BrowsingSession) error {
	session.Touch()
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save cart")
	}
	return nil
}

// summarize prices a session's cart. It is recomputed from scratch on every
// call; carts are small.
func summarize(session *domain.BrowsingSession, links Links) *CartSummary {
	quote := pricing.QuoteFor(session.Cart.Len())

	summary := &CartSummary{
		Items:        make([]CartLine, 0, len(quote.Lines)),
		Total:        quote.Total,
		TotalDisplay: pricing.Display(quote.Total),
		TotalCents:   quote.TotalCents,
	}
	for i, item := range session.Cart.Items {
		line := quote.Lines[i]
		summary.Items = append(summary.Items, CartLine{
			Position:    line.Position,
			PhotoID:     item.PhotoID,
			DisplayURL:  links.DisplayURL(item.DisplayKey),
			Purchasable: domain.OriginalRef(item.Original) != "",
			Price:       line.Price,
			AmountCents: line.AmountCents,
		})
	}
	return summary
}
