package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/elephoto/elephoto-server/internal/domain"
	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/payment"
	"github.com/elephoto/elephoto-server/internal/store"
)

// LineItemName is the product name shown on the hosted checkout page.
const LineItemName = "Foto Digital (Alta Resolução)"

// CheckoutService turns a session's cart into a hosted payment session.
// It never marks anything paid; ReconcileService does that on notification.
type CheckoutService struct {
	catalog   Catalog
	sessions  store.SessionStore
	processor payment.Processor
	checkouts CheckoutRecorder
	links     Links
	currency  string
	logger    *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(catalog Catalog, sessions store.SessionStore, processor payment.Processor, checkouts CheckoutRecorder, links Links, currency string, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		catalog:   catalog,
		sessions:  sessions,
		processor: processor,
		checkouts: checkouts,
		links:     links,
		currency:  currency,
		logger:    logger,
	}
}

// CheckoutResult is an opened payment session.
type CheckoutResult struct {
	SessionID   string
	RedirectURL string
	AmountCents int64
}

// Checkout opens a hosted payment session for the cart and returns where to
// send the browser. The cart is left untouched so a failed checkout can be retried.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string) (*CheckoutResult, error) {
	session, err := requireAlbum(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, err
	}

	n := session.Cart.Len()
	if n == 0 {
		return nil, domainerrors.Validation("cart is empty")
	}
	if n > payment.MaxMetadataKeys {
		return nil, domainerrors.Validationf("a single checkout can hold at most %d photos", payment.MaxMetadataKeys)
	}

	ids := session.Cart.PhotoIDs()
	photos, err := s.catalog.GetPhotosByIDs(ctx, ids)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load cart photos")
	}
	for _, photoID := range ids {
		p, ok := photos[photoID]
		if !ok || p.AlbumID != session.AlbumID {
			return nil, domainerrors.NotFound("a photo in the cart is no longer available").
				WithDetails(map[string]string{"photo_id": photoID})
		}
	}

	summary := summarize(session, s.links)
	req := &payment.SessionRequest{
		Currency:        s.currency,
		Items:           make([]payment.LineItem, 0, n),
		Metadata:        payment.EncodeIDs(ids),
		ClientReference: session.AlbumID,
		SuccessURL:      s.links.SuccessURL(),
		CancelURL:       s.links.CancelURL(),
	}
	for _, line := range summary.Items {
		req.Items = append(req.Items, payment.LineItem{
			PhotoID:     line.PhotoID,
			Name:        LineItemName,
			ImageURL:    line.DisplayURL,
			AmountCents: line.AmountCents,
		})
	}

	opened, err := s.processor.CreateSession(ctx, req)
	if err != nil {
		s.logger.Error("payment session creation failed",
			"album_id", session.AlbumID,
			"items", n,
			"error", err,
		)
		return nil, domainerrors.Upstream("payment is temporarily unavailable, please try again").WithCause(err)
	}

	record := &domain.Checkout{
		ID:          opened.ID,
		AlbumID:     session.AlbumID,
		PhotoIDs:    ids,
		AmountCents: summary.TotalCents,
		Currency:    s.currency,
		CreatedAt:   time.Now(),
	}
	if err := s.checkouts.CreateCheckout(ctx, record); err != nil {
		// The payment can still complete; reconciliation does not depend on this row.
		s.logger.Warn("failed to record checkout", "checkout_id", opened.ID, "error", err)
	}

	s.logger.Info("checkout opened",
		"checkout_id", opened.ID,
		"album_code", session.AlbumCode,
		"items", n,
		"amount_cents", summary.TotalCents,
	)

	return &CheckoutResult{
		SessionID:   opened.ID,
		RedirectURL: opened.URL,
		AmountCents: summary.TotalCents,
	}, nil
}
