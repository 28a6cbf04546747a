package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/elephoto/elephoto-server/internal/domain"
)

// StripeProcessor opens Stripe Checkout sessions.
type StripeProcessor struct {
	client *session.Client
	logger *slog.Logger
}

// NewStripeProcessor creates a processor using the live Stripe API.
func NewStripeProcessor(secretKey string, logger *slog.Logger) *StripeProcessor {
	return NewStripeProcessorWithBackend(secretKey, stripe.GetBackend(stripe.APIBackend), logger)
}

// NewStripeProcessorWithBackend creates a processor against a custom backend.
func NewStripeProcessorWithBackend(secretKey string, backend stripe.Backend, logger *slog.Logger) *StripeProcessor {
	return &StripeProcessor{
		client: &session.Client{B: backend, Key: secretKey},
		logger: logger,
	}
}

// CreateSession opens a payment-mode checkout session with one line item per photo.
func (p *StripeProcessor) CreateSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems:  make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items)),
	}
	params.Context = ctx

	if req.ClientReference != "" {
		params.ClientReferenceID = stripe.String(req.ClientReference)
	}

	for _, item := range req.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:     stripe.String(item.Name),
			Metadata: map[string]string{"photo_id": item.PhotoID},
		}
		if item.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{item.ImageURL})
		}

		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(item.AmountCents),
			},
			Quantity: stripe.Int64(1),
		})
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := p.client.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	if p.logger != nil {
		p.logger.Debug("checkout session created",
			"session_id", s.ID,
			"items", len(req.Items),
		)
	}

	return &Session{ID: s.ID, URL: s.URL}, nil
}

// StripeVerifier checks Stripe-Signature headers against the endpoint secret.
type StripeVerifier struct {
	secret string
}

// NewStripeVerifier creates a verifier for one webhook endpoint secret.
func NewStripeVerifier(secret string) *StripeVerifier {
	return &StripeVerifier{secret: secret}
}

// checkoutSessionObject is the part of a checkout session we read from events.
type checkoutSessionObject struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

// Verify authenticates payload and decodes it into a notification.
// Only checkout.session.completed events have their session object decoded.
func (v *StripeVerifier) Verify(payload []byte, signature string) (*domain.PaymentNotification, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	n := &domain.PaymentNotification{
		EventID: event.ID,
		Type:    string(event.Type),
	}

	if n.Type != domain.EventTypeCheckoutCompleted || event.Data == nil {
		return n, nil
	}

	var obj checkoutSessionObject
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	n.SessionID = obj.ID
	n.AlbumID = obj.ClientReferenceID
	n.Metadata = obj.Metadata

	return n, nil
}
