// Package payment adapts the hosted-checkout payment processor.
//
// The rest of the server talks to Processor and Verifier only; the Stripe
// implementations live in stripe.go.
package payment

import (
	"context"
	"errors"

	"github.com/elephoto/elephoto-server/internal/domain"
)

// ErrInvalidSignature is returned when a notification's authenticity cannot be established.
var ErrInvalidSignature = errors.New("payment: invalid notification signature")

// LineItem is one purchasable photo on a hosted checkout page.
type LineItem struct {
	PhotoID     string
	Name        string
	ImageURL    string
	AmountCents int64
}

// SessionRequest describes a hosted checkout to open.
type SessionRequest struct {
	Currency string
	Items    []LineItem
	// Metadata is attached to the session and echoed back on completion.
	Metadata        map[string]string
	ClientReference string
	SuccessURL      string
	CancelURL       string
}

// Session is an opened hosted checkout.
type Session struct {
	ID  string
	URL string
}

// Processor opens hosted checkout sessions.
type Processor interface {
	CreateSession(ctx context.Context, req *SessionRequest) (*Session, error)
}

// Verifier authenticates a raw notification body and decodes it.
// It returns an error wrapping ErrInvalidSignature when the signature does not match.
type Verifier interface {
	Verify(payload []byte, signature string) (*domain.PaymentNotification, error)
}
