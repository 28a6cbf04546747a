package domain

import "time"

// EventTypeCheckoutCompleted is the only processor event that unlocks photos.
const EventTypeCheckoutCompleted = "checkout.session.completed"

// PaymentNotification is a verified event delivered by the payment processor.
type PaymentNotification struct {
	EventID   string
	Type      string
	SessionID string
	// AlbumID is the client reference attached at checkout, if any.
	AlbumID  string
	Metadata map[string]string
}

// ReconcileOutcome records what reconciliation did with one notification.
type ReconcileOutcome string

// Reconciliation outcomes.
const (
	OutcomeApplied  ReconcileOutcome = "applied"
	OutcomeNoPhotos ReconcileOutcome = "no_photos"
	OutcomeIgnored  ReconcileOutcome = "ignored"
	OutcomeFailed   ReconcileOutcome = "failed"
)

// PaymentEvent is the audit row kept for every verified notification.
// Failed rows carry the photo ids that still need to be marked paid.
type PaymentEvent struct {
	EventID    string
	Type       string
	SessionID  string
	PhotoIDs   []string
	Outcome    ReconcileOutcome
	Error      string
	Attempts   int
	ReceivedAt time.Time
	UpdatedAt  time.Time
}

// Checkout is a snapshot of what was sent to the processor for one payment session.
type Checkout struct {
	ID          string
	AlbumID     string
	PhotoIDs    []string
	AmountCents int64
	Currency    string
	CreatedAt   time.Time
	CompletedAt *time.Time
}
