package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/elephoto/elephoto-server/internal/domain"
	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/payment"
	"github.com/elephoto/elephoto-server/internal/sse"
	"github.com/elephoto/elephoto-server/internal/store"
)

// FailurePolicy decides how a store failure while applying a payment is
// answered to the processor.
type FailurePolicy int

const (
	// AcknowledgeOnFailure answers success and leaves the event in the ledger
	// as failed for a manual retry.
	AcknowledgeOnFailure FailurePolicy = iota
	// RetryOnFailure answers an error so the processor redelivers the event.
	RetryOnFailure
)

// ParseFailurePolicy maps the configured policy name. Unknown names acknowledge.
func ParseFailurePolicy(name string) FailurePolicy {
	if name == "retry" {
		return RetryOnFailure
	}
	return AcknowledgeOnFailure
}

// ReconcileService applies verified payment notifications to the record store.
// It is safe under duplicate and concurrent delivery of the same event.
type ReconcileService struct {
	verifier payment.Verifier
	ledger   PaymentLedger
	catalog  Catalog
	checkout CheckoutRecorder
	events   Emitter
	policy   FailurePolicy
	now      func() time.Time
	logger   *slog.Logger
}

// NewReconcileService creates a new reconciliation service. events may be nil.
func NewReconcileService(verifier payment.Verifier, ledger PaymentLedger, catalog Catalog, checkout CheckoutRecorder, events Emitter, policy FailurePolicy, logger *slog.Logger) *ReconcileService {
	return &ReconcileService{
		verifier: verifier,
		ledger:   ledger,
		catalog:  catalog,
		checkout: checkout,
		events:   events,
		policy:   policy,
		now:      time.Now,
		logger:   logger,
	}
}

// ReconcileResult is what happened to one notification.
type ReconcileResult struct {
	EventID  string
	Outcome  domain.ReconcileOutcome
	PhotoIDs []string
}

// HandleNotification verifies and applies one raw notification.
//
// A bad signature returns an UNTRUSTED_INPUT error and touches nothing.
// Every verified notification is acknowledged (nil error) except a store
// failure under RetryOnFailure, which returns an INTERNAL error.
func (s *ReconcileService) HandleNotification(ctx context.Context, payload []byte, signature string) (*ReconcileResult, error) {
	n, err := s.verifier.Verify(payload, signature)
	if err != nil {
		s.logger.Warn("payment notification rejected", "error", err)
		return nil, domainerrors.Untrusted("invalid notification signature").WithCause(err)
	}

	log := s.logger.With("event_id", n.EventID, "event_type", n.Type)

	if n.Type != domain.EventTypeCheckoutCompleted {
		log.Debug("payment notification ignored")
		s.record(ctx, n, nil, domain.OutcomeIgnored, "")
		return &ReconcileResult{EventID: n.EventID, Outcome: domain.OutcomeIgnored}, nil
	}

	ids := payment.DecodeIDs(n.Metadata)
	if len(ids) == 0 {
		log.Warn("checkout completed without photo ids", "checkout_id", n.SessionID)
		s.record(ctx, n, nil, domain.OutcomeNoPhotos, "")
		s.completeCheckout(ctx, n.SessionID)
		return &ReconcileResult{EventID: n.EventID, Outcome: domain.OutcomeNoPhotos}, nil
	}

	if err := s.apply(ctx, n.AlbumID, ids); err != nil {
		log.Error("failed to mark photos paid",
			"checkout_id", n.SessionID,
			"photo_ids", ids,
			"error", err,
		)
		s.record(ctx, n, ids, domain.OutcomeFailed, err.Error())
		if s.policy == RetryOnFailure {
			return nil, domainerrors.Internal("payment could not be applied").WithCause(err)
		}
		return &ReconcileResult{EventID: n.EventID, Outcome: domain.OutcomeFailed, PhotoIDs: ids}, nil
	}

	s.record(ctx, n, ids, domain.OutcomeApplied, "")
	s.completeCheckout(ctx, n.SessionID)

	log.Info("photos marked paid", "checkout_id", n.SessionID, "count", len(ids))
	return &ReconcileResult{EventID: n.EventID, Outcome: domain.OutcomeApplied, PhotoIDs: ids}, nil
}

// ListFailed returns ledger rows whose photos still need to be marked paid.
func (s *ReconcileService) ListFailed(ctx context.Context) ([]*domain.PaymentEvent, error) {
	events, err := s.ledger.ListPaymentEventsByOutcome(ctx, domain.OutcomeFailed)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list payment events")
	}
	return events, nil
}

// Retry re-applies a failed event from the ledger.
func (s *ReconcileService) Retry(ctx context.Context, eventID string) (*domain.PaymentEvent, error) {
	event, err := s.ledger.GetPaymentEvent(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("payment event not found")
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load payment event")
	}
	if event.Outcome != domain.OutcomeFailed {
		return nil, domainerrors.Conflictf("payment event is %s, only failed events can be retried", event.Outcome)
	}

	if err := s.apply(ctx, "", event.PhotoIDs); err != nil {
		s.logger.Error("retry failed to mark photos paid",
			"event_id", eventID,
			"photo_ids", event.PhotoIDs,
			"error", err,
		)
		event.Error = err.Error()
		event.UpdatedAt = s.now()
		if recErr := s.ledger.RecordPaymentEvent(ctx, event); recErr != nil {
			s.logger.Warn("failed to update payment ledger", "event_id", eventID, "error", recErr)
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "payment could not be applied")
	}

	event.Outcome = domain.OutcomeApplied
	event.Error = ""
	event.UpdatedAt = s.now()
	if err := s.ledger.RecordPaymentEvent(ctx, event); err != nil {
		s.logger.Warn("failed to update payment ledger", "event_id", eventID, "error", err)
	}
	s.completeCheckout(ctx, event.SessionID)

	s.logger.Info("failed payment re-applied", "event_id", eventID, "count", len(event.PhotoIDs))
	return event, nil
}

// apply marks ids paid in one statement and notifies browsing clients.
func (s *ReconcileService) apply(ctx context.Context, albumID string, ids []string) error {
	if _, err := s.ledger.MarkPhotosPaid(ctx, ids, s.now()); err != nil {
		return err
	}
	s.notify(ctx, albumID, ids)
	return nil
}

// notify emits photos.paid per album. Without a client reference the albums
// are looked up from the photos themselves.
func (s *ReconcileService) notify(ctx context.Context, albumID string, ids []string) {
	if s.events == nil {
		return
	}
	if albumID != "" {
		s.events.Emit(sse.NewPhotosPaidEvent(albumID, ids))
		return
	}

	photos, err := s.catalog.GetPhotosByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to resolve albums for paid photos", "error", err)
		return
	}
	byAlbum := make(map[string][]string)
	for _, photoID := range ids {
		if p, ok := photos[photoID]; ok {
			byAlbum[p.AlbumID] = append(byAlbum[p.AlbumID], photoID)
		}
	}
	albums := make([]string, 0, len(byAlbum))
	for a := range byAlbum {
		albums = append(albums, a)
	}
	sort.Strings(albums)
	for _, a := range albums {
		s.events.Emit(sse.NewPhotosPaidEvent(a, byAlbum[a]))
	}
}

// record writes the audit row. A ledger failure never changes the answer
// given to the processor.
func (s *ReconcileService) record(ctx context.Context, n *domain.PaymentNotification, ids []string, outcome domain.ReconcileOutcome, errMsg string) {
	now := s.now()
	err := s.ledger.RecordPaymentEvent(ctx, &domain.PaymentEvent{
		EventID:    n.EventID,
		Type:       n.Type,
		SessionID:  n.SessionID,
		PhotoIDs:   ids,
		Outcome:    outcome,
		Error:      errMsg,
		ReceivedAt: now,
		UpdatedAt:  now,
	})
	if err != nil {
		s.logger.Warn("failed to record payment event", "event_id", n.EventID, "outcome", outcome, "error", err)
	}
}

func (s *ReconcileService) completeCheckout(ctx context.Context, checkoutID string) {
	if checkoutID == "" {
		return
	}
	err := s.checkout.CompleteCheckout(ctx, checkoutID, s.now())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("failed to complete checkout", "checkout_id", checkoutID, "error", err)
	}
}
