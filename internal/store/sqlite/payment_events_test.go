package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elephoto/elephoto-server/internal/domain"
	"github.com/elephoto/elephoto-server/internal/store"
)

func TestRecordPaymentEvent_UpsertBumpsAttempts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	received := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := &domain.PaymentEvent{
		EventID:    "evt_1",
		Type:       domain.EventTypeCheckoutCompleted,
		SessionID:  "cs_1",
		PhotoIDs:   []string{"pho-1", "pho-2"},
		Outcome:    domain.OutcomeFailed,
		Error:      "database is locked",
		ReceivedAt: received,
		UpdatedAt:  received,
	}
	if err := s.RecordPaymentEvent(ctx, ev); err != nil {
		t.Fatalf("RecordPaymentEvent: %v", err)
	}

	retry := *ev
	retry.Outcome = domain.OutcomeApplied
	retry.Error = ""
	retry.ReceivedAt = received.Add(time.Hour)
	retry.UpdatedAt = received.Add(time.Hour)
	if err := s.RecordPaymentEvent(ctx, &retry); err != nil {
		t.Fatalf("RecordPaymentEvent (retry): %v", err)
	}

	got, err := s.GetPaymentEvent(ctx, "evt_1")
	if err != nil {
		t.Fatalf("GetPaymentEvent: %v", err)
	}
	if got.Outcome != domain.OutcomeApplied {
		t.Errorf("Outcome: got %q", got.Outcome)
	}
	if got.Error != "" {
		t.Errorf("Error: got %q, want empty", got.Error)
	}
	if got.Attempts != 2 {
		t.Errorf("Attempts: got %d, want 2", got.Attempts)
	}
	if !got.ReceivedAt.Equal(received) {
		t.Errorf("ReceivedAt: got %v, want %v", got.ReceivedAt, received)
	}
	if len(got.PhotoIDs) != 2 || got.PhotoIDs[0] != "pho-1" {
		t.Errorf("PhotoIDs: got %v", got.PhotoIDs)
	}
}

func TestGetPaymentEvent_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetPaymentEvent(context.Background(), "evt_missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPaymentEventsByOutcome(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	for i, outcome := range []domain.ReconcileOutcome{domain.OutcomeFailed, domain.OutcomeApplied, domain.OutcomeFailed} {
		ev := &domain.PaymentEvent{
			EventID:    []string{"evt_a", "evt_b", "evt_c"}[i],
			Type:       domain.EventTypeCheckoutCompleted,
			Outcome:    outcome,
			ReceivedAt: now.Add(time.Duration(i) * time.Second),
			UpdatedAt:  now,
		}
		if err := s.RecordPaymentEvent(ctx, ev); err != nil {
			t.Fatalf("RecordPaymentEvent: %v", err)
		}
	}

	failed, err := s.ListPaymentEventsByOutcome(ctx, domain.OutcomeFailed)
	if err != nil {
		t.Fatalf("ListPaymentEventsByOutcome: %v", err)
	}
	if len(failed) != 2 {
		t.Fatalf("got %d failed events, want 2", len(failed))
	}
	if failed[0].EventID != "evt_a" || failed[1].EventID != "evt_c" {
		t.Errorf("order: got %s, %s", failed[0].EventID, failed[1].EventID)
	}
}

func TestCheckouts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &domain.Checkout{
		ID:          "cs_1",
		AlbumID:     "alb-1",
		PhotoIDs:    []string{"pho-1", "pho-2", "pho-3"},
		AmountCents: 1684,
		Currency:    "brl",
		CreatedAt:   time.Now(),
	}
	if err := s.CreateCheckout(ctx, c); err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}

	done := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.CompleteCheckout(ctx, "cs_1", done); err != nil {
		t.Fatalf("CompleteCheckout: %v", err)
	}
	if err := s.CompleteCheckout(ctx, "cs_1", done.Add(time.Hour)); err != nil {
		t.Fatalf("CompleteCheckout (again): %v", err)
	}

	got, err := s.GetCheckout(ctx, "cs_1")
	if err != nil {
		t.Fatalf("GetCheckout: %v", err)
	}
	if got.AmountCents != 1684 || len(got.PhotoIDs) != 3 {
		t.Errorf("got %+v", got)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Errorf("CompletedAt: got %v, want %v", got.CompletedAt, done)
	}

	if err := s.CompleteCheckout(ctx, "cs_missing", done); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
