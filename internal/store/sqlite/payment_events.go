package sqlite

import (
	"context"
	"database/sql"

	"github.com/elephoto/elephoto-server/internal/domain"
	"github.com/elephoto/elephoto-server/internal/store"
)

const paymentEventColumns = `event_id, type, session_id, photo_ids, outcome,
	error, attempts, received_at, updated_at`

func scanPaymentEvent(scanner interface{ Scan(dest ...any) error }) (*domain.PaymentEvent, error) {
	var e domain.PaymentEvent

	var (
		photoIDs   string
		outcome    string
		receivedAt string
		updatedAt  string
	)

	err := scanner.Scan(
		&e.EventID,
		&e.Type,
		&e.SessionID,
		&photoIDs,
		&outcome,
		&e.Error,
		&e.Attempts,
		&receivedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Outcome = domain.ReconcileOutcome(outcome)

	e.PhotoIDs, err = decodeIDs(photoIDs)
	if err != nil {
		return nil, err
	}
	e.ReceivedAt, err = parseTime(receivedAt)
	if err != nil {
		return nil, err
	}
	e.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// RecordPaymentEvent inserts a ledger row, or on redelivery of the same event
// updates its outcome and bumps the attempt counter. received_at is kept from
// the first delivery.
func (s *Store) RecordPaymentEvent(ctx context.Context, e *domain.PaymentEvent) error {
	photoIDs, err := encodeIDs(e.PhotoIDs)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO payment_events (
			event_id, type, session_id, photo_ids, outcome,
			error, attempts, received_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			photo_ids = excluded.photo_ids,
			outcome = excluded.outcome,
			error = excluded.error,
			attempts = payment_events.attempts + 1,
			updated_at = excluded.updated_at`,
		e.EventID,
		e.Type,
		e.SessionID,
		photoIDs,
		string(e.Outcome),
		e.Error,
		formatTime(e.ReceivedAt),
		formatTime(e.UpdatedAt),
	)
	return err
}

// GetPaymentEvent retrieves a ledger row by processor event ID.
// Returns store.ErrNotFound if the event was never recorded.
func (s *Store) GetPaymentEvent(ctx context.Context, eventID string) (*domain.PaymentEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+paymentEventColumns+` FROM payment_events WHERE event_id = ?`, eventID)

	e, err := scanPaymentEvent(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListPaymentEventsByOutcome returns ledger rows with the given outcome, oldest first.
func (s *Store) ListPaymentEventsByOutcome(ctx context.Context, outcome domain.ReconcileOutcome) ([]*domain.PaymentEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paymentEventColumns+` FROM payment_events WHERE outcome = ? ORDER BY received_at`,
		string(outcome))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.PaymentEvent
	for rows.Next() {
		e, err := scanPaymentEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
