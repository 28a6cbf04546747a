package api

import (
	"errors"
	"io"
	"net/http"

	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/http/response"
)

// StripeSignatureHeader carries the processor's notification signature.
const StripeSignatureHeader = "Stripe-Signature"

// WebhookAck is the body returned to the processor on acceptance.
type WebhookAck struct {
	Received bool `json:"received"`
}

// handleStripeWebhook receives payment notifications.
// POST /webhooks/stripe
//
// The raw body is handed to reconciliation untouched; the signature covers
// the exact bytes.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.MethodNotAllowed(w, s.logger, http.MethodPost)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "payload too large", s.logger)
			return
		}
		response.BadRequest(w, "failed to read body", s.logger)
		return
	}

	result, err := s.services.Reconcile.HandleNotification(r.Context(), payload, r.Header.Get(StripeSignatureHeader))
	if err != nil {
		switch domainerrors.CodeOf(err) {
		case domainerrors.CodeUntrusted:
			response.BadRequest(w, "invalid signature", s.logger)
		default:
			// The processor redelivers on any non-2xx answer.
			response.InternalError(w, "payment could not be applied", s.logger)
		}
		return
	}

	s.logger.Debug("payment notification acknowledged", "event_id", result.EventID, "outcome", result.Outcome)
	response.Raw(w, http.StatusOK, WebhookAck{Received: true}, s.logger)
}
