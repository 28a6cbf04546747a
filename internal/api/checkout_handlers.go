package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/elephoto/elephoto-server/internal/pricing"
	"github.com/elephoto/elephoto-server/internal/service"
)

func (s *Server) registerCheckoutRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "checkout",
		Method:      http.MethodPost,
		Path:        "/api/v1/checkout",
		Summary:     "Start checkout",
		Description: "Opens a hosted payment page for the cart and returns where to send the browser",
		Tags:        []string{"Checkout"},
	}, handle(s.handleCheckout))

	huma.Register(s.api, huma.Operation{
		OperationID: "claim",
		Method:      http.MethodPost,
		Path:        "/api/v1/claim",
		Summary:     "Claim purchased originals",
		Description: "Returns a download for every paid photo in the cart, then empties the cart. " +
			"Items that cannot be handed out are reported individually.",
		Tags: []string{"Checkout"},
	}, handle(s.handleClaim))
}

// === DTOs ===

// CheckoutResponse is an opened payment session.
type CheckoutResponse struct {
	SessionID   string `json:"session_id" doc:"Payment session ID"`
	RedirectURL string `json:"redirect_url" doc:"Hosted payment page"`
	Amount      string `json:"amount" doc:"Charged total, two decimals"`
	AmountCents int64  `json:"amount_cents" doc:"Charged total in cents"`
}

// CheckoutOutput wraps the checkout response for Huma.
type CheckoutOutput struct {
	Body CheckoutResponse
}

// ClaimItemResponse is the claim result for one cart photo.
type ClaimItemResponse struct {
	PhotoID     string `json:"photo_id" doc:"Photo ID"`
	Status      string `json:"status" enum:"ready,pending,unavailable,failed" doc:"Per-item result"`
	DownloadURL string `json:"download_url,omitempty" doc:"Original download when ready"`
	Size        int64  `json:"size,omitempty" doc:"Original size in bytes"`
	SHA256      string `json:"sha256,omitempty" doc:"Original checksum"`
	Reason      string `json:"reason,omitempty" doc:"Why the item is not ready"`
}

// ClaimResponse lists every item of a claim. Partial is set when some paid
// items could not be handed out.
type ClaimResponse struct {
	Items   []ClaimItemResponse `json:"items" doc:"Per-item results in cart order"`
	Ready   int                 `json:"ready" doc:"Number of downloads handed out"`
	Partial bool                `json:"partial" doc:"Some items failed or are still pending"`
}

// ClaimOutput wraps the claim response for Huma.
type ClaimOutput struct {
	Body ClaimResponse
}

// === Handlers ===

func (s *Server) handleCheckout(ctx context.Context, _ *struct{}) (*CheckoutOutput, error) {
	sessionID, err := GetSessionID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Checkout.Checkout(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &CheckoutOutput{Body: CheckoutResponse{
		SessionID:   result.SessionID,
		RedirectURL: result.RedirectURL,
		Amount:      pricing.Display(pricing.FromCents(result.AmountCents)),
		AmountCents: result.AmountCents,
	}}, nil
}

func (s *Server) handleClaim(ctx context.Context, _ *struct{}) (*ClaimOutput, error) {
	sessionID, err := GetSessionID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Unlock.Claim(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	resp := ClaimResponse{
		Items:   make([]ClaimItemResponse, len(result.Items)),
		Ready:   result.Count(service.ClaimReady),
		Partial: result.Partial(),
	}
	for i, item := range result.Items {
		resp.Items[i] = ClaimItemResponse{
			PhotoID:     item.PhotoID,
			Status:      string(item.Status),
			DownloadURL: item.DownloadURL,
			Size:        item.Size,
			SHA256:      item.SHA256,
			Reason:      item.Reason,
		}
	}
	return &ClaimOutput{Body: resp}, nil
}
