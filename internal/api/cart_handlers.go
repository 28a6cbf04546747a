package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/elephoto/elephoto-server/internal/pricing"
	"github.com/elephoto/elephoto-server/internal/service"
)

func (s *Server) registerCartRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCart",
		Method:      http.MethodGet,
		Path:        "/api/v1/cart",
		Summary:     "Get cart",
		Description: "Returns the cart with progressive per-position prices",
		Tags:        []string{"Cart"},
	}, handle(s.handleGetCart))

	huma.Register(s.api, huma.Operation{
		OperationID: "addToCart",
		Method:      http.MethodPost,
		Path:        "/api/v1/cart",
		Summary:     "Add photo to cart",
		Description: "Adds a photo of the active album. Adding a photo twice changes nothing.",
		Tags:        []string{"Cart"},
	}, handle(s.handleAddToCart))

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFromCart",
		Method:      http.MethodDelete,
		Path:        "/api/v1/cart/{photoID}",
		Summary:     "Remove photo from cart",
		Description: "Removes a photo. Removing a photo that is not in the cart changes nothing.",
		Tags:        []string{"Cart"},
	}, handle(s.handleRemoveFromCart))

	huma.Register(s.api, huma.Operation{
		OperationID: "clearCart",
		Method:      http.MethodDelete,
		Path:        "/api/v1/cart",
		Summary:     "Clear cart",
		Description: "Empties the cart and keeps the active album",
		Tags:        []string{"Cart"},
	}, handle(s.handleClearCart))
}

// === DTOs ===

// AddToCartRequest is the request body for adding a photo.
type AddToCartRequest struct {
	PhotoID string `json:"photo_id" maxLength:"64" validate:"required,photoid" doc:"Photo to add"`
}

// AddToCartInput wraps the add request for Huma.
type AddToCartInput struct {
	Body AddToCartRequest
}

// RemoveFromCartInput contains the photo to remove.
type RemoveFromCartInput struct {
	PhotoID string `path:"photoID" doc:"Photo to remove"`
}

// CartLineResponse is one cart item and the price of its position.
type CartLineResponse struct {
	Position    int    `json:"position" doc:"1-based position in the cart"`
	PhotoID     string `json:"photo_id" doc:"Photo ID"`
	DisplayURL  string `json:"display_url" doc:"Watermarked display copy"`
	Purchasable bool   `json:"purchasable" doc:"Whether an original exists to buy"`
	Price       string `json:"price" doc:"Price of this position, two decimals"`
	AmountCents int64  `json:"amount_cents" doc:"Charged amount for this line in cents"`
}

// CartResponse is the priced cart.
type CartResponse struct {
	Items      []CartLineResponse `json:"items" doc:"Cart items in order"`
	Count      int                `json:"count" doc:"Number of items"`
	Total      string             `json:"total" doc:"Total shown and charged, two decimals"`
	TotalCents int64              `json:"total_cents" doc:"Total in cents"`
}

// CartOutput wraps the cart response for Huma.
type CartOutput struct {
	Body CartResponse
}

// === Handlers ===

func (s *Server) handleGetCart(ctx context.Context, _ *struct{}) (*CartOutput, error) {
	sessionID, err := GetSessionID(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.services.Cart.Summary(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &CartOutput{Body: toCartResponse(summary)}, nil
}

func (s *Server) handleAddToCart(ctx context.Context, input *AddToCartInput) (*CartOutput, error) {
	sessionID, err := GetSessionID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	summary, err := s.services.Cart.Add(ctx, sessionID, input.Body.PhotoID)
	if err != nil {
		return nil, err
	}
	return &CartOutput{Body: toCartResponse(summary)}, nil
}

func (s *Server) handleRemoveFromCart(ctx context.Context, input *RemoveFromCartInput) (*CartOutput, error) {
	sessionID, err := GetSessionID(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.services.Cart.Remove(ctx, sessionID, input.PhotoID)
	if err != nil {
		return nil, err
	}
	return &CartOutput{Body: toCartResponse(summary)}, nil
}

func (s *Server) handleClearCart(ctx context.Context, _ *struct{}) (*CartOutput, error) {
	sessionID, err := GetSessionID(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.services.Cart.Clear(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &CartOutput{Body: toCartResponse(summary)}, nil
}

func toCartResponse(summary *service.CartSummary) CartResponse {
	resp := CartResponse{
		Items:      make([]CartLineResponse, len(summary.Items)),
		Count:      summary.Count(),
		Total:      summary.TotalDisplay,
		TotalCents: summary.TotalCents,
	}
	for i, line := range summary.Items {
		resp.Items[i] = CartLineResponse{
			Position:    line.Position,
			PhotoID:     line.PhotoID,
			DisplayURL:  line.DisplayURL,
			Purchasable: line.Purchasable,
			Price:       pricing.Display(line.Price),
			AmountCents: line.AmountCents,
		}
	}
	return resp
}
