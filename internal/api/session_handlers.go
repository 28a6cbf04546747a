package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "resolveAccessCode",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/resolve",
		Summary:     "Enter an access code",
		Description: "Unlocks the album printed on the customer's card. Entering any code empties the cart.",
		Tags:        []string{"Session"},
	}, handle(s.handleResolveCode))

	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/session",
		Summary:     "Get browsing session",
		Description: "Returns the active album and the priced cart",
		Tags:        []string{"Session"},
	}, handle(s.handleGetSession))

	huma.Register(s.api, huma.Operation{
		OperationID: "endSession",
		Method:      http.MethodDelete,
		Path:        "/api/v1/session",
		Summary:     "Leave the album",
		Description: "Forgets the active album and the cart",
		Tags:        []string{"Session"},
	}, handle(s.handleEndSession))
}

// === DTOs ===

// ResolveCodeRequest is the request body for entering an access code.
type ResolveCodeRequest struct {
	Code string `json:"code" maxLength:"64" doc:"Access code, case-insensitive"`
}

// ResolveCodeInput wraps the resolve request for Huma.
type ResolveCodeInput struct {
	Body ResolveCodeRequest
}

// AlbumResponse is the album a session unlocked.
type AlbumResponse struct {
	ID   string `json:"id" doc:"Album ID"`
	Code string `json:"code" doc:"Normalized access code"`
}

// AlbumOutput wraps the album response for Huma.
type AlbumOutput struct {
	Body AlbumResponse
}

// SessionResponse is the state of a browsing session.
type SessionResponse struct {
	AlbumID   string       `json:"album_id,omitempty" doc:"Active album, empty before a code is entered"`
	AlbumCode string       `json:"album_code,omitempty" doc:"Active access code"`
	Cart      CartResponse `json:"cart" doc:"Priced cart"`
}

// SessionOutput wraps the session response for Huma.
type SessionOutput struct {
	Body SessionResponse
}

// MessageResponse is a generic acknowledgement.
type MessageResponse struct {
	Message string `json:"message" doc:"Result message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleResolveCode(ctx context.Context, input *ResolveCodeInput) (*AlbumOutput, error) {
	sessionID, err := GetSessionID(ctx)
	if err != nil {
		return nil, err
	}

	album, err := s.services.Access.Resolve(ctx, sessionID, clientIP(ctx), input.Body.Code)
	if err != nil {
		return nil, err
	}

	return &AlbumOutput{Body: AlbumResponse{ID: album.ID, Code: album.Code}}, nil
}

func (s *Server) handleGetSession(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	sessionID, err := GetSessionID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.services.Access.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{Body: SessionResponse{
		AlbumID:   view.AlbumID,
		AlbumCode: view.AlbumCode,
		Cart:      toCartResponse(view.Cart),
	}}, nil
}

func (s *Server) handleEndSession(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	sessionID, err := GetSessionID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Access.Logout(ctx, sessionID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Session ended"}}, nil
}
