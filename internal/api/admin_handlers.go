package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/elephoto/elephoto-server/internal/domain"
	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/http/response"
	"github.com/elephoto/elephoto-server/internal/service"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "adminLogin",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/login",
		Summary:     "Admin login",
		Description: "Exchanges the configured admin credentials for a bearer token",
		Tags:        []string{"Admin"},
	}, handle(s.handleAdminLogin))

	huma.Register(s.api, huma.Operation{
		OperationID: "adminListAlbums",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/albums",
		Summary:     "List albums",
		Description: "Lists every album, newest first",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, handle(s.handleListAlbums))

	huma.Register(s.api, huma.Operation{
		OperationID: "adminListFailedPayments",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/payments/failed",
		Summary:     "List failed payments",
		Description: "Lists verified payment notifications whose photos could not be marked paid",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, handle(s.handleListFailedPayments))

	huma.Register(s.api, huma.Operation{
		OperationID: "adminRetryPayment",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/payments/{eventID}/retry",
		Summary:     "Retry failed payment",
		Description: "Marks the photos of a failed payment notification paid",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, handle(s.handleRetryPayment))
}

// === DTOs ===

// AdminLoginRequest is the request body for admin login.
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,max=64" doc:"Admin username"`
	Password string `json:"password" validate:"required,max=256" doc:"Admin password"`
}

// AdminLoginInput wraps the login request for Huma.
type AdminLoginInput struct {
	Body AdminLoginRequest
}

// AdminLoginResponse carries the issued token.
type AdminLoginResponse struct {
	Token     string    `json:"token" doc:"PASETO bearer token"`
	ExpiresAt time.Time `json:"expires_at" doc:"Token expiry"`
}

// AdminLoginOutput wraps the login response for Huma.
type AdminLoginOutput struct {
	Body AdminLoginResponse
}

// AdminAlbumResponse is an album in the admin listing.
type AdminAlbumResponse struct {
	ID        string    `json:"id" doc:"Album ID"`
	Code      string    `json:"code" doc:"Access code"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	Watching  int       `json:"watching" doc:"Guests with the album's live stream open"`
}

// ListAlbumsResponse lists albums.
type ListAlbumsResponse struct {
	Albums []AdminAlbumResponse `json:"albums" doc:"Albums, newest first"`
}

// ListAlbumsOutput wraps the album listing for Huma.
type ListAlbumsOutput struct {
	Body ListAlbumsResponse
}

// CreateAlbumForm is the non-file part of the album upload form.
type CreateAlbumForm struct {
	Code string `json:"code" validate:"required,accesscode"`
}

// CreatedPhotoResponse is one stored photo of a new album.
type CreatedPhotoResponse struct {
	ID         string `json:"id"`
	DisplayURL string `json:"display_url"`
}

// CreateAlbumResponse is the result of an album upload.
type CreateAlbumResponse struct {
	Album  AdminAlbumResponse     `json:"album"`
	Photos []CreatedPhotoResponse `json:"photos"`
}

// PaymentEventResponse is a payment ledger row.
type PaymentEventResponse struct {
	EventID    string    `json:"event_id" doc:"Processor event ID"`
	Type       string    `json:"type" doc:"Processor event type"`
	SessionID  string    `json:"session_id,omitempty" doc:"Payment session ID"`
	PhotoIDs   []string  `json:"photo_ids" doc:"Photos carried by the notification"`
	Outcome    string    `json:"outcome" doc:"applied, no_photos, ignored or failed"`
	Error      string    `json:"error,omitempty" doc:"Last failure"`
	Attempts   int       `json:"attempts" doc:"Deliveries and retries so far"`
	ReceivedAt time.Time `json:"received_at" doc:"First delivery"`
	UpdatedAt  time.Time `json:"updated_at" doc:"Last change"`
}

// ListPaymentEventsOutput wraps the failed payment listing for Huma.
type ListPaymentEventsOutput struct {
	Body struct {
		Events []PaymentEventResponse `json:"events" doc:"Failed payment notifications"`
	}
}

// RetryPaymentInput contains the event to retry.
type RetryPaymentInput struct {
	EventID string `path:"eventID" doc:"Processor event ID"`
}

// PaymentEventOutput wraps a ledger row for Huma.
type PaymentEventOutput struct {
	Body PaymentEventResponse
}

// === Handlers ===

func (s *Server) handleAdminLogin(ctx context.Context, input *AdminLoginInput) (*AdminLoginOutput, error) {
	if !s.loginRateLimiter.Allow(clientIP(ctx)) {
		s.logger.Warn("Rate limit exceeded", "ip", clientIP(ctx), "path", "/api/v1/admin/login")
		return nil, domainerrors.RateLimited("Too many requests. Please try again later.")
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	session, err := s.services.AdminAuth.Login(input.Body.Username, input.Body.Password)
	if err != nil {
		return nil, err
	}

	return &AdminLoginOutput{Body: AdminLoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}}, nil
}

func (s *Server) handleListAlbums(ctx context.Context, _ *struct{}) (*ListAlbumsOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	albums, err := s.services.Album.ListAlbums(ctx)
	if err != nil {
		return nil, err
	}

	resp := ListAlbumsResponse{Albums: make([]AdminAlbumResponse, len(albums))}
	for i, a := range albums {
		resp.Albums[i] = adminAlbumResponse(a)
		if s.sseManager != nil {
			resp.Albums[i].Watching = s.sseManager.AlbumClientCount(a.ID)
		}
	}
	return &ListAlbumsOutput{Body: resp}, nil
}

func (s *Server) handleListFailedPayments(ctx context.Context, _ *struct{}) (*ListPaymentEventsOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	events, err := s.services.Reconcile.ListFailed(ctx)
	if err != nil {
		return nil, err
	}

	out := &ListPaymentEventsOutput{}
	out.Body.Events = make([]PaymentEventResponse, len(events))
	for i, e := range events {
		out.Body.Events[i] = paymentEventResponse(e)
	}
	return out, nil
}

func (s *Server) handleRetryPayment(ctx context.Context, input *RetryPaymentInput) (*PaymentEventOutput, error) {
	admin, err := RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	event, err := s.services.Reconcile.Retry(ctx, input.EventID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment retried by admin", "event_id", input.EventID, "admin", admin)
	return &PaymentEventOutput{Body: paymentEventResponse(event)}, nil
}

// handleCreateAlbum receives a multipart album upload: a "code" field and
// one or more "files".
// POST /api/v1/admin/albums
func (s *Server) handleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := RequireAdmin(ctx); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "upload too large", s.logger)
			return
		}
		response.BadRequest(w, "invalid multipart form", s.logger)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	form := CreateAlbumForm{Code: r.FormValue("code")}
	if err := s.validator.Validate(form); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	uploads, err := readUploads(r.MultipartForm.File["files"])
	if err != nil {
		response.BadRequest(w, "failed to read uploaded files", s.logger)
		return
	}

	created, err := s.services.Album.CreateAlbum(ctx, form.Code, uploads)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	resp := CreateAlbumResponse{
		Album:  adminAlbumResponse(created.Album),
		Photos: make([]CreatedPhotoResponse, len(created.Photos)),
	}
	links := service.NewLinks(s.cfg.PublicURL)
	for i, p := range created.Photos {
		resp.Photos[i] = CreatedPhotoResponse{ID: p.ID, DisplayURL: links.DisplayURL(p.DisplayKey)}
	}
	response.Created(w, resp, s.logger)
}

func readUploads(headers []*multipart.FileHeader) ([]service.Upload, error) {
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.Upload{Filename: fh.Filename, Data: data})
	}
	return uploads, nil
}

func adminAlbumResponse(a *domain.Album) AdminAlbumResponse {
	return AdminAlbumResponse{ID: a.ID, Code: a.Code, CreatedAt: a.CreatedAt}
}

func paymentEventResponse(e *domain.PaymentEvent) PaymentEventResponse {
	ids := e.PhotoIDs
	if ids == nil {
		ids = []string{}
	}
	return PaymentEventResponse{
		EventID:    e.EventID,
		Type:       e.Type,
		SessionID:  e.SessionID,
		PhotoIDs:   ids,
		Outcome:    string(e.Outcome),
		Error:      e.Error,
		Attempts:   e.Attempts,
		ReceivedAt: e.ReceivedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
