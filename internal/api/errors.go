package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/http/response"
	"github.com/elephoto/elephoto-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}

			var storeErr *store.Error
			if errors.As(err, &storeErr) {
				return &APIError{
					status:  storeErr.HTTPCode(),
					Code:    string(response.CodeForStatus(storeErr.HTTPCode())),
					Message: storeErr.Message,
				}
			}
		}

		// Huma's own request validation failures arrive as 422; the storefront
		// reports every input problem as 400.
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}

		apiErr := &APIError{
			status:  status,
			Code:    string(response.CodeForStatus(status)),
			Message: message,
		}
		if details := errorDetails(errs); len(details) > 0 {
			apiErr.Details = details
		}
		return apiErr
	}
}

// errorDetails flattens huma validation errors into messages.
func errorDetails(errs []error) []string {
	var details []string
	for _, err := range errs {
		if err != nil {
			details = append(details, err.Error())
		}
	}
	return details
}

// handle adapts a huma handler so that every returned error reaches huma as a
// huma.StatusError carrying the domain status, instead of a generic 500.
func handle[I, O any](h func(context.Context, *I) (*O, error)) func(context.Context, *I) (*O, error) {
	return func(ctx context.Context, input *I) (*O, error) {
		out, err := h(ctx, input)
		if err != nil {
			return nil, asStatusError(err)
		}
		return out, nil
	}
}

func asStatusError(err error) error {
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	return huma.NewError(http.StatusInternalServerError, "internal server error", err)
}
