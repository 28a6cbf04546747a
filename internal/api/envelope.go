package api

import (
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/elephoto/elephoto-server/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in response.Envelope,
// so JSON handlers and raw chi handlers answer with the same shape.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, err := strconv.Atoi(status)
	if err != nil {
		code = http.StatusOK
	}

	switch body := v.(type) {
	case response.Envelope:
		return body, nil
	case *APIError:
		return response.Envelope{
			Success: false,
			Code:    body.Code,
			Error:   body.Message,
			Details: body.Details,
		}, nil
	case error:
		return response.Envelope{
			Success: false,
			Code:    string(response.CodeForStatus(code)),
			Error:   body.Error(),
		}, nil
	}

	if code >= http.StatusBadRequest {
		return response.Envelope{
			Success: false,
			Code:    string(response.CodeForStatus(code)),
			Data:    v,
		}, nil
	}

	return response.Envelope{
		Success: true,
		Data:    v,
	}, nil
}
