package web

// errors.go maps the typed failures of the core packages onto HTTP
// responses. Every failed request produces exactly one JSON error body;
// technical detail is logged server-side with the request ID, the client
// sees the user-facing message and a stable code.

import (
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jrmonge/recordhub/internal/auth"
	"github.com/jrmonge/recordhub/internal/logging"
	"github.com/jrmonge/recordhub/internal/session"
	"github.com/jrmonge/recordhub/internal/store"
	"github.com/jrmonge/recordhub/internal/transfer"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// respondError classifies err, logs it with request context, and writes the
// single JSON error body for the request.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classifyError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", body.Code,
		"request_id", chimw.GetReqID(r.Context()),
	)

	writeJSON(w, status, body)
}

// classifyError maps the package error taxonomy to a status and body.
func classifyError(err error) (int, ErrorResponse) {
	var verr *session.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, ErrorResponse{
			Error: verr.Error(),
			Code:  "validation",
			Field: verr.Field,
		}
	}

	var aerr *auth.Error
	if errors.As(err, &aerr) {
		return authStatus(aerr.Code), ErrorResponse{
			Error: aerr.Message(),
			Code:  string(aerr.Code),
		}
	}

	var xerr *transfer.ExtractionError
	if errors.As(err, &xerr) {
		return http.StatusBadGateway, ErrorResponse{
			Error: "The file could not be processed. Verify the format and try again.",
			Code:  "extraction-failed",
		}
	}

	if errors.Is(err, transfer.ErrEmptyImport) {
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error: "No rows were found in the file.",
			Code:  "empty-import",
		}
	}

	var werr *store.WriteError
	if errors.As(err, &werr) {
		if errors.Is(err, store.ErrNotFound) {
			return http.StatusNotFound, ErrorResponse{
				Error: "The record does not exist.",
				Code:  "not-found",
			}
		}
		return http.StatusBadGateway, ErrorResponse{
			Error: "The record could not be saved. Try again.",
			Code:  "write-failed",
		}
	}

	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, ErrorResponse{
			Error: "The record does not exist.",
			Code:  "not-found",
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: "Unexpected error. Please try again.",
		Code:  "internal",
	}
}

// authStatus maps sign-in failure codes to HTTP statuses. Credential
// failures are all 401 so the response does not distinguish which part of
// the pair was wrong beyond what the client already typed.
func authStatus(code auth.Code) int {
	switch code {
	case auth.CodeInvalidEmail:
		return http.StatusBadRequest
	case auth.CodeUserNotFound, auth.CodeWrongPassword:
		return http.StatusUnauthorized
	case auth.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case auth.CodeNetworkFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
