package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fatture/internal/attachments"
	"fatture/internal/invoices"
	"fatture/internal/log"
	"fatture/internal/middleware/trace"
)

const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeTooLarge         = "PAYLOAD_TOO_LARGE"
	CodeValidation       = "VALIDATION_FAILED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeUnavailable      = "UNAVAILABLE"
	CodeInternal         = "INTERNAL_ERROR"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Code: code, Message: message})
}

// writeServiceError maps service and storage errors onto HTTP responses.
// Unexpected errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *invoices.ValidationError
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorBody{
			Code:    CodeValidation,
			Message: "invoice validation failed",
			Fields:  verr.Fields,
		})
	case errors.Is(err, invoices.ErrNotFound), errors.Is(err, attachments.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, attachments.ErrFileTooLarge), errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, CodeTooLarge, attachments.ErrFileTooLarge.Error())
	case errors.Is(err, attachments.ErrTooManyFiles),
		errors.Is(err, attachments.ErrUnsupportedType),
		errors.Is(err, attachments.ErrEmptyFile):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorBody{
			Code:    CodeValidation,
			Message: err.Error(),
			Fields:  map[string]string{"file": err.Error()},
		})
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Request failed", err,
			log.ComponentHTTP, r.Method+" "+r.URL.Path,
			log.NewFields().WithRequestID(trace.GetRequestID(r.Context())))
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}
