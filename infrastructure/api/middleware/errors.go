package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/helixml/careerpath/domain/errs"
	"github.com/helixml/careerpath/infrastructure/api/jsonapi"
)

// ErrAuthentication matches every AuthenticationError.
var ErrAuthentication = errors.New("authentication failed")

// APIError carries an explicit HTTP status.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates an APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

// Code returns the HTTP status.
func (e *APIError) Code() int { return e.code }

// Message returns the client-facing message.
func (e *APIError) Message() string { return e.message }

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error { return e.cause }

// AuthenticationError is returned for missing or invalid API keys.
type AuthenticationError struct {
	message string
}

// NewAuthenticationError creates an AuthenticationError.
func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{message: message}
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.message
}

// Is matches ErrAuthentication.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// StatusFor maps an error to the HTTP status it is reported with.
func StatusFor(err error) int {
	var (
		apiErr    *APIError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code()
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrNotFound), errors.Is(err, errs.ErrRetrievalEmpty):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errs.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// CodeFor returns the machine-readable kind of err for error documents.
func CodeFor(err error) string {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrAuthentication):
		return "unauthenticated"
	case errors.Is(err, errs.ErrValidation):
		return "validation"
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrRetrievalEmpty):
		return "retrieval_empty"
	case errors.Is(err, errs.ErrRankingEmpty):
		return "ranking_empty"
	case errors.Is(err, errs.ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, errs.ErrUpstreamTimeout):
		return "upstream_timeout"
	case errors.As(err, &apiErr):
		return ""
	}
	if StatusFor(err) == http.StatusBadRequest {
		return "malformed_request"
	}
	return "internal"
}

// WriteError writes err as a JSON:API error document. Details of internal
// errors are logged but not sent to the client.
func WriteError(w http.ResponseWriter, req *http.Request, err error, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	status := StatusFor(err)
	requestID := middleware.GetReqID(req.Context())

	detail := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		detail = apiErr.Message()
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(req.Context(), "request failed",
			"request_id", requestID,
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"error", err.Error(),
		)
		if !errors.Is(err, errs.ErrRankingEmpty) && !errors.Is(err, errs.ErrModelUnavailable) && !errors.Is(err, errs.ErrUpstreamTimeout) {
			detail = "internal server error"
		}
	} else {
		logger.DebugContext(req.Context(), "request rejected",
			"request_id", requestID,
			"status", status,
			"error", err.Error(),
		)
	}

	e := jsonapi.NewError(status, CodeFor(err), detail)
	e.ID = requestID
	WriteJSON(w, status, jsonapi.NewDocument(e))
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
