// Package apierror implements the gateway's closed error taxonomy. Every
// error that reaches an HTTP response is produced by this package's single
// formatter so the {error: {...}} shape is never hand-rolled at the call
// site — mirrors the teacher's one-formatter convention in
// middleware.AbortWithError, generalized to the taxonomy in spec §7.
package apierror

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/claudegateway/openai-bridge/common/helper"
	"github.com/claudegateway/openai-bridge/internal/logging"
)

// Kind is the closed set of error categories the gateway can surface.
type Kind string

// Error kinds and their HTTP status mapping, per spec §7.
const (
	KindValidation     Kind = "validation_error"
	KindAuthentication Kind = "authentication_error"
	KindNotFound       Kind = "not_found_error"
	KindModel          Kind = "model_error"
	KindUpstream       Kind = "upstream_error"
	KindTimeout        Kind = "timeout_error"
	KindInternal       Kind = "internal_error"
)

var statusByKind = map[Kind]int{
	KindValidation:     http.StatusUnprocessableEntity,
	KindAuthentication: http.StatusUnauthorized,
	KindNotFound:       http.StatusNotFound,
	KindModel:          http.StatusBadRequest,
	KindUpstream:       http.StatusBadGateway,
	KindTimeout:        http.StatusGatewayTimeout,
	KindInternal:       http.StatusInternalServerError,
}

// Error is the gateway's single error type. It carries enough structure to
// render the stable {type, message, code, request_id, details} response body
// without the caller re-deriving any of it.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// New builds a taxonomy error of the given kind with a stable code.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Status: statusByKind[kind], Code: code, Message: message}
}

// Wrap builds a taxonomy error that carries an underlying cause, wrapped with
// github.com/Laisky/errors/v2 so a stack trace is preserved for logs.
func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Status: statusByKind[kind], Code: code, Message: message, cause: errors.Wrap(cause, message)}
}

// WithDetails attaches field-level or diagnostic details and returns the
// same *Error for chaining.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// Validation is a convenience constructor for field-level validation
// failures; it always sets details.classification.category per spec §6.
func Validation(code, message, field string) *Error {
	return New(KindValidation, code, message).WithDetails(map[string]any{
		"field": field,
		"classification": map[string]any{
			"category": "validation_error",
		},
	})
}

// ModelNotFound builds a model_error carrying suggestions and the list of
// available models, per spec §6/§8.
func ModelNotFound(requested string, suggestions, available []string) *Error {
	return New(KindModel, "unknown_model", "unknown model: "+requested).WithDetails(map[string]any{
		"suggestions":       suggestions,
		"available_models":  available,
	})
}

// body is the wire shape of an error response, per spec §6.
type body struct {
	Error bodyError `json:"error"`
}

type bodyError struct {
	Type      Kind           `json:"type"`
	Message   string         `json:"message"`
	Code      string         `json:"code"`
	RequestID string         `json:"request_id"`
	Details   map[string]any `json:"details,omitempty"`
}

// AsError normalizes any error into *Error, defaulting to an internal_error
// so nothing unclassified ever reaches a client without a stable code.
func AsError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Wrap(KindInternal, "internal_error", "internal error", err)
}

// Write renders err as the gateway's standard error body and aborts the gin
// context, logging at WARN for client-caused (4xx) errors and ERROR
// otherwise — the same severity split as the teacher's shouldLogAsWarning.
func Write(c *gin.Context, err error) {
	apiErr := AsError(err)

	logger := logging.FromContext(c)
	fields := []zap.Field{
		zap.Int("status", apiErr.Status),
		zap.String("code", apiErr.Code),
		zap.Error(apiErr),
	}
	if apiErr.Status >= 400 && apiErr.Status < 500 {
		logger.Warn("request failed", fields...)
	} else {
		logger.Error("request failed", fields...)
	}

	c.JSON(apiErr.Status, body{Error: bodyError{
		Type:      apiErr.Kind,
		Message:   apiErr.Message,
		Code:      apiErr.Code,
		RequestID: c.GetString(helper.RequestIdKey),
		Details:   apiErr.Details,
	}})
	c.Abort()
}
