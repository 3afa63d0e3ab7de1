package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/messagely/internal/core"
)

// ErrCodeRateLimited is returned when a client exceeds the auth rate limit.
const ErrCodeRateLimited = "rate_limited"

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

var statusByCode = map[string]int{
	core.ErrCodeNotFound:         http.StatusNotFound,
	core.ErrCodeConflict:         http.StatusConflict,
	core.ErrCodeValidation:       http.StatusBadRequest,
	core.ErrCodeBadRequest:       http.StatusBadRequest,
	core.ErrCodeForbidden:        http.StatusForbidden,
	core.ErrCodeUnauthorized:     http.StatusUnauthorized,
	core.ErrCodeTimeout:          http.StatusGatewayTimeout,
	core.ErrCodeStoreUnavailable: http.StatusServiceUnavailable,
	ErrCodeRateLimited:           http.StatusTooManyRequests,
}

// statusFor maps a stable error code to its HTTP status.
func statusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// fail writes a JSON error body and aborts the chain.
func fail(c *gin.Context, code, msg string) {
	c.AbortWithStatusJSON(statusFor(code), ErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: requestID(c),
	})
}

// respondError classifies err and writes it. Server-side failures are logged
// at error level, client errors at debug.
func respondError(c *gin.Context, logger *zerolog.Logger, err error, msg string) {
	code := core.CodeOf(err)
	status := statusFor(code)

	ev := logger.Debug()
	if status >= http.StatusInternalServerError {
		ev = logger.Error()
	}
	ev.Err(err).
		Str("request_id", requestID(c)).
		Str("username", c.GetString(ContextKeyUsername)).
		Str("code", code).
		Msg(msg)

	fail(c, code, core.MessageOf(err))
}

// writeError writes the standard error body on a raw response writer, for
// handlers mounted outside gin.
func writeError(w http.ResponseWriter, code, msg, rid string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusFor(code))
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Code: code, RequestID: rid})
}
