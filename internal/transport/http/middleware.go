package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/messagely/internal/auth"
	"github.com/vovakirdan/messagely/internal/core"
)

const (
	// ContextKeyUsername is the context key for storing the acting username.
	ContextKeyUsername = "username"
	// ContextKeyRequestID is the context key for storing the request id.
	ContextKeyRequestID = "request_id"

	// HeaderRequestID propagates the correlation id.
	HeaderRequestID = "X-Request-ID"
)

// RequestIDMiddleware reuses the caller's X-Request-ID or generates one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, rid)
		c.Writer.Header().Set(HeaderRequestID, rid)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// sessionToken extracts the token from "Authorization: Bearer <token>" or,
// with allowQuery set, from the token query parameter. A non-empty problem
// describes why no token was found.
func sessionToken(r *http.Request, allowQuery bool) (token, problem string) {
	authHeader := r.Header.Get("Authorization")
	switch {
	case authHeader != "":
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", "invalid authorization header format"
		}
		token = parts[1]
	case allowQuery:
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", "missing authorization header"
	}
	return token, ""
}

// AuthMiddleware creates a middleware that validates session tokens.
func AuthMiddleware(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, problem := sessionToken(c.Request, false)
		if problem != "" {
			logger.Debug().Str("request_id", requestID(c)).Msg(problem)
			fail(c, core.ErrCodeUnauthorized, problem)
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			respondError(c, logger, err, "invalid token")
			return
		}

		c.Set(ContextKeyUsername, claims.Username)
		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()

		ev := logger.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = logger.Error()
		case status >= http.StatusBadRequest:
			ev = logger.Warn()
		}
		ev.Str("request_id", requestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("username", c.GetString(ContextKeyUsername)).
			Msg("http request")
	}
}

// RecoveryMiddleware turns panics into a 500 with the standard error body.
func RecoveryMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error().
			Str("request_id", requestID(c)).
			Interface("panic", recovered).
			Msg("panic recovered")
		fail(c, core.ErrCodeInternal, "internal server error")
	})
}
