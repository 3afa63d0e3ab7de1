package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/messagely/internal/auth"
	"github.com/vovakirdan/messagely/internal/config"
	"github.com/vovakirdan/messagely/internal/core"
	"github.com/vovakirdan/messagely/internal/service/messages"
	"github.com/vovakirdan/messagely/internal/service/users"
)

// Pinger reports store reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the router dispatches to.
type Deps struct {
	Auth     *auth.Service
	Users    *users.Service
	Messages *messages.Service
	Hub      *core.Hub
	Store    Pinger
}

// NewServer builds the HTTP server.
func NewServer(deps Deps, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(deps, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter wires middleware and routes. The live feed is served next to the
// gin engine on the raw ResponseWriter, since gin's writer refuses to be
// hijacked once the upgrade response has been written.
func NewRouter(deps Deps, cfg config.Config, logger *zerolog.Logger) stdhttp.Handler {
	mux := stdhttp.NewServeMux()
	mux.Handle("/api/ws", NewWSHandler(deps.Hub, deps.Auth, cfg.CORSAllowedOrigins, logger))
	mux.Handle("/", newEngine(deps, cfg, logger))
	return mux
}

func newEngine(deps Deps, cfg config.Config, logger *zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger))
	r.Use(RecoveryMiddleware(logger))
	r.Use(MetricsMiddleware())
	r.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))
	if cfg.GzipEnabled() {
		r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	}

	r.NoRoute(func(c *gin.Context) {
		fail(c, core.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(stdhttp.StatusMethodNotAllowed, ErrorResponse{
			Error:     "method not allowed",
			Code:      "method_not_allowed",
			RequestID: requestID(c),
		})
	})

	r.GET("/health", healthHandler(deps.Store))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiHandlers := NewAPIHandlers(deps.Auth, logger)
	authGroup := r.Group("/auth")
	if rl := newRateLimiter(cfg.AuthRateLimit); rl != nil {
		authGroup.Use(rl.middleware())
	}
	authGroup.POST("/register", apiHandlers.Register)
	authGroup.POST("/login", apiHandlers.Login)

	protected := r.Group("")
	protected.Use(AuthMiddleware(deps.Auth, logger))

	userHandlers := NewUserHandlers(deps.Users, logger)
	protected.GET("/users", userHandlers.List)
	protected.GET("/users/:username", userHandlers.Get)
	protected.GET("/users/:username/to", userHandlers.MessagesTo)
	protected.GET("/users/:username/from", userHandlers.MessagesFrom)

	messageHandlers := NewMessageHandlers(deps.Messages, logger)
	protected.POST("/messages", messageHandlers.Create)
	protected.GET("/messages/:id", messageHandlers.Get)
	protected.POST("/messages/:id/read", messageHandlers.MarkRead)

	return r
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", HeaderRequestID},
		ExposeHeaders:    []string{HeaderRequestID, "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cc.AllowAllOrigins = true
			return cc
		}
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
		return cc
	}
	cc.AllowOrigins = origins
	return cc
}

func healthHandler(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			c.JSON(stdhttp.StatusServiceUnavailable, gin.H{"status": "unavailable", "request_id": requestID(c)})
			return
		}
		c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
	}
}
