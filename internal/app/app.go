package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/messagely/internal/auth"
	"github.com/vovakirdan/messagely/internal/config"
	"github.com/vovakirdan/messagely/internal/core"
	"github.com/vovakirdan/messagely/internal/service/messages"
	"github.com/vovakirdan/messagely/internal/service/users"
	"github.com/vovakirdan/messagely/internal/store/sqlstore"
	transporthttp "github.com/vovakirdan/messagely/internal/transport/http"
)

// App wires together core, store and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           *sqlstore.SQLStore
	log             *zerolog.Logger
}

// OpenStore connects to the configured database.
func OpenStore(ctx context.Context, cfg *config.Config) (*sqlstore.SQLStore, error) {
	st, err := sqlstore.Open(ctx, sqlstore.Dialect(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	return st, nil
}

// New constructs the application with provided configuration. It opens the
// store and applies pending migrations.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	applied, err := st.Migrate(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	logger.Info().
		Str("driver", cfg.DBDriver).
		Int("migrations_applied", applied).
		Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.SessionSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	}

	hub := core.NewHub()

	userService := users.New(st, auth.NewHasher(cfg.BcryptCost),
		users.WithStoreTimeout(cfg.StoreTimeout),
	)
	messageService := messages.New(st,
		messages.WithStoreTimeout(cfg.StoreTimeout),
		messages.WithPublisher(hub),
	)
	authService := auth.NewService(userService, jwtConfig)

	server := transporthttp.NewServer(transporthttp.Deps{
		Auth:     authService,
		Users:    userService,
		Messages: messageService,
		Hub:      hub,
		Store:    st,
	}, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Stopping the hub closes every live feed; Shutdown does not wait for
		// hijacked connections.
		stopHub()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
