package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vovakirdan/messagely/internal/auth"
	"github.com/vovakirdan/messagely/internal/config"
	"github.com/vovakirdan/messagely/internal/core"
	"github.com/vovakirdan/messagely/internal/service/messages"
	"github.com/vovakirdan/messagely/internal/service/users"
	"github.com/vovakirdan/messagely/internal/store/sqlstore"
)

type testEnv struct {
	server *httptest.Server
	store  *sqlstore.SQLStore
	hub    *core.Hub
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.SessionSecret = "test-secret-0123456789"
	cfg.AuthRateLimit = 0
	return cfg
}

// newTestEnv runs the full router over an in-memory store.
func newTestEnv(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	st, err := sqlstore.Open(ctx, sqlstore.DialectSQLite, ":memory:")
	require.NoError(t, err)
	_, err = st.Migrate(ctx)
	require.NoError(t, err)

	hub := core.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	userService := users.New(st, auth.NewHasher(bcrypt.MinCost), users.WithStoreTimeout(cfg.StoreTimeout))
	messageService := messages.New(st, messages.WithPublisher(hub), messages.WithStoreTimeout(cfg.StoreTimeout))
	authService := auth.NewService(userService, &auth.JWTConfig{
		Secret:   []byte(cfg.SessionSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	})

	disabledLogger := zerolog.Nop()
	router := NewRouter(Deps{
		Auth:     authService,
		Users:    userService,
		Messages: messageService,
		Hub:      hub,
		Store:    st,
	}, cfg, &disabledLogger)

	ts := httptest.NewServer(router)
	t.Cleanup(func() {
		ts.Close()
		stopHub()
		_ = st.Close()
	})

	return &testEnv{server: ts, store: st, hub: hub}
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body any, out any) *stdhttp.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := stdhttp.NewRequestWithContext(ctx, method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, out), "body: %s", raw)
	}
	return resp
}

// register creates username with a derived password and returns its token.
func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()

	var out struct {
		Token string `json:"token"`
	}
	resp := e.do(t, stdhttp.MethodPost, "/auth/register", "", map[string]string{
		"username":   username,
		"password":   "password-" + username,
		"first_name": "First " + username,
		"last_name":  "Last " + username,
		"phone":      "+1555" + username,
	}, &out)
	require.Equal(t, stdhttp.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, out.Token)
	return out.Token
}

// send posts a message as the token owner and returns its id.
func (e *testEnv) send(t *testing.T, token, to, body string) int64 {
	t.Helper()

	var out struct {
		Message struct {
			ID int64 `json:"id"`
		} `json:"message"`
	}
	resp := e.do(t, stdhttp.MethodPost, "/messages", token, map[string]string{"to_username": to, "body": body}, &out)
	require.Equal(t, stdhttp.StatusCreated, resp.StatusCode)
	require.NotZero(t, out.Message.ID)
	return out.Message.ID
}
