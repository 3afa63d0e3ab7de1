package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"net/url"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/messagely/internal/auth"
	"github.com/vovakirdan/messagely/internal/core"
	"github.com/vovakirdan/messagely/internal/proto"
)

// WSHandler upgrades HTTP connections and streams hub events of the acting
// user. The feed is push-only; client frames are discarded.
type WSHandler struct {
	hub    *core.Hub
	auth   *auth.Service
	log    *zerolog.Logger
	accept *websocket.AcceptOptions
}

// NewWSHandler builds a new WebSocket handler. allowedOrigins follows the
// CORS setting: "*" accepts any origin.
func NewWSHandler(hub *core.Hub, authService *auth.Service, allowedOrigins []string, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		auth:   authService,
		log:    logger,
		accept: acceptOptions(allowedOrigins),
	}
}

func acceptOptions(allowedOrigins []string) *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			opts.OriginPatterns = append(opts.OriginPatterns, u.Host)
		}
	}
	return opts
}

// ServeHTTP authenticates the request and upgrades it. The token comes from
// the Authorization header or the token query parameter; browsers cannot set
// headers on WebSocket upgrades.
func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	rid := r.Header.Get(HeaderRequestID)
	if rid == "" || len(rid) > 128 {
		rid = uuid.NewString()
	}
	w.Header().Set(HeaderRequestID, rid)

	token, problem := sessionToken(r, true)
	if problem != "" {
		h.log.Debug().Str("request_id", rid).Msg(problem)
		writeError(w, core.ErrCodeUnauthorized, problem, rid)
		return
	}
	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		h.log.Debug().Err(err).Str("request_id", rid).Msg("invalid token")
		writeError(w, core.CodeOf(err), core.MessageOf(err), rid)
		return
	}
	username := claims.Username

	conn, err := websocket.Accept(w, r, h.accept)
	if err != nil {
		h.log.Debug().Err(err).Str("request_id", rid).Str("username", username).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient(uuid.NewString(), username)
	if !h.hub.RegisterClient(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.hub.UnregisterClient(client)

	feedConnections.Inc()
	defer feedConnections.Dec()
	h.log.Info().Str("request_id", rid).Str("client_id", client.ID).Str("username", username).Msg("feed connected")

	// CloseRead discards client frames and cancels ctx once the peer goes away.
	ctx := conn.CloseRead(r.Context())

	ready := proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: proto.EventReady,
		Data:  proto.Ready{User: username, Protocol: proto.ProtocolVersion},
	}
	if err := wsjson.Write(ctx, conn, ready); err != nil {
		h.log.Debug().Err(err).Str("client_id", client.ID).Msg("write ws ready")
		return
	}

	err = h.writeLoop(ctx, conn, client)

	status := websocket.StatusNormalClosure
	reason := "closing"
	switch {
	case err == nil:
		// Hub stopped and closed the feed.
		status = websocket.StatusGoingAway
		reason = "server shutting down"
	case errors.Is(err, context.Canceled), websocket.CloseStatus(err) != -1:
		// Peer left.
	default:
		status = websocket.StatusInternalError
		reason = "write failed"
		h.log.Warn().Err(err).Str("client_id", client.ID).Str("username", username).Msg("ws connection closed with error")
	}

	conn.Close(status, reason)
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
