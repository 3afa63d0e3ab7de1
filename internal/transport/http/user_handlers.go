package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/messagely/internal/core"
	"github.com/vovakirdan/messagely/internal/proto"
	"github.com/vovakirdan/messagely/internal/service/users"
)

// UserHandlers provides HTTP handlers for user operations.
type UserHandlers struct {
	users *users.Service
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(userService *users.Service, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		users: userService,
		log:   logger,
	}
}

// List returns every user.
// GET /users
func (h *UserHandlers) List(c *gin.Context) {
	list, err := h.users.All(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "failed to list users")
		return
	}

	out := make([]proto.UserSummary, 0, len(list))
	for _, u := range list {
		out = append(out, toUserSummary(*u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// Get returns one profile.
// GET /users/:username
func (h *UserHandlers) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, h.log, err, "failed to get user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUser(user)})
}

// MessagesTo lists the inbox of the acting user.
// GET /users/:username/to
func (h *UserHandlers) MessagesTo(c *gin.Context) {
	username, ok := h.ownMailbox(c)
	if !ok {
		return
	}

	msgs, err := h.users.MessagesTo(c.Request.Context(), username)
	if err != nil {
		respondError(c, h.log, err, "failed to list received messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": toReceivedMessages(msgs)})
}

// MessagesFrom lists the outbox of the acting user.
// GET /users/:username/from
func (h *UserHandlers) MessagesFrom(c *gin.Context) {
	username, ok := h.ownMailbox(c)
	if !ok {
		return
	}

	msgs, err := h.users.MessagesFrom(c.Request.Context(), username)
	if err != nil {
		respondError(c, h.log, err, "failed to list sent messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": toSentMessages(msgs)})
}

// ownMailbox allows a mailbox to be read only by its owner.
func (h *UserHandlers) ownMailbox(c *gin.Context) (string, bool) {
	username := c.Param("username")
	if username != c.GetString(ContextKeyUsername) {
		respondError(c, h.log, core.Forbidden("mailboxes are visible only to their owner"), "mailbox access denied")
		return "", false
	}
	return username, true
}
