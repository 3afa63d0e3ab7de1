package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/messagely/internal/core"
	"github.com/vovakirdan/messagely/internal/service/messages"
)

// MessageHandlers provides HTTP handlers for message operations.
type MessageHandlers struct {
	messages *messages.Service
	log      *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(messageService *messages.Service, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		messages: messageService,
		log:      logger,
	}
}

// CreateMessageRequest represents the send request body. The sender is always
// the acting user.
type CreateMessageRequest struct {
	ToUsername string `json:"to_username" binding:"required"`
	Body       string `json:"body" binding:"required"`
}

// Create sends a message.
// POST /messages
func (h *MessageHandlers) Create(c *gin.Context) {
	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create message request")
		fail(c, core.ErrCodeBadRequest, "invalid request body")
		return
	}

	from := c.GetString(ContextKeyUsername)
	msg, err := h.messages.Create(c.Request.Context(), messages.CreateInput{
		FromUsername: from,
		ToUsername:   req.ToUsername,
		Body:         req.Body,
	})
	if err != nil {
		respondError(c, h.log, err, "failed to create message")
		return
	}

	messagesSent.Inc()
	h.log.Debug().Str("username", from).Int64("message_id", msg.ID).Msg("message sent")
	c.JSON(http.StatusCreated, gin.H{"message": toMessage(msg)})
}

// Get returns a message to one of its participants.
// GET /messages/:id
func (h *MessageHandlers) Get(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}

	msg, err := h.messages.GetFor(c.Request.Context(), id, c.GetString(ContextKeyUsername))
	if err != nil {
		respondError(c, h.log, err, "failed to get message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": toMessageDetail(msg)})
}

// MarkRead marks a message read on behalf of its recipient.
// POST /messages/:id/read
func (h *MessageHandlers) MarkRead(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}

	receipt, err := h.messages.MarkReadBy(c.Request.Context(), id, c.GetString(ContextKeyUsername))
	if err != nil {
		respondError(c, h.log, err, "failed to mark message read")
		return
	}

	messagesRead.Inc()
	c.JSON(http.StatusOK, gin.H{"message": toReadReceipt(receipt)})
}

func messageID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, core.ErrCodeBadRequest, "invalid message id")
		return 0, false
	}
	return id, true
}
