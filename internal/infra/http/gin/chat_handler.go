package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	chatservice "hireme/internal/app/services/chat"
	domainchat "hireme/internal/domain/chat"
)

// ChatHandler bridges HTTP with the messaging core.
type ChatHandler struct {
	Service *chatservice.Service
	Logger  *slog.Logger
}

// CreateConversation starts a new conversation, reusing an existing direct
// thread between the same two users.
func (h ChatHandler) CreateConversation(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		ParticipantIDs []uint `json:"participant_ids"`
		IsGroup        bool   `json:"is_group"`
		Title          string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	result, err := h.Service.CreateConversation(c.Request.Context(), chatservice.CreateConversationParams{
		CreatorID:      p.ID,
		ParticipantIDs: req.ParticipantIDs,
		IsGroup:        req.IsGroup,
		Title:          req.Title,
	})
	if err != nil {
		h.respondChatError(c, err, "create conversation", "user_id", p.ID)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// ListConversations returns the caller's inbox, most recent activity first.
func (h ChatHandler) ListConversations(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	summaries, err := h.Service.ListConversations(c.Request.Context(), p.ID)
	if err != nil {
		h.respondChatError(c, err, "list conversations", "user_id", p.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": summaries})
}

// ListMessages returns one ascending page of a conversation's history.
func (h ChatHandler) ListMessages(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	conversationID, ok := parseIDParam(c)
	if !ok {
		return
	}
	page, err := h.Service.FetchMessages(c.Request.Context(), chatservice.FetchMessagesParams{
		ConversationID: conversationID,
		RequesterID:    p.ID,
		Page:           parsePositiveIntStrict(c.Query("page"), 1),
		PageSize:       parsePositiveIntStrict(c.Query("page_size"), chatservice.DefaultPageSize),
	})
	if err != nil {
		h.respondChatError(c, err, "list messages", "conversation_id", conversationID, "user_id", p.ID)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h ChatHandler) SendMessage(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	conversationID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	message, err := h.Service.SendMessage(c.Request.Context(), chatservice.SendMessageParams{
		ConversationID: conversationID,
		SenderID:       p.ID,
		Content:        req.Content,
	})
	if err != nil {
		h.respondChatError(c, err, "send message", "conversation_id", conversationID, "user_id", p.ID)
		return
	}
	c.JSON(http.StatusCreated, message)
}

// DeleteMessage removes a message; only its sender may do so.
func (h ChatHandler) DeleteMessage(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	messageID, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.Service.DeleteMessage(c.Request.Context(), messageID, p.ID); err != nil {
		h.respondChatError(c, err, "delete message", "message_id", messageID, "user_id", p.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// MarkRead marks every message from other senders in the conversation as read.
func (h ChatHandler) MarkRead(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	conversationID, ok := parseIDParam(c)
	if !ok {
		return
	}
	updated, err := h.Service.MarkConversationRead(c.Request.Context(), conversationID, p.ID)
	if err != nil {
		h.respondChatError(c, err, "mark read", "conversation_id", conversationID, "user_id", p.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h ChatHandler) respondChatError(c *gin.Context, err error, action string, attrs ...any) {
	switch {
	case domainchat.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": trimServicePrefix(err.Error())})
	case domainchat.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": trimServicePrefix(err.Error())})
	case domainchat.IsAuthorization(err):
		c.JSON(http.StatusForbidden, gin.H{"error": trimServicePrefix(err.Error())})
	default:
		if h.Logger != nil {
			h.Logger.Error("chat call failed", append([]any{"action", action, "error", err}, attrs...)...)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseIDParam(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(value), true
}

func parsePositiveIntStrict(raw string, def int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return def
	}
	return value
}

var _ ChatHTTP = ChatHandler{}
