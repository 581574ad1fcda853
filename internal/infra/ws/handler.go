package ws

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"hireme/internal/app/dto"
	chatservice "hireme/internal/app/services/chat"
	"hireme/internal/domain/chat"
	domainuser "hireme/internal/domain/user"
)

// command is what clients push over the socket.
type command struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversation_id,omitempty"`
	Content        string `json:"content,omitempty"`
}

const (
	commandJoin  = "join"
	commandLeave = "leave"
	commandSend  = "send"
)

// TokenVerifier resolves a bearer token into a user id.
type TokenVerifier interface {
	Verify(token string) (domainuser.ID, error)
}

// ChatGateway is the slice of the chat service the socket endpoint drives.
type ChatGateway interface {
	Authorize(ctx context.Context, conversationID uint, userID domainuser.ID) error
	SendMessage(ctx context.Context, params chatservice.SendMessageParams) (dto.ChatMessage, error)
}

var _ ChatGateway = (*chatservice.Service)(nil)

type Handler struct {
	Hub                *Hub
	Tokens             TokenVerifier
	Chat               ChatGateway
	Logger             *slog.Logger
	InsecureSkipVerify bool
}

// Serve upgrades the request and runs the client's read loop until the
// connection drops. Browsers cannot set headers on websocket dials, so the
// token travels in the query string.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	userID, err := h.Tokens.Verify(token)
	if err != nil {
		c.AbortWithStatus(401)
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: h.InsecureSkipVerify,
	})
	if err != nil {
		h.Logger.Warn("websocket accept failed", "error", err)
		return
	}

	client := h.Hub.AddClient(uint(userID), NewConn(conn))
	defer h.Hub.RemoveClient(client)

	h.readLoop(c.Request.Context(), client, conn)
}

func (h *Handler) readLoop(ctx context.Context, client *Client, conn *websocket.Conn) {
	for {
		var cmd command
		if err := wsjson.Read(ctx, conn, &cmd); err != nil {
			return
		}
		h.handle(ctx, client, cmd)
	}
}

func (h *Handler) handle(ctx context.Context, client *Client, cmd command) {
	switch cmd.Type {
	case commandJoin:
		if err := h.Chat.Authorize(ctx, cmd.ConversationID, client.UserID); err != nil {
			h.Hub.Send(client, errorEvent(cmd.ConversationID, err))
			return
		}
		h.Hub.Join(client, cmd.ConversationID)
		h.Hub.Send(client, Event{Type: EventJoined, Data: gin.H{"conversation_id": cmd.ConversationID}})
	case commandLeave:
		h.Hub.Leave(client, cmd.ConversationID)
		h.Hub.Send(client, Event{Type: EventLeft, Data: gin.H{"conversation_id": cmd.ConversationID}})
	case commandSend:
		params := chatservice.SendMessageParams{
			ConversationID: cmd.ConversationID,
			SenderID:       client.UserID,
			Content:        cmd.Content,
		}
		if _, err := h.Chat.SendMessage(ctx, params); err != nil {
			h.Hub.Send(client, errorEvent(cmd.ConversationID, err))
		}
		// delivery happens through the notifier, the sender included
	default:
		h.Hub.Send(client, Event{Type: EventError, Data: gin.H{"message": "unknown command"}})
	}
}

func errorEvent(conversationID uint, err error) Event {
	msg := "internal error"
	switch {
	case errors.Is(err, chat.ErrConversationNotFound):
		msg = "conversation not found"
	case chat.IsAuthorization(err):
		msg = "access denied"
	case chat.IsValidation(err):
		msg = err.Error()
	}
	return Event{Type: EventError, Data: gin.H{"conversation_id": conversationID, "message": msg}}
}
