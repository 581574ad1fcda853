package chat

import (
	"strings"
	"time"

	"hireme/internal/domain/user"
)

// Message is an append-only log entry owned by its conversation. The sender
// reference exists for attribution and deletion authorization only.
type Message struct {
	ID             uint
	ConversationID uint
	SenderID       user.ID
	Content        string
	IsRead         bool
	ReadAt         *time.Time
	CreatedAt      time.Time
}

// NewMessage validates and builds an unread message. Content must be non-empty
// after trimming; membership of the sender is the caller's concern.
func NewMessage(conversationID uint, senderID user.ID, content string, now time.Time) (*Message, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrContentRequired
	}
	if now.IsZero() {
		now = time.Now()
	}
	return &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        trimmed,
		CreatedAt:      now.UTC(),
	}, nil
}
