package dto

import (
	"time"

	domainchat "hireme/internal/domain/chat"
	domainuser "hireme/internal/domain/user"
)

// ParticipantInfo is the display identity of a conversation peer.
type ParticipantInfo struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Image    string `json:"image,omitempty"`
}

// ConversationSummary is one row of a user's inbox listing.
type ConversationSummary struct {
	ConversationID uint              `json:"conversation_id"`
	IsGroup        bool              `json:"is_group"`
	Title          string            `json:"title,omitempty"`
	Participants   []ParticipantInfo `json:"participants"`
	LastMessage    *string           `json:"last_message"`
	LastMessageAt  time.Time         `json:"last_message_at"`
}

// ConversationCreated reports the id of a new or reused conversation.
type ConversationCreated struct {
	ConversationID uint `json:"conversation_id"`
	Created        bool `json:"created"`
}

// ChatMessage contains a single message payload, also used as the realtime
// event body.
type ChatMessage struct {
	ID             uint       `json:"id"`
	ConversationID uint       `json:"conversation_id"`
	SenderID       uint       `json:"sender_id"`
	Content        string     `json:"content"`
	IsRead         bool       `json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MessagePage is one chronological-ascending page of a conversation's history.
type MessagePage struct {
	Items    []ChatMessage `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// NewChatMessage is the single serialization point for message rows.
func NewChatMessage(msg domainchat.Message) ChatMessage {
	return ChatMessage{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		IsRead:         msg.IsRead,
		ReadAt:         msg.ReadAt,
		CreatedAt:      msg.CreatedAt,
	}
}

// NewConversationSummary is the single serialization point for inbox rows.
func NewConversationSummary(s domainchat.Summary) ConversationSummary {
	participants := make([]ParticipantInfo, 0, len(s.Others))
	for _, p := range s.Others {
		participants = append(participants, NewParticipantInfo(p))
	}
	summary := ConversationSummary{
		ConversationID: s.Conversation.ID,
		IsGroup:        s.Conversation.IsGroup,
		Title:          s.Conversation.Title,
		Participants:   participants,
		LastMessageAt:  s.LastActivityAt(),
	}
	if s.LastMessage != nil {
		content := s.LastMessage.Content
		summary.LastMessage = &content
	}
	return summary
}

func NewParticipantInfo(id domainuser.Identity) ParticipantInfo {
	return ParticipantInfo{ID: id.ID, FullName: id.FullName, Image: id.Image}
}
