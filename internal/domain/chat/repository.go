package chat

import (
	"context"
	"time"

	"hireme/internal/domain/user"
)

// Repository is the persistence port for the messaging core. Implementations
// run inside the unit of work that created them; they never commit.
type Repository interface {
	// CreateConversation inserts the conversation row and fills its ID.
	CreateConversation(ctx context.Context, conv *Conversation) error
	// AddParticipants inserts one membership row per user id.
	AddParticipants(ctx context.Context, conversationID uint, userIDs []user.ID, joinedAt time.Time) error
	// FindDirectBetween locates the non-group conversation joining exactly the
	// unordered pair (a, b), or returns ErrConversationNotFound.
	FindDirectBetween(ctx context.Context, a, b user.ID) (*Conversation, error)
	ConversationByID(ctx context.Context, id uint) (*Conversation, error)
	IsParticipant(ctx context.Context, conversationID uint, userID user.ID) (bool, error)
	// ListForUser returns inbox summaries. Only the single latest message per
	// conversation is fetched, regardless of history size.
	ListForUser(ctx context.Context, userID user.ID) ([]Summary, error)

	CreateMessage(ctx context.Context, msg *Message) error
	MessageByID(ctx context.Context, id uint) (*Message, error)
	// MessagesPage returns one ascending page plus the conversation's total
	// message count.
	MessagesPage(ctx context.Context, conversationID uint, offset, limit int) ([]Message, int64, error)
	DeleteMessage(ctx context.Context, id uint) error
	// MarkRead flags every message in the conversation not sent by readerID as
	// read at the given instant, returning how many rows changed.
	MarkRead(ctx context.Context, conversationID uint, readerID user.ID, readAt time.Time) (int64, error)
}
