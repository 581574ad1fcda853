package chat

import (
	"strings"
	"time"

	"hireme/internal/domain/user"
)

// Conversation is the root aggregate: a channel grouping a fixed set of
// participants and an ordered message history. Direct conversations have
// exactly two participants and no title; group conversations carry one.
type Conversation struct {
	ID        uint
	CreatedBy *user.ID
	IsGroup   bool
	Title     string
	CreatedAt time.Time
}

// Participant records membership. Rows are owned by the conversation and are
// never removed while it exists.
type Participant struct {
	ConversationID uint
	UserID         user.ID
	JoinedAt       time.Time
}

// Summary is the per-conversation row of a user's inbox listing: the other
// participants' display identities plus the latest message, if any.
type Summary struct {
	Conversation Conversation
	Others       []user.Identity
	LastMessage  *Message
}

// LastActivityAt is the recency key for inbox ordering: the latest message's
// creation time, or the conversation's own creation time when empty.
func (s Summary) LastActivityAt() time.Time {
	if s.LastMessage != nil {
		return s.LastMessage.CreatedAt
	}
	return s.Conversation.CreatedAt
}

// NewConversationParams carries validated creation input.
type NewConversationParams struct {
	CreatedBy    user.ID
	Participants []user.ID
	IsGroup      bool
	Title        string
	Now          time.Time
}

// NewConversation validates creation input and returns the conversation row
// plus the full deduplicated participant set (creator first).
func NewConversation(params NewConversationParams) (*Conversation, []user.ID, error) {
	others := dedupeIDs(params.Participants, params.CreatedBy)
	if len(others) == 0 {
		if len(params.Participants) > 0 {
			return nil, nil, ErrSelfConversation
		}
		return nil, nil, ErrParticipantsRequired
	}
	title := strings.TrimSpace(params.Title)
	if params.IsGroup && title == "" {
		return nil, nil, ErrTitleRequired
	}
	if !params.IsGroup {
		if len(others) != 1 {
			return nil, nil, ErrDirectParticipants
		}
		title = ""
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	creator := params.CreatedBy
	conv := &Conversation{
		CreatedBy: &creator,
		IsGroup:   params.IsGroup,
		Title:     title,
		CreatedAt: now.UTC(),
	}
	members := append([]user.ID{params.CreatedBy}, others...)
	return conv, members, nil
}

// DirectPair returns the unordered pair key for direct-conversation dedupe.
func DirectPair(a, b user.ID) (low, high user.ID) {
	if a > b {
		return b, a
	}
	return a, b
}

func dedupeIDs(ids []user.ID, exclude user.ID) []user.ID {
	seen := map[user.ID]struct{}{exclude: {}}
	out := make([]user.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
