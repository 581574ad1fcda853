package chat

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validation failures, rejected before any store mutation.
var (
	ErrContentRequired      = errors.New("chat: message content is required")
	ErrParticipantsRequired = errors.New("chat: at least one other participant is required")
	ErrTitleRequired        = errors.New("chat: group conversations require a title")
	ErrDirectParticipants   = errors.New("chat: direct conversations have exactly two participants")
	ErrSelfConversation     = errors.New("chat: cannot start a conversation with yourself")
)

// Missing entities.
var (
	ErrConversationNotFound = errors.New("chat: conversation not found")
	ErrMessageNotFound      = errors.New("chat: message not found")
)

// Authorization denials. Handlers must translate these to forbidden responses,
// never to not-found.
var (
	ErrNotParticipant = errors.New("chat: user is not a conversation participant")
	ErrNotSender      = errors.New("chat: only the sender may delete a message")
)

// ErrDuplicateParticipant signals a (conversation, user) pair inserted twice.
// Normal creation paths dedupe before writing, so callers only see this when
// racing creations collide on the store's composite key.
var ErrDuplicateParticipant = errors.New("chat: participant already in conversation")

// UsersNotFoundError reports which invited user ids do not exist. The whole
// creation is rejected; no partial conversation is ever written.
type UsersNotFoundError struct {
	IDs []uint
}

func (e *UsersNotFoundError) Error() string {
	ids := make([]string, 0, len(e.IDs))
	for _, id := range e.IDs {
		ids = append(ids, fmt.Sprint(id))
	}
	sort.Strings(ids)
	return "chat: unknown users: " + strings.Join(ids, ", ")
}

// IsValidation reports whether err belongs to the validation class.
func IsValidation(err error) bool {
	return errors.Is(err, ErrContentRequired) ||
		errors.Is(err, ErrParticipantsRequired) ||
		errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, ErrDirectParticipants) ||
		errors.Is(err, ErrSelfConversation)
}

// IsNotFound reports whether err belongs to the missing-entity class.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrConversationNotFound) || errors.Is(err, ErrMessageNotFound) {
		return true
	}
	var missing *UsersNotFoundError
	return errors.As(err, &missing)
}

// IsAuthorization reports whether err belongs to the authorization-denied class.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrNotParticipant) || errors.Is(err, ErrNotSender)
}
