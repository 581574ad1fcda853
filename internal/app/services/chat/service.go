// Package chat implements the messaging core: conversation creation and
// listing, the append-only message log, and the membership guard that gates
// every conversation-scoped operation. Each operation runs inside its own unit
// of work; nothing is held across calls.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"hireme/internal/app/dto"
	"hireme/internal/app/uow"
	domainchat "hireme/internal/domain/chat"
	domainuser "hireme/internal/domain/user"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var ErrServiceNotConfigured = errors.New("chat: service missing dependencies")

// Notifier receives newly created messages for best-effort fan-out to live
// subscribers. Implementations must not block and get no error channel back.
// Delivery is at most once; absent listeners catch up via FetchMessages.
type Notifier interface {
	MessageCreated(ctx context.Context, msg dto.ChatMessage)
}

// MultiNotifier fans a created message out to several notifiers in order.
type MultiNotifier []Notifier

func (m MultiNotifier) MessageCreated(ctx context.Context, msg dto.ChatMessage) {
	for _, n := range m {
		n.MessageCreated(ctx, msg)
	}
}

type Service struct {
	UoWFactory uow.UoWFactory
	Notifier   Notifier
	Logger     *slog.Logger
	Now        func() time.Time
}

type CreateConversationParams struct {
	CreatorID      domainuser.ID
	ParticipantIDs []domainuser.ID
	IsGroup        bool
	Title          string
}

type SendMessageParams struct {
	ConversationID uint
	SenderID       domainuser.ID
	Content        string
}

type FetchMessagesParams struct {
	ConversationID uint
	RequesterID    domainuser.ID
	Page           int
	PageSize       int
}

// CreateConversation verifies every invited user exists, reuses an existing
// direct conversation for the same unordered pair, and otherwise writes the
// conversation plus all participant rows atomically.
func (s *Service) CreateConversation(ctx context.Context, params CreateConversationParams) (dto.ConversationCreated, error) {
	if err := s.ensureDependencies(); err != nil {
		return dto.ConversationCreated{}, err
	}
	now := s.now()
	conv, members, err := domainchat.NewConversation(domainchat.NewConversationParams{
		CreatedBy:    params.CreatorID,
		Participants: params.ParticipantIDs,
		IsGroup:      params.IsGroup,
		Title:        params.Title,
		Now:          now,
	})
	if err != nil {
		return dto.ConversationCreated{}, err
	}

	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return dto.ConversationCreated{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	missing, err := unit.Users().MissingIDs(ctx, members)
	if err != nil {
		return dto.ConversationCreated{}, err
	}
	if len(missing) > 0 {
		return dto.ConversationCreated{}, &domainchat.UsersNotFoundError{IDs: missing}
	}

	if !conv.IsGroup {
		low, high := domainchat.DirectPair(params.CreatorID, members[1])
		existing, err := unit.Chat().FindDirectBetween(ctx, low, high)
		switch {
		case err == nil:
			if err := unit.Commit(ctx); err != nil {
				return dto.ConversationCreated{}, err
			}
			committed = true
			return dto.ConversationCreated{ConversationID: existing.ID}, nil
		case errors.Is(err, domainchat.ErrConversationNotFound):
			// fall through to creation
		default:
			return dto.ConversationCreated{}, err
		}
	}

	if err := unit.Chat().CreateConversation(ctx, conv); err != nil {
		return dto.ConversationCreated{}, err
	}
	if err := unit.Chat().AddParticipants(ctx, conv.ID, members, now); err != nil {
		return dto.ConversationCreated{}, err
	}
	if err := unit.Commit(ctx); err != nil {
		return dto.ConversationCreated{}, err
	}
	committed = true

	if s.Logger != nil {
		s.Logger.Info("conversation created",
			"conversation_id", conv.ID, "creator_id", params.CreatorID,
			"participants", len(members), "group", conv.IsGroup)
	}
	return dto.ConversationCreated{ConversationID: conv.ID, Created: true}, nil
}

// ListConversations returns the user's inbox ordered by most recent activity.
func (s *Service) ListConversations(ctx context.Context, userID domainuser.ID) ([]dto.ConversationSummary, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = unit.Rollback(ctx) }()

	summaries, err := unit.Chat().ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastActivityAt().After(summaries[j].LastActivityAt())
	})
	out := make([]dto.ConversationSummary, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, dto.NewConversationSummary(summary))
	}
	return out, nil
}

// SendMessage appends a message after the membership guard passes, then hands
// the stored representation to the notifier.
func (s *Service) SendMessage(ctx context.Context, params SendMessageParams) (dto.ChatMessage, error) {
	if err := s.ensureDependencies(); err != nil {
		return dto.ChatMessage{}, err
	}
	msg, err := domainchat.NewMessage(params.ConversationID, params.SenderID, params.Content, s.now())
	if err != nil {
		return dto.ChatMessage{}, err
	}

	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return dto.ChatMessage{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	if err := s.requireParticipant(ctx, unit, params.ConversationID, params.SenderID); err != nil {
		return dto.ChatMessage{}, err
	}
	if err := unit.Chat().CreateMessage(ctx, msg); err != nil {
		return dto.ChatMessage{}, err
	}
	if err := unit.Commit(ctx); err != nil {
		return dto.ChatMessage{}, err
	}
	committed = true

	payload := dto.NewChatMessage(*msg)
	if s.Notifier != nil {
		s.Notifier.MessageCreated(ctx, payload)
	}
	if s.Logger != nil {
		s.Logger.Debug("message sent",
			"message_id", msg.ID, "conversation_id", msg.ConversationID, "sender_id", msg.SenderID)
	}
	return payload, nil
}

// FetchMessages returns one page of a conversation's history in chronological
// ascending order, plus the total count. Fetching mutates nothing.
func (s *Service) FetchMessages(ctx context.Context, params FetchMessagesParams) (dto.MessagePage, error) {
	if err := s.ensureDependencies(); err != nil {
		return dto.MessagePage{}, err
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	size := params.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.MessagePage{}, err
	}
	defer func() { _ = unit.Rollback(ctx) }()

	if err := s.requireParticipant(ctx, unit, params.ConversationID, params.RequesterID); err != nil {
		return dto.MessagePage{}, err
	}
	messages, total, err := unit.Chat().MessagesPage(ctx, params.ConversationID, (page-1)*size, size)
	if err != nil {
		return dto.MessagePage{}, err
	}
	result := dto.MessagePage{
		Items:    make([]dto.ChatMessage, 0, len(messages)),
		Total:    total,
		Page:     page,
		PageSize: size,
	}
	for _, msg := range messages {
		result.Items = append(result.Items, dto.NewChatMessage(msg))
	}
	return result, nil
}

// DeleteMessage removes a message permanently. Only the original sender may
// delete it; other participants, conversation creators included, may not.
func (s *Service) DeleteMessage(ctx context.Context, messageID uint, requesterID domainuser.ID) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	msg, err := unit.Chat().MessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != requesterID {
		return domainchat.ErrNotSender
	}
	if err := unit.Chat().DeleteMessage(ctx, messageID); err != nil {
		return err
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	committed = true

	if s.Logger != nil {
		s.Logger.Info("message deleted", "message_id", messageID, "sender_id", requesterID)
	}
	return nil
}

// MarkConversationRead flags all messages sent by others as read and returns
// how many were updated.
func (s *Service) MarkConversationRead(ctx context.Context, conversationID uint, readerID domainuser.ID) (int64, error) {
	if err := s.ensureDependencies(); err != nil {
		return 0, err
	}
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	if err := s.requireParticipant(ctx, unit, conversationID, readerID); err != nil {
		return 0, err
	}
	updated, err := unit.Chat().MarkRead(ctx, conversationID, readerID, s.now())
	if err != nil {
		return 0, err
	}
	if err := unit.Commit(ctx); err != nil {
		return 0, err
	}
	committed = true
	return updated, nil
}

// Authorize runs the membership guard on its own: nil when userID may access
// the conversation, ErrConversationNotFound or ErrNotParticipant otherwise.
// The realtime layer calls this before admitting a channel subscription.
func (s *Service) Authorize(ctx context.Context, conversationID uint, userID domainuser.ID) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return err
	}
	defer func() { _ = unit.Rollback(ctx) }()

	return s.requireParticipant(ctx, unit, conversationID, userID)
}

// requireParticipant is the membership guard: conversation must exist and the
// user must hold a participant row. Missing conversations surface as not-found
// before any authorization verdict.
func (s *Service) requireParticipant(ctx context.Context, unit uow.UnitOfWork, conversationID uint, userID domainuser.ID) error {
	if _, err := unit.Chat().ConversationByID(ctx, conversationID); err != nil {
		return err
	}
	ok, err := unit.Chat().IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domainchat.ErrNotParticipant
	}
	return nil
}

func (s *Service) ensureDependencies() error {
	if s.UoWFactory == nil {
		return ErrServiceNotConfigured
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
