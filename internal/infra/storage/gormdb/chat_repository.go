package gormdb

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domainchat "hireme/internal/domain/chat"
	domainuser "hireme/internal/domain/user"
)

type chatRepository struct {
	tx *gorm.DB
}

func (r *chatRepository) CreateConversation(ctx context.Context, conv *domainchat.Conversation) error {
	record := conversationRecord{
		CreatedBy: conv.CreatedBy,
		IsGroup:   conv.IsGroup,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
	}
	if err := r.tx.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}
	conv.ID = record.ID
	return nil
}

func (r *chatRepository) AddParticipants(ctx context.Context, conversationID uint, userIDs []domainuser.ID, joinedAt time.Time) error {
	records := make([]participantRecord, 0, len(userIDs))
	for _, id := range userIDs {
		records = append(records, participantRecord{
			ConversationID: conversationID,
			UserID:         id,
			JoinedAt:       joinedAt,
		})
	}
	if err := r.tx.WithContext(ctx).Create(&records).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainchat.ErrDuplicateParticipant
		}
		return err
	}
	return nil
}

// FindDirectBetween joins the participant table twice: a direct conversation
// carries exactly two participant rows, so matching both ids pins the thread.
func (r *chatRepository) FindDirectBetween(ctx context.Context, a, b domainuser.ID) (*domainchat.Conversation, error) {
	var record conversationRecord
	err := r.tx.WithContext(ctx).
		Joins("JOIN conversation_participants pa ON pa.conversation_id = conversations.id AND pa.user_id = ?", a).
		Joins("JOIN conversation_participants pb ON pb.conversation_id = conversations.id AND pb.user_id = ?", b).
		Where("conversations.is_group = ?", false).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainchat.ErrConversationNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *chatRepository) ConversationByID(ctx context.Context, id uint) (*domainchat.Conversation, error) {
	var record conversationRecord
	if err := r.tx.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainchat.ErrConversationNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *chatRepository) IsParticipant(ctx context.Context, conversationID uint, userID domainuser.ID) (bool, error) {
	var count int64
	err := r.tx.WithContext(ctx).Model(&participantRecord{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListForUser assembles inbox summaries in three fixed-size queries: the
// user's conversations, the single latest message per conversation, and the
// peer identities. Message history length never affects the amount fetched.
func (r *chatRepository) ListForUser(ctx context.Context, userID domainuser.ID) ([]domainchat.Summary, error) {
	tx := r.tx.WithContext(ctx)

	var conversationIDs []uint
	err := tx.Model(&participantRecord{}).
		Where("user_id = ?", userID).
		Pluck("conversation_id", &conversationIDs).Error
	if err != nil {
		return nil, err
	}
	if len(conversationIDs) == 0 {
		return []domainchat.Summary{}, nil
	}

	var conversations []conversationRecord
	if err := tx.Where("id IN ?", conversationIDs).Find(&conversations).Error; err != nil {
		return nil, err
	}

	latestIDs := tx.Model(&messageRecord{}).
		Select("MAX(id)").
		Where("conversation_id IN ?", conversationIDs).
		Group("conversation_id")
	var latest []messageRecord
	if err := tx.Where("id IN (?)", latestIDs).Find(&latest).Error; err != nil {
		return nil, err
	}
	latestByConversation := make(map[uint]messageRecord, len(latest))
	for _, msg := range latest {
		latestByConversation[msg.ConversationID] = msg
	}

	type peerRow struct {
		ConversationID uint
		UserID         uint
		FullName       string
		Image          string
	}
	var peers []peerRow
	err = tx.Table("conversation_participants").
		Select("conversation_participants.conversation_id, users.id AS user_id, users.full_name, users.image").
		Joins("JOIN users ON users.id = conversation_participants.user_id").
		Where("conversation_participants.conversation_id IN ?", conversationIDs).
		Order("users.id").
		Scan(&peers).Error
	if err != nil {
		return nil, err
	}
	peersByConversation := make(map[uint][]domainuser.Identity)
	for _, p := range peers {
		if p.UserID == userID {
			continue
		}
		peersByConversation[p.ConversationID] = append(peersByConversation[p.ConversationID], domainuser.Identity{
			ID:       p.UserID,
			FullName: p.FullName,
			Image:    p.Image,
		})
	}

	summaries := make([]domainchat.Summary, 0, len(conversations))
	for _, record := range conversations {
		summary := domainchat.Summary{
			Conversation: *record.toDomain(),
			Others:       peersByConversation[record.ID],
		}
		if msg, ok := latestByConversation[record.ID]; ok {
			last := msg.toDomain()
			summary.LastMessage = &last
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *domainchat.Message) error {
	record := messageRecord{
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		IsRead:         msg.IsRead,
		ReadAt:         msg.ReadAt,
		CreatedAt:      msg.CreatedAt,
	}
	if err := r.tx.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}
	msg.ID = record.ID
	return nil
}

func (r *chatRepository) MessageByID(ctx context.Context, id uint) (*domainchat.Message, error) {
	var record messageRecord
	if err := r.tx.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainchat.ErrMessageNotFound
		}
		return nil, err
	}
	msg := record.toDomain()
	return &msg, nil
}

// MessagesPage orders ascending by insertion id, which matches creation order
// as recorded by the store.
func (r *chatRepository) MessagesPage(ctx context.Context, conversationID uint, offset, limit int) ([]domainchat.Message, int64, error) {
	tx := r.tx.WithContext(ctx)
	var total int64
	err := tx.Model(&messageRecord{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var records []messageRecord
	err = tx.Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	messages := make([]domainchat.Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, record.toDomain())
	}
	return messages, total, nil
}

func (r *chatRepository) DeleteMessage(ctx context.Context, id uint) error {
	result := r.tx.WithContext(ctx).Delete(&messageRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainchat.ErrMessageNotFound
	}
	return nil
}

func (r *chatRepository) MarkRead(ctx context.Context, conversationID uint, readerID domainuser.ID, readAt time.Time) (int64, error) {
	result := r.tx.WithContext(ctx).Model(&messageRecord{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Updates(map[string]any{"is_read": true, "read_at": readAt})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

var _ domainchat.Repository = (*chatRepository)(nil)
