package gormdb

import (
	"time"

	domainchat "hireme/internal/domain/chat"
	domainuser "hireme/internal/domain/user"
)

type userRecord struct {
	ID        uint   `gorm:"primaryKey"`
	FullName  string `gorm:"size:100;not null"`
	Email     string `gorm:"size:150;uniqueIndex;not null"`
	Password  string `gorm:"type:text"`
	Role      string `gorm:"size:20;not null"`
	Image     string `gorm:"type:text"`
	Headline  string `gorm:"size:200"`
	CreatedAt time.Time
}

func (userRecord) TableName() string { return "users" }

type conversationRecord struct {
	ID        uint   `gorm:"primaryKey"`
	CreatedBy *uint  `gorm:"index"`
	IsGroup   bool   `gorm:"not null;default:false"`
	Title     string `gorm:"size:255"`
	CreatedAt time.Time
}

func (conversationRecord) TableName() string { return "conversations" }

type participantRecord struct {
	ConversationID uint      `gorm:"primaryKey;autoIncrement:false"`
	UserID         uint      `gorm:"primaryKey;autoIncrement:false;index"`
	JoinedAt       time.Time
}

func (participantRecord) TableName() string { return "conversation_participants" }

type messageRecord struct {
	ID             uint   `gorm:"primaryKey"`
	ConversationID uint   `gorm:"index;not null"`
	SenderID       uint   `gorm:"index;not null"`
	Content        string `gorm:"type:text;not null"`
	IsRead         bool   `gorm:"not null;default:false"`
	ReadAt         *time.Time
	CreatedAt      time.Time `gorm:"index"`
}

func (messageRecord) TableName() string { return "messages" }

func (r userRecord) toDomain() *domainuser.User {
	return &domainuser.User{
		ID:           r.ID,
		FullName:     r.FullName,
		Email:        r.Email,
		PasswordHash: r.Password,
		Role:         domainuser.Role(r.Role),
		Image:        r.Image,
		Headline:     r.Headline,
		CreatedAt:    r.CreatedAt,
	}
}

func newUserRecord(u *domainuser.User) userRecord {
	return userRecord{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Password:  u.PasswordHash,
		Role:      string(u.Role),
		Image:     u.Image,
		Headline:  u.Headline,
		CreatedAt: u.CreatedAt,
	}
}

func (r conversationRecord) toDomain() *domainchat.Conversation {
	return &domainchat.Conversation{
		ID:        r.ID,
		CreatedBy: r.CreatedBy,
		IsGroup:   r.IsGroup,
		Title:     r.Title,
		CreatedAt: r.CreatedAt,
	}
}

func (r messageRecord) toDomain() domainchat.Message {
	return domainchat.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		Content:        r.Content,
		IsRead:         r.IsRead,
		ReadAt:         r.ReadAt,
		CreatedAt:      r.CreatedAt,
	}
}
