package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseMessage is one entry of a course's append-only chat log.
type CourseMessage struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index:idx_course_messages_position,priority:1" json:"course_id"`
	SenderID uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	Sender   User      `gorm:"foreignKey:SenderID" json:"sender"`

	Content string    `gorm:"type:text;not null" json:"content"`
	SentAt  time.Time `gorm:"not null;index:idx_course_messages_position,priority:2" json:"sent_at"`
}

func (m *CourseMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Position is where the message sits in the course log.
func (m *CourseMessage) Position() MessagePosition {
	return MessagePosition{SentAt: m.SentAt, ID: m.ID}
}

// MessagePosition orders messages by send time, then by id for equal
// timestamps. History listing and unread computation share this order.
type MessagePosition struct {
	SentAt time.Time
	ID     uuid.UUID
}

func (p MessagePosition) Before(other MessagePosition) bool {
	if !p.SentAt.Equal(other.SentAt) {
		return p.SentAt.Before(other.SentAt)
	}
	return bytes.Compare(p.ID[:], other.ID[:]) < 0
}

// ServerTimestamp is the store clock, truncated to the precision Postgres keeps.
func ServerTimestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

type AuthorResponse struct {
	ID        uuid.UUID `json:"id" msgpack:"id"`
	Name      string    `json:"name" msgpack:"name"`
	AvatarURL string    `json:"avatarUrl" msgpack:"avatar_url"`
}

type CourseMessageResponse struct {
	ID       uuid.UUID      `json:"id" msgpack:"id"`
	CourseID uuid.UUID      `json:"courseId" msgpack:"course_id"`
	Content  string         `json:"content" msgpack:"content"`
	SentAt   time.Time      `json:"sentAt" msgpack:"sent_at"`
	Author   AuthorResponse `json:"author" msgpack:"author"`
}

// ToResponse builds the wire shape. author overrides the preloaded sender
// when the caller already resolved an identity.
func (m *CourseMessage) ToResponse(author *AuthorResponse) CourseMessageResponse {
	a := AuthorResponse{ID: m.SenderID, Name: m.Sender.Name, AvatarURL: m.Sender.Avatar}
	if author != nil {
		a = *author
	}
	return CourseMessageResponse{
		ID:       m.ID,
		CourseID: m.CourseID,
		Content:  m.Content,
		SentAt:   m.SentAt,
		Author:   a,
	}
}
