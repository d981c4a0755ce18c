package models

import (
	"time"

	"github.com/google/uuid"
)

// ReadCursor tracks how far a user has read in a course chat.
// LastReadMessageID is nil until the first mark-read and always points at a
// message of the same course. Updates are last-write-wins.
type ReadCursor struct {
	CourseID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"course_id"`
	UserID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	LastReadMessageID *uuid.UUID `gorm:"type:uuid" json:"last_read_message_id"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
