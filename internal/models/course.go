package models

import (
	"time"

	"github.com/google/uuid"
)

// Course mirrors the platform's course table. Only the columns the chat
// membership check reads are mapped here.
type Course struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string     `gorm:"size:200;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	TeacherID   *uuid.UUID `gorm:"type:uuid;index" json:"teacher_id"`

	Teacher  *User           `gorm:"foreignKey:TeacherID" json:"-"`
	Students []CourseStudent `gorm:"foreignKey:CourseID" json:"-"`
}

// CourseStudent is one enrollment row.
type CourseStudent struct {
	CourseID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"course_id"`
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	EnrolledAt time.Time `gorm:"autoCreateTime" json:"enrolled_at"`
}
