package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// User is owned by the platform's account module. The chat core only reads
// the display fields and the role.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name   string   `gorm:"size:120;not null" json:"name"`
	Email  string   `gorm:"uniqueIndex;not null" json:"email"`
	Avatar string   `json:"avatar"` // object key in the avatar bucket, or an absolute URL
	Role   UserRole `gorm:"type:varchar(20);not null;default:student" json:"role"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Identity is the authoritative display data attached to outbound chat events.
type Identity struct {
	ID        uuid.UUID `msgpack:"id" json:"id"`
	Name      string    `msgpack:"name" json:"name"`
	AvatarURL string    `msgpack:"avatar_url" json:"avatarUrl"`
	Role      UserRole  `msgpack:"role" json:"-"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

func (i *Identity) Author() AuthorResponse {
	return AuthorResponse{ID: i.ID, Name: i.Name, AvatarURL: i.AvatarURL}
}
