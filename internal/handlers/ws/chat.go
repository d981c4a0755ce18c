package ws

import (
	"github.com/Luismi76/cursos/internal/service"
	"github.com/Luismi76/cursos/internal/validation"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MessageChat sends a chat message to the connection's course. Display
// fields sent by the client are ignored; the author is resolved server-side.
type MessageChat struct {
	CourseID          string `json:"courseId" validate:"required,uuid"`
	SenderID          string `json:"senderId,omitempty" validate:"omitempty,uuid"`
	SenderDisplayName string `json:"senderDisplayName,omitempty"`
	AvatarURL         string `json:"avatarUrl,omitempty"`
	Content           string `json:"content"`
}

func (msg *MessageChat) GetType() string {
	return "chat.send"
}

func (msg *MessageChat) Process(ctx *MessageContext) error {
	if err := checkCourse(ctx, msg.CourseID, msg); err != nil {
		return err
	}
	if msg.SenderID != "" && msg.SenderID != ctx.UserID.String() {
		return errors.Wrap(service.ErrUnauthorized, "senderId does not match the authenticated user")
	}

	_, err := ctx.Chat.Send(ctx.Ctx, ctx.CourseID, ctx.UserID, msg.Content)
	return err
}

// MessageTyping toggles the typing indicator
type MessageTyping struct {
	CourseID string `json:"courseId,omitempty" validate:"omitempty,uuid"`
	IsTyping bool   `json:"isTyping"`
}

func (msg *MessageTyping) GetType() string {
	return "chat.typing"
}

func (msg *MessageTyping) Process(ctx *MessageContext) error {
	if err := checkCourse(ctx, msg.CourseID, msg); err != nil {
		return err
	}
	return ctx.Chat.Typing(ctx.Ctx, ctx.CourseID, ctx.UserID, msg.IsTyping)
}

// MessageRead marks the course as read up to its newest message
type MessageRead struct {
	CourseID string `json:"courseId,omitempty" validate:"omitempty,uuid"`
}

func (msg *MessageRead) GetType() string {
	return "chat.read"
}

func (msg *MessageRead) Process(ctx *MessageContext) error {
	if err := checkCourse(ctx, msg.CourseID, msg); err != nil {
		return err
	}
	_, err := ctx.Chat.MarkRead(ctx.Ctx, ctx.CourseID, ctx.UserID)
	return err
}

// checkCourse validates the payload and rejects frames addressed to a course
// other than the one the connection subscribed to.
func checkCourse(ctx *MessageContext, courseID string, payload interface{}) error {
	if err := validation.Struct(payload); err != nil {
		return errors.Wrap(service.ErrInvalidInput, err.Error())
	}
	if courseID == "" {
		return nil
	}
	id, err := uuid.Parse(courseID)
	if err != nil || id != ctx.CourseID {
		return errors.Wrap(service.ErrInvalidInput, "courseId does not match this connection")
	}
	return nil
}
