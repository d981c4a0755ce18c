// Package events defines the frames broadcast to course chat subscribers.
package events

import (
	"encoding/json"

	"github.com/Luismi76/cursos/internal/models"
	"github.com/google/uuid"
)

type Kind string

const (
	KindMessage     Kind = "message"
	KindReadReceipt Kind = "read_receipt"
	KindTyping      Kind = "typing"
)

// Event is implemented only by the types in this package.
type Event interface {
	Kind() Kind
	CourseID() uuid.UUID
	Topic() string
	Payload() interface{}

	event()
}

func CourseTopic(courseID uuid.UUID) string {
	return "/topic/course/" + courseID.String()
}

func ReadReceiptsTopic(courseID uuid.UUID) string {
	return CourseTopic(courseID) + "/read-receipts"
}

func TypingTopic(courseID uuid.UUID) string {
	return CourseTopic(courseID) + "/typing"
}

// NewMessage announces a committed message.
type NewMessage struct {
	Message models.CourseMessageResponse
}

func (e NewMessage) Kind() Kind           { return KindMessage }
func (e NewMessage) CourseID() uuid.UUID  { return e.Message.CourseID }
func (e NewMessage) Topic() string        { return CourseTopic(e.Message.CourseID) }
func (e NewMessage) Payload() interface{} { return e.Message }
func (NewMessage) event()                 {}

type ReadReceiptPayload struct {
	UserID     uuid.UUID   `json:"userId"`
	UserName   string      `json:"userName"`
	MessageIDs []uuid.UUID `json:"messageIds"`
}

// ReadReceipt lists the messages a reader just covered with their cursor.
type ReadReceipt struct {
	Course uuid.UUID
	ReadReceiptPayload
}

func NewReadReceipt(courseID uuid.UUID, reader *models.Identity, messageIDs []uuid.UUID) ReadReceipt {
	if messageIDs == nil {
		messageIDs = []uuid.UUID{}
	}
	return ReadReceipt{
		Course: courseID,
		ReadReceiptPayload: ReadReceiptPayload{
			UserID:     reader.ID,
			UserName:   reader.Name,
			MessageIDs: messageIDs,
		},
	}
}

func (e ReadReceipt) Kind() Kind           { return KindReadReceipt }
func (e ReadReceipt) CourseID() uuid.UUID  { return e.Course }
func (e ReadReceipt) Topic() string        { return ReadReceiptsTopic(e.Course) }
func (e ReadReceipt) Payload() interface{} { return e.ReadReceiptPayload }
func (ReadReceipt) event()                 {}

type TypingPayload struct {
	UserID   uuid.UUID `json:"userId"`
	UserName string    `json:"userName"`
	IsTyping bool      `json:"isTyping"`
}

// Typing is ephemeral and never stored.
type Typing struct {
	Course uuid.UUID
	TypingPayload
}

func NewTyping(courseID uuid.UUID, who *models.Identity, isTyping bool) Typing {
	return Typing{
		Course: courseID,
		TypingPayload: TypingPayload{
			UserID:   who.ID,
			UserName: who.Name,
			IsTyping: isTyping,
		},
	}
}

func (e Typing) Kind() Kind           { return KindTyping }
func (e Typing) CourseID() uuid.UUID  { return e.Course }
func (e Typing) Topic() string        { return TypingTopic(e.Course) }
func (e Typing) Payload() interface{} { return e.TypingPayload }
func (Typing) event()                 {}

// Frame is the JSON object written to subscribers.
type Frame struct {
	Type    Kind            `json:"type"`
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

func Encode(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev.Payload())
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{
		Type:    ev.Kind(),
		Topic:   ev.Topic(),
		Payload: payload,
	})
}
