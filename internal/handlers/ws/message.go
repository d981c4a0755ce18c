package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/Luismi76/cursos/internal/models"
	"github.com/google/uuid"
)

// ChatGateway is the chat service as seen by inbound frames.
type ChatGateway interface {
	Send(ctx context.Context, courseID, senderID uuid.UUID, content string) (*models.CourseMessageResponse, error)
	Typing(ctx context.Context, courseID, userID uuid.UUID, isTyping bool) error
	MarkRead(ctx context.Context, courseID, userID uuid.UUID) ([]uuid.UUID, error)
}

// MessageContext provides all dependencies needed for message processing
type MessageContext struct {
	Ctx      context.Context
	UserID   uuid.UUID
	CourseID uuid.UUID
	Client   *Client
	Chat     ChatGateway
}

// Message interface for all WebSocket message types
type Message interface {
	GetType() string
	Process(ctx *MessageContext) error
}

// SerializedMessage is the wire format wrapper
type SerializedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorResponse is sent when message processing fails
type ErrorResponse struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func ToJson(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func FromJson(jsonBytes []byte, msg Message) error {
	return json.Unmarshal(jsonBytes, msg)
}

func CreateMessage(msgType string, typeRegistry map[string]reflect.Type) (Message, error) {
	msgTypeReflect, ok := typeRegistry[msgType]
	if !ok {
		return nil, fmt.Errorf("unknown message type: %s", msgType)
	}

	instance := reflect.New(msgTypeReflect).Interface()
	return instance.(Message), nil
}

// SendError queues an error response for the client
func SendError(client *Client, code, message, details string) error {
	return client.SendJSON(ErrorResponse{
		Type:    "error",
		Error:   message,
		Code:    code,
		Details: details,
	})
}
