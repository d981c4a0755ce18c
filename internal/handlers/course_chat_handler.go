package handlers

import (
	"context"
	"log"

	"github.com/Luismi76/cursos/internal/cache"
	"github.com/Luismi76/cursos/internal/handlers/ws"
	"github.com/Luismi76/cursos/internal/httpx"
	"github.com/Luismi76/cursos/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CourseChat is the chat service surface used by the HTTP and websocket
// handlers.
type CourseChat interface {
	ws.ChatGateway
	Authorize(ctx context.Context, courseID, userID uuid.UUID) (*models.Identity, error)
	History(ctx context.Context, courseID, userID uuid.UUID) ([]models.CourseMessageResponse, error)
	Message(ctx context.Context, courseID, userID, messageID uuid.UUID) (*models.CourseMessageResponse, error)
	UnreadCount(ctx context.Context, courseID, userID uuid.UUID) (int64, error)
}

type CourseChatHandler struct {
	chat      CourseChat
	hub       *ws.Hub
	userCache *cache.UserCache
}

func NewCourseChatHandler(chat CourseChat, hub *ws.Hub, userCache *cache.UserCache) *CourseChatHandler {
	return &CourseChatHandler{
		chat:      chat,
		hub:       hub,
		userCache: userCache,
	}
}

type sendMessageInput struct {
	Content string `json:"content"`
}

// caller resolves the authenticated user and the course route param. When ok
// is false the error response has already been written.
func (h *CourseChatHandler) caller(c *fiber.Ctx) (userID, courseID uuid.UUID, ok bool) {
	userID, err := httpx.LocalUUID(c, "userID")
	if err != nil {
		_ = httpx.Unauthorized(c, "unauthorized", "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	courseID, err = httpx.ParamUUID(c, "courseId")
	if err != nil {
		_ = httpx.BadRequest(c, "invalid_course_id", "Invalid course id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, courseID, true
}

func (h *CourseChatHandler) GetMessages(c *fiber.Ctx) error {
	userID, courseID, ok := h.caller(c)
	if !ok {
		return nil
	}

	messages, err := h.chat.History(c.UserContext(), courseID, userID)
	if err != nil {
		return httpx.ServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

func (h *CourseChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, courseID, ok := h.caller(c)
	if !ok {
		return nil
	}

	var input sendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	message, err := h.chat.Send(c.UserContext(), courseID, userID, input.Content)
	if err != nil {
		return httpx.ServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}

func (h *CourseChatHandler) GetMessage(c *fiber.Ctx) error {
	userID, courseID, ok := h.caller(c)
	if !ok {
		return nil
	}
	messageID, err := httpx.ParamUUID(c, "messageId")
	if err != nil {
		return httpx.BadRequest(c, "invalid_message_id", "Invalid message id")
	}

	message, err := h.chat.Message(c.UserContext(), courseID, userID, messageID)
	if err != nil {
		return httpx.ServiceError(c, err)
	}

	return c.JSON(message)
}

func (h *CourseChatHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, courseID, ok := h.caller(c)
	if !ok {
		return nil
	}

	count, err := h.chat.UnreadCount(c.UserContext(), courseID, userID)
	if err != nil {
		return httpx.ServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"courseId":    courseID,
		"unreadCount": count,
	})
}

func (h *CourseChatHandler) MarkRead(c *fiber.Ctx) error {
	userID, courseID, ok := h.caller(c)
	if !ok {
		return nil
	}

	ids, err := h.chat.MarkRead(c.UserContext(), courseID, userID)
	if err != nil {
		return httpx.ServiceError(c, err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}

	return c.JSON(fiber.Map{
		"courseId":   courseID,
		"messageIds": ids,
	})
}

// GetOnlineUsers lists members with an open chat session. The shared Redis
// presence set covers every instance; the local hub is the fallback.
func (h *CourseChatHandler) GetOnlineUsers(c *fiber.Ctx) error {
	userID, courseID, ok := h.caller(c)
	if !ok {
		return nil
	}
	if _, err := h.chat.Authorize(c.UserContext(), courseID, userID); err != nil {
		return httpx.ServiceError(c, err)
	}

	online, ok, err := h.userCache.GetCourseOnline(courseID)
	if err != nil {
		log.Printf("Failed to read presence for course %s: %v", courseID, err)
	}
	if !ok {
		online = h.hub.OnlineUsers(courseID)
	}
	if online == nil {
		online = []uuid.UUID{}
	}

	return c.JSON(fiber.Map{
		"courseId": courseID,
		"userIds":  online,
	})
}
