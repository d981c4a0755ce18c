package handlers

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/Luismi76/cursos/internal/cache"
	"github.com/Luismi76/cursos/internal/handlers/ws"
	"github.com/Luismi76/cursos/internal/httpx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type WebSocketHandler struct {
	chat         CourseChat
	hub          *ws.Hub
	userCache    *cache.UserCache
	sendBuffer   int
	pingInterval time.Duration
}

func NewWebSocketHandler(chat CourseChat, hub *ws.Hub, userCache *cache.UserCache, sendBuffer int, pingInterval time.Duration) *WebSocketHandler {
	return &WebSocketHandler{
		chat:         chat,
		hub:          hub,
		userCache:    userCache,
		sendBuffer:   sendBuffer,
		pingInterval: pingInterval,
	}
}

// Upgrade authorizes the caller for the course before the protocol switch,
// so a rejected subscription is a plain HTTP error.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	userID, err := httpx.LocalUUID(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	courseID, err := httpx.ParamUUID(c, "courseId")
	if err != nil {
		return httpx.BadRequest(c, "invalid_course_id", "Invalid course id")
	}
	if _, err := h.chat.Authorize(c.UserContext(), courseID, userID); err != nil {
		return httpx.ServiceError(c, err)
	}

	c.Locals("courseID", courseID)
	return c.Next()
}

func (h *WebSocketHandler) HandleCourseChat(c *websocket.Conn) {
	userID := c.Locals("userID").(uuid.UUID)
	courseID := c.Locals("courseID").(uuid.UUID)
	wsDebug := os.Getenv("WS_DEBUG") == "true"

	ctx, cancel := context.WithCancel(context.Background())
	client := ws.NewClient(c, userID, courseID, h.sendBuffer)
	h.hub.Subscribe(client)
	go client.WritePump(h.pingInterval)

	if err := h.userCache.SetCourseOnline(courseID, userID); err != nil {
		log.Printf("Failed to mark user %s online in course %s: %v", userID, courseID, err)
	}

	defer func() {
		cancel()
		h.hub.Unsubscribe(client)
		if err := h.userCache.SetCourseOffline(courseID, userID); err != nil {
			log.Printf("Failed to mark user %s offline in course %s: %v", userID, courseID, err)
		}
		log.Printf("User %s left course %s chat", userID, courseID)
	}()

	readTimeout := 2 * h.pingInterval
	_ = c.SetReadDeadline(time.Now().Add(readTimeout))
	c.SetPongHandler(func(string) error {
		if err := h.userCache.SetCourseOnline(courseID, userID); err != nil {
			log.Printf("Failed to refresh presence for user %s: %v", userID, err)
		}
		return c.SetReadDeadline(time.Now().Add(readTimeout))
	})

	log.Printf("User %s joined course %s chat", userID, courseID)

	msgCtx := &ws.MessageContext{
		Ctx:      ctx,
		UserID:   userID,
		CourseID: courseID,
		Client:   client,
		Chat:     h.chat,
	}

	for {
		messageType, messageBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Error reading message from user %s: %v", userID, err)
			}
			break
		}
		_ = c.SetReadDeadline(time.Now().Add(readTimeout))

		if wsDebug {
			log.Printf("ws_recv user_id=%s course_id=%s frame_type=%d size=%d", userID, courseID, messageType, len(messageBytes))
		}
		if messageType != websocket.TextMessage {
			_ = ws.SendError(client, "invalid_message", "Only text frames are accepted", "")
			continue
		}

		msg, err := ws.Deserialize(messageBytes)
		if err != nil {
			_ = ws.SendError(client, "invalid_message", "Invalid message format", err.Error())
			continue
		}

		if err := msg.Process(msgCtx); err != nil {
			code, message := ws.ErrorCode(err)
			log.Printf("Error processing message %s from user %s: %v", msg.GetType(), userID, err)
			_ = ws.SendError(client, code, message, err.Error())
		}
	}
}
