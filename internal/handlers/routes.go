package handlers

import "github.com/gofiber/fiber/v2"

// RegisterCourseChatRoutes mounts the course chat endpoints on an
// authenticated router.
func RegisterCourseChatRoutes(router fiber.Router, h *CourseChatHandler) {
	chat := router.Group("/courses/:courseId/chat")
	chat.Get("/messages", h.GetMessages)
	chat.Post("/messages", h.SendMessage)
	chat.Get("/messages/:messageId", h.GetMessage)
	chat.Get("/unread", h.GetUnreadCount)
	chat.Post("/read", h.MarkRead)
	chat.Get("/online", h.GetOnlineUsers)
}
