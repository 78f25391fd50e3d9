package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/skilllink-support/internal/api/dto"
	"github.com/spec-kit/skilllink-support/internal/service"
	apperrors "github.com/spec-kit/skilllink-support/pkg/errorutil"
)

// ChatHandler records live-chat transcripts.
type ChatHandler struct {
	service *service.ChatService
}

// NewChatHandler constructs handler.
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{service: chatService}
}

// AppendMessage POST /api/chat/messages.
func (h *ChatHandler) AppendMessage(c *fiber.Ctx) error {
	var req dto.ChatMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body", nil)
	}
	isUser := true
	if req.IsUser != nil {
		isUser = *req.IsUser
	}
	msg, err := h.service.Append(c.UserContext(), req.SessionID, req.Message, isUser)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "messageId": msg.ID})
}

// Transcript GET /api/chat/messages/:session_id.
func (h *ChatHandler) Transcript(c *fiber.Ctx) error {
	messages, err := h.service.Transcript(c.UserContext(), c.Params("session_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "messages": dto.NewChatMessageResponses(messages)})
}
