package dto

import (
	"time"

	"github.com/spec-kit/skilllink-support/internal/domain"
)

// ChatMessageRequest payload. IsUser defaults to true when omitted.
type ChatMessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	IsUser    *bool  `json:"is_user"`
}

// ChatMessageResponse is one transcript line.
type ChatMessageResponse struct {
	Message   string    `json:"message"`
	IsUser    bool      `json:"is_user"`
	CreatedAt time.Time `json:"created_at"`
}

func NewChatMessageResponses(messages []domain.ChatMessage) []ChatMessageResponse {
	resp := make([]ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		resp = append(resp, ChatMessageResponse{Message: m.Message, IsUser: m.IsUser, CreatedAt: m.CreatedAt})
	}
	return resp
}
