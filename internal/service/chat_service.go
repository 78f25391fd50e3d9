package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/skilllink-support/internal/domain"
	"github.com/spec-kit/skilllink-support/internal/repository"
	apperrors "github.com/spec-kit/skilllink-support/pkg/errorutil"
)

// ChatService records live-chat transcripts.
type ChatService struct {
	repo repository.ChatRepository
}

// NewChatService constructs the service.
func NewChatService(repo repository.ChatRepository) *ChatService {
	return &ChatService{repo: repo}
}

// Append stores one message and returns it with its id.
func (s *ChatService) Append(ctx context.Context, sessionID, message string, isUser bool) (*domain.ChatMessage, error) {
	details := map[string]any{}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		details["session_id"] = "required"
	}
	if strings.TrimSpace(message) == "" {
		details["message"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("Invalid chat message", details)
	}

	msg := &domain.ChatMessage{SessionID: sessionID, Message: message, IsUser: isUser}
	if err := s.repo.Append(ctx, msg); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("append chat message: %w", err))
	}
	return msg, nil
}

// Transcript returns a session's messages in order.
func (s *ChatService) Transcript(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	messages, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("chat transcript: %w", err))
	}
	return messages, nil
}
