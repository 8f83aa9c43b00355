package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quali-backend/internal/shared/metrics"
)

// Chat answers one free-form user message using the accumulated
// experience syntheses as context. Only available once every experience
// has been synthesized.
func (s *Service) Chat(ctx context.Context, userID, message string) (ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatMessage{}, ErrEmptyMessage
	}

	minute, err := s.CvMinutes.Reference(ctx, userID)
	if err != nil {
		return ChatMessage{}, err
	}
	exps, err := s.CvMinutes.ListExperiences(ctx, userID, minute.ID)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("experiences lookup: %w", err)
	}
	if len(exps) == 0 {
		return ChatMessage{}, ErrNoExperiences
	}
	syntheses, err := s.Repo.ListSyntheses(ctx, userID)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("syntheses lookup: %w", err)
	}
	if len(syntheses) < len(exps) {
		return ChatMessage{}, ErrInterviewRunning
	}

	history, err := s.Repo.ListChatMessages(ctx, userID)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("chat history lookup: %w", err)
	}

	userMsg := ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      RoleUser,
		Content:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.CreateChatMessage(ctx, userMsg); err != nil {
		return ChatMessage{}, fmt.Errorf("persist user message: %w", err)
	}

	raw, err := s.complete(ctx, userID, CompletionKindChat, chatSystemPrompt, chatUserPrompt(syntheses, history, message))
	if err != nil {
		return ChatMessage{}, err
	}
	var payload ChatPayload
	if err := decodePayload(raw, &payload); err != nil {
		return ChatMessage{}, err
	}

	reply := ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      RoleSystem,
		Content:   payload.Response,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.CreateChatMessage(ctx, reply); err != nil {
		return ChatMessage{}, fmt.Errorf("persist reply: %w", err)
	}
	metrics.IncChatTurn()
	return reply, nil
}
