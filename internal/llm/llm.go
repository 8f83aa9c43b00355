package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client abstracts the AI completion provider used by the interview engine.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// Transcriber turns recorded audio into text for voice-answered questions.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, fileName string) (string, error)
}

// CompletionRequest carries one completion call. Prompt wording is owned
// by the caller; the client only transports it.
type CompletionRequest struct {
	System string
	User   string
}

// Completion is the provider's answer. Content is raw text and is not
// guaranteed to be valid JSON; callers run it through internal/extract.
type Completion struct {
	ID      string
	Content string
}

// ErrTimeout marks a completion call that expired. Safe to retry.
var ErrTimeout = errors.New("completion timeout")

// UpstreamError is an error reported by the provider itself, surfaced
// verbatim to callers with no local state changed.
type UpstreamError struct {
	Message string
	Type    string
}

func (e *UpstreamError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("provider error: %s", e.Message)
	}
	return fmt.Sprintf("provider error: %s (%s)", e.Message, e.Type)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm client not configured")

// PlaceholderClient is a stub implementation used when no provider is wired.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	_ = ctx
	_ = req
	return Completion{}, ErrNotConfigured
}

// Transcribe returns ErrNotConfigured.
func (PlaceholderClient) Transcribe(ctx context.Context, audio []byte, fileName string) (string, error) {
	_ = ctx
	_ = audio
	_ = fileName
	return "", ErrNotConfigured
}
