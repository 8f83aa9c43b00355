package openai

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"quali-backend/internal/llm"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func clientWithResponse(body string) *Client {
	return &Client{
		apiKey: "test-key",
		model:  "gpt-4o-mini",
		httpClient: &http.Client{
			Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewReader([]byte(body))),
					Header:     http.Header{"Content-Type": []string{"application/json"}},
				}, nil
			}),
		},
	}
}

func TestNewClientRequiresModelAndKey(t *testing.T) {
	if _, err := NewClient("key", ""); err == nil {
		t.Fatal("expected error for empty model")
	}
	if _, err := NewClient("", "gpt-4o-mini"); err == nil {
		t.Fatal("expected error for empty api key")
	}
	if _, err := NewClient("key", "gpt-4o-mini"); err != nil {
		t.Fatalf("NewClient: %v", err)
	}
}

func TestCompleteReadsFirstChoice(t *testing.T) {
	c := clientWithResponse(`{"id":"cmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":"  bonjour  "}}]}`)
	got, err := c.Complete(context.Background(), llm.CompletionRequest{System: "sys", User: "usr"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.ID != "cmpl-1" {
		t.Errorf("ID = %q", got.ID)
	}
	if got.Content != "bonjour" {
		t.Errorf("Content = %q, want trimmed content", got.Content)
	}
}

func TestCompleteSurfacesUpstreamError(t *testing.T) {
	c := clientWithResponse(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`)
	_, err := c.Complete(context.Background(), llm.CompletionRequest{User: "usr"})
	var upstream *llm.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want *llm.UpstreamError", err)
	}
	if upstream.Type != "rate_limit_error" {
		t.Errorf("Type = %q", upstream.Type)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	c := clientWithResponse(`{"id":"cmpl-2","choices":[]}`)
	_, err := c.Complete(context.Background(), llm.CompletionRequest{User: "usr"})
	var upstream *llm.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("err = %v, want *llm.UpstreamError", err)
	}
}
