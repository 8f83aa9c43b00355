package interview

import (
	"fmt"
	"strings"

	"quali-backend/internal/extract"
)

// Extracted completion payloads are modeled per call-site and validated
// immediately after extraction, so downstream code never probes loose maps
// for fields that may not exist.

// QuestionPayload is the shape expected from a question completion.
type QuestionPayload struct {
	Question string `json:"question"`
}

func (p *QuestionPayload) Validate() error {
	p.Question = strings.TrimSpace(p.Question)
	if p.Question == "" {
		return fmt.Errorf("question payload: %w", extract.ErrParseFailed)
	}
	return nil
}

// SynthesisPayload is the shape expected from a synthesis completion.
type SynthesisPayload struct {
	Resume      string   `json:"resume"`
	Competences []string `json:"competences"`
}

func (p *SynthesisPayload) Validate() error {
	p.Resume = strings.TrimSpace(p.Resume)
	if p.Resume == "" {
		return fmt.Errorf("synthesis payload: %w", extract.ErrParseFailed)
	}
	cleaned := make([]string, 0, len(p.Competences))
	for _, c := range p.Competences {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return fmt.Errorf("synthesis payload: %w", extract.ErrParseFailed)
	}
	p.Competences = cleaned
	return nil
}

// ChatPayload is the shape expected from a chat completion.
type ChatPayload struct {
	Response string `json:"response"`
}

func (p *ChatPayload) Validate() error {
	p.Response = strings.TrimSpace(p.Response)
	if p.Response == "" {
		return fmt.Errorf("chat payload: %w", extract.ErrParseFailed)
	}
	return nil
}

// decodePayload extracts raw completion text into the payload and
// validates it in one step.
func decodePayload(raw string, p interface{ Validate() error }) error {
	if err := extract.Into(raw, p); err != nil {
		return err
	}
	return p.Validate()
}
