package interview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quali-backend/internal/cvminute"
	"quali-backend/internal/schedule"
	"quali-backend/internal/shared/metrics"
)

// ensureSynthesis returns the experience's synthesis, generating and
// persisting it if it does not exist yet. A synthesis is written exactly
// once per experience and never regenerated.
func (s *Service) ensureSynthesis(ctx context.Context, userID string, exp cvminute.Experience, expIdx int, questions []Question, responses []Response) (Synthesis, error) {
	existing, err := s.Repo.SynthesisFor(ctx, userID, exp.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Synthesis{}, fmt.Errorf("synthesis lookup: %w", err)
	}

	lo, hi := schedule.RangeFor(expIdx)
	pairs := answeredPairs(questions, responses, lo, hi)
	if len(pairs) != hi-lo+1 {
		return Synthesis{}, fmt.Errorf("experience %d has %d of %d answers", expIdx, len(pairs), hi-lo+1)
	}

	raw, err := s.complete(ctx, userID, CompletionKindSynthesis, synthesisSystemPrompt, synthesisUserPrompt(exp, pairs))
	if err != nil {
		return Synthesis{}, err
	}
	var payload SynthesisPayload
	if err := decodePayload(raw, &payload); err != nil {
		return Synthesis{}, err
	}

	now := time.Now().UTC()
	synthesis := Synthesis{
		ID:           uuid.NewString(),
		UserID:       userID,
		ExperienceID: exp.ID,
		Content:      payload.Resume,
		CreatedAt:    now,
	}
	competences := make([]Competence, 0, len(payload.Competences))
	for _, c := range payload.Competences {
		competences = append(competences, Competence{
			ID:           uuid.NewString(),
			UserID:       userID,
			ExperienceID: exp.ID,
			Content:      c,
			CreatedAt:    now,
		})
	}

	if err := s.Repo.CreateSynthesis(ctx, synthesis, competences); err != nil {
		if errors.Is(err, ErrConflict) {
			// Another request synthesized this experience first.
			return s.Repo.SynthesisFor(ctx, userID, exp.ID)
		}
		return Synthesis{}, fmt.Errorf("create synthesis: %w", err)
	}
	metrics.IncSynthesisGenerated()
	return synthesis, nil
}

// answeredPairs collects the Q/A pairs with indexes in [lo, hi] that have
// a response.
func answeredPairs(questions []Question, responses []Response, lo, hi int) []QA {
	byIndex := make(map[int]string, len(responses))
	for _, r := range responses {
		byIndex[r.QuestionIndex] = r.Content
	}
	var out []QA
	for _, q := range questions {
		if q.Index < lo || q.Index > hi {
			continue
		}
		answer, ok := byIndex[q.Index]
		if !ok {
			continue
		}
		out = append(out, QA{Question: q.Content, Answer: answer})
	}
	return out
}
