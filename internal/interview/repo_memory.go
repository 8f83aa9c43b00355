package interview

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores interview state in memory and is safe for concurrent
// use. It enforces the same slot-uniqueness rules as the Postgres repo.
type MemoryRepo struct {
	mu          sync.RWMutex
	questions   map[string]Question
	responses   map[string]Response
	syntheses   map[string]Synthesis
	competences map[string]Competence
	messages    map[string]ChatMessage
	completions map[string]CompletionRecord
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		questions:   make(map[string]Question),
		responses:   make(map[string]Response),
		syntheses:   make(map[string]Synthesis),
		competences: make(map[string]Competence),
		messages:    make(map[string]ChatMessage),
		completions: make(map[string]CompletionRecord),
	}
}

// ListQuestions returns the user's questions ordered by global index.
func (r *MemoryRepo) ListQuestions(ctx context.Context, userID string) ([]Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Question
	for _, q := range r.questions {
		if q.UserID == userID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// GetQuestion returns one question owned by the user.
func (r *MemoryRepo) GetQuestion(ctx context.Context, userID, questionID string) (Question, error) {
	if err := ctx.Err(); err != nil {
		return Question{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[questionID]
	if !ok || q.UserID != userID {
		return Question{}, ErrNotFound
	}
	return q, nil
}

// QuestionAt returns the user's question at the given global index.
func (r *MemoryRepo) QuestionAt(ctx context.Context, userID string, index int) (Question, error) {
	if err := ctx.Err(); err != nil {
		return Question{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, q := range r.questions {
		if q.UserID == userID && q.Index == index {
			return q, nil
		}
	}
	return Question{}, ErrNotFound
}

// CreateQuestion stores a question, rejecting duplicate (user, index) slots.
func (r *MemoryRepo) CreateQuestion(ctx context.Context, q Question) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.questions {
		if existing.UserID == q.UserID && existing.Index == q.Index {
			return ErrConflict
		}
	}
	r.questions[q.ID] = q
	return nil
}

// SetQuestionContent populates a placeholder question's content.
func (r *MemoryRepo) SetQuestionContent(ctx context.Context, questionID, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[questionID]
	if !ok {
		return ErrNotFound
	}
	q.Content = content
	q.UpdatedAt = time.Now().UTC()
	r.questions[questionID] = q
	return nil
}

// ListResponses returns the user's responses ordered by question index.
func (r *MemoryRepo) ListResponses(ctx context.Context, userID string) ([]Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Response
	for _, resp := range r.responses {
		if resp.UserID == userID {
			out = append(out, resp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionIndex < out[j].QuestionIndex })
	return out, nil
}

// CountResponses counts the user's responses.
func (r *MemoryRepo) CountResponses(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, resp := range r.responses {
		if resp.UserID == userID {
			n++
		}
	}
	return n, nil
}

// HasResponseAt reports whether the question at index has a response.
func (r *MemoryRepo) HasResponseAt(ctx context.Context, userID string, index int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, resp := range r.responses {
		if resp.UserID == userID && resp.QuestionIndex == index {
			return true, nil
		}
	}
	return false, nil
}

// CreateResponse stores a response, rejecting a second one per question.
func (r *MemoryRepo) CreateResponse(ctx context.Context, resp Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.responses {
		if existing.QuestionID == resp.QuestionID {
			return ErrConflict
		}
	}
	r.responses[resp.ID] = resp
	return nil
}

// ListSyntheses returns the user's syntheses ordered by creation time.
func (r *MemoryRepo) ListSyntheses(ctx context.Context, userID string) ([]Synthesis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Synthesis
	for _, s := range r.syntheses {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// SynthesisFor returns the synthesis of one experience.
func (r *MemoryRepo) SynthesisFor(ctx context.Context, userID, experienceID string) (Synthesis, error) {
	if err := ctx.Err(); err != nil {
		return Synthesis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.syntheses {
		if s.UserID == userID && s.ExperienceID == experienceID {
			return s, nil
		}
	}
	return Synthesis{}, ErrNotFound
}

// CreateSynthesis stores a synthesis with its competences atomically,
// rejecting a second synthesis for the same experience.
func (r *MemoryRepo) CreateSynthesis(ctx context.Context, s Synthesis, competences []Competence) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.syntheses {
		if existing.UserID == s.UserID && existing.ExperienceID == s.ExperienceID {
			return ErrConflict
		}
	}
	r.syntheses[s.ID] = s
	for _, c := range competences {
		r.competences[c.ID] = c
	}
	return nil
}

// ListCompetences returns the competences of one experience.
func (r *MemoryRepo) ListCompetences(ctx context.Context, userID, experienceID string) ([]Competence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Competence
	for _, c := range r.competences {
		if c.UserID == userID && c.ExperienceID == experienceID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Content < out[j].Content })
	return out, nil
}

// ListChatMessages returns the user's chat history ordered by creation time.
func (r *MemoryRepo) ListChatMessages(ctx context.Context, userID string) ([]ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ChatMessage
	for _, m := range r.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// CreateChatMessage stores one chat message.
func (r *MemoryRepo) CreateChatMessage(ctx context.Context, msg ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msg.ID] = msg
	return nil
}

// RecordCompletion stores one raw completion audit row.
func (r *MemoryRepo) RecordCompletion(ctx context.Context, rec CompletionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions[rec.ID] = rec
	return nil
}

// Completions returns the stored audit rows. Used by tests.
func (r *MemoryRepo) Completions() []CompletionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CompletionRecord, 0, len(r.completions))
	for _, rec := range r.completions {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

var _ Repo = (*MemoryRepo)(nil)
