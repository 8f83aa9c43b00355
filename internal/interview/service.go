package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quali-backend/internal/cvminute"
	"quali-backend/internal/extract"
	"quali-backend/internal/llm"
	"quali-backend/internal/schedule"
	"quali-backend/internal/shared/metrics"
	"quali-backend/internal/shared/telemetry"
)

// Emitter pushes best-effort notifications to a user's realtime channel.
// Delivery failure must never fail the request.
type Emitter interface {
	Emit(userID, event string, payload any)
}

// EventNextQuestion notifies the client that a new question is pending.
const EventNextQuestion = "quali:next-question"

// Service orchestrates the career qualification interview: it derives the
// current position from persisted rows on every call instead of storing a
// cursor, which is what makes resumption crash-safe.
type Service struct {
	Repo        Repo
	CvMinutes   cvminute.Repo
	LLM         llm.Client
	Transcriber llm.Transcriber
	Push        Emitter
}

// Advance is the outcome of one advance call. Exactly one branch is set.
type Advance struct {
	NoCvMinute    bool
	NoExperiences bool
	Question      *Question
	Messages      []ChatMessage
	Experiences   []ExperienceSummary
}

// NextStep reports whether the interview is complete and the caller
// should move to the chat phase.
func (a Advance) NextStep() bool {
	return a.Experiences != nil
}

// ExperienceSummary bundles an experience with its generated synthesis.
type ExperienceSummary struct {
	Experience  cvminute.Experience `json:"experience"`
	Synthesis   Synthesis           `json:"synthesis"`
	Competences []Competence        `json:"competences"`
}

// DoAdvance computes the next interview step for the user: emit the
// pending question, generate a new one, synthesize finished experiences,
// or report the interview complete. Re-issuing the call without a new
// response is idempotent.
func (s *Service) DoAdvance(ctx context.Context, userID string) (Advance, error) {
	if strings.TrimSpace(userID) == "" {
		return Advance{}, errors.New("userID is required")
	}
	metrics.IncAdvance()
	// One retry: a conflict means a concurrent call won the slot, so the
	// re-read will observe its question and return it unchanged.
	adv, err := s.advanceOnce(ctx, userID)
	if errors.Is(err, ErrConflict) {
		adv, err = s.advanceOnce(ctx, userID)
	}
	if err != nil {
		metrics.IncAdvanceFailed()
		telemetry.Error("quali.advance", map[string]any{
			"user_id": userID,
			"code":    classifyFailure(err),
			"error":   err.Error(),
		})
	}
	return adv, err
}

func (s *Service) advanceOnce(ctx context.Context, userID string) (Advance, error) {
	minute, err := s.CvMinutes.Reference(ctx, userID)
	if err != nil {
		if errors.Is(err, cvminute.ErrNotFound) {
			return Advance{NoCvMinute: true}, nil
		}
		return Advance{}, fmt.Errorf("cv minute lookup: %w", err)
	}

	exps, err := s.CvMinutes.ListExperiences(ctx, userID, minute.ID)
	if err != nil {
		return Advance{}, fmt.Errorf("experiences lookup: %w", err)
	}
	if len(exps) == 0 {
		return Advance{NoExperiences: true}, nil
	}

	total := schedule.TotalQuestions(len(exps))
	answered, err := s.Repo.CountResponses(ctx, userID)
	if err != nil {
		return Advance{}, fmt.Errorf("responses count: %w", err)
	}
	if answered >= total {
		return s.finishInterview(ctx, userID, exps)
	}

	questions, err := s.Repo.ListQuestions(ctx, userID)
	if err != nil {
		return Advance{}, fmt.Errorf("questions lookup: %w", err)
	}
	responses, err := s.Repo.ListResponses(ctx, userID)
	if err != nil {
		return Advance{}, fmt.Errorf("responses lookup: %w", err)
	}

	// Global index order is the sole source of truth for what comes
	// next; response counts alone would miss placeholder rows.
	nextIdx := 0
	if len(responses) > 0 {
		nextIdx = responses[len(responses)-1].QuestionIndex + 1
	}
	if nextIdx >= total {
		return s.finishInterview(ctx, userID, exps)
	}

	expIdx := schedule.ExperienceFor(nextIdx)
	if expIdx >= len(exps) {
		return Advance{}, fmt.Errorf("question index %d beyond experience count %d", nextIdx, len(exps))
	}
	exp := exps[expIdx]

	if next, ok := questionAt(questions, nextIdx); ok {
		if !next.Pending() {
			// Idempotent resumption: the pending question already has
			// content, so no AI call happens.
			return Advance{Question: &next}, nil
		}
		q, err := s.populateQuestion(ctx, userID, exp, next, questions, responses)
		if err != nil {
			return Advance{}, err
		}
		return Advance{Question: &q}, nil
	}

	q, err := s.createQuestion(ctx, userID, exp, nextIdx, questions, responses)
	if err != nil {
		return Advance{}, err
	}
	return Advance{Question: &q}, nil
}

// populateQuestion fills a placeholder row with generated content.
func (s *Service) populateQuestion(ctx context.Context, userID string, exp cvminute.Experience, placeholder Question, questions []Question, responses []Response) (Question, error) {
	prior := pairsForExperience(questions, responses, placeholder.Index)
	content, err := s.generateQuestionText(ctx, userID, exp, prior)
	if err != nil {
		return Question{}, err
	}
	if err := s.Repo.SetQuestionContent(ctx, placeholder.ID, content); err != nil {
		return Question{}, fmt.Errorf("set question content: %w", err)
	}
	placeholder.Content = content
	s.emitNextQuestion(userID, placeholder)
	return placeholder, nil
}

// createQuestion generates and persists a brand new question at index.
func (s *Service) createQuestion(ctx context.Context, userID string, exp cvminute.Experience, index int, questions []Question, responses []Response) (Question, error) {
	prior := pairsForExperience(questions, responses, index)
	content, err := s.generateQuestionText(ctx, userID, exp, prior)
	if err != nil {
		return Question{}, err
	}
	now := time.Now().UTC()
	q := Question{
		ID:           uuid.NewString(),
		UserID:       userID,
		ExperienceID: exp.ID,
		Index:        index,
		Content:      content,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.CreateQuestion(ctx, q); err != nil {
		return Question{}, fmt.Errorf("create question: %w", err)
	}
	metrics.IncQuestionGenerated()
	s.emitNextQuestion(userID, q)
	return q, nil
}

func (s *Service) generateQuestionText(ctx context.Context, userID string, exp cvminute.Experience, prior []QA) (string, error) {
	raw, err := s.complete(ctx, userID, CompletionKindQuestion, interviewerSystemPrompt, questionUserPrompt(exp, prior))
	if err != nil {
		return "", err
	}
	var payload QuestionPayload
	if err := decodePayload(raw, &payload); err != nil {
		return "", err
	}
	return payload.Question, nil
}

// finishInterview synthesizes any experience still missing its synthesis,
// then returns the terminal next-step outcome.
func (s *Service) finishInterview(ctx context.Context, userID string, exps []cvminute.Experience) (Advance, error) {
	questions, err := s.Repo.ListQuestions(ctx, userID)
	if err != nil {
		return Advance{}, fmt.Errorf("questions lookup: %w", err)
	}
	responses, err := s.Repo.ListResponses(ctx, userID)
	if err != nil {
		return Advance{}, fmt.Errorf("responses lookup: %w", err)
	}

	summaries := make([]ExperienceSummary, 0, len(exps))
	for i, exp := range exps {
		synthesis, err := s.ensureSynthesis(ctx, userID, exp, i, questions, responses)
		if err != nil {
			return Advance{}, err
		}
		competences, err := s.Repo.ListCompetences(ctx, userID, exp.ID)
		if err != nil {
			return Advance{}, fmt.Errorf("competences lookup: %w", err)
		}
		summaries = append(summaries, ExperienceSummary{
			Experience:  exp,
			Synthesis:   synthesis,
			Competences: competences,
		})
	}

	messages, err := s.Repo.ListChatMessages(ctx, userID)
	if err != nil {
		return Advance{}, fmt.Errorf("chat messages lookup: %w", err)
	}
	if messages == nil {
		messages = []ChatMessage{}
	}
	return Advance{Messages: messages, Experiences: summaries}, nil
}

// History returns the persisted interview state for resumption UIs.
type History struct {
	Questions []Question  `json:"questions"`
	Responses []Response  `json:"responses"`
	Syntheses []Synthesis `json:"syntheses"`
}

// GetHistory loads questions, responses and syntheses for the user.
func (s *Service) GetHistory(ctx context.Context, userID string) (History, error) {
	questions, err := s.Repo.ListQuestions(ctx, userID)
	if err != nil {
		return History{}, err
	}
	responses, err := s.Repo.ListResponses(ctx, userID)
	if err != nil {
		return History{}, err
	}
	syntheses, err := s.Repo.ListSyntheses(ctx, userID)
	if err != nil {
		return History{}, err
	}
	return History{Questions: questions, Responses: responses, Syntheses: syntheses}, nil
}

// SubmitResponse records the single answer to a question. Audio, when
// present, is transcribed and the transcript becomes the answer text
// unless explicit text was also sent.
func (s *Service) SubmitResponse(ctx context.Context, userID, questionID, text string, audio []byte, audioName string) (Response, error) {
	q, err := s.Repo.GetQuestion(ctx, userID, questionID)
	if err != nil {
		return Response{}, err
	}
	if q.Pending() {
		return Response{}, ErrQuestionPending
	}
	if q.Index > 0 {
		ok, err := s.Repo.HasResponseAt(ctx, userID, q.Index-1)
		if err != nil {
			return Response{}, fmt.Errorf("ordering check: %w", err)
		}
		if !ok {
			return Response{}, ErrOutOfOrder
		}
	}

	transcript := ""
	if len(audio) > 0 {
		if s.Transcriber == nil {
			return Response{}, errors.New("transcriber not configured")
		}
		transcript, err = s.Transcriber.Transcribe(ctx, audio, audioName)
		if err != nil {
			return Response{}, fmt.Errorf("transcribe: %w", err)
		}
	}
	content := strings.TrimSpace(text)
	if content == "" {
		content = strings.TrimSpace(transcript)
	}
	if content == "" {
		return Response{}, ErrEmptyMessage
	}

	resp := Response{
		ID:            uuid.NewString(),
		UserID:        userID,
		QuestionID:    q.ID,
		QuestionIndex: q.Index,
		Content:       content,
		Transcript:    transcript,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.Repo.CreateResponse(ctx, resp); err != nil {
		if errors.Is(err, ErrConflict) {
			return Response{}, ErrAlreadyAnswered
		}
		return Response{}, fmt.Errorf("create response: %w", err)
	}
	return resp, nil
}

// complete runs one AI call and records the raw completion before any
// extraction is attempted, so parse failures remain diagnosable.
func (s *Service) complete(ctx context.Context, userID, kind, system, user string) (string, error) {
	start := time.Now()
	comp, err := s.LLM.Complete(ctx, llm.CompletionRequest{System: system, User: user})
	metrics.ObserveCompletionDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		return "", err
	}
	rec := CompletionRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		Kind:         kind,
		CompletionID: comp.ID,
		Content:      comp.Content,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Repo.RecordCompletion(ctx, rec); err != nil {
		telemetry.Error("quali.completion_audit", map[string]any{
			"user_id": userID,
			"kind":    kind,
			"error":   err.Error(),
		})
	}
	return comp.Content, nil
}

func (s *Service) emitNextQuestion(userID string, q Question) {
	if s.Push == nil {
		return
	}
	s.Push.Emit(userID, EventNextQuestion, q)
}

// questionAt finds the question with the given global index.
func questionAt(questions []Question, index int) (Question, bool) {
	for _, q := range questions {
		if q.Index == index {
			return q, true
		}
	}
	return Question{}, false
}

// pairsForExperience collects the answered Q/A pairs belonging to the
// experience window that contains index, up to but excluding index.
func pairsForExperience(questions []Question, responses []Response, index int) []QA {
	lo, _ := schedule.RangeFor(schedule.ExperienceFor(index))
	return answeredPairs(questions, responses, lo, index-1)
}

func classifyFailure(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorCodeOpenAITimeout
	case isUpstream(err):
		return ErrorCodeOpenAI
	case errors.Is(err, extract.ErrParseFailed), errors.Is(err, extract.ErrNoData):
		return ErrorCodeParseFailed
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return ErrorCodeStorage
	default:
		return ErrorCodeInternal
	}
}

func isUpstream(err error) bool {
	var upstream *llm.UpstreamError
	return errors.As(err, &upstream)
}
