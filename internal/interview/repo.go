package interview

import "context"

// Repo defines persistence operations for the interview engine.
//
// Index integrity rules the implementations must enforce:
//   - one question per (user, index): CreateQuestion returns ErrConflict
//     on a duplicate index, which Advance treats as "someone else already
//     advanced";
//   - one response per question: CreateResponse returns ErrConflict;
//   - one synthesis per experience: CreateSynthesis returns ErrConflict,
//     and writes the synthesis with its competences atomically.
type Repo interface {
	ListQuestions(ctx context.Context, userID string) ([]Question, error)
	GetQuestion(ctx context.Context, userID, questionID string) (Question, error)
	QuestionAt(ctx context.Context, userID string, index int) (Question, error)
	CreateQuestion(ctx context.Context, q Question) error
	SetQuestionContent(ctx context.Context, questionID, content string) error

	ListResponses(ctx context.Context, userID string) ([]Response, error)
	CountResponses(ctx context.Context, userID string) (int, error)
	HasResponseAt(ctx context.Context, userID string, index int) (bool, error)
	CreateResponse(ctx context.Context, resp Response) error

	ListSyntheses(ctx context.Context, userID string) ([]Synthesis, error)
	SynthesisFor(ctx context.Context, userID, experienceID string) (Synthesis, error)
	CreateSynthesis(ctx context.Context, s Synthesis, competences []Competence) error
	ListCompetences(ctx context.Context, userID, experienceID string) ([]Competence, error)

	ListChatMessages(ctx context.Context, userID string) ([]ChatMessage, error)
	CreateChatMessage(ctx context.Context, msg ChatMessage) error

	RecordCompletion(ctx context.Context, rec CompletionRecord) error
}
