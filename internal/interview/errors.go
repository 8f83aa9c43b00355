package interview

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict maps unique-constraint violations: another request
	// already wrote the same slot. Benign for advance, which re-reads.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyAnswered rejects a second response to the same question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrOutOfOrder rejects answering question i before i-1 has a response.
	ErrOutOfOrder = errors.New("previous question not answered")
	// ErrQuestionPending rejects answering a placeholder with no content yet.
	ErrQuestionPending = errors.New("question content not generated yet")
	// ErrInterviewRunning rejects chat turns while questions remain.
	ErrInterviewRunning = errors.New("interview still in progress")
	// ErrNoExperiences means the reference résumé has no work history.
	ErrNoExperiences = errors.New("no experiences")
	// ErrEmptyMessage rejects blank user input.
	ErrEmptyMessage = errors.New("message content is required")
)

const (
	ErrorCodeOpenAITimeout = "OPENAI_TIMEOUT"
	ErrorCodeOpenAI        = "OPENAI_ERROR"
	ErrorCodeParseFailed   = "PARSE_FAILED"
	ErrorCodeStorage       = "STORAGE_ERROR"
	ErrorCodeInternal      = "INTERNAL_ERROR"
)
