package interview

import "time"

// Question is one interview prompt tied to an experience. Index is the
// 0-based position across the whole interview. Content may be empty: a
// placeholder row reserving the index before the AI has produced text.
// Content is populated at most once; questions are never deleted.
type Question struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ExperienceID string    `json:"experienceId"`
	Index        int       `json:"index"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Pending reports whether the question is a placeholder awaiting content.
func (q Question) Pending() bool {
	return q.Content == ""
}

// Response is the single user answer to a question. Transcript carries
// the raw transcription when the answer arrived as audio.
type Response struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	QuestionID    string    `json:"questionId"`
	QuestionIndex int       `json:"questionIndex"`
	Content       string    `json:"content"`
	Transcript    string    `json:"transcript,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Synthesis is the narrative summary generated for one experience once
// its question window is fully answered. Exactly one per experience,
// never regenerated.
type Synthesis struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ExperienceID string    `json:"experienceId"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Competence is a short skill tag extracted alongside a synthesis.
type Competence struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ExperienceID string    `json:"experienceId"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
}

const (
	RoleUser   = "user"
	RoleSystem = "system"
)

// ChatMessage is one turn of the post-interview conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Completion call sites, used to tag audit rows.
const (
	CompletionKindQuestion  = "question"
	CompletionKindSynthesis = "synthesis"
	CompletionKindChat      = "chat"
)

// CompletionRecord preserves a raw AI completion before extraction is
// attempted, so parse failures stay diagnosable after the fact.
type CompletionRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Kind         string    `json:"kind"`
	CompletionID string    `json:"completionId"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
}
