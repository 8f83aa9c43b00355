package interview

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres. Slot uniqueness is enforced by
// the schema's unique constraints; violations surface as ErrConflict.
type PGRepo struct {
	DB *sql.DB
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ListQuestions returns the user's questions ordered by global index.
func (r *PGRepo) ListQuestions(ctx context.Context, userID string) ([]Question, error) {
	const query = `
SELECT id, user_id, experience_id, question_index, content, created_at, updated_at
FROM questions
WHERE user_id = $1
ORDER BY question_index ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// GetQuestion returns one question owned by the user.
func (r *PGRepo) GetQuestion(ctx context.Context, userID, questionID string) (Question, error) {
	const query = `
SELECT id, user_id, experience_id, question_index, content, created_at, updated_at
FROM questions
WHERE user_id = $1 AND id = $2
LIMIT 1`
	q, err := scanQuestion(r.DB.QueryRowContext(ctx, query, userID, questionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, err
	}
	return q, nil
}

// QuestionAt returns the user's question at the given global index.
func (r *PGRepo) QuestionAt(ctx context.Context, userID string, index int) (Question, error) {
	const query = `
SELECT id, user_id, experience_id, question_index, content, created_at, updated_at
FROM questions
WHERE user_id = $1 AND question_index = $2
LIMIT 1`
	q, err := scanQuestion(r.DB.QueryRowContext(ctx, query, userID, index))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, err
	}
	return q, nil
}

// CreateQuestion inserts a question. A duplicate (user, index) slot
// returns ErrConflict.
func (r *PGRepo) CreateQuestion(ctx context.Context, q Question) error {
	const query = `
INSERT INTO questions (id, user_id, experience_id, question_index, content, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)`
	_, err := r.DB.ExecContext(ctx, query, q.ID, q.UserID, q.ExperienceID, q.Index, q.Content, q.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// SetQuestionContent populates a placeholder question's content.
func (r *PGRepo) SetQuestionContent(ctx context.Context, questionID, content string) error {
	const query = `
UPDATE questions SET content = $2, updated_at = NOW()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, questionID, content)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListResponses returns the user's responses ordered by question index.
func (r *PGRepo) ListResponses(ctx context.Context, userID string) ([]Response, error) {
	const query = `
SELECT id, user_id, question_id, question_index, content, transcript, created_at
FROM responses
WHERE user_id = $1
ORDER BY question_index ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		var resp Response
		var transcript sql.NullString
		if err := rows.Scan(
			&resp.ID,
			&resp.UserID,
			&resp.QuestionID,
			&resp.QuestionIndex,
			&resp.Content,
			&transcript,
			&resp.CreatedAt,
		); err != nil {
			return nil, err
		}
		if transcript.Valid {
			resp.Transcript = transcript.String
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

// CountResponses counts the user's responses.
func (r *PGRepo) CountResponses(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM responses WHERE user_id = $1`
	var n int
	if err := r.DB.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// HasResponseAt reports whether the question at index has a response.
func (r *PGRepo) HasResponseAt(ctx context.Context, userID string, index int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM responses WHERE user_id = $1 AND question_index = $2)`
	var ok bool
	if err := r.DB.QueryRowContext(ctx, query, userID, index).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// CreateResponse inserts a response. A second response for the same
// question returns ErrConflict.
func (r *PGRepo) CreateResponse(ctx context.Context, resp Response) error {
	const query = `
INSERT INTO responses (id, user_id, question_id, question_index, content, transcript, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`
	_, err := r.DB.ExecContext(ctx, query,
		resp.ID, resp.UserID, resp.QuestionID, resp.QuestionIndex, resp.Content, resp.Transcript, resp.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// ListSyntheses returns the user's syntheses ordered by creation time.
func (r *PGRepo) ListSyntheses(ctx context.Context, userID string) ([]Synthesis, error) {
	const query = `
SELECT id, user_id, experience_id, content, created_at
FROM syntheses
WHERE user_id = $1
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Synthesis
	for rows.Next() {
		var s Synthesis
		if err := rows.Scan(&s.ID, &s.UserID, &s.ExperienceID, &s.Content, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SynthesisFor returns the synthesis of one experience.
func (r *PGRepo) SynthesisFor(ctx context.Context, userID, experienceID string) (Synthesis, error) {
	const query = `
SELECT id, user_id, experience_id, content, created_at
FROM syntheses
WHERE user_id = $1 AND experience_id = $2
LIMIT 1`
	var s Synthesis
	err := r.DB.QueryRowContext(ctx, query, userID, experienceID).Scan(
		&s.ID, &s.UserID, &s.ExperienceID, &s.Content, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Synthesis{}, ErrNotFound
		}
		return Synthesis{}, err
	}
	return s, nil
}

// CreateSynthesis inserts a synthesis and its competences in one
// transaction. A second synthesis for the same experience returns
// ErrConflict and nothing is written.
func (r *PGRepo) CreateSynthesis(ctx context.Context, s Synthesis, competences []Competence) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insertSynthesis = `
INSERT INTO syntheses (id, user_id, experience_id, content, created_at)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, insertSynthesis, s.ID, s.UserID, s.ExperienceID, s.Content, s.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	const insertCompetence = `
INSERT INTO competences (id, user_id, experience_id, content, created_at)
VALUES ($1, $2, $3, $4, $5)`
	for _, c := range competences {
		if _, err := tx.ExecContext(ctx, insertCompetence, c.ID, c.UserID, c.ExperienceID, c.Content, c.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListCompetences returns the competences of one experience.
func (r *PGRepo) ListCompetences(ctx context.Context, userID, experienceID string) ([]Competence, error) {
	const query = `
SELECT id, user_id, experience_id, content, created_at
FROM competences
WHERE user_id = $1 AND experience_id = $2
ORDER BY created_at ASC, content ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID, experienceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Competence
	for rows.Next() {
		var c Competence
		if err := rows.Scan(&c.ID, &c.UserID, &c.ExperienceID, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListChatMessages returns the user's chat history ordered by creation time.
func (r *PGRepo) ListChatMessages(ctx context.Context, userID string) ([]ChatMessage, error) {
	const query = `
SELECT id, user_id, role, content, created_at
FROM chat_messages
WHERE user_id = $1
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateChatMessage inserts one chat message.
func (r *PGRepo) CreateChatMessage(ctx context.Context, msg ChatMessage) error {
	const query = `
INSERT INTO chat_messages (id, user_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, msg.ID, msg.UserID, msg.Role, msg.Content, msg.CreatedAt)
	return err
}

// RecordCompletion inserts one raw completion audit row.
func (r *PGRepo) RecordCompletion(ctx context.Context, rec CompletionRecord) error {
	const query = `
INSERT INTO ai_completions (id, user_id, kind, completion_id, content, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`
	_, err := r.DB.ExecContext(ctx, query, rec.ID, rec.UserID, rec.Kind, rec.CompletionID, rec.Content, rec.CreatedAt)
	return err
}

func scanQuestion(row rowScanner) (Question, error) {
	var q Question
	var content sql.NullString
	if err := row.Scan(
		&q.ID,
		&q.UserID,
		&q.ExperienceID,
		&q.Index,
		&content,
		&q.CreatedAt,
		&q.UpdatedAt,
	); err != nil {
		return Question{}, err
	}
	if content.Valid {
		q.Content = content.String
	}
	return q, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

var _ Repo = (*PGRepo)(nil)
