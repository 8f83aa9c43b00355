package cvminute

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Reference returns the newest CvMinute flagged as qualification reference.
func (r *PGRepo) Reference(ctx context.Context, userID string) (CvMinute, error) {
	const query = `
SELECT id, user_id, title, quali_reference, created_at
FROM cv_minutes
WHERE user_id = $1 AND quali_reference = TRUE AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT 1`
	var m CvMinute
	var title sql.NullString
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&m.ID,
		&m.UserID,
		&title,
		&m.QualiReference,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CvMinute{}, ErrNotFound
		}
		return CvMinute{}, err
	}
	if title.Valid {
		m.Title = title.String
	}
	return m, nil
}

// ListExperiences returns the experiences of a CvMinute ordered by position.
func (r *PGRepo) ListExperiences(ctx context.Context, userID, cvMinuteID string) ([]Experience, error) {
	const query = `
SELECT id, cv_minute_id, user_id, position, title, company, date_range, content, created_at
FROM experiences
WHERE user_id = $1 AND cv_minute_id = $2
ORDER BY position ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID, cvMinuteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Experience
	for rows.Next() {
		exp, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, rows.Err()
}

// GetExperience returns one experience owned by the user.
func (r *PGRepo) GetExperience(ctx context.Context, userID, experienceID string) (Experience, error) {
	const query = `
SELECT id, cv_minute_id, user_id, position, title, company, date_range, content, created_at
FROM experiences
WHERE user_id = $1 AND id = $2
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, userID, experienceID)
	exp, err := scanExperience(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Experience{}, ErrNotFound
		}
		return Experience{}, err
	}
	return exp, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperience(row rowScanner) (Experience, error) {
	var exp Experience
	var company sql.NullString
	var dateRange sql.NullString
	var content sql.NullString
	if err := row.Scan(
		&exp.ID,
		&exp.CvMinuteID,
		&exp.UserID,
		&exp.Position,
		&exp.Title,
		&company,
		&dateRange,
		&content,
		&exp.CreatedAt,
	); err != nil {
		return Experience{}, err
	}
	if company.Valid {
		exp.Company = company.String
	}
	if dateRange.Valid {
		exp.DateRange = dateRange.String
	}
	if content.Valid {
		exp.Content = content.String
	}
	return exp, nil
}

var _ Repo = (*PGRepo)(nil)
