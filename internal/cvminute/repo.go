package cvminute

import "context"

// Repo defines read operations over résumés and their experiences.
type Repo interface {
	// Reference returns the CvMinute currently marked as the career
	// qualification reference for the user.
	Reference(ctx context.Context, userID string) (CvMinute, error)
	// ListExperiences returns the experiences of a CvMinute ordered by
	// their position.
	ListExperiences(ctx context.Context, userID, cvMinuteID string) ([]Experience, error)
	// GetExperience returns one experience owned by the user.
	GetExperience(ctx context.Context, userID, experienceID string) (Experience, error)
}
