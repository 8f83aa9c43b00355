package cvminute

import "time"

// CvMinute is the résumé document a user's career qualification runs
// against. The interview engine only reads it; authoring and section CRUD
// live in another service.
type CvMinute struct {
	ID             string
	UserID         string
	Title          string
	QualiReference bool
	CreatedAt      time.Time
}

// Experience is one work-history entry of a CvMinute. Immutable once the
// interview references it.
type Experience struct {
	ID         string
	CvMinuteID string
	UserID     string
	Position   int
	Title      string
	Company    string
	DateRange  string
	Content    string
	CreatedAt  time.Time
}
