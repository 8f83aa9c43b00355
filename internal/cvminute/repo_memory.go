package cvminute

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores résumés in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu          sync.RWMutex
	minutes     map[string]CvMinute
	experiences map[string]Experience
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		minutes:     make(map[string]CvMinute),
		experiences: make(map[string]Experience),
	}
}

// AddCvMinute seeds a résumé. Used by tests and dev fixtures.
func (r *MemoryRepo) AddCvMinute(minute CvMinute) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.minutes[minute.ID] = minute
}

// AddExperience seeds an experience. Used by tests and dev fixtures.
func (r *MemoryRepo) AddExperience(exp Experience) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.experiences[exp.ID] = exp
}

// Reference returns the newest CvMinute flagged as qualification reference.
func (r *MemoryRepo) Reference(ctx context.Context, userID string) (CvMinute, error) {
	if err := ctx.Err(); err != nil {
		return CvMinute{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *CvMinute
	for _, m := range r.minutes {
		if m.UserID != userID || !m.QualiReference {
			continue
		}
		if found == nil || m.CreatedAt.After(found.CreatedAt) {
			cand := m
			found = &cand
		}
	}
	if found == nil {
		return CvMinute{}, ErrNotFound
	}
	return *found, nil
}

// ListExperiences returns the experiences of a CvMinute ordered by position.
func (r *MemoryRepo) ListExperiences(ctx context.Context, userID, cvMinuteID string) ([]Experience, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Experience
	for _, exp := range r.experiences {
		if exp.UserID == userID && exp.CvMinuteID == cvMinuteID {
			out = append(out, exp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// GetExperience returns one experience owned by the user.
func (r *MemoryRepo) GetExperience(ctx context.Context, userID, experienceID string) (Experience, error) {
	if err := ctx.Err(); err != nil {
		return Experience{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	exp, ok := r.experiences[experienceID]
	if !ok || exp.UserID != userID {
		return Experience{}, ErrNotFound
	}
	return exp, nil
}

var _ Repo = (*MemoryRepo)(nil)
