package allegro

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkret/firefly-enricher/internal/apperr"
	"github.com/mkret/firefly-enricher/internal/domain/matcher"
)

// JobStatus is the lifecycle of an apply job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
)

// ApplyJob tracks one background apply pass. Counters grow while the job
// runs; FinishedAt is set exactly once, together with the done status.
type ApplyJob struct {
	ID         uuid.UUID  `json:"id"`
	SecretID   uuid.UUID  `json:"secret_id"`
	Status     JobStatus  `json:"status"`
	Total      int        `json:"total"`
	Applied    int        `json:"applied"`
	Failed     int        `json:"failed"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// StateStore holds the Allegro flow's mutable state: computed matches per
// secret and the apply-job registry. It is injected explicitly so tests and
// the composition root own its lifetime.
type StateStore struct {
	mu      sync.Mutex
	matches map[uuid.UUID][]matcher.MatchResult
	jobs    map[uuid.UUID]*ApplyJob
}

// NewStateStore creates an empty state store.
func NewStateStore() *StateStore {
	return &StateStore{
		matches: make(map[uuid.UUID][]matcher.MatchResult),
		jobs:    make(map[uuid.UUID]*ApplyJob),
	}
}

// PutMatches caches the match results for a secret, replacing earlier ones.
func (s *StateStore) PutMatches(secretID uuid.UUID, results []matcher.MatchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[secretID] = results
}

// Matches returns the cached results for a secret.
func (s *StateStore) Matches(secretID uuid.UUID) ([]matcher.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, ok := s.matches[secretID]
	if !ok {
		return nil, apperr.ErrMatchesNotComputed
	}
	return results, nil
}

// RegisterJob stores a new job in the registry.
func (s *StateStore) RegisterJob(job *ApplyJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// UpdateJob applies fn to a registered job under the store lock.
func (s *StateStore) UpdateJob(id uuid.UUID, fn func(*ApplyJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

// Job returns a snapshot of one job.
func (s *StateStore) Job(id uuid.UUID) (ApplyJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ApplyJob{}, apperr.ErrJobNotFound
	}
	return *job, nil
}
