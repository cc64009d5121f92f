package memory

import (
	"context"
	"sync"

	"github.com/aretw0/studiobridge/pkg/domain"
)

// Store implements ports.SubmissionStore in memory.
// Safe for concurrent use. Records live as long as the process.
type Store struct {
	data map[string]*domain.Submission
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Submission),
	}
}

// Save records the submission, overwriting any previous one for the same student.
func (s *Store) Save(ctx context.Context, submission *domain.Submission) error {
	copied := submission.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[submission.StudentID] = copied
	return nil
}

// Load retrieves the submission of a student.
func (s *Store) Load(ctx context.Context, studentID string) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.data[studentID]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}

	// Copy on read so callers can't mutate store state through the pointer
	return sub.Snapshot(), nil
}

// List returns every current submission.
func (s *Store) List(ctx context.Context) (map[string]*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make(map[string]*domain.Submission, len(s.data))
	for id, sub := range s.data {
		all[id] = sub.Snapshot()
	}
	return all, nil
}
