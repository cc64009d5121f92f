package ports

import (
	"context"

	"github.com/aretw0/studiobridge/pkg/domain"
)

// SubmissionStore defines where answer submissions are kept.
// Implementations hold at most one record per student identity.
type SubmissionStore interface {
	// Save writes the submission, replacing any previous record for the same student.
	Save(ctx context.Context, submission *domain.Submission) error

	// Load retrieves the submission of a student.
	// Returns domain.ErrSubmissionNotFound if the student never submitted.
	Load(ctx context.Context, studentID string) (*domain.Submission, error)

	// List returns every current submission keyed by student identity.
	List(ctx context.Context) (map[string]*domain.Submission, error)
}
