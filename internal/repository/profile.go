package repository

import (
	"context"

	"github.com/eslsoft/explorespeak/internal/entity"
)

// ProfileRepository abstracts persistence for learner profiles, keyed by
// (user, language).
type ProfileRepository interface {
	// Get returns entity.ErrProfileNotFound when no profile exists yet;
	// callers create the default profile in that case.
	Get(ctx context.Context, userID int64, language entity.Language) (*entity.LearnerProfile, error)
	Create(ctx context.Context, profile *entity.LearnerProfile) (*entity.LearnerProfile, error)
	Update(ctx context.Context, profile *entity.LearnerProfile) (*entity.LearnerProfile, error)
}
