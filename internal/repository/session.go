package repository

import (
	"context"

	"github.com/eslsoft/explorespeak/internal/entity"
)

// SessionRepository persists review-session bookkeeping.
type SessionRepository interface {
	Create(ctx context.Context, session *entity.ReviewSession) (*entity.ReviewSession, error)
	GetByID(ctx context.Context, userID, id int64) (*entity.ReviewSession, error)
	Update(ctx context.Context, session *entity.ReviewSession) (*entity.ReviewSession, error)
}
