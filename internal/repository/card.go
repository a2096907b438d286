package repository

import (
	"context"
	"time"

	"github.com/eslsoft/explorespeak/internal/entity"
)

// ListCardQuery holds parameters for listing vocabulary cards.
type ListCardQuery struct {
	Pagination
	FilterOrder

	UserID int64
}

// CardRepository abstracts persistence for vocabulary cards to keep usecases
// storage agnostic.
type CardRepository interface {
	Create(ctx context.Context, card *entity.VocabularyCard) (*entity.VocabularyCard, error)
	CreateBatch(ctx context.Context, cards []entity.VocabularyCard) (int, error)
	// Update persists a reviewed card. expectedUpdatedAt is the UpdatedAt the
	// caller loaded; implementations guard the write with it and return
	// entity.ErrCardConflict when a concurrent review won the race.
	Update(ctx context.Context, card *entity.VocabularyCard, expectedUpdatedAt time.Time) (*entity.VocabularyCard, error)
	GetByID(ctx context.Context, userID, id int64) (*entity.VocabularyCard, error)
	FindByWord(ctx context.Context, userID int64, language entity.Language, word string) (*entity.VocabularyCard, error)
	ListByLanguage(ctx context.Context, userID int64, language entity.Language) ([]entity.VocabularyCard, error)
	List(ctx context.Context, query *ListCardQuery) ([]entity.VocabularyCard, int64, error)
}
