package repository

import (
	"context"

	"github.com/eslsoft/explorespeak/internal/entity"
)

// QuestRepository reads quest content. Quests are authored out of band and
// never mutated by the service, except for the seeding upsert used by db-init.
type QuestRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Quest, error)
	ListByLanguage(ctx context.Context, language entity.Language) ([]entity.Quest, error)
	Upsert(ctx context.Context, quest *entity.Quest) error
}

// ProgressRepository tracks per-user quest completion.
type ProgressRepository interface {
	CompletedQuestIDs(ctx context.Context, userID int64) ([]string, error)
	MarkCompleted(ctx context.Context, userID int64, questID string) error
}
