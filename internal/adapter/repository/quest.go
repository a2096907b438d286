package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/eslsoft/explorespeak/internal/entity"
	"github.com/eslsoft/explorespeak/internal/repository"
)

type QuestRepository struct {
	db DB
}

// NewQuestRepository constructs a pgx-backed quest content store.
func NewQuestRepository(db DB) repository.QuestRepository {
	return &QuestRepository{db: db}
}

const questColumns = `id, title, language, level, cultural_context,
	learning_objectives, estimated_minutes, created_at, updated_at`

func (r *QuestRepository) GetByID(ctx context.Context, id string) (*entity.Quest, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+questColumns+` FROM quests WHERE id = $1`, id)
	quest, err := scanQuest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrQuestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quest: %w", err)
	}
	return quest, nil
}

func (r *QuestRepository) ListByLanguage(ctx context.Context, language entity.Language) ([]entity.Quest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+questColumns+` FROM quests WHERE language = $1 ORDER BY id`,
		entity.NormalizeLanguage(language).Code(),
	)
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	defer rows.Close()

	var quests []entity.Quest
	for rows.Next() {
		quest, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quest: %w", err)
		}
		quests = append(quests, *quest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quests: %w", err)
	}
	return quests, nil
}

func (r *QuestRepository) Upsert(ctx context.Context, quest *entity.Quest) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO quests (
			id, title, language, level, cultural_context,
			learning_objectives, estimated_minutes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			language = EXCLUDED.language,
			level = EXCLUDED.level,
			cultural_context = EXCLUDED.cultural_context,
			learning_objectives = EXCLUDED.learning_objectives,
			estimated_minutes = EXCLUDED.estimated_minutes,
			updated_at = EXCLUDED.updated_at`,
		quest.ID,
		quest.Title,
		entity.NormalizeLanguage(quest.Language).Code(),
		string(quest.Level),
		quest.CulturalContext,
		quest.LearningObjectives,
		quest.EstimatedMinutes,
		quest.CreatedAt,
		quest.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert quest: %w", err)
	}
	return nil
}

func scanQuest(row pgx.Row) (*entity.Quest, error) {
	var (
		quest    entity.Quest
		language string
		level    string
	)
	err := row.Scan(
		&quest.ID,
		&quest.Title,
		&language,
		&level,
		&quest.CulturalContext,
		&quest.LearningObjectives,
		&quest.EstimatedMinutes,
		&quest.CreatedAt,
		&quest.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	quest.Language = entity.ParseLanguage(language)
	quest.Level = cefrLevelOrDefault(level)
	return &quest, nil
}

type ProgressRepository struct {
	db DB
}

// NewProgressRepository constructs a pgx-backed quest progress store.
func NewProgressRepository(db DB) repository.ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) CompletedQuestIDs(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT quest_id FROM quest_progress
		 WHERE user_id = $1 AND status = $2
		 ORDER BY completed_at`,
		userID, entity.QuestProgressCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed quests: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan quest progress: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quest progress: %w", err)
	}
	return ids, nil
}

func (r *ProgressRepository) MarkCompleted(ctx context.Context, userID int64, questID string) error {
	// Re-completing a quest keeps the first completion time.
	_, err := r.db.Exec(ctx, `
		INSERT INTO quest_progress (user_id, quest_id, status, completed_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, quest_id) DO NOTHING`,
		userID, questID, entity.QuestProgressCompleted,
	)
	if err != nil {
		return fmt.Errorf("mark quest completed: %w", err)
	}
	return nil
}
