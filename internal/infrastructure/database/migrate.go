package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema if it does not exist yet. The statements are
// idempotent so db-init can be re-run safely.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS vocabulary_cards (
		id                   BIGSERIAL PRIMARY KEY,
		user_id              BIGINT NOT NULL,
		quest_id             TEXT NOT NULL DEFAULT '',
		word                 TEXT NOT NULL,
		normalized           TEXT NOT NULL,
		translation          TEXT NOT NULL DEFAULT '',
		language             TEXT NOT NULL,
		ease_factor          DOUBLE PRECISION NOT NULL DEFAULT 2.5,
		interval_days        INTEGER NOT NULL DEFAULT 0,
		repetitions          INTEGER NOT NULL DEFAULT 0,
		next_review_at       TIMESTAMPTZ NOT NULL,
		last_review_at       TIMESTAMPTZ,
		correct_count        INTEGER NOT NULL DEFAULT 0,
		incorrect_count      INTEGER NOT NULL DEFAULT 0,
		avg_response_time_ms INTEGER NOT NULL DEFAULT 0,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, language, normalized)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vocabulary_cards_due
		ON vocabulary_cards (user_id, language, next_review_at)`,

	`CREATE TABLE IF NOT EXISTS learner_profiles (
		user_id                  BIGINT NOT NULL,
		language                 TEXT NOT NULL,
		overall_level            TEXT NOT NULL DEFAULT 'A1',
		current_difficulty       INTEGER NOT NULL DEFAULT 3,
		optimal_challenge_level  INTEGER NOT NULL DEFAULT 3,
		weakness_areas           TEXT[] NOT NULL DEFAULT '{}',
		strength_areas           TEXT[] NOT NULL DEFAULT '{}',
		cultural_interests       TEXT[] NOT NULL DEFAULT '{}',
		streak_days              INTEGER NOT NULL DEFAULT 0,
		total_study_time_minutes INTEGER NOT NULL DEFAULT 0,
		completion_rate          DOUBLE PRECISION NOT NULL DEFAULT 0,
		average_session_length   INTEGER NOT NULL DEFAULT 20,
		last_active_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, language)
	)`,

	`CREATE TABLE IF NOT EXISTS performance_records (
		id                 BIGSERIAL PRIMARY KEY,
		user_id            BIGINT NOT NULL,
		quest_id           TEXT NOT NULL DEFAULT '',
		language           TEXT NOT NULL,
		score              INTEGER NOT NULL,
		time_spent_minutes INTEGER NOT NULL DEFAULT 0,
		difficulty         INTEGER NOT NULL DEFAULT 0,
		topics_covered     TEXT[] NOT NULL DEFAULT '{}',
		completed_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_performance_records_recent
		ON performance_records (user_id, language, completed_at DESC)`,

	`CREATE TABLE IF NOT EXISTS quests (
		id                  TEXT PRIMARY KEY,
		title               TEXT NOT NULL,
		language            TEXT NOT NULL,
		level               TEXT NOT NULL DEFAULT 'A1',
		cultural_context    TEXT NOT NULL DEFAULT '',
		learning_objectives TEXT[] NOT NULL DEFAULT '{}',
		estimated_minutes   INTEGER NOT NULL DEFAULT 0,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quests_language ON quests (language)`,

	`CREATE TABLE IF NOT EXISTS quest_progress (
		user_id      BIGINT NOT NULL,
		quest_id     TEXT NOT NULL,
		status       TEXT NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, quest_id)
	)`,

	`CREATE TABLE IF NOT EXISTS review_sessions (
		id                   BIGSERIAL PRIMARY KEY,
		user_id              BIGINT NOT NULL,
		language             TEXT NOT NULL,
		started_at           TIMESTAMPTZ NOT NULL,
		completed_at         TIMESTAMPTZ,
		cards_reviewed       INTEGER NOT NULL DEFAULT 0,
		cards_correct        INTEGER NOT NULL DEFAULT 0,
		cards_incorrect      INTEGER NOT NULL DEFAULT 0,
		avg_response_time_ms INTEGER NOT NULL DEFAULT 0,
		duration_seconds     INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_review_sessions_user
		ON review_sessions (user_id, started_at DESC)`,
}
