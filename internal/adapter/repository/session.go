package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/eslsoft/explorespeak/internal/entity"
	"github.com/eslsoft/explorespeak/internal/repository"
)

type SessionRepository struct {
	db DB
}

// NewSessionRepository constructs a pgx-backed review session store.
func NewSessionRepository(db DB) repository.SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, language, started_at, completed_at,
	cards_reviewed, cards_correct, cards_incorrect, avg_response_time_ms, duration_seconds`

func (r *SessionRepository) Create(ctx context.Context, session *entity.ReviewSession) (*entity.ReviewSession, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO review_sessions (
			user_id, language, started_at, completed_at,
			cards_reviewed, cards_correct, cards_incorrect, avg_response_time_ms, duration_seconds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+sessionColumns,
		session.UserID,
		session.Language.Code(),
		session.StartedAt,
		nullableTime(session.CompletedAt),
		session.CardsReviewed,
		session.CardsCorrect,
		session.CardsIncorrect,
		session.AverageResponseTimeMs,
		session.DurationSeconds,
	)

	created, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("create review session: %w", err)
	}
	return created, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, userID, id int64) (*entity.ReviewSession, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM review_sessions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) Update(ctx context.Context, session *entity.ReviewSession) (*entity.ReviewSession, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE review_sessions SET
			completed_at = $3,
			cards_reviewed = $4,
			cards_correct = $5,
			cards_incorrect = $6,
			avg_response_time_ms = $7,
			duration_seconds = $8
		WHERE id = $1 AND user_id = $2
		RETURNING `+sessionColumns,
		session.ID,
		session.UserID,
		nullableTime(session.CompletedAt),
		session.CardsReviewed,
		session.CardsCorrect,
		session.CardsIncorrect,
		session.AverageResponseTimeMs,
		session.DurationSeconds,
	)

	updated, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update review session: %w", err)
	}
	return updated, nil
}

func scanSession(row pgx.Row) (*entity.ReviewSession, error) {
	var (
		session     entity.ReviewSession
		language    string
		completedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&language,
		&session.StartedAt,
		&completedAt,
		&session.CardsReviewed,
		&session.CardsCorrect,
		&session.CardsIncorrect,
		&session.AverageResponseTimeMs,
		&session.DurationSeconds,
	)
	if err != nil {
		return nil, err
	}
	session.Language = entity.ParseLanguage(language)
	if completedAt.Valid {
		session.CompletedAt = completedAt.Time
	}
	return &session, nil
}
