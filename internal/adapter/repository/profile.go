package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/eslsoft/explorespeak/internal/entity"
	"github.com/eslsoft/explorespeak/internal/repository"
)

type ProfileRepository struct {
	db DB
}

// NewProfileRepository constructs a pgx-backed learner profile repository.
func NewProfileRepository(db DB) repository.ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `user_id, language, overall_level, current_difficulty,
	optimal_challenge_level, weakness_areas, strength_areas, cultural_interests,
	streak_days, total_study_time_minutes, completion_rate, average_session_length,
	last_active_at, created_at, updated_at`

func (r *ProfileRepository) Get(ctx context.Context, userID int64, language entity.Language) (*entity.LearnerProfile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM learner_profiles WHERE user_id = $1 AND language = $2`,
		userID, entity.NormalizeLanguage(language).Code(),
	)
	profile, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get learner profile: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepository) Create(ctx context.Context, profile *entity.LearnerProfile) (*entity.LearnerProfile, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO learner_profiles (
			user_id, language, overall_level, current_difficulty,
			optimal_challenge_level, weakness_areas, strength_areas, cultural_interests,
			streak_days, total_study_time_minutes, completion_rate, average_session_length,
			last_active_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id, language) DO NOTHING
		RETURNING `+profileColumns,
		profile.UserID,
		profile.Language.Code(),
		string(profile.OverallLevel),
		profile.CurrentDifficulty,
		profile.OptimalChallengeLevel,
		profile.WeaknessAreas,
		profile.StrengthAreas,
		profile.CulturalInterests,
		profile.StreakDays,
		profile.TotalStudyTimeMinutes,
		profile.CompletionRate,
		profile.AverageSessionLength,
		profile.LastActiveAt,
		profile.CreatedAt,
		profile.UpdatedAt,
	)

	created, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost a first-access race; the stored profile wins.
		return r.Get(ctx, profile.UserID, profile.Language)
	}
	if err != nil {
		return nil, fmt.Errorf("create learner profile: %w", err)
	}
	return created, nil
}

func (r *ProfileRepository) Update(ctx context.Context, profile *entity.LearnerProfile) (*entity.LearnerProfile, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE learner_profiles SET
			overall_level = $3,
			current_difficulty = $4,
			optimal_challenge_level = $5,
			weakness_areas = $6,
			strength_areas = $7,
			cultural_interests = $8,
			streak_days = $9,
			total_study_time_minutes = $10,
			completion_rate = $11,
			average_session_length = $12,
			last_active_at = $13,
			updated_at = $14
		WHERE user_id = $1 AND language = $2
		RETURNING `+profileColumns,
		profile.UserID,
		profile.Language.Code(),
		string(profile.OverallLevel),
		profile.CurrentDifficulty,
		profile.OptimalChallengeLevel,
		profile.WeaknessAreas,
		profile.StrengthAreas,
		profile.CulturalInterests,
		profile.StreakDays,
		profile.TotalStudyTimeMinutes,
		profile.CompletionRate,
		profile.AverageSessionLength,
		profile.LastActiveAt,
		profile.UpdatedAt,
	)

	updated, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update learner profile: %w", err)
	}
	return updated, nil
}

func scanProfile(row pgx.Row) (*entity.LearnerProfile, error) {
	var (
		profile  entity.LearnerProfile
		language string
		level    string
	)
	err := row.Scan(
		&profile.UserID,
		&language,
		&level,
		&profile.CurrentDifficulty,
		&profile.OptimalChallengeLevel,
		&profile.WeaknessAreas,
		&profile.StrengthAreas,
		&profile.CulturalInterests,
		&profile.StreakDays,
		&profile.TotalStudyTimeMinutes,
		&profile.CompletionRate,
		&profile.AverageSessionLength,
		&profile.LastActiveAt,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	profile.Language = entity.ParseLanguage(language)
	profile.OverallLevel = cefrLevelOrDefault(level)
	return &profile, nil
}
