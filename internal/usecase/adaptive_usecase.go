package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/explorespeak/internal/adaptive"
	"github.com/eslsoft/explorespeak/internal/entity"
	"github.com/eslsoft/explorespeak/internal/repository"
)

// historyWindow bounds how much performance history feeds the analyzers.
const historyWindow = 20

// recentScoreWindow is how many historical scores join the just-completed
// one when adjusting difficulty.
const recentScoreWindow = 5

const defaultRecommendationLimit = 5

// CompleteQuestInput is the payload of a quest-completion profile update.
type CompleteQuestInput struct {
	UserID           int64
	Language         entity.Language
	QuestID          string
	Score            int32
	TimeSpentMinutes int32
}

// AdaptiveUsecase encapsulates learner profiling and quest recommendation.
type AdaptiveUsecase interface {
	Profile(ctx context.Context, userID int64, language entity.Language) (*entity.LearnerProfile, error)
	RecordPerformance(ctx context.Context, record *entity.PerformanceRecord) (*entity.PerformanceRecord, error)
	CompleteQuest(ctx context.Context, input CompleteQuestInput) (*entity.LearnerProfile, error)
	Recommendations(ctx context.Context, userID int64, language entity.Language, limit int) ([]entity.QuestRecommendation, error)
	DailyGoal(ctx context.Context, userID int64, language entity.Language) (entity.DailyGoal, error)
	History(ctx context.Context, userID int64, language entity.Language, limit int32) ([]entity.PerformanceRecord, error)
	Quests(ctx context.Context, language entity.Language) ([]entity.Quest, error)
}

// NewAdaptiveUsecase wires the repositories with default behaviour.
func NewAdaptiveUsecase(
	profiles repository.ProfileRepository,
	performances repository.PerformanceRepository,
	quests repository.QuestRepository,
	progress repository.ProgressRepository,
) AdaptiveUsecase {
	return &adaptiveUsecase{
		profiles:     profiles,
		performances: performances,
		quests:       quests,
		progress:     progress,
		clock:        time.Now,
	}
}

type adaptiveUsecase struct {
	profiles     repository.ProfileRepository
	performances repository.PerformanceRepository
	quests       repository.QuestRepository
	progress     repository.ProgressRepository
	clock        func() time.Time
}

// Profile returns the learner profile, creating the default one on first
// access. A missing profile is not an error at this boundary.
func (u *adaptiveUsecase) Profile(ctx context.Context, userID int64, language entity.Language) (*entity.LearnerProfile, error) {
	if userID <= 0 {
		return nil, entity.ErrInvalidUserID
	}

	language = entity.NormalizeLanguage(language)
	profile, err := u.profiles.Get(ctx, userID, language)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, entity.ErrProfileNotFound) {
		return nil, err
	}
	return u.profiles.Create(ctx, entity.NewLearnerProfile(userID, language, u.clock()))
}

func (u *adaptiveUsecase) RecordPerformance(ctx context.Context, record *entity.PerformanceRecord) (*entity.PerformanceRecord, error) {
	if record == nil || record.UserID <= 0 {
		return nil, entity.ErrInvalidUserID
	}
	if record.Score < 0 || record.Score > 100 {
		return nil, entity.ErrInvalidScore
	}

	copy := *record
	copy.Language = entity.NormalizeLanguage(copy.Language)
	if copy.TopicsCovered == nil {
		copy.TopicsCovered = []string{}
	}
	if copy.CompletedAt.IsZero() {
		copy.CompletedAt = u.clock()
	}
	return u.performances.Create(ctx, &copy)
}

func (u *adaptiveUsecase) CompleteQuest(ctx context.Context, input CompleteQuestInput) (*entity.LearnerProfile, error) {
	if input.Score < 0 || input.Score > 100 {
		return nil, entity.ErrInvalidScore
	}

	profile, err := u.Profile(ctx, input.UserID, input.Language)
	if err != nil {
		return nil, err
	}

	history, err := u.performances.ListRecent(ctx, &repository.ListPerformanceQuery{
		UserID:   input.UserID,
		Language: profile.Language,
		Limit:    historyWindow,
	})
	if err != nil {
		return nil, err
	}

	// Most recent window first, newest score appended last.
	recent := lo.Slice(history, 0, recentScoreWindow)
	recentScores := lo.Map(recent, func(r entity.PerformanceRecord, _ int) int32 { return r.Score })
	recentScores = append(recentScores, input.Score)

	difficulty := adaptive.OptimalChallenge(recentScores, profile.CurrentDifficulty)

	// Derived lists replace the stored ones wholesale.
	profile.CurrentDifficulty = difficulty
	profile.OptimalChallengeLevel = difficulty
	profile.WeaknessAreas = adaptive.Topics(adaptive.AnalyzeWeaknesses(history))
	profile.StrengthAreas = adaptive.Topics(adaptive.AnalyzeStrengths(history))
	profile.TotalStudyTimeMinutes += input.TimeSpentMinutes
	profile.LastActiveAt = u.clock()
	profile.Normalize(u.clock())

	updated, err := u.profiles.Update(ctx, profile)
	if err != nil {
		return nil, err
	}

	if input.QuestID != "" {
		if err := u.progress.MarkCompleted(ctx, input.UserID, input.QuestID); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

func (u *adaptiveUsecase) Recommendations(ctx context.Context, userID int64, language entity.Language, limit int) ([]entity.QuestRecommendation, error) {
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}

	profile, err := u.Profile(ctx, userID, language)
	if err != nil {
		return nil, err
	}

	quests, err := u.quests.ListByLanguage(ctx, profile.Language)
	if err != nil {
		return nil, err
	}

	completedIDs, err := u.progress.CompletedQuestIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	return adaptive.Recommend(quests, profile, completedIDs, limit), nil
}

func (u *adaptiveUsecase) DailyGoal(ctx context.Context, userID int64, language entity.Language) (entity.DailyGoal, error) {
	profile, err := u.Profile(ctx, userID, language)
	if err != nil {
		return entity.DailyGoal{}, err
	}
	return adaptive.DailyGoal(profile, u.clock()), nil
}

func (u *adaptiveUsecase) History(ctx context.Context, userID int64, language entity.Language, limit int32) ([]entity.PerformanceRecord, error) {
	if userID <= 0 {
		return nil, entity.ErrInvalidUserID
	}
	if limit <= 0 {
		limit = historyWindow
	}
	return u.performances.ListRecent(ctx, &repository.ListPerformanceQuery{
		UserID:   userID,
		Language: entity.NormalizeLanguage(language),
		Limit:    limit,
	})
}

func (u *adaptiveUsecase) Quests(ctx context.Context, language entity.Language) ([]entity.Quest, error) {
	return u.quests.ListByLanguage(ctx, entity.NormalizeLanguage(language))
}
