package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/explorespeak/internal/entity"
	"github.com/eslsoft/explorespeak/internal/repository"
	"github.com/eslsoft/explorespeak/internal/srs"
)

// ReviewOutcome is what a single card review returns to the learner.
type ReviewOutcome struct {
	Card    *entity.VocabularyCard
	Message string
}

// DueCardsSummary lists the cards due for review with counts split by bucket.
type DueCardsSummary struct {
	Cards       []entity.VocabularyCard
	TotalDue    int
	NewCards    int
	ReviewCards int
	Recommended int
}

// VocabularyStats aggregates one user's deck for one language.
type VocabularyStats struct {
	TotalCards       int
	MasteredCards    int
	LearningCards    int
	NewCards         int
	DueToday         int
	AverageRetention int32
}

// SessionSummary carries the client-reported totals of a finished session.
type SessionSummary struct {
	CardsReviewed         int32
	CardsCorrect          int32
	CardsIncorrect        int32
	AverageResponseTimeMs int32
	DurationSeconds       int32
}

// VocabularyUsecase encapsulates the spaced-repetition review flow.
type VocabularyUsecase interface {
	ReviewCard(ctx context.Context, userID, cardID int64, quality, responseTimeMs int32) (*ReviewOutcome, error)
	DueCards(ctx context.Context, userID int64, language entity.Language) (*DueCardsSummary, error)
	AwardCards(ctx context.Context, userID int64, questID string, language entity.Language, entries []entity.VocabularyEntry) (int, error)
	Stats(ctx context.Context, userID int64, language entity.Language) (*VocabularyStats, error)
	ListCards(ctx context.Context, query *repository.ListCardQuery) ([]entity.VocabularyCard, int64, error)
	StartSession(ctx context.Context, userID int64, language entity.Language) (*entity.ReviewSession, error)
	CompleteSession(ctx context.Context, userID, sessionID int64, summary SessionSummary) (*entity.ReviewSession, error)
}

// NewVocabularyUsecase wires the repositories with default behaviour.
func NewVocabularyUsecase(cards repository.CardRepository, sessions repository.SessionRepository) VocabularyUsecase {
	return &vocabularyUsecase{
		cards:    cards,
		sessions: sessions,
		clock:    time.Now,
	}
}

type vocabularyUsecase struct {
	cards    repository.CardRepository
	sessions repository.SessionRepository
	clock    func() time.Time
}

func (u *vocabularyUsecase) ReviewCard(ctx context.Context, userID, cardID int64, quality, responseTimeMs int32) (*ReviewOutcome, error) {
	if userID <= 0 {
		return nil, entity.ErrInvalidUserID
	}
	if responseTimeMs < 0 {
		return nil, entity.ErrInvalidResponse
	}

	card, err := u.cards.GetByID(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	loadedAt := card.UpdatedAt

	now := u.clock()
	result, err := srs.Schedule(card.Review, quality, now)
	if err != nil {
		return nil, err
	}

	attempts := card.Stats.Attempts()
	if quality >= 3 {
		card.Stats.CorrectCount++
	} else {
		card.Stats.IncorrectCount++
	}
	card.Stats.AverageResponseTimeMs = srs.UpdateAverageResponseTime(card.Stats.AverageResponseTimeMs, responseTimeMs, attempts)

	card.Review = entity.ReviewState{
		EaseFactor:   result.EaseFactor,
		IntervalDays: result.IntervalDays,
		Repetitions:  result.Repetitions,
		NextReviewAt: result.NextReviewAt,
		LastReviewAt: now,
	}
	card.Normalize(now)

	updated, err := u.cards.Update(ctx, card, loadedAt)
	if err != nil {
		return nil, err
	}

	message := "Great job! Card scheduled for review."
	if quality < 3 {
		message = "Keep practicing! Card will be reviewed again soon."
	}
	return &ReviewOutcome{Card: updated, Message: message}, nil
}

func (u *vocabularyUsecase) DueCards(ctx context.Context, userID int64, language entity.Language) (*DueCardsSummary, error) {
	if userID <= 0 {
		return nil, entity.ErrInvalidUserID
	}

	cards, err := u.cards.ListByLanguage(ctx, userID, entity.NormalizeLanguage(language))
	if err != nil {
		return nil, err
	}

	now := u.clock()
	due := lo.Filter(cards, func(card entity.VocabularyCard, _ int) bool {
		return srs.IsDue(card.Review.NextReviewAt, now)
	})
	newCards := lo.CountBy(due, func(card entity.VocabularyCard) bool {
		return card.Review.Repetitions == 0
	})

	return &DueCardsSummary{
		Cards:       due,
		TotalDue:    len(due),
		NewCards:    newCards,
		ReviewCards: len(due) - newCards,
		Recommended: srs.RecommendedReviewCount(len(cards), len(due)),
	}, nil
}

func (u *vocabularyUsecase) AwardCards(ctx context.Context, userID int64, questID string, language entity.Language, entries []entity.VocabularyEntry) (int, error) {
	if userID <= 0 {
		return 0, entity.ErrInvalidUserID
	}

	now := u.clock()
	cards := make([]entity.VocabularyCard, 0, len(entries))
	for _, entry := range entries {
		word := strings.TrimSpace(entry.Word)
		if word == "" {
			continue
		}
		card := entity.VocabularyCard{
			UserID:      userID,
			QuestID:     questID,
			Word:        word,
			Translation: entry.Translation,
			Language:    entity.NormalizeLanguage(language),
			Review: entity.ReviewState{
				EaseFactor:   entity.DefaultEaseFactor,
				NextReviewAt: now, // due immediately
			},
		}
		card.Normalize(now)
		cards = append(cards, card)
	}
	if len(cards) == 0 {
		return 0, entity.ErrInvalidCardWord
	}

	return u.cards.CreateBatch(ctx, cards)
}

func (u *vocabularyUsecase) Stats(ctx context.Context, userID int64, language entity.Language) (*VocabularyStats, error) {
	if userID <= 0 {
		return nil, entity.ErrInvalidUserID
	}

	cards, err := u.cards.ListByLanguage(ctx, userID, entity.NormalizeLanguage(language))
	if err != nil {
		return nil, err
	}

	now := u.clock()
	stats := &VocabularyStats{
		TotalCards:       len(cards),
		AverageRetention: srs.RetentionRate(cards),
	}
	for _, card := range cards {
		switch srs.Classify(card.Review.Repetitions) {
		case srs.MasteryNew:
			stats.NewCards++
		case srs.MasteryLearning:
			stats.LearningCards++
		case srs.MasteryMastered:
			stats.MasteredCards++
		}
		if srs.IsDue(card.Review.NextReviewAt, now) {
			stats.DueToday++
		}
	}
	return stats, nil
}

func (u *vocabularyUsecase) ListCards(ctx context.Context, query *repository.ListCardQuery) ([]entity.VocabularyCard, int64, error) {
	return u.cards.List(ctx, query)
}

func (u *vocabularyUsecase) StartSession(ctx context.Context, userID int64, language entity.Language) (*entity.ReviewSession, error) {
	if userID <= 0 {
		return nil, entity.ErrInvalidUserID
	}
	return u.sessions.Create(ctx, &entity.ReviewSession{
		UserID:    userID,
		Language:  entity.NormalizeLanguage(language),
		StartedAt: u.clock(),
	})
}

func (u *vocabularyUsecase) CompleteSession(ctx context.Context, userID, sessionID int64, summary SessionSummary) (*entity.ReviewSession, error) {
	session, err := u.sessions.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	session.CompletedAt = u.clock()
	session.CardsReviewed = summary.CardsReviewed
	session.CardsCorrect = summary.CardsCorrect
	session.CardsIncorrect = summary.CardsIncorrect
	session.AverageResponseTimeMs = summary.AverageResponseTimeMs
	session.DurationSeconds = summary.DurationSeconds

	return u.sessions.Update(ctx, session)
}
