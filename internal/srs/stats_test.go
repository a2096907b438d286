package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eslsoft/explorespeak/internal/entity"
)

func cardWithCounts(correct, incorrect int32) entity.VocabularyCard {
	return entity.VocabularyCard{Stats: entity.CardStats{CorrectCount: correct, IncorrectCount: incorrect}}
}

func TestRetentionRate(t *testing.T) {
	assert.Equal(t, int32(0), RetentionRate(nil))
	assert.Equal(t, int32(0), RetentionRate([]entity.VocabularyCard{cardWithCounts(0, 0)}))

	cards := []entity.VocabularyCard{
		cardWithCounts(8, 2),
		cardWithCounts(1, 1),
	}
	// 9 correct out of 12 attempts
	assert.Equal(t, int32(75), RetentionRate(cards))
}

func TestUpdateAverageResponseTime(t *testing.T) {
	assert.Equal(t, int32(4000), UpdateAverageResponseTime(0, 4000, 0))
	assert.Equal(t, int32(3000), UpdateAverageResponseTime(2000, 5000, 1))
	assert.Equal(t, int32(2500), UpdateAverageResponseTime(2000, 4000, 2))
}

func TestRecommendedReviewCount(t *testing.T) {
	assert.Equal(t, 30, RecommendedReviewCount(100, 30))
	assert.Equal(t, 50, RecommendedReviewCount(500, 120))
	// Small decks get a floor of 10 new cards.
	assert.Equal(t, 10, RecommendedReviewCount(15, 3))
	assert.Equal(t, 12, RecommendedReviewCount(19, 12))
}

func TestEstimateTimeToMastery(t *testing.T) {
	mastered := entity.VocabularyCard{Review: entity.ReviewState{Repetitions: 5}}
	assert.Equal(t, int32(0), EstimateTimeToMastery(mastered))

	card := entity.VocabularyCard{Review: entity.ReviewState{
		EaseFactor:   2.0,
		IntervalDays: 6,
		Repetitions:  3,
	}}
	// 6 + 12 over the two remaining reviews
	assert.Equal(t, int32(18), EstimateTimeToMastery(card))
}

func TestSuggestQuality(t *testing.T) {
	assert.Equal(t, int32(3), SuggestQuality(1500, 0))
	assert.Equal(t, int32(5), SuggestQuality(1000, 2000))
	assert.Equal(t, int32(4), SuggestQuality(2000, 2000))
	assert.Equal(t, int32(3), SuggestQuality(3000, 2000))
	assert.Equal(t, int32(2), SuggestQuality(4000, 2000))
	assert.Equal(t, int32(1), SuggestQuality(9000, 2000))
}

func TestStreak(t *testing.T) {
	today := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, int32(0), Streak(nil, today))

	reviews := []time.Time{
		today.Add(-2 * time.Hour),
		today.AddDate(0, 0, -1),
		today.AddDate(0, 0, -1).Add(3 * time.Hour), // same day twice
		today.AddDate(0, 0, -2),
		today.AddDate(0, 0, -5), // gap breaks the streak here
	}
	assert.Equal(t, int32(3), Streak(reviews, today))

	// No review today means no current streak.
	assert.Equal(t, int32(0), Streak([]time.Time{today.AddDate(0, 0, -1)}, today))
}
