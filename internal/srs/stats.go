package srs

import (
	"math"
	"sort"
	"time"

	"github.com/eslsoft/explorespeak/internal/entity"
)

// RetentionRate returns the percentage of correct recalls across a card set,
// rounded to the nearest integer. Defined as 0 when no attempts exist.
func RetentionRate(cards []entity.VocabularyCard) int32 {
	var attempts, correct int32
	for _, card := range cards {
		attempts += card.Stats.Attempts()
		correct += card.Stats.CorrectCount
	}
	if attempts == 0 {
		return 0
	}
	return int32(math.Round(float64(correct) / float64(attempts) * 100))
}

// UpdateAverageResponseTime folds one more sample into a running mean.
// attempts is the number of samples already folded in.
func UpdateAverageResponseTime(currentAvgMs, newMs, attempts int32) int32 {
	if attempts <= 0 {
		return newMs
	}
	return int32(math.Round(float64(currentAvgMs*attempts+newMs) / float64(attempts+1)))
}

// RecommendedReviewCount suggests how many cards to review today: all due
// cards capped at 50, with a floor of 10 for small decks still being built up.
func RecommendedReviewCount(totalCards, dueCards int) int {
	const maxDaily = 50
	recommended := dueCards
	if recommended > maxDaily {
		recommended = maxDaily
	}
	if totalCards < 20 && recommended < 10 {
		return 10
	}
	return recommended
}

// EstimateTimeToMastery projects the days until a card reaches the mastered
// bucket, assuming every upcoming review succeeds.
func EstimateTimeToMastery(card entity.VocabularyCard) int32 {
	needed := 5 - card.Review.Repetitions
	if needed <= 0 {
		return 0
	}

	var totalDays int32
	interval := card.Review.IntervalDays
	for i := int32(0); i < needed; i++ {
		totalDays += interval
		interval = int32(math.Round(float64(interval) * card.Review.EaseFactor))
	}
	return totalDays
}

// SuggestQuality proposes a recall rating from the response time relative to
// the learner's running average. Falls back to a middling 3 when no average
// exists yet.
func SuggestQuality(responseTimeMs, averageTimeMs int32) int32 {
	if averageTimeMs <= 0 {
		return 3
	}
	ratio := float64(responseTimeMs) / float64(averageTimeMs)
	switch {
	case ratio <= 0.5:
		return 5
	case ratio <= 1.0:
		return 4
	case ratio <= 1.5:
		return 3
	case ratio <= 2.0:
		return 2
	default:
		return 1
	}
}

// Streak counts consecutive calendar days with at least one review, ending
// today. Review timestamps may arrive in any order.
func Streak(reviewedAt []time.Time, today time.Time) int32 {
	if len(reviewedAt) == 0 {
		return 0
	}

	days := make(map[time.Time]struct{}, len(reviewedAt))
	for _, ts := range reviewedAt {
		days[truncateDay(ts.In(today.Location()))] = struct{}{}
	}

	uniq := make([]time.Time, 0, len(days))
	for day := range days {
		uniq = append(uniq, day)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].After(uniq[j]) })

	var streak int32
	expected := truncateDay(today)
	for _, day := range uniq {
		if !day.Equal(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

func truncateDay(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}
