package srs

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/explorespeak/internal/entity"
)

var reviewedOn = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func TestScheduleFirstPerfectReview(t *testing.T) {
	state := entity.ReviewState{EaseFactor: 2.5, IntervalDays: 0, Repetitions: 0}

	result, err := Schedule(state, 5, reviewedOn)
	require.NoError(t, err)

	assert.Equal(t, int32(1), result.IntervalDays)
	assert.Equal(t, int32(1), result.Repetitions)
	assert.InDelta(t, 2.6, result.EaseFactor, 1e-9)
	assert.Equal(t, reviewedOn.AddDate(0, 0, 1), result.NextReviewAt)
}

func TestScheduleSecondPerfectReview(t *testing.T) {
	first, err := Schedule(entity.ReviewState{EaseFactor: 2.5}, 5, reviewedOn)
	require.NoError(t, err)

	second, err := Schedule(entity.ReviewState{
		EaseFactor:   first.EaseFactor,
		IntervalDays: first.IntervalDays,
		Repetitions:  first.Repetitions,
	}, 5, reviewedOn.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, int32(6), second.IntervalDays)
	assert.Equal(t, int32(2), second.Repetitions)
	assert.InDelta(t, 2.7, second.EaseFactor, 1e-9)
}

func TestScheduleGrowthUsesPreUpdateEase(t *testing.T) {
	state := entity.ReviewState{EaseFactor: 2.0, IntervalDays: 10, Repetitions: 3}

	result, err := Schedule(state, 4, reviewedOn)
	require.NoError(t, err)

	// round(10 * 2.0), not round(10 * updated ease)
	assert.Equal(t, int32(20), result.IntervalDays)
	assert.Equal(t, int32(4), result.Repetitions)
}

func TestScheduleLapseResets(t *testing.T) {
	for _, quality := range []int32{1, 2} {
		state := entity.ReviewState{EaseFactor: 2.5, IntervalDays: 42, Repetitions: 7}

		result, err := Schedule(state, quality, reviewedOn)
		require.NoError(t, err)

		assert.Equal(t, int32(0), result.Repetitions, "quality %d", quality)
		assert.Equal(t, int32(1), result.IntervalDays, "quality %d", quality)
	}
}

func TestScheduleFirstSuccessIgnoresStoredInterval(t *testing.T) {
	for _, stored := range []int32{0, 3, 99} {
		state := entity.ReviewState{EaseFactor: 2.5, IntervalDays: stored, Repetitions: 0}

		result, err := Schedule(state, 4, reviewedOn)
		require.NoError(t, err)

		assert.Equal(t, int32(1), result.IntervalDays, "stored interval %d", stored)
	}
}

func TestScheduleEaseFactorFloor(t *testing.T) {
	state := entity.ReviewState{EaseFactor: 2.5}

	// Repeated blackouts must never push the ease factor below 1.3.
	for i := 0; i < 20; i++ {
		result, err := Schedule(state, 1, reviewedOn)
		require.NoError(t, err)
		require.GreaterOrEqual(t, result.EaseFactor, entity.MinEaseFactor)
		state = entity.ReviewState{
			EaseFactor:   result.EaseFactor,
			IntervalDays: result.IntervalDays,
			Repetitions:  result.Repetitions,
		}
	}
	assert.Equal(t, entity.MinEaseFactor, state.EaseFactor)
}

func TestScheduleLapseRestartsLadder(t *testing.T) {
	state := entity.ReviewState{EaseFactor: 2.5, IntervalDays: 30, Repetitions: 6}

	lapsed, err := Schedule(state, 2, reviewedOn)
	require.NoError(t, err)
	require.Equal(t, int32(0), lapsed.Repetitions)

	retry, err := Schedule(entity.ReviewState{
		EaseFactor:   lapsed.EaseFactor,
		IntervalDays: lapsed.IntervalDays,
		Repetitions:  lapsed.Repetitions,
	}, 4, reviewedOn.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int32(1), retry.IntervalDays)
	assert.Equal(t, int32(1), retry.Repetitions)
}

func TestScheduleRejectsInvalidInput(t *testing.T) {
	valid := entity.ReviewState{EaseFactor: 2.5}

	for _, quality := range []int32{0, 6, -1, 100} {
		_, err := Schedule(valid, quality, reviewedOn)
		assert.ErrorIs(t, err, entity.ErrInvalidQuality, "quality %d", quality)
	}

	cases := map[string]entity.ReviewState{
		"nan ease":            {EaseFactor: math.NaN()},
		"negative ease":       {EaseFactor: -1},
		"negative interval":   {EaseFactor: 2.5, IntervalDays: -1},
		"negative repetition": {EaseFactor: 2.5, Repetitions: -1},
	}
	for name, state := range cases {
		_, err := Schedule(state, 4, reviewedOn)
		assert.ErrorIs(t, err, entity.ErrInvalidReviewState, name)
	}
}

func TestIsDue(t *testing.T) {
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsDue(due, due))
	assert.True(t, IsDue(due, due.Add(time.Hour)))
	assert.False(t, IsDue(due, due.Add(-time.Minute)))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, MasteryNew, Classify(0))
	assert.Equal(t, MasteryLearning, Classify(1))
	assert.Equal(t, MasteryLearning, Classify(4))
	assert.Equal(t, MasteryMastered, Classify(5))
	assert.Equal(t, MasteryMastered, Classify(12))
}
