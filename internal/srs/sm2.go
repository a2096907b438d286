// Package srs implements the SuperMemo-2 spaced-repetition scheduler and the
// card statistics derived from it.
package srs

import (
	"math"
	"time"

	"github.com/eslsoft/explorespeak/internal/entity"
)

// Quality bounds for a recall self-assessment: 1 is a total blackout, 5 is
// instant perfect recall. Values below 3 count as a lapse.
const (
	MinQuality  int32 = 1
	MaxQuality  int32 = 5
	passQuality int32 = 3
)

// Result is the scheduling outcome of a single review.
type Result struct {
	EaseFactor   float64
	IntervalDays int32
	Repetitions  int32
	NextReviewAt time.Time
}

// Schedule applies the SM-2 update rule to a card's review state.
//
// now is the moment the review is recorded; the next due date is computed in
// calendar days from it, so late reviews earn no extra credit or penalty
// beyond the quality score given. Pure function: no clock reads, no I/O.
func Schedule(state entity.ReviewState, quality int32, now time.Time) (Result, error) {
	if quality < MinQuality || quality > MaxQuality {
		return Result{}, entity.ErrInvalidQuality
	}
	if err := validateState(state); err != nil {
		return Result{}, err
	}

	ease := state.EaseFactor
	interval := state.IntervalDays
	repetitions := state.Repetitions

	if quality < passQuality {
		// Lapse: restart the interval ladder from scratch.
		repetitions = 0
		interval = 1
	} else {
		switch repetitions {
		case 0:
			// First success ignores any stored interval.
			interval = 1
		case 1:
			interval = 6
		default:
			interval = int32(math.Round(float64(interval) * ease))
		}
		repetitions++
	}

	// Ease factor updates on every review, lapses included.
	q := float64(quality)
	ease += 0.1 - (5-q)*(0.08+(5-q)*0.02)
	ease = math.Max(entity.MinEaseFactor, ease)

	return Result{
		EaseFactor:   ease,
		IntervalDays: interval,
		Repetitions:  repetitions,
		NextReviewAt: now.AddDate(0, 0, int(interval)),
	}, nil
}

func validateState(state entity.ReviewState) error {
	if math.IsNaN(state.EaseFactor) || state.EaseFactor < 0 {
		return entity.ErrInvalidReviewState
	}
	if state.IntervalDays < 0 || state.Repetitions < 0 {
		return entity.ErrInvalidReviewState
	}
	return nil
}

// IsDue reports whether a card scheduled for nextReviewAt is due as of asOf.
func IsDue(nextReviewAt, asOf time.Time) bool {
	return !asOf.Before(nextReviewAt)
}

// Mastery classifies a card by its consecutive successful recalls.
type Mastery string

const (
	MasteryNew      Mastery = "new"
	MasteryLearning Mastery = "learning"
	MasteryMastered Mastery = "mastered"
)

// Classify maps a repetition count to a mastery bucket.
func Classify(repetitions int32) Mastery {
	switch {
	case repetitions == 0:
		return MasteryNew
	case repetitions < 5:
		return MasteryLearning
	default:
		return MasteryMastered
	}
}
