package entity

import "time"

// ReviewSession groups one sitting of card reviews for statistics.
type ReviewSession struct {
	ID                    int64
	UserID                int64
	Language              Language
	StartedAt             time.Time
	CompletedAt           time.Time
	CardsReviewed         int32
	CardsCorrect          int32
	CardsIncorrect        int32
	AverageResponseTimeMs int32
	DurationSeconds       int32
}
