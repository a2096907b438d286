package entity

import (
	"strings"
	"time"
)

// DefaultEaseFactor is the SM-2 starting ease for a brand-new card.
const DefaultEaseFactor = 2.5

// MinEaseFactor is the SM-2 floor below which the ease factor never drops.
const MinEaseFactor = 1.3

// VocabularyCard is one user's memory state for one vocabulary item.
type VocabularyCard struct {
	ID          int64
	UserID      int64
	QuestID     string
	Word        string
	Translation string
	Language    Language
	Review      ReviewState
	Stats       CardStats
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReviewState holds the SM-2 scheduling parameters of a card.
type ReviewState struct {
	EaseFactor   float64
	IntervalDays int32
	Repetitions  int32
	NextReviewAt time.Time
	LastReviewAt time.Time
}

// CardStats tracks cumulative recall performance for a card. CorrectCount and
// IncorrectCount only ever increase.
type CardStats struct {
	CorrectCount          int32
	IncorrectCount        int32
	AverageResponseTimeMs int32
}

// Attempts returns the total number of recorded recall attempts.
func (s CardStats) Attempts() int32 {
	return s.CorrectCount + s.IncorrectCount
}

// Normalize ensures defaults & constraints before persistence.
func (c *VocabularyCard) Normalize(now time.Time) {
	c.Word = strings.TrimSpace(c.Word)
	c.Translation = strings.TrimSpace(c.Translation)
	if c.Language == "" {
		c.Language = LanguageEnglish
	}
	if c.Review.EaseFactor == 0 {
		c.Review.EaseFactor = DefaultEaseFactor
	}
	if c.Review.NextReviewAt.IsZero() {
		c.Review.NextReviewAt = now
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

// VocabularyEntry is the wire shape of one new word awarded by a quest.
type VocabularyEntry struct {
	Word            string
	Translation     string
	ExampleSentence string
}
