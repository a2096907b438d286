package entity

import "errors"

// Domain errors for the vocabulary and adaptive-learning aggregates.
var (
	ErrInvalidQuality     = errors.New("quality rating must be between 1 and 5")
	ErrInvalidReviewState = errors.New("invalid review state")
	ErrInvalidCardWord    = errors.New("invalid card word")
	ErrInvalidUserID      = errors.New("invalid user ID")
	ErrInvalidScore       = errors.New("score must be between 0 and 100")
	ErrInvalidResponse    = errors.New("response time must not be negative")
	ErrCardNotFound       = errors.New("vocabulary card not found")
	ErrDuplicateCard      = errors.New("vocabulary card already exists")
	ErrCardConflict       = errors.New("vocabulary card was modified concurrently")
	ErrProfileNotFound    = errors.New("learner profile not found")
	ErrQuestNotFound      = errors.New("quest not found")
	ErrSessionNotFound    = errors.New("review session not found")
)
