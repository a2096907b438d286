package entity

import "time"

// PerformanceRecord is an immutable log entry of one quest attempt. Records
// are written once on quest completion and only ever read in aggregate.
type PerformanceRecord struct {
	ID               int64
	UserID           int64
	QuestID          string
	Language         Language
	Score            int32
	TimeSpentMinutes int32
	Difficulty       int32
	TopicsCovered    []string
	CompletedAt      time.Time
}
