package entity

import "time"

// GoalType enumerates the kinds of daily goals the engine can assign.
type GoalType string

const (
	GoalVocabulary GoalType = "vocabulary"
	GoalXP         GoalType = "xp"
	GoalQuests     GoalType = "quests"
	GoalTime       GoalType = "time"
)

// DailyGoal is a computed goal for one user, one language, one calendar day.
// Goals are derived on read and never persisted; tracking completion is the
// caller's job as it observes subsequent activity.
type DailyGoal struct {
	UserID      int64
	Language    Language
	Date        time.Time
	GoalType    GoalType
	Target      int32
	Completed   int32
	Description string
	IsComplete  bool
}
