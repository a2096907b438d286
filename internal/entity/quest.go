package entity

import "time"

// Quest is a read-only content entity consumed by the recommendation engine.
// Every field the scorer touches has a documented zero-value default so quests
// with sparse content score predictably: an empty CulturalContext matches no
// interest, an empty LearningObjectives list yields no topics, and an unknown
// Level maps to mid-scale difficulty.
type Quest struct {
	ID                 string
	Title              string
	Language           Language
	Level              CEFRLevel
	CulturalContext    string
	LearningObjectives []string
	EstimatedMinutes   int32
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// QuestRecommendation is a derived, non-persisted scoring of one quest for
// one learner.
type QuestRecommendation struct {
	QuestID              string
	Title                string
	Language             Language
	Level                CEFRLevel
	RelevanceScore       int32
	Difficulty           int32
	EstimatedSuccessRate int32
	Reasoning            string
	LearningObjectives   []string
	EstimatedMinutes     int32
	AddressesWeakness    bool
	MatchesInterest      bool
}

// QuestProgressCompleted marks a quest as finished in the progress store.
const QuestProgressCompleted = "completed"
