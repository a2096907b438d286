package adaptive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eslsoft/explorespeak/internal/entity"
)

var (
	saturday = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	tuesday  = time.Date(2025, 3, 18, 10, 0, 0, 0, time.UTC)
)

func TestDailyGoalWeekendWinsOverEverything(t *testing.T) {
	profile := &entity.LearnerProfile{
		UserID:        7,
		Language:      entity.LanguageSpanish,
		StreakDays:    14,
		WeaknessAreas: []string{"grammar"},
	}

	goal := DailyGoal(profile, saturday)

	assert.Equal(t, entity.GoalVocabulary, goal.GoalType)
	assert.Equal(t, int32(20), goal.Target)
	assert.Equal(t, int32(0), goal.Completed)
	assert.False(t, goal.IsComplete)
}

func TestDailyGoalStreakMilestone(t *testing.T) {
	profile := &entity.LearnerProfile{StreakDays: 14, WeaknessAreas: []string{"grammar"}}

	goal := DailyGoal(profile, tuesday)

	assert.Equal(t, entity.GoalXP, goal.GoalType)
	assert.Equal(t, int32(500), goal.Target)
}

func TestDailyGoalWeaknessPractice(t *testing.T) {
	profile := &entity.LearnerProfile{StreakDays: 3, WeaknessAreas: []string{"ordering", "grammar"}}

	goal := DailyGoal(profile, tuesday)

	assert.Equal(t, entity.GoalQuests, goal.GoalType)
	assert.Equal(t, int32(2), goal.Target)
	assert.Equal(t, "Complete 2 quests focusing on ordering", goal.Description)
}

func TestDailyGoalDefaultStudyTime(t *testing.T) {
	goal := DailyGoal(&entity.LearnerProfile{AverageSessionLength: 35}, tuesday)
	assert.Equal(t, entity.GoalTime, goal.GoalType)
	assert.Equal(t, int32(35), goal.Target)
	assert.Equal(t, "Study for 35 minutes", goal.Description)

	// Missing session length falls back to 20 minutes.
	fallback := DailyGoal(&entity.LearnerProfile{}, tuesday)
	assert.Equal(t, int32(20), fallback.Target)
}

func TestDailyGoalZeroStreakNeverMilestones(t *testing.T) {
	goal := DailyGoal(&entity.LearnerProfile{StreakDays: 0}, tuesday)
	assert.NotEqual(t, entity.GoalXP, goal.GoalType)
}
