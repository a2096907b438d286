package adaptive

import (
	"fmt"
	"time"

	"github.com/eslsoft/explorespeak/internal/entity"
)

// DailyGoal picks today's goal for a learner. The rules are checked in
// priority order and the first match wins: weekend vocabulary review, then a
// streak-milestone XP challenge, then weakness practice, then plain study
// time. today is passed in so callers control the clock.
func DailyGoal(profile *entity.LearnerProfile, today time.Time) entity.DailyGoal {
	goal := entity.DailyGoal{
		UserID:   profile.UserID,
		Language: profile.Language,
		Date:     today,
	}

	switch {
	case today.Weekday() == time.Saturday || today.Weekday() == time.Sunday:
		goal.GoalType = entity.GoalVocabulary
		goal.Target = 20
		goal.Description = "Review 20 vocabulary cards"
	case profile.StreakDays > 0 && profile.StreakDays%7 == 0:
		goal.GoalType = entity.GoalXP
		goal.Target = 500
		goal.Description = "Earn 500 XP to celebrate your streak!"
	case len(profile.WeaknessAreas) > 0:
		goal.GoalType = entity.GoalQuests
		goal.Target = 2
		goal.Description = fmt.Sprintf("Complete 2 quests focusing on %s", profile.WeaknessAreas[0])
	default:
		minutes := profile.AverageSessionLength
		if minutes <= 0 {
			minutes = entity.DefaultSessionLengthMinutes
		}
		goal.GoalType = entity.GoalTime
		goal.Target = minutes
		goal.Description = fmt.Sprintf("Study for %d minutes", minutes)
	}

	return goal
}
