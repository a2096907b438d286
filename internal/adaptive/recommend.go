// Package adaptive ranks quest content for a learner and derives the adaptive
// difficulty parameters from recent performance.
package adaptive

import (
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/eslsoft/explorespeak/internal/entity"
)

// Composite score weights. They sum to 100 so the relevance score is bounded
// by [0, 100] for any quest/profile pair.
const (
	weightDifficulty = 40
	weightWeakness   = 30
	weightInterest   = 20
	weightLanguage   = 10
)

const defaultReasoning = "Good next step in your learning journey"

// levelDifficulties maps CEFR levels onto the 1-10 difficulty scale. Unmapped
// levels land mid-scale.
var levelDifficulties = map[entity.CEFRLevel]int32{
	entity.LevelA1: 1,
	entity.LevelA2: 3,
	entity.LevelB1: 5,
	entity.LevelB2: 7,
	entity.LevelC1: 9,
	entity.LevelC2: 10,
}

// LevelDifficulty converts a CEFR level to quest difficulty.
func LevelDifficulty(level entity.CEFRLevel) int32 {
	if d, ok := levelDifficulties[level]; ok {
		return d
	}
	return 5
}

// topicKeywords are scanned, in order, against each learning objective.
// Substring matching on English objective text only; objectives phrased
// differently (or in another language) go untagged.
var topicKeywords = []struct {
	keyword string
	topic   string
}{
	{"greeting", "greetings"},
	{"order", "ordering"},
	{"direction", "directions"},
	{"conversation", "conversation"},
	{"grammar", "grammar"},
	{"vocabulary", "vocabulary"},
}

// QuestTopics derives the de-duplicated topic tags of a quest from its
// learning objectives.
func QuestTopics(quest entity.Quest) []string {
	var topics []string
	for _, objective := range quest.LearningObjectives {
		lower := strings.ToLower(objective)
		for _, kw := range topicKeywords {
			if strings.Contains(lower, kw.keyword) {
				topics = append(topics, kw.topic)
			}
		}
	}
	return lo.Uniq(topics)
}

// ScoreQuest computes the weighted relevance of one quest for one learner.
// Quests the learner already completed are excluded: the second return value
// is false and the recommendation must not be ranked.
func ScoreQuest(quest entity.Quest, profile *entity.LearnerProfile, completed map[string]bool) (entity.QuestRecommendation, bool) {
	if completed[quest.ID] {
		return entity.QuestRecommendation{}, false
	}

	var score float64
	var reasons []string

	difficulty := LevelDifficulty(quest.Level)
	difficultyMatch := math.Max(0, 1-math.Abs(float64(difficulty-profile.CurrentDifficulty))/10)
	score += difficultyMatch * weightDifficulty
	if difficultyMatch > 0.8 {
		reasons = append(reasons, "Perfect difficulty level for you")
	}

	addressesWeakness := lo.Some(profile.WeaknessAreas, QuestTopics(quest))
	if addressesWeakness {
		score += weightWeakness
		reasons = append(reasons, "Helps improve your weak areas")
	}

	culturalContext := strings.ToLower(quest.CulturalContext)
	matchesInterest := lo.SomeBy(profile.CulturalInterests, func(interest string) bool {
		return interest != "" && strings.Contains(culturalContext, strings.ToLower(interest))
	})
	if matchesInterest {
		score += weightInterest
		reasons = append(reasons, "Matches your interests")
	}

	if quest.Language == profile.Language {
		score += weightLanguage
	}

	reasoning := strings.Join(reasons, ". ")
	if reasoning == "" {
		reasoning = defaultReasoning
	}

	return entity.QuestRecommendation{
		QuestID:              quest.ID,
		Title:                quest.Title,
		Language:             quest.Language,
		Level:                quest.Level,
		RelevanceScore:       int32(math.Round(score)),
		Difficulty:           difficulty,
		EstimatedSuccessRate: int32(math.Round(difficultyMatch * 100)),
		Reasoning:            reasoning,
		LearningObjectives:   quest.LearningObjectives,
		EstimatedMinutes:     questMinutesOrDefault(quest),
		AddressesWeakness:    addressesWeakness,
		MatchesInterest:      matchesInterest,
	}, true
}

// Recommend scores the candidate set, drops completed quests, and returns the
// top entries by relevance. The sort is stable so equally scored quests keep
// their input order.
func Recommend(quests []entity.Quest, profile *entity.LearnerProfile, completedIDs []string, limit int) []entity.QuestRecommendation {
	completed := lo.SliceToMap(completedIDs, func(id string) (string, bool) { return id, true })

	recommendations := make([]entity.QuestRecommendation, 0, len(quests))
	for _, quest := range quests {
		if rec, ok := ScoreQuest(quest, profile, completed); ok {
			recommendations = append(recommendations, rec)
		}
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].RelevanceScore > recommendations[j].RelevanceScore
	})

	if limit > 0 && len(recommendations) > limit {
		recommendations = recommendations[:limit]
	}
	return recommendations
}

func questMinutesOrDefault(quest entity.Quest) int32 {
	if quest.EstimatedMinutes > 0 {
		return quest.EstimatedMinutes
	}
	return 20
}
