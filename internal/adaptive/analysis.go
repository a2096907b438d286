package adaptive

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/eslsoft/explorespeak/internal/entity"
)

// Hysteresis band for difficulty adjustment. Averages strictly inside
// (65, 85) leave the difficulty untouched so it does not oscillate; the
// boundaries themselves also hold steady.
const (
	raiseThreshold = 85
	lowerThreshold = 65
)

// OptimalChallenge derives the next difficulty from the learner's recent
// quest scores. An empty history keeps the current difficulty.
func OptimalChallenge(recentScores []int32, currentDifficulty int32) int32 {
	if len(recentScores) == 0 {
		return currentDifficulty
	}

	average := float64(lo.Sum(recentScores)) / float64(len(recentScores))

	if average > raiseThreshold {
		return min(currentDifficulty+1, entity.MaxDifficulty)
	}
	if average < lowerThreshold {
		return max(currentDifficulty-1, entity.MinDifficulty)
	}
	return currentDifficulty
}

// TopicInsight is the per-topic aggregate behind weakness/strength lists.
type TopicInsight struct {
	Topic        string
	AverageScore int32
	Attempts     int32
}

// AnalyzeWeaknesses returns topics averaging below 70, weakest first. The
// result replaces the profile's stored weakness list wholesale.
func AnalyzeWeaknesses(history []entity.PerformanceRecord) []TopicInsight {
	insights := lo.Filter(aggregateTopics(history), func(ti TopicInsight, _ int) bool {
		return ti.AverageScore < 70
	})
	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].AverageScore < insights[j].AverageScore
	})
	return insights
}

// AnalyzeStrengths returns topics averaging 85 or better across at least two
// attempts, strongest first. A single lucky high score is not a strength.
func AnalyzeStrengths(history []entity.PerformanceRecord) []TopicInsight {
	insights := lo.Filter(aggregateTopics(history), func(ti TopicInsight, _ int) bool {
		return ti.AverageScore >= 85 && ti.Attempts >= 2
	})
	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].AverageScore > insights[j].AverageScore
	})
	return insights
}

// Topics flattens insights into the bare topic list stored on the profile.
func Topics(insights []TopicInsight) []string {
	return lo.Map(insights, func(ti TopicInsight, _ int) string { return ti.Topic })
}

func aggregateTopics(history []entity.PerformanceRecord) []TopicInsight {
	type bucket struct {
		total    int64
		attempts int32
	}

	buckets := make(map[string]*bucket)
	var order []string
	for _, record := range history {
		for _, topic := range record.TopicsCovered {
			b, ok := buckets[topic]
			if !ok {
				b = &bucket{}
				buckets[topic] = b
				order = append(order, topic)
			}
			b.total += int64(record.Score)
			b.attempts++
		}
	}

	insights := make([]TopicInsight, 0, len(order))
	for _, topic := range order {
		b := buckets[topic]
		insights = append(insights, TopicInsight{
			Topic:        topic,
			AverageScore: int32(math.Round(float64(b.total) / float64(b.attempts))),
			Attempts:     b.attempts,
		})
	}
	return insights
}
