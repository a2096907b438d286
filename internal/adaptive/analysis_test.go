package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/explorespeak/internal/entity"
)

func record(score int32, topics ...string) entity.PerformanceRecord {
	return entity.PerformanceRecord{Score: score, TopicsCovered: topics}
}

func TestOptimalChallenge(t *testing.T) {
	assert.Equal(t, int32(5), OptimalChallenge(nil, 5))

	assert.Equal(t, int32(6), OptimalChallenge([]int32{90, 88, 95}, 5))
	assert.Equal(t, int32(4), OptimalChallenge([]int32{50, 60, 55}, 5))

	// Caps at both ends of the scale.
	assert.Equal(t, int32(10), OptimalChallenge([]int32{100, 100}, 10))
	assert.Equal(t, int32(1), OptimalChallenge([]int32{0, 0}, 1))
}

func TestOptimalChallengeHysteresis(t *testing.T) {
	// Any average inside [65, 85] leaves the difficulty untouched,
	// boundaries included.
	for _, scores := range [][]int32{
		{65},
		{85},
		{70, 80},
		{66, 84, 75},
	} {
		assert.Equal(t, int32(5), OptimalChallenge(scores, 5), "scores %v", scores)
	}
}

func TestAnalyzeWeaknesses(t *testing.T) {
	history := []entity.PerformanceRecord{
		record(40, "grammar"),
		record(60, "grammar", "ordering"),
		record(65, "ordering"),
		record(95, "greetings"),
	}

	weak := AnalyzeWeaknesses(history)

	require.Len(t, weak, 2)
	assert.Equal(t, "grammar", weak[0].Topic)
	assert.Equal(t, int32(50), weak[0].AverageScore)
	assert.Equal(t, "ordering", weak[1].Topic)
	assert.Equal(t, int32(63), weak[1].AverageScore)
}

func TestAnalyzeStrengths(t *testing.T) {
	history := []entity.PerformanceRecord{
		record(90, "greetings"),
		record(92, "greetings"),
		record(100, "directions"), // single attempt, not a strength
		record(86, "conversation"),
		record(88, "conversation"),
	}

	strong := AnalyzeStrengths(history)

	require.Len(t, strong, 2)
	assert.Equal(t, "greetings", strong[0].Topic)
	assert.Equal(t, "conversation", strong[1].Topic)
	assert.Equal(t, int32(2), strong[0].Attempts)
}

func TestAnalyzeEmptyHistory(t *testing.T) {
	assert.Empty(t, AnalyzeWeaknesses(nil))
	assert.Empty(t, AnalyzeStrengths(nil))
}

func TestTopics(t *testing.T) {
	insights := []TopicInsight{{Topic: "grammar"}, {Topic: "ordering"}}
	assert.Equal(t, []string{"grammar", "ordering"}, Topics(insights))
	assert.Empty(t, Topics(nil))
}
