package entity

import "time"

// Difficulty bounds for the adaptive challenge scale.
const (
	MinDifficulty int32 = 1
	MaxDifficulty int32 = 10
)

// Defaults applied when a learner profile is created on first access.
const (
	DefaultDifficulty            int32 = 3
	DefaultSessionLengthMinutes  int32 = 20
	DefaultProfileLevel                = LevelA1
)

// LearnerProfile is one user's aggregate learning state for one target language.
type LearnerProfile struct {
	UserID                int64
	Language              Language
	OverallLevel          CEFRLevel
	CurrentDifficulty     int32
	OptimalChallengeLevel int32
	WeaknessAreas         []string
	StrengthAreas         []string
	CulturalInterests     []string
	StreakDays            int32
	TotalStudyTimeMinutes int32
	CompletionRate        float64
	AverageSessionLength  int32
	LastActiveAt          time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewLearnerProfile builds the default profile created on first access.
func NewLearnerProfile(userID int64, language Language, now time.Time) *LearnerProfile {
	return &LearnerProfile{
		UserID:                userID,
		Language:              NormalizeLanguage(language),
		OverallLevel:          DefaultProfileLevel,
		CurrentDifficulty:     DefaultDifficulty,
		OptimalChallengeLevel: DefaultDifficulty,
		WeaknessAreas:         []string{},
		StrengthAreas:         []string{},
		CulturalInterests:     []string{},
		AverageSessionLength:  DefaultSessionLengthMinutes,
		LastActiveAt:          now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// Normalize ensures defaults & constraints before persistence.
func (p *LearnerProfile) Normalize(now time.Time) {
	if p.Language == "" {
		p.Language = LanguageEnglish
	}
	if p.OverallLevel == "" {
		p.OverallLevel = DefaultProfileLevel
	}
	p.CurrentDifficulty = clampDifficulty(p.CurrentDifficulty)
	p.OptimalChallengeLevel = clampDifficulty(p.OptimalChallengeLevel)
	if p.AverageSessionLength <= 0 {
		p.AverageSessionLength = DefaultSessionLengthMinutes
	}
	if p.WeaknessAreas == nil {
		p.WeaknessAreas = []string{}
	}
	if p.StrengthAreas == nil {
		p.StrengthAreas = []string{}
	}
	if p.CulturalInterests == nil {
		p.CulturalInterests = []string{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

func clampDifficulty(d int32) int32 {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}
