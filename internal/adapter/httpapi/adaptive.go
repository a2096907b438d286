package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/eslsoft/explorespeak/internal/entity"
	"github.com/eslsoft/explorespeak/internal/usecase"
)

type profileResponse struct {
	UserID                int64     `json:"userId"`
	Language              string    `json:"language"`
	OverallLevel          string    `json:"overallLevel"`
	CurrentDifficulty     int32     `json:"currentDifficulty"`
	OptimalChallengeLevel int32     `json:"optimalChallengeLevel"`
	WeaknessAreas         []string  `json:"weaknessAreas"`
	StrengthAreas         []string  `json:"strengthAreas"`
	CulturalInterests     []string  `json:"culturalInterests"`
	StreakDays            int32     `json:"streakDays"`
	TotalStudyTimeMinutes int32     `json:"totalStudyTimeMinutes"`
	CompletionRate        float64   `json:"completionRate"`
	AverageSessionLength  int32     `json:"averageSessionLength"`
	LastActiveAt          time.Time `json:"lastActiveAt"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func toProfileResponse(profile *entity.LearnerProfile) profileResponse {
	return profileResponse{
		UserID:                profile.UserID,
		Language:              profile.Language.Code(),
		OverallLevel:          string(profile.OverallLevel),
		CurrentDifficulty:     profile.CurrentDifficulty,
		OptimalChallengeLevel: profile.OptimalChallengeLevel,
		WeaknessAreas:         profile.WeaknessAreas,
		StrengthAreas:         profile.StrengthAreas,
		CulturalInterests:     profile.CulturalInterests,
		StreakDays:            profile.StreakDays,
		TotalStudyTimeMinutes: profile.TotalStudyTimeMinutes,
		CompletionRate:        profile.CompletionRate,
		AverageSessionLength:  profile.AverageSessionLength,
		LastActiveAt:          profile.LastActiveAt,
		CreatedAt:             profile.CreatedAt,
		UpdatedAt:             profile.UpdatedAt,
	}
}

// GET /adaptive/profile
func (a *API) profile(c echo.Context) error {
	profile, err := a.adaptive.Profile(c.Request().Context(), userIDParam(c), entity.ParseLanguage(c.QueryParam("language")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

type completeQuestRequest struct {
	UserID           int64  `json:"userId"`
	Language         string `json:"language"`
	QuestID          string `json:"questId"`
	Score            int32  `json:"score"`
	TimeSpentMinutes int32  `json:"timeSpentMinutes"`
}

// POST /adaptive/profile/update
func (a *API) completeQuest(c echo.Context) error {
	var req completeQuestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	profile, err := a.adaptive.CompleteQuest(c.Request().Context(), usecase.CompleteQuestInput{
		UserID:           req.UserID,
		Language:         entity.ParseLanguage(req.Language),
		QuestID:          req.QuestID,
		Score:            req.Score,
		TimeSpentMinutes: req.TimeSpentMinutes,
	})
	if err != nil {
		a.logger.WithError(err).WithField("quest_id", req.QuestID).Warn("quest completion failed")
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

type performanceRequest struct {
	UserID           int64    `json:"userId"`
	QuestID          string   `json:"questId"`
	Language         string   `json:"language"`
	Score            int32    `json:"score"`
	TimeSpentMinutes int32    `json:"timeSpentMinutes"`
	Difficulty       int32    `json:"difficulty"`
	TopicsCovered    []string `json:"topicsCovered"`
}

type performanceResponse struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"userId"`
	QuestID          string    `json:"questId,omitempty"`
	Language         string    `json:"language"`
	Score            int32     `json:"score"`
	TimeSpentMinutes int32     `json:"timeSpentMinutes"`
	Difficulty       int32     `json:"difficulty"`
	TopicsCovered    []string  `json:"topicsCovered"`
	CompletedAt      time.Time `json:"completedAt"`
}

func toPerformanceResponse(record *entity.PerformanceRecord) performanceResponse {
	return performanceResponse{
		ID:               record.ID,
		UserID:           record.UserID,
		QuestID:          record.QuestID,
		Language:         record.Language.Code(),
		Score:            record.Score,
		TimeSpentMinutes: record.TimeSpentMinutes,
		Difficulty:       record.Difficulty,
		TopicsCovered:    record.TopicsCovered,
		CompletedAt:      record.CompletedAt,
	}
}

// POST /adaptive/performance
func (a *API) recordPerformance(c echo.Context) error {
	var req performanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	record, err := a.adaptive.RecordPerformance(c.Request().Context(), &entity.PerformanceRecord{
		UserID:           req.UserID,
		QuestID:          req.QuestID,
		Language:         entity.ParseLanguage(req.Language),
		Score:            req.Score,
		TimeSpentMinutes: req.TimeSpentMinutes,
		Difficulty:       req.Difficulty,
		TopicsCovered:    req.TopicsCovered,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toPerformanceResponse(record))
}

type performanceHistoryResponse struct {
	Records []performanceResponse `json:"records"`
}

// GET /adaptive/performance/history
func (a *API) performanceHistory(c echo.Context) error {
	records, err := a.adaptive.History(
		c.Request().Context(),
		userIDParam(c),
		entity.ParseLanguage(c.QueryParam("language")),
		int32(intParam(c, "limit")),
	)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, performanceHistoryResponse{
		Records: lo.Map(records, func(record entity.PerformanceRecord, _ int) performanceResponse {
			return toPerformanceResponse(&record)
		}),
	})
}

type recommendationResponse struct {
	QuestID              string   `json:"questId"`
	Title                string   `json:"title"`
	Language             string   `json:"language"`
	Level                string   `json:"level"`
	RelevanceScore       int32    `json:"relevanceScore"`
	Difficulty           int32    `json:"difficulty"`
	EstimatedSuccessRate int32    `json:"estimatedSuccessRate"`
	Reasoning            string   `json:"reasoning"`
	LearningObjectives   []string `json:"learningObjectives"`
	EstimatedMinutes     int32    `json:"estimatedMinutes"`
	AddressesWeakness    bool     `json:"addressesWeakness"`
	MatchesInterest      bool     `json:"matchesInterest"`
}

type recommendationsResponse struct {
	Recommendations []recommendationResponse `json:"recommendations"`
}

// GET /adaptive/recommendations
func (a *API) recommendations(c echo.Context) error {
	recs, err := a.adaptive.Recommendations(
		c.Request().Context(),
		userIDParam(c),
		entity.ParseLanguage(c.QueryParam("language")),
		intParam(c, "limit"),
	)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, recommendationsResponse{
		Recommendations: lo.Map(recs, func(rec entity.QuestRecommendation, _ int) recommendationResponse {
			return recommendationResponse{
				QuestID:              rec.QuestID,
				Title:                rec.Title,
				Language:             rec.Language.Code(),
				Level:                string(rec.Level),
				RelevanceScore:       rec.RelevanceScore,
				Difficulty:           rec.Difficulty,
				EstimatedSuccessRate: rec.EstimatedSuccessRate,
				Reasoning:            rec.Reasoning,
				LearningObjectives:   rec.LearningObjectives,
				EstimatedMinutes:     rec.EstimatedMinutes,
				AddressesWeakness:    rec.AddressesWeakness,
				MatchesInterest:      rec.MatchesInterest,
			}
		}),
	})
}

type dailyGoalResponse struct {
	UserID      int64  `json:"userId"`
	Language    string `json:"language"`
	Date        string `json:"date"`
	GoalType    string `json:"goalType"`
	Target      int32  `json:"target"`
	Completed   int32  `json:"completed"`
	Description string `json:"description"`
	IsComplete  bool   `json:"isComplete"`
}

// GET /adaptive/goal/daily
func (a *API) dailyGoal(c echo.Context) error {
	goal, err := a.adaptive.DailyGoal(c.Request().Context(), userIDParam(c), entity.ParseLanguage(c.QueryParam("language")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dailyGoalResponse{
		UserID:      goal.UserID,
		Language:    goal.Language.Code(),
		Date:        goal.Date.Format("2006-01-02"),
		GoalType:    string(goal.GoalType),
		Target:      goal.Target,
		Completed:   goal.Completed,
		Description: goal.Description,
		IsComplete:  goal.IsComplete,
	})
}

type questResponse struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Language           string   `json:"language"`
	Level              string   `json:"level"`
	CulturalContext    string   `json:"culturalContext,omitempty"`
	LearningObjectives []string `json:"learningObjectives"`
	EstimatedMinutes   int32    `json:"estimatedMinutes"`
}

type questsResponse struct {
	Quests []questResponse `json:"quests"`
}

// GET /quests
func (a *API) listQuests(c echo.Context) error {
	quests, err := a.adaptive.Quests(c.Request().Context(), entity.ParseLanguage(c.QueryParam("language")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, questsResponse{
		Quests: lo.Map(quests, func(quest entity.Quest, _ int) questResponse {
			return questResponse{
				ID:                 quest.ID,
				Title:              quest.Title,
				Language:           quest.Language.Code(),
				Level:              string(quest.Level),
				CulturalContext:    quest.CulturalContext,
				LearningObjectives: quest.LearningObjectives,
				EstimatedMinutes:   quest.EstimatedMinutes,
			}
		}),
	})
}
