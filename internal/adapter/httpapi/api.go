// Package httpapi exposes the vocabulary and adaptive learning usecases as a
// JSON HTTP API on an echo router.
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/explorespeak/internal/usecase"
)

type API struct {
	vocabulary usecase.VocabularyUsecase
	adaptive   usecase.AdaptiveUsecase
	logger     *logrus.Logger
}

func NewAPI(vocabulary usecase.VocabularyUsecase, adaptive usecase.AdaptiveUsecase, logger *logrus.Logger) *API {
	return &API{
		vocabulary: vocabulary,
		adaptive:   adaptive,
		logger:     logger,
	}
}

// Register mounts all routes on the given echo instance.
func (a *API) Register(e *echo.Echo) {
	e.GET("/healthz", a.health)

	e.POST("/vocabulary/update", a.reviewCard)
	e.GET("/vocabulary/due", a.dueCards)
	e.POST("/vocabulary/add", a.addCards)
	e.GET("/vocabulary/stats", a.vocabularyStats)
	e.GET("/vocabulary/cards", a.listCards)
	e.POST("/vocabulary/session/start", a.startSession)
	e.POST("/vocabulary/session/complete", a.completeSession)

	e.GET("/adaptive/profile", a.profile)
	e.POST("/adaptive/profile/update", a.completeQuest)
	e.POST("/adaptive/performance", a.recordPerformance)
	e.GET("/adaptive/performance/history", a.performanceHistory)
	e.GET("/adaptive/recommendations", a.recommendations)
	e.GET("/adaptive/goal/daily", a.dailyGoal)

	e.GET("/quests", a.listQuests)
}

func (a *API) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// userIDParam reads the userId query parameter. Validation of the value
// itself happens in the usecases.
func userIDParam(c echo.Context) int64 {
	id, _ := strconv.ParseInt(c.QueryParam("userId"), 10, 64)
	return id
}

func intParam(c echo.Context, name string) int {
	v, _ := strconv.Atoi(c.QueryParam(name))
	return v
}
