package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/eslsoft/explorespeak/internal/entity"
	"github.com/eslsoft/explorespeak/internal/repository"
	"github.com/eslsoft/explorespeak/internal/usecase"
)

type cardResponse struct {
	ID                    int64      `json:"id"`
	QuestID               string     `json:"questId,omitempty"`
	Word                  string     `json:"word"`
	Translation           string     `json:"translation"`
	Language              string     `json:"language"`
	EaseFactor            float64    `json:"easeFactor"`
	IntervalDays          int32      `json:"intervalDays"`
	Repetitions           int32      `json:"repetitions"`
	NextReviewAt          time.Time  `json:"nextReviewAt"`
	LastReviewAt          *time.Time `json:"lastReviewAt,omitempty"`
	CorrectCount          int32      `json:"correctCount"`
	IncorrectCount        int32      `json:"incorrectCount"`
	AverageResponseTimeMs int32      `json:"averageResponseTimeMs"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

func toCardResponse(card *entity.VocabularyCard) cardResponse {
	resp := cardResponse{
		ID:                    card.ID,
		QuestID:               card.QuestID,
		Word:                  card.Word,
		Translation:           card.Translation,
		Language:              card.Language.Code(),
		EaseFactor:            card.Review.EaseFactor,
		IntervalDays:          card.Review.IntervalDays,
		Repetitions:           card.Review.Repetitions,
		NextReviewAt:          card.Review.NextReviewAt,
		CorrectCount:          card.Stats.CorrectCount,
		IncorrectCount:        card.Stats.IncorrectCount,
		AverageResponseTimeMs: card.Stats.AverageResponseTimeMs,
		CreatedAt:             card.CreatedAt,
		UpdatedAt:             card.UpdatedAt,
	}
	if !card.Review.LastReviewAt.IsZero() {
		last := card.Review.LastReviewAt
		resp.LastReviewAt = &last
	}
	return resp
}

type reviewCardRequest struct {
	UserID         int64 `json:"userId"`
	CardID         int64 `json:"cardId"`
	Quality        int32 `json:"quality"`
	ResponseTimeMs int32 `json:"responseTimeMs"`
}

type reviewCardResponse struct {
	Card    cardResponse `json:"card"`
	Message string       `json:"message"`
}

// POST /vocabulary/update
func (a *API) reviewCard(c echo.Context) error {
	var req reviewCardRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	outcome, err := a.vocabulary.ReviewCard(c.Request().Context(), req.UserID, req.CardID, req.Quality, req.ResponseTimeMs)
	if err != nil {
		a.logger.WithError(err).WithField("card_id", req.CardID).Warn("review card failed")
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, reviewCardResponse{
		Card:    toCardResponse(outcome.Card),
		Message: outcome.Message,
	})
}

type dueCardsResponse struct {
	Cards       []cardResponse `json:"cards"`
	TotalDue    int            `json:"totalDue"`
	NewCards    int            `json:"newCards"`
	ReviewCards int            `json:"reviewCards"`
	Recommended int            `json:"recommendedReviewCount"`
}

// GET /vocabulary/due
func (a *API) dueCards(c echo.Context) error {
	summary, err := a.vocabulary.DueCards(c.Request().Context(), userIDParam(c), entity.ParseLanguage(c.QueryParam("language")))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, dueCardsResponse{
		Cards: lo.Map(summary.Cards, func(card entity.VocabularyCard, _ int) cardResponse {
			return toCardResponse(&card)
		}),
		TotalDue:    summary.TotalDue,
		NewCards:    summary.NewCards,
		ReviewCards: summary.ReviewCards,
		Recommended: summary.Recommended,
	})
}

type vocabularyEntryRequest struct {
	Word            string `json:"word"`
	Translation     string `json:"translation"`
	ExampleSentence string `json:"exampleSentence"`
}

type addCardsRequest struct {
	UserID     int64                    `json:"userId"`
	QuestID    string                   `json:"questId"`
	Language   string                   `json:"language"`
	Vocabulary []vocabularyEntryRequest `json:"vocabulary"`
}

type addCardsResponse struct {
	CardsAdded int `json:"cardsAdded"`
}

// POST /vocabulary/add
func (a *API) addCards(c echo.Context) error {
	var req addCardsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	entries := lo.Map(req.Vocabulary, func(e vocabularyEntryRequest, _ int) entity.VocabularyEntry {
		return entity.VocabularyEntry{
			Word:            e.Word,
			Translation:     e.Translation,
			ExampleSentence: e.ExampleSentence,
		}
	})

	count, err := a.vocabulary.AwardCards(c.Request().Context(), req.UserID, req.QuestID, entity.ParseLanguage(req.Language), entries)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, addCardsResponse{CardsAdded: count})
}

type vocabularyStatsResponse struct {
	TotalCards       int   `json:"totalCards"`
	MasteredCards    int   `json:"masteredCards"`
	LearningCards    int   `json:"learningCards"`
	NewCards         int   `json:"newCards"`
	DueToday         int   `json:"dueToday"`
	AverageRetention int32 `json:"averageRetention"`
}

// GET /vocabulary/stats
func (a *API) vocabularyStats(c echo.Context) error {
	stats, err := a.vocabulary.Stats(c.Request().Context(), userIDParam(c), entity.ParseLanguage(c.QueryParam("language")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, vocabularyStatsResponse{
		TotalCards:       stats.TotalCards,
		MasteredCards:    stats.MasteredCards,
		LearningCards:    stats.LearningCards,
		NewCards:         stats.NewCards,
		DueToday:         stats.DueToday,
		AverageRetention: stats.AverageRetention,
	})
}

type listCardsResponse struct {
	Cards []cardResponse `json:"cards"`
	Total int64          `json:"total"`
}

// GET /vocabulary/cards
func (a *API) listCards(c echo.Context) error {
	query := &repository.ListCardQuery{
		Pagination: repository.Pagination{
			PageNo:   int32(intParam(c, "pageNo")),
			PageSize: int32(intParam(c, "pageSize")),
		},
		FilterOrder: repository.FilterOrder{
			Filter:  c.QueryParam("filter"),
			OrderBy: c.QueryParam("orderBy"),
		},
		UserID: userIDParam(c),
	}
	if query.PageNo <= 0 {
		query.PageNo = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 50
	}

	cards, total, err := a.vocabulary.ListCards(c.Request().Context(), query)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, listCardsResponse{
		Cards: lo.Map(cards, func(card entity.VocabularyCard, _ int) cardResponse {
			return toCardResponse(&card)
		}),
		Total: total,
	})
}

type startSessionRequest struct {
	UserID   int64  `json:"userId"`
	Language string `json:"language"`
}

type sessionResponse struct {
	ID                    int64      `json:"id"`
	UserID                int64      `json:"userId"`
	Language              string     `json:"language"`
	StartedAt             time.Time  `json:"startedAt"`
	CompletedAt           *time.Time `json:"completedAt,omitempty"`
	CardsReviewed         int32      `json:"cardsReviewed"`
	CardsCorrect          int32      `json:"cardsCorrect"`
	CardsIncorrect        int32      `json:"cardsIncorrect"`
	AverageResponseTimeMs int32      `json:"averageResponseTimeMs"`
	DurationSeconds       int32      `json:"durationSeconds"`
}

func toSessionResponse(session *entity.ReviewSession) sessionResponse {
	resp := sessionResponse{
		ID:                    session.ID,
		UserID:                session.UserID,
		Language:              session.Language.Code(),
		StartedAt:             session.StartedAt,
		CardsReviewed:         session.CardsReviewed,
		CardsCorrect:          session.CardsCorrect,
		CardsIncorrect:        session.CardsIncorrect,
		AverageResponseTimeMs: session.AverageResponseTimeMs,
		DurationSeconds:       session.DurationSeconds,
	}
	if !session.CompletedAt.IsZero() {
		completed := session.CompletedAt
		resp.CompletedAt = &completed
	}
	return resp
}

// POST /vocabulary/session/start
func (a *API) startSession(c echo.Context) error {
	var req startSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	session, err := a.vocabulary.StartSession(c.Request().Context(), req.UserID, entity.ParseLanguage(req.Language))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toSessionResponse(session))
}

type completeSessionRequest struct {
	UserID                int64 `json:"userId"`
	SessionID             int64 `json:"sessionId"`
	CardsReviewed         int32 `json:"cardsReviewed"`
	CardsCorrect          int32 `json:"cardsCorrect"`
	CardsIncorrect        int32 `json:"cardsIncorrect"`
	AverageResponseTimeMs int32 `json:"averageResponseTimeMs"`
	DurationSeconds       int32 `json:"durationSeconds"`
}

// POST /vocabulary/session/complete
func (a *API) completeSession(c echo.Context) error {
	var req completeSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	session, err := a.vocabulary.CompleteSession(c.Request().Context(), req.UserID, req.SessionID, usecase.SessionSummary{
		CardsReviewed:         req.CardsReviewed,
		CardsCorrect:          req.CardsCorrect,
		CardsIncorrect:        req.CardsIncorrect,
		AverageResponseTimeMs: req.AverageResponseTimeMs,
		DurationSeconds:       req.DurationSeconds,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(session))
}
