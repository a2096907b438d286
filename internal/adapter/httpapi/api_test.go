package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/explorespeak/internal/entity"
	"github.com/eslsoft/explorespeak/internal/repository"
	"github.com/eslsoft/explorespeak/internal/usecase"
)

type stubVocabulary struct {
	reviewCard      func(ctx context.Context, userID, cardID int64, quality, responseTimeMs int32) (*usecase.ReviewOutcome, error)
	dueCards        func(ctx context.Context, userID int64, language entity.Language) (*usecase.DueCardsSummary, error)
	awardCards      func(ctx context.Context, userID int64, questID string, language entity.Language, entries []entity.VocabularyEntry) (int, error)
	stats           func(ctx context.Context, userID int64, language entity.Language) (*usecase.VocabularyStats, error)
	listCards       func(ctx context.Context, query *repository.ListCardQuery) ([]entity.VocabularyCard, int64, error)
	startSession    func(ctx context.Context, userID int64, language entity.Language) (*entity.ReviewSession, error)
	completeSession func(ctx context.Context, userID, sessionID int64, summary usecase.SessionSummary) (*entity.ReviewSession, error)
}

func (s *stubVocabulary) ReviewCard(ctx context.Context, userID, cardID int64, quality, responseTimeMs int32) (*usecase.ReviewOutcome, error) {
	return s.reviewCard(ctx, userID, cardID, quality, responseTimeMs)
}

func (s *stubVocabulary) DueCards(ctx context.Context, userID int64, language entity.Language) (*usecase.DueCardsSummary, error) {
	return s.dueCards(ctx, userID, language)
}

func (s *stubVocabulary) AwardCards(ctx context.Context, userID int64, questID string, language entity.Language, entries []entity.VocabularyEntry) (int, error) {
	return s.awardCards(ctx, userID, questID, language, entries)
}

func (s *stubVocabulary) Stats(ctx context.Context, userID int64, language entity.Language) (*usecase.VocabularyStats, error) {
	return s.stats(ctx, userID, language)
}

func (s *stubVocabulary) ListCards(ctx context.Context, query *repository.ListCardQuery) ([]entity.VocabularyCard, int64, error) {
	return s.listCards(ctx, query)
}

func (s *stubVocabulary) StartSession(ctx context.Context, userID int64, language entity.Language) (*entity.ReviewSession, error) {
	return s.startSession(ctx, userID, language)
}

func (s *stubVocabulary) CompleteSession(ctx context.Context, userID, sessionID int64, summary usecase.SessionSummary) (*entity.ReviewSession, error) {
	return s.completeSession(ctx, userID, sessionID, summary)
}

type stubAdaptive struct {
	profile           func(ctx context.Context, userID int64, language entity.Language) (*entity.LearnerProfile, error)
	recordPerformance func(ctx context.Context, record *entity.PerformanceRecord) (*entity.PerformanceRecord, error)
	completeQuest     func(ctx context.Context, input usecase.CompleteQuestInput) (*entity.LearnerProfile, error)
	recommendations   func(ctx context.Context, userID int64, language entity.Language, limit int) ([]entity.QuestRecommendation, error)
	dailyGoal         func(ctx context.Context, userID int64, language entity.Language) (entity.DailyGoal, error)
	history           func(ctx context.Context, userID int64, language entity.Language, limit int32) ([]entity.PerformanceRecord, error)
	quests            func(ctx context.Context, language entity.Language) ([]entity.Quest, error)
}

func (s *stubAdaptive) Profile(ctx context.Context, userID int64, language entity.Language) (*entity.LearnerProfile, error) {
	return s.profile(ctx, userID, language)
}

func (s *stubAdaptive) RecordPerformance(ctx context.Context, record *entity.PerformanceRecord) (*entity.PerformanceRecord, error) {
	return s.recordPerformance(ctx, record)
}

func (s *stubAdaptive) CompleteQuest(ctx context.Context, input usecase.CompleteQuestInput) (*entity.LearnerProfile, error) {
	return s.completeQuest(ctx, input)
}

func (s *stubAdaptive) Recommendations(ctx context.Context, userID int64, language entity.Language, limit int) ([]entity.QuestRecommendation, error) {
	return s.recommendations(ctx, userID, language, limit)
}

func (s *stubAdaptive) DailyGoal(ctx context.Context, userID int64, language entity.Language) (entity.DailyGoal, error) {
	return s.dailyGoal(ctx, userID, language)
}

func (s *stubAdaptive) History(ctx context.Context, userID int64, language entity.Language, limit int32) ([]entity.PerformanceRecord, error) {
	return s.history(ctx, userID, language, limit)
}

func (s *stubAdaptive) Quests(ctx context.Context, language entity.Language) ([]entity.Quest, error) {
	return s.quests(ctx, language)
}

func newTestServer(vocab usecase.VocabularyUsecase, adaptive usecase.AdaptiveUsecase) *echo.Echo {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	e := echo.New()
	NewAPI(vocab, adaptive, logger).Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestReviewCardEndpoint(t *testing.T) {
	now := time.Date(2025, 3, 18, 12, 0, 0, 0, time.UTC)
	vocab := &stubVocabulary{
		reviewCard: func(_ context.Context, userID, cardID int64, quality, responseTimeMs int32) (*usecase.ReviewOutcome, error) {
			assert.Equal(t, int64(7), userID)
			assert.Equal(t, int64(42), cardID)
			assert.Equal(t, int32(5), quality)
			assert.Equal(t, int32(1500), responseTimeMs)
			return &usecase.ReviewOutcome{
				Card: &entity.VocabularyCard{
					ID:       cardID,
					UserID:   userID,
					Word:     "hola",
					Language: entity.LanguageSpanish,
					Review: entity.ReviewState{
						EaseFactor:   2.6,
						IntervalDays: 1,
						Repetitions:  1,
						NextReviewAt: now.AddDate(0, 0, 1),
						LastReviewAt: now,
					},
				},
				Message: "Great job! Card scheduled for review.",
			}, nil
		},
	}
	e := newTestServer(vocab, &stubAdaptive{})

	rec := doJSON(t, e, http.MethodPost, "/vocabulary/update",
		`{"userId":7,"cardId":42,"quality":5,"responseTimeMs":1500}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp reviewCardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.Card.ID)
	assert.Equal(t, int32(1), resp.Card.IntervalDays)
	assert.Equal(t, "Great job! Card scheduled for review.", resp.Message)
}

func TestReviewCardEndpointErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid quality", entity.ErrInvalidQuality, http.StatusBadRequest},
		{"missing card", entity.ErrCardNotFound, http.StatusNotFound},
		{"concurrent review", entity.ErrCardConflict, http.StatusConflict},
		{"storage failure", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			vocab := &stubVocabulary{
				reviewCard: func(context.Context, int64, int64, int32, int32) (*usecase.ReviewOutcome, error) {
					return nil, tc.err
				},
			}
			e := newTestServer(vocab, &stubAdaptive{})

			rec := doJSON(t, e, http.MethodPost, "/vocabulary/update",
				`{"userId":7,"cardId":42,"quality":9}`)
			assert.Equal(t, tc.code, rec.Code)

			if tc.code == http.StatusInternalServerError {
				assert.Contains(t, rec.Body.String(), "internal server error")
				assert.NotContains(t, rec.Body.String(), "deadline")
			}
		})
	}
}

func TestDueCardsEndpoint(t *testing.T) {
	vocab := &stubVocabulary{
		dueCards: func(_ context.Context, userID int64, language entity.Language) (*usecase.DueCardsSummary, error) {
			assert.Equal(t, int64(7), userID)
			assert.Equal(t, entity.LanguageSpanish, language)
			return &usecase.DueCardsSummary{
				Cards:       []entity.VocabularyCard{{ID: 1, Word: "uno", Language: entity.LanguageSpanish}},
				TotalDue:    1,
				NewCards:    1,
				Recommended: 10,
			}, nil
		},
	}
	e := newTestServer(vocab, &stubAdaptive{})

	rec := doJSON(t, e, http.MethodGet, "/vocabulary/due?userId=7&language=es", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dueCardsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalDue)
	assert.Equal(t, 10, resp.Recommended)
	require.Len(t, resp.Cards, 1)
	assert.Equal(t, "uno", resp.Cards[0].Word)
}

func TestAddCardsEndpoint(t *testing.T) {
	vocab := &stubVocabulary{
		awardCards: func(_ context.Context, userID int64, questID string, language entity.Language, entries []entity.VocabularyEntry) (int, error) {
			assert.Equal(t, "market-day", questID)
			require.Len(t, entries, 2)
			assert.Equal(t, "manzana", entries[0].Word)
			return 2, nil
		},
	}
	e := newTestServer(vocab, &stubAdaptive{})

	rec := doJSON(t, e, http.MethodPost, "/vocabulary/add",
		`{"userId":7,"questId":"market-day","language":"es","vocabulary":[{"word":"manzana","translation":"apple"},{"word":"pan","translation":"bread"}]}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp addCardsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.CardsAdded)
}

func TestProfileEndpoint(t *testing.T) {
	adaptive := &stubAdaptive{
		profile: func(_ context.Context, userID int64, language entity.Language) (*entity.LearnerProfile, error) {
			profile := entity.NewLearnerProfile(userID, language, time.Date(2025, 3, 18, 12, 0, 0, 0, time.UTC))
			profile.WeaknessAreas = []string{"grammar"}
			return profile, nil
		},
	}
	e := newTestServer(&stubVocabulary{}, adaptive)

	rec := doJSON(t, e, http.MethodGet, "/adaptive/profile?userId=7&language=es", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp profileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "es", resp.Language)
	assert.Equal(t, "A1", resp.OverallLevel)
	assert.Equal(t, []string{"grammar"}, resp.WeaknessAreas)
	assert.Equal(t, entity.DefaultDifficulty, resp.CurrentDifficulty)
}

func TestDailyGoalEndpoint(t *testing.T) {
	adaptive := &stubAdaptive{
		dailyGoal: func(_ context.Context, userID int64, language entity.Language) (entity.DailyGoal, error) {
			return entity.DailyGoal{
				UserID:      userID,
				Language:    language,
				Date:        time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC),
				GoalType:    entity.GoalQuests,
				Target:      2,
				Description: "Complete 2 quests focusing on grammar",
			}, nil
		},
	}
	e := newTestServer(&stubVocabulary{}, adaptive)

	rec := doJSON(t, e, http.MethodGet, "/adaptive/goal/daily?userId=7&language=es", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dailyGoalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "quests", resp.GoalType)
	assert.Equal(t, "2025-03-18", resp.Date)
	assert.Equal(t, int32(2), resp.Target)
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestServer(&stubVocabulary{}, &stubAdaptive{})

	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
