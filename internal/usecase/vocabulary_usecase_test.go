package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eslsoft/explorespeak/internal/entity"
	"github.com/eslsoft/explorespeak/internal/repository"
)

var fixedNow = time.Date(2025, 3, 18, 12, 0, 0, 0, time.UTC)

type fakeCardRepo struct {
	mu    sync.RWMutex
	seq   int64
	items map[int64]*entity.VocabularyCard
}

func newFakeCardRepo() *fakeCardRepo {
	return &fakeCardRepo{items: make(map[int64]*entity.VocabularyCard)}
}

func cloneCard(card *entity.VocabularyCard) *entity.VocabularyCard {
	copy := *card
	return &copy
}

func (r *fakeCardRepo) Create(ctx context.Context, card *entity.VocabularyCard) (*entity.VocabularyCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	copy := cloneCard(card)
	copy.ID = r.seq
	r.items[copy.ID] = copy
	return cloneCard(copy), nil
}

func (r *fakeCardRepo) CreateBatch(ctx context.Context, cards []entity.VocabularyCard) (int, error) {
	for i := range cards {
		if _, err := r.Create(ctx, &cards[i]); err != nil {
			return i, err
		}
	}
	return len(cards), nil
}

func (r *fakeCardRepo) Update(ctx context.Context, card *entity.VocabularyCard, expectedUpdatedAt time.Time) (*entity.VocabularyCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[card.ID]
	if !ok || existing.UserID != card.UserID {
		return nil, entity.ErrCardNotFound
	}
	if !existing.UpdatedAt.Equal(expectedUpdatedAt) {
		return nil, entity.ErrCardConflict
	}
	copy := cloneCard(card)
	r.items[copy.ID] = copy
	return cloneCard(copy), nil
}

func (r *fakeCardRepo) GetByID(ctx context.Context, userID, id int64) (*entity.VocabularyCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return nil, entity.ErrCardNotFound
	}
	return cloneCard(item), nil
}

func (r *fakeCardRepo) FindByWord(ctx context.Context, userID int64, language entity.Language, word string) (*entity.VocabularyCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.UserID == userID && item.Language == language && entity.NormalizeWordToken(item.Word) == entity.NormalizeWordToken(word) {
			return cloneCard(item), nil
		}
	}
	return nil, nil
}

func (r *fakeCardRepo) ListByLanguage(ctx context.Context, userID int64, language entity.Language) ([]entity.VocabularyCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var cards []entity.VocabularyCard
	for id := int64(1); id <= r.seq; id++ {
		item, ok := r.items[id]
		if ok && item.UserID == userID && item.Language == language {
			cards = append(cards, *cloneCard(item))
		}
	}
	return cards, nil
}

func (r *fakeCardRepo) List(ctx context.Context, query *repository.ListCardQuery) ([]entity.VocabularyCard, int64, error) {
	if query == nil {
		return nil, 0, errors.New("list query required")
	}
	cards, err := r.ListByLanguage(ctx, query.UserID, entity.LanguageEnglish)
	return cards, int64(len(cards)), err
}

type fakeSessionRepo struct {
	mu    sync.RWMutex
	seq   int64
	items map[int64]*entity.ReviewSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{items: make(map[int64]*entity.ReviewSession)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.ReviewSession) (*entity.ReviewSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	copy := *session
	copy.ID = r.seq
	r.items[copy.ID] = &copy
	out := copy
	return &out, nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, userID, id int64) (*entity.ReviewSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return nil, entity.ErrSessionNotFound
	}
	copy := *item
	return &copy, nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.ReviewSession) (*entity.ReviewSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[session.ID]; !ok {
		return nil, entity.ErrSessionNotFound
	}
	copy := *session
	r.items[copy.ID] = &copy
	out := copy
	return &out, nil
}

func newVocabularyFixture() (*vocabularyUsecase, *fakeCardRepo, *fakeSessionRepo) {
	cards := newFakeCardRepo()
	sessions := newFakeSessionRepo()
	uc := NewVocabularyUsecase(cards, sessions).(*vocabularyUsecase)
	uc.clock = func() time.Time { return fixedNow }
	return uc, cards, sessions
}

func seedCard(t *testing.T, cards *fakeCardRepo, card entity.VocabularyCard) *entity.VocabularyCard {
	t.Helper()
	created, err := cards.Create(context.Background(), &card)
	if err != nil {
		t.Fatalf("seed card: %v", err)
	}
	return created
}

func TestReviewCardSuccess(t *testing.T) {
	uc, cards, _ := newVocabularyFixture()
	created := seedCard(t, cards, entity.VocabularyCard{
		UserID:   1,
		Word:     "hola",
		Language: entity.LanguageSpanish,
		Review:   entity.ReviewState{EaseFactor: 2.5, NextReviewAt: fixedNow},
	})

	outcome, err := uc.ReviewCard(context.Background(), 1, created.ID, 5, 1200)
	if err != nil {
		t.Fatalf("ReviewCard: %v", err)
	}

	card := outcome.Card
	if card.Review.IntervalDays != 1 || card.Review.Repetitions != 1 {
		t.Fatalf("unexpected schedule: interval=%d repetitions=%d", card.Review.IntervalDays, card.Review.Repetitions)
	}
	if card.Review.EaseFactor < 2.59 || card.Review.EaseFactor > 2.61 {
		t.Fatalf("unexpected ease factor: %v", card.Review.EaseFactor)
	}
	if got, want := card.Review.NextReviewAt, fixedNow.AddDate(0, 0, 1); !got.Equal(want) {
		t.Fatalf("next review = %v, want %v", got, want)
	}
	if card.Stats.CorrectCount != 1 || card.Stats.IncorrectCount != 0 {
		t.Fatalf("unexpected counters: %+v", card.Stats)
	}
	if card.Stats.AverageResponseTimeMs != 1200 {
		t.Fatalf("unexpected avg response time: %d", card.Stats.AverageResponseTimeMs)
	}
	if outcome.Message != "Great job! Card scheduled for review." {
		t.Fatalf("unexpected message: %q", outcome.Message)
	}
}

func TestReviewCardLapse(t *testing.T) {
	uc, cards, _ := newVocabularyFixture()
	created := seedCard(t, cards, entity.VocabularyCard{
		UserID: 1,
		Word:   "hola",
		Review: entity.ReviewState{EaseFactor: 2.5, IntervalDays: 12, Repetitions: 4},
		Stats:  entity.CardStats{CorrectCount: 4, AverageResponseTimeMs: 2000},
	})

	outcome, err := uc.ReviewCard(context.Background(), 1, created.ID, 2, 4000)
	if err != nil {
		t.Fatalf("ReviewCard: %v", err)
	}

	card := outcome.Card
	if card.Review.Repetitions != 0 || card.Review.IntervalDays != 1 {
		t.Fatalf("lapse did not reset: %+v", card.Review)
	}
	if card.Stats.IncorrectCount != 1 || card.Stats.CorrectCount != 4 {
		t.Fatalf("unexpected counters: %+v", card.Stats)
	}
	if card.Stats.AverageResponseTimeMs != 2400 {
		t.Fatalf("unexpected avg response time: %d", card.Stats.AverageResponseTimeMs)
	}
	if outcome.Message != "Keep practicing! Card will be reviewed again soon." {
		t.Fatalf("unexpected message: %q", outcome.Message)
	}
}

func TestReviewCardInvalidQualityLeavesCardUntouched(t *testing.T) {
	uc, cards, _ := newVocabularyFixture()
	created := seedCard(t, cards, entity.VocabularyCard{
		UserID: 1,
		Word:   "hola",
		Review: entity.ReviewState{EaseFactor: 2.5, IntervalDays: 6, Repetitions: 2},
	})

	if _, err := uc.ReviewCard(context.Background(), 1, created.ID, 9, 1000); !errors.Is(err, entity.ErrInvalidQuality) {
		t.Fatalf("expected ErrInvalidQuality, got %v", err)
	}

	stored, err := cards.GetByID(context.Background(), 1, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Review.IntervalDays != 6 || stored.Review.Repetitions != 2 {
		t.Fatalf("card mutated on invalid input: %+v", stored.Review)
	}
}

func TestReviewCardNotFound(t *testing.T) {
	uc, _, _ := newVocabularyFixture()

	if _, err := uc.ReviewCard(context.Background(), 1, 99, 4, 1000); !errors.Is(err, entity.ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}

func TestDueCardsSplitsBuckets(t *testing.T) {
	uc, cards, _ := newVocabularyFixture()
	seedCard(t, cards, entity.VocabularyCard{
		UserID: 1, Word: "uno", Language: entity.LanguageSpanish,
		Review: entity.ReviewState{EaseFactor: 2.5, NextReviewAt: fixedNow.Add(-time.Hour)},
	})
	seedCard(t, cards, entity.VocabularyCard{
		UserID: 1, Word: "dos", Language: entity.LanguageSpanish,
		Review: entity.ReviewState{EaseFactor: 2.5, Repetitions: 3, NextReviewAt: fixedNow.Add(-time.Minute)},
	})
	seedCard(t, cards, entity.VocabularyCard{
		UserID: 1, Word: "tres", Language: entity.LanguageSpanish,
		Review: entity.ReviewState{EaseFactor: 2.5, Repetitions: 1, NextReviewAt: fixedNow.AddDate(0, 0, 3)},
	})

	summary, err := uc.DueCards(context.Background(), 1, entity.LanguageSpanish)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}

	if summary.TotalDue != 2 || summary.NewCards != 1 || summary.ReviewCards != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	// Small deck floor applies.
	if summary.Recommended != 10 {
		t.Fatalf("recommended = %d, want 10", summary.Recommended)
	}
}

func TestAwardCardsCreatesDueImmediately(t *testing.T) {
	uc, cards, _ := newVocabularyFixture()

	count, err := uc.AwardCards(context.Background(), 1, "market-day", entity.LanguageSpanish, []entity.VocabularyEntry{
		{Word: "manzana", Translation: "apple"},
		{Word: "  ", Translation: "dropped"},
		{Word: "pan", Translation: "bread"},
	})
	if err != nil {
		t.Fatalf("AwardCards: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	card, err := cards.FindByWord(context.Background(), 1, entity.LanguageSpanish, "manzana")
	if err != nil || card == nil {
		t.Fatalf("FindByWord: card=%v err=%v", card, err)
	}
	if card.Review.Repetitions != 0 || card.Review.IntervalDays != 0 {
		t.Fatalf("new card has review history: %+v", card.Review)
	}
	if !card.Review.NextReviewAt.Equal(fixedNow) {
		t.Fatalf("new card not due immediately: %v", card.Review.NextReviewAt)
	}
	if card.Review.EaseFactor != entity.DefaultEaseFactor {
		t.Fatalf("unexpected ease factor: %v", card.Review.EaseFactor)
	}
}

func TestAwardCardsRejectsEmptyBatch(t *testing.T) {
	uc, _, _ := newVocabularyFixture()

	if _, err := uc.AwardCards(context.Background(), 1, "q", entity.LanguageSpanish, nil); !errors.Is(err, entity.ErrInvalidCardWord) {
		t.Fatalf("expected ErrInvalidCardWord, got %v", err)
	}
}

func TestStats(t *testing.T) {
	uc, cards, _ := newVocabularyFixture()
	seedCard(t, cards, entity.VocabularyCard{
		UserID: 1, Word: "uno", Language: entity.LanguageSpanish,
		Review: entity.ReviewState{EaseFactor: 2.5, NextReviewAt: fixedNow},
		Stats:  entity.CardStats{CorrectCount: 3, IncorrectCount: 1},
	})
	seedCard(t, cards, entity.VocabularyCard{
		UserID: 1, Word: "dos", Language: entity.LanguageSpanish,
		Review: entity.ReviewState{EaseFactor: 2.5, Repetitions: 2, NextReviewAt: fixedNow.AddDate(0, 0, 4)},
		Stats:  entity.CardStats{CorrectCount: 2},
	})
	seedCard(t, cards, entity.VocabularyCard{
		UserID: 1, Word: "tres", Language: entity.LanguageSpanish,
		Review: entity.ReviewState{EaseFactor: 2.5, Repetitions: 6, NextReviewAt: fixedNow.AddDate(0, 0, 30)},
		Stats:  entity.CardStats{CorrectCount: 6},
	})

	stats, err := uc.Stats(context.Background(), 1, entity.LanguageSpanish)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.TotalCards != 3 || stats.NewCards != 1 || stats.LearningCards != 1 || stats.MasteredCards != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.DueToday != 1 {
		t.Fatalf("due today = %d, want 1", stats.DueToday)
	}
	// 11 correct of 12 attempts.
	if stats.AverageRetention != 92 {
		t.Fatalf("retention = %d, want 92", stats.AverageRetention)
	}
}

func TestSessionLifecycle(t *testing.T) {
	uc, _, sessions := newVocabularyFixture()

	started, err := uc.StartSession(context.Background(), 1, entity.LanguageSpanish)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if !started.StartedAt.Equal(fixedNow) {
		t.Fatalf("unexpected start time: %v", started.StartedAt)
	}

	completed, err := uc.CompleteSession(context.Background(), 1, started.ID, SessionSummary{
		CardsReviewed:   10,
		CardsCorrect:    8,
		CardsIncorrect:  2,
		DurationSeconds: 300,
	})
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	if completed.CardsReviewed != 10 || completed.CardsCorrect != 8 {
		t.Fatalf("unexpected session: %+v", completed)
	}

	stored, err := sessions.GetByID(context.Background(), 1, started.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.CompletedAt.IsZero() {
		t.Fatal("session not marked complete")
	}
}
