package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/eslsoft/explorespeak/internal/entity"
	"github.com/eslsoft/explorespeak/internal/repository"
	"github.com/eslsoft/explorespeak/pkg/filterexpr"
)

type CardRepository struct {
	db DB
}

// NewCardRepository constructs a pgx-backed vocabulary card repository.
func NewCardRepository(db DB) repository.CardRepository {
	return &CardRepository{db: db}
}

const cardColumns = `id, user_id, quest_id, word, translation, language,
	ease_factor, interval_days, repetitions, next_review_at, last_review_at,
	correct_count, incorrect_count, avg_response_time_ms, created_at, updated_at`

type listCardsParams struct {
	Language      string
	WordPrefix    string
	Words         []string
	DueBefore     time.Time
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

func (r *CardRepository) Create(ctx context.Context, card *entity.VocabularyCard) (*entity.VocabularyCard, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO vocabulary_cards (
			user_id, quest_id, word, normalized, translation, language,
			ease_factor, interval_days, repetitions, next_review_at, last_review_at,
			correct_count, incorrect_count, avg_response_time_ms, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+cardColumns,
		card.UserID,
		card.QuestID,
		card.Word,
		entity.NormalizeWordToken(card.Word),
		card.Translation,
		card.Language.Code(),
		card.Review.EaseFactor,
		card.Review.IntervalDays,
		card.Review.Repetitions,
		card.Review.NextReviewAt,
		nullableTime(card.Review.LastReviewAt),
		card.Stats.CorrectCount,
		card.Stats.IncorrectCount,
		card.Stats.AverageResponseTimeMs,
		card.CreatedAt,
		card.UpdatedAt,
	)

	created, err := scanCard(row)
	if err != nil {
		return nil, translateCardError(err)
	}
	return created, nil
}

// CreateBatch inserts cards in one round trip. Duplicate words are skipped
// so re-completing a quest does not fail the whole award.
func (r *CardRepository) CreateBatch(ctx context.Context, cards []entity.VocabularyCard) (int, error) {
	batch := &pgx.Batch{}
	for i := range cards {
		card := &cards[i]
		batch.Queue(`
			INSERT INTO vocabulary_cards (
				user_id, quest_id, word, normalized, translation, language,
				ease_factor, interval_days, repetitions, next_review_at, last_review_at,
				correct_count, incorrect_count, avg_response_time_ms, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (user_id, language, normalized) DO NOTHING`,
			card.UserID,
			card.QuestID,
			card.Word,
			entity.NormalizeWordToken(card.Word),
			card.Translation,
			card.Language.Code(),
			card.Review.EaseFactor,
			card.Review.IntervalDays,
			card.Review.Repetitions,
			card.Review.NextReviewAt,
			nullableTime(card.Review.LastReviewAt),
			card.Stats.CorrectCount,
			card.Stats.IncorrectCount,
			card.Stats.AverageResponseTimeMs,
			card.CreatedAt,
			card.UpdatedAt,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range cards {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("batch insert cards: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Update writes the full card back, guarded by the previously loaded
// updated_at so a concurrent review of the same card surfaces as
// ErrCardConflict.
func (r *CardRepository) Update(ctx context.Context, card *entity.VocabularyCard, expectedUpdatedAt time.Time) (*entity.VocabularyCard, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE vocabulary_cards SET
			word = $4,
			normalized = $5,
			translation = $6,
			ease_factor = $7,
			interval_days = $8,
			repetitions = $9,
			next_review_at = $10,
			last_review_at = $11,
			correct_count = $12,
			incorrect_count = $13,
			avg_response_time_ms = $14,
			updated_at = $15
		WHERE id = $1 AND user_id = $2 AND updated_at = $3
		RETURNING `+cardColumns,
		card.ID,
		card.UserID,
		expectedUpdatedAt,
		card.Word,
		entity.NormalizeWordToken(card.Word),
		card.Translation,
		card.Review.EaseFactor,
		card.Review.IntervalDays,
		card.Review.Repetitions,
		card.Review.NextReviewAt,
		nullableTime(card.Review.LastReviewAt),
		card.Stats.CorrectCount,
		card.Stats.IncorrectCount,
		card.Stats.AverageResponseTimeMs,
		card.UpdatedAt,
	)

	updated, err := scanCard(row)
	if err == nil {
		return updated, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing card from a stale guard.
		if _, getErr := r.GetByID(ctx, card.UserID, card.ID); getErr != nil {
			return nil, getErr
		}
		return nil, entity.ErrCardConflict
	}
	return nil, translateCardError(err)
}

func (r *CardRepository) GetByID(ctx context.Context, userID, id int64) (*entity.VocabularyCard, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+cardColumns+` FROM vocabulary_cards WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	card, err := scanCard(row)
	if err != nil {
		return nil, translateCardError(err)
	}
	return card, nil
}

func (r *CardRepository) FindByWord(ctx context.Context, userID int64, language entity.Language, word string) (*entity.VocabularyCard, error) {
	normalized := entity.NormalizeWordToken(word)
	if normalized == "" {
		return nil, nil
	}

	row := r.db.QueryRow(ctx,
		`SELECT `+cardColumns+` FROM vocabulary_cards
		 WHERE user_id = $1 AND language = $2 AND normalized = $3`,
		userID, entity.NormalizeLanguage(language).Code(), normalized,
	)
	card, err := scanCard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find card by word: %w", err)
	}
	return card, nil
}

func (r *CardRepository) ListByLanguage(ctx context.Context, userID int64, language entity.Language) ([]entity.VocabularyCard, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+cardColumns+` FROM vocabulary_cards
		 WHERE user_id = $1 AND language = $2
		 ORDER BY next_review_at, id`,
		userID, entity.NormalizeLanguage(language).Code(),
	)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

func (r *CardRepository) List(ctx context.Context, query *repository.ListCardQuery) ([]entity.VocabularyCard, int64, error) {
	var params listCardsParams
	if err := filterexpr.Bind(query, &params, listCardsSchema); err != nil {
		return nil, 0, err
	}

	where, args := buildCardFilters(query.UserID, params)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM vocabulary_cards`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cards: %w", err)
	}

	sql := `SELECT ` + cardColumns + ` FROM vocabulary_cards` + where +
		orderClause(listCardsSchema.Order, params.PrimaryKey, params.PrimaryDesc, params.SecondaryKey, params.SecondaryDesc)

	if query.PageSize > 0 {
		args = append(args, query.PageSize)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset := query.Offset(); offset > 0 {
		args = append(args, offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards, err := collectCards(rows)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

func buildCardFilters(userID int64, params listCardsParams) (string, []any) {
	clauses := []string{"user_id = $1"}
	args := []any{userID}

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if params.Language != "" {
		add("language = $%d", entity.NormalizeLanguage(entity.ParseLanguage(params.Language)).Code())
	}
	if params.WordPrefix != "" {
		add("normalized LIKE $%d", entity.NormalizeWordToken(params.WordPrefix)+"%")
	}
	if len(params.Words) > 0 {
		normalized := make([]string, 0, len(params.Words))
		for _, word := range params.Words {
			if token := entity.NormalizeWordToken(word); token != "" {
				normalized = append(normalized, token)
			}
		}
		add("normalized = ANY($%d)", normalized)
	}
	if !params.DueBefore.IsZero() {
		add("next_review_at <= $%d", params.DueBefore)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func orderClause(schema filterexpr.OrderSchema, primaryKey string, primaryDesc bool, secondaryKey string, secondaryDesc bool) string {
	var terms []string
	for _, term := range []struct {
		key  string
		desc bool
	}{
		{primaryKey, primaryDesc},
		{secondaryKey, secondaryDesc},
	} {
		field, ok := schema.Fields[term.key]
		if !ok {
			continue
		}
		expr := field.Expr
		if term.desc {
			expr += " DESC"
		}
		if field.Nulls != "" {
			expr += " NULLS " + strings.ToUpper(field.Nulls)
		}
		terms = append(terms, expr)
	}
	if len(terms) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

func scanCard(row pgx.Row) (*entity.VocabularyCard, error) {
	var (
		card         entity.VocabularyCard
		language     string
		lastReviewAt pgtype.Timestamptz
	)
	err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.QuestID,
		&card.Word,
		&card.Translation,
		&language,
		&card.Review.EaseFactor,
		&card.Review.IntervalDays,
		&card.Review.Repetitions,
		&card.Review.NextReviewAt,
		&lastReviewAt,
		&card.Stats.CorrectCount,
		&card.Stats.IncorrectCount,
		&card.Stats.AverageResponseTimeMs,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	card.Language = entity.ParseLanguage(language)
	if lastReviewAt.Valid {
		card.Review.LastReviewAt = lastReviewAt.Time
	}
	return &card, nil
}

func collectCards(rows pgx.Rows) ([]entity.VocabularyCard, error) {
	var cards []entity.VocabularyCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

func nullableTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}
