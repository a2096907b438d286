package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/eslsoft/explorespeak/internal/entity"
	"github.com/eslsoft/explorespeak/internal/repository"
	"github.com/eslsoft/explorespeak/pkg/filterexpr"
)

type PerformanceRepository struct {
	db DB
}

// NewPerformanceRepository constructs a pgx-backed performance record store.
func NewPerformanceRepository(db DB) repository.PerformanceRepository {
	return &PerformanceRepository{db: db}
}

const performanceColumns = `id, user_id, quest_id, language, score,
	time_spent_minutes, difficulty, topics_covered, completed_at`

type listPerformanceParams struct {
	QuestID        string
	ScoreMin       float64
	ScoreMax       float64
	CompletedAfter time.Time
	PrimaryKey     string
	PrimaryDesc    bool
	SecondaryKey   string
	SecondaryDesc  bool
}

func (r *PerformanceRepository) Create(ctx context.Context, record *entity.PerformanceRecord) (*entity.PerformanceRecord, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO performance_records (
			user_id, quest_id, language, score,
			time_spent_minutes, difficulty, topics_covered, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+performanceColumns,
		record.UserID,
		record.QuestID,
		record.Language.Code(),
		record.Score,
		record.TimeSpentMinutes,
		record.Difficulty,
		record.TopicsCovered,
		record.CompletedAt,
	)

	created, err := scanPerformance(row)
	if err != nil {
		return nil, fmt.Errorf("create performance record: %w", err)
	}
	return created, nil
}

func (r *PerformanceRepository) ListRecent(ctx context.Context, query *repository.ListPerformanceQuery) ([]entity.PerformanceRecord, error) {
	params := listPerformanceParams{ScoreMin: -1, ScoreMax: -1}
	if err := filterexpr.Bind(query, &params, listPerformanceSchema); err != nil {
		return nil, err
	}

	clauses := []string{"user_id = $1", "language = $2"}
	args := []any{query.UserID, entity.NormalizeLanguage(query.Language).Code()}

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if params.QuestID != "" {
		add("quest_id = $%d", params.QuestID)
	}
	if params.ScoreMin >= 0 {
		add("score >= $%d", params.ScoreMin)
	}
	if params.ScoreMax >= 0 {
		add("score <= $%d", params.ScoreMax)
	}
	if !params.CompletedAfter.IsZero() {
		add("completed_at >= $%d", params.CompletedAfter)
	}

	sql := `SELECT ` + performanceColumns + ` FROM performance_records WHERE ` +
		strings.Join(clauses, " AND ") +
		orderClause(listPerformanceSchema.Order, params.PrimaryKey, params.PrimaryDesc, params.SecondaryKey, params.SecondaryDesc)

	if query.Limit > 0 {
		args = append(args, query.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list performance records: %w", err)
	}
	defer rows.Close()

	var records []entity.PerformanceRecord
	for rows.Next() {
		record, err := scanPerformance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan performance record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate performance records: %w", err)
	}
	return records, nil
}

func scanPerformance(row pgx.Row) (*entity.PerformanceRecord, error) {
	var (
		record   entity.PerformanceRecord
		language string
	)
	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.QuestID,
		&language,
		&record.Score,
		&record.TimeSpentMinutes,
		&record.Difficulty,
		&record.TopicsCovered,
		&record.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Language = entity.ParseLanguage(language)
	return &record, nil
}
