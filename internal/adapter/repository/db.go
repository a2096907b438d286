// Package repository provides PostgreSQL implementations of the domain
// repositories, written against the pgx query interface so they work with
// both a pool and a transaction.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eslsoft/explorespeak/internal/entity"
)

// DB is the subset of pgxpool.Pool the repositories need.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// cefrLevelOrDefault parses a stored CEFR level, falling back to A1 when the
// column holds a value outside the six-level scale.
func cefrLevelOrDefault(raw string) entity.CEFRLevel {
	if level, ok := entity.ParseCEFRLevel(raw); ok {
		return level
	}
	return entity.LevelA1
}

func translateCardError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return entity.ErrDuplicateCard
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.ErrCardNotFound
	}
	return err
}
