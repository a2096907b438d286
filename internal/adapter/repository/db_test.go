package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eslsoft/explorespeak/internal/entity"
)

func TestCefrLevelOrDefault(t *testing.T) {
	cases := []struct {
		raw  string
		want entity.CEFRLevel
	}{
		{"B2", entity.LevelB2},
		{"c1", entity.LevelC1},
		{" a2 ", entity.LevelA2},
		{"", entity.LevelA1},
		{"Z9", entity.LevelA1},
		{"beginner", entity.LevelA1},
	}
	for _, c := range cases {
		if got := cefrLevelOrDefault(c.raw); got != c.want {
			t.Fatalf("cefrLevelOrDefault(%q) = %s, want %s", c.raw, got, c.want)
		}
	}
}

func TestTranslateCardError(t *testing.T) {
	if err := translateCardError(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := translateCardError(pgx.ErrNoRows); !errors.Is(err, entity.ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
	dup := &pgconn.PgError{Code: uniqueViolation}
	if err := translateCardError(dup); !errors.Is(err, entity.ErrDuplicateCard) {
		t.Fatalf("expected ErrDuplicateCard, got %v", err)
	}
	boom := errors.New("boom")
	if err := translateCardError(boom); !errors.Is(err, boom) {
		t.Fatalf("expected passthrough, got %v", err)
	}
}
