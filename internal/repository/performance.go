package repository

import (
	"context"

	"github.com/eslsoft/explorespeak/internal/entity"
)

// ListPerformanceQuery holds parameters for reading performance history.
type ListPerformanceQuery struct {
	FilterOrder

	UserID   int64
	Language entity.Language
	Limit    int32
}

// PerformanceRepository is the append-only store of quest attempt records.
type PerformanceRepository interface {
	Create(ctx context.Context, record *entity.PerformanceRecord) (*entity.PerformanceRecord, error)
	// ListRecent returns up to limit records, most recent first.
	ListRecent(ctx context.Context, query *ListPerformanceQuery) ([]entity.PerformanceRecord, error)
}
