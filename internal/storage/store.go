package storage

import (
	"context"

	"locusga/internal/model"
)

// Store persists run records and their per-generation summaries.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
	SaveGenerations(ctx context.Context, runID string, generations []model.GenerationSummary) error
	GetGenerations(ctx context.Context, runID string) ([]model.GenerationSummary, bool, error)
}
