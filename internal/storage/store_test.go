package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"locusga/internal/genotype"
	"locusga/internal/model"
)

func newTestStores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	memory := NewMemoryStore()
	require.NoError(t, memory.Init(ctx))

	sqlite := NewSQLiteStore(filepath.Join(t.TempDir(), "locusga.db"))
	require.NoError(t, sqlite.Init(ctx))
	t.Cleanup(func() {
		_ = sqlite.Close()
	})

	return map[string]Store{"memory": memory, "sqlite": sqlite}
}

func testRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord:      CurrentVersion(),
		ID:                   id,
		CreatedAtUTC:         createdAt,
		Seed:                 42,
		Population:           20,
		Generations:          10,
		Length:               16,
		Fitness:              "onemax",
		Selection:            "tournament",
		Recombination:        genotype.OnePointCrossover,
		MutationRate:         0.05,
		MutationMode:         genotype.BitFlip,
		CompletedGenerations: 10,
		FinalBestFitness:     31,
	}
}

func TestStoreRunRoundTrip(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			run := testRun("run-1", "2026-01-01T00:00:00Z")
			require.NoError(t, store.SaveRun(ctx, run))

			loaded, ok, err := store.GetRun(ctx, run.ID)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, run, loaded)

			_, ok, err = store.GetRun(ctx, "missing")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStoreListRunsNewestFirst(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.SaveRun(ctx, testRun("old", "2026-01-01T00:00:00Z")))
			require.NoError(t, store.SaveRun(ctx, testRun("new", "2026-02-01T00:00:00Z")))

			runs, err := store.ListRuns(ctx)
			require.NoError(t, err)
			require.Len(t, runs, 2)
			require.Equal(t, "new", runs[0].ID)
			require.Equal(t, "old", runs[1].ID)
		})
	}
}

func TestStoreGenerationsAndDelete(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			run := testRun("run-g", "2026-03-01T00:00:00Z")
			require.NoError(t, store.SaveRun(ctx, run))

			generations := []model.GenerationSummary{
				{Generation: 1, BestFitness: 20, MeanFitness: 15, WorstFitness: 9, Diversity: 0.6},
				{Generation: 2, BestFitness: 24, MeanFitness: 18, WorstFitness: 12, Diversity: 0.5},
			}
			require.NoError(t, store.SaveGenerations(ctx, run.ID, generations))

			loaded, ok, err := store.GetGenerations(ctx, run.ID)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, generations, loaded)

			require.NoError(t, store.DeleteRun(ctx, run.ID))
			_, ok, err = store.GetRun(ctx, run.ID)
			require.NoError(t, err)
			require.False(t, ok)
			_, ok, err = store.GetGenerations(ctx, run.ID)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	require.Error(t, store.SaveRun(context.Background(), testRun("x", "")))
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))
	_, _, err := store.GetRun(context.Background(), "x")
	require.Error(t, err)
}
