package stats

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"locusga/internal/genotype"
	"locusga/internal/model"
)

func TestWriteRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	artifacts := RunArtifacts{
		Run: model.RunRecord{
			ID:                   "run-123",
			Seed:                 1,
			Population:           4,
			Generations:          3,
			Length:               8,
			Fitness:              "onemax",
			Selection:            "tournament",
			Recombination:        genotype.OnePointCrossover,
			MutationRate:         0.1,
			MutationMode:         genotype.Resample,
			CompletedGenerations: 3,
			FinalBestFitness:     14,
		},
		Generations: []model.GenerationSummary{
			{Generation: 1, BestFitness: 10, MeanFitness: 8, WorstFitness: 6, Diversity: 0.5},
			{Generation: 2, BestFitness: 12, MeanFitness: 9.5, WorstFitness: 7, Diversity: 0.375},
			{Generation: 3, BestFitness: 14, MeanFitness: 11.25, WorstFitness: 9, Diversity: 0.25},
		},
	}

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	if runDir != filepath.Join(baseDir, "run-123") {
		t.Fatalf("unexpected run dir %s", runDir)
	}
	for _, file := range []string{runFile, fitnessHistoryFile, generationsFile} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}

	history, ok, err := ReadFitnessHistory(baseDir, "run-123")
	if err != nil || !ok {
		t.Fatalf("read fitness history: ok=%v err=%v", ok, err)
	}
	want := FitnessHistory{
		RunID:            "run-123",
		BestByGeneration: []float64{10, 12, 14},
		FinalBestFitness: 14,
	}
	if diff := cmp.Diff(want, history); diff != "" {
		t.Fatalf("unexpected history (-want +got):\n%s", diff)
	}

	f, err := os.Open(filepath.Join(runDir, generationsFile))
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	wantRows := [][]string{
		generationsHeader,
		{"1", "10", "8", "6", "0.5"},
		{"2", "12", "9.5", "7", "0.375"},
		{"3", "14", "11.25", "9", "0.25"},
	}
	if diff := cmp.Diff(wantRows, rows); diff != "" {
		t.Fatalf("unexpected csv (-want +got):\n%s", diff)
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
}

func TestWriteRunArtifactsStaysUnderBaseDir(t *testing.T) {
	root := t.TempDir()
	baseDir := filepath.Join(root, "exports")
	for _, id := range []string{"../escaped", "nested/run", ".", ".."} {
		if _, err := WriteRunArtifacts(baseDir, RunArtifacts{Run: model.RunRecord{ID: id}}); err == nil {
			t.Fatalf("expected run id %q to be rejected", id)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "escaped")); !os.IsNotExist(err) {
		t.Fatalf("expected nothing written outside the base dir, stat err=%v", err)
	}
}

func TestReadFitnessHistoryMissing(t *testing.T) {
	_, ok, err := ReadFitnessHistory(t.TempDir(), "absent")
	if err != nil {
		t.Fatalf("read missing history: %v", err)
	}
	if ok {
		t.Fatal("expected missing history to report ok=false")
	}
}
