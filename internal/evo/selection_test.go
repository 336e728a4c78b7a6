package evo

import (
	"errors"
	"math/rand"
	"testing"

	"locusga/internal/genotype"
)

func rankedFixture(t *testing.T) []ScoredGenotype {
	t.Helper()
	ranked := make([]ScoredGenotype, 0, 6)
	for i, l := range []genotype.Locus{genotype.L11, genotype.L10, genotype.L01, genotype.L00, genotype.L00, genotype.L00} {
		ranked = append(ranked, ScoredGenotype{Genotype: mustFilled(t, 4, l), Fitness: float64(6 - i)})
	}
	return ranked
}

func TestEliteSelectorPicksFromTop(t *testing.T) {
	ranked := rankedFixture(t)
	rng := rand.New(rand.NewSource(7))
	selector := EliteSelector{Count: 2}
	seen := map[*genotype.Genotype]int{}
	for i := 0; i < 200; i++ {
		parent, err := selector.PickParent(rng, ranked)
		if err != nil {
			t.Fatalf("pick parent: %v", err)
		}
		seen[parent]++
	}
	if len(seen) != 2 || seen[ranked[0].Genotype] == 0 || seen[ranked[1].Genotype] == 0 {
		t.Fatalf("expected picks from the top two only, got %d distinct", len(seen))
	}
}

func TestTournamentSelectorFavoursFitter(t *testing.T) {
	ranked := rankedFixture(t)
	rng := rand.New(rand.NewSource(8))
	selector := TournamentSelector{TournamentSize: 3}
	counts := map[*genotype.Genotype]int{}
	for i := 0; i < 3000; i++ {
		parent, err := selector.PickParent(rng, ranked)
		if err != nil {
			t.Fatalf("pick parent: %v", err)
		}
		counts[parent]++
	}
	if counts[ranked[0].Genotype] <= counts[ranked[len(ranked)-1].Genotype] {
		t.Fatalf("expected the fittest to win more often: best=%d worst=%d",
			counts[ranked[0].Genotype], counts[ranked[len(ranked)-1].Genotype])
	}
}

func TestSelectorValidation(t *testing.T) {
	ranked := rankedFixture(t)
	for _, selector := range []Selector{EliteSelector{}, TournamentSelector{}} {
		if _, err := selector.PickParent(nil, ranked); err == nil {
			t.Fatalf("%s: expected error for nil rng", selector.Name())
		}
		if _, err := selector.PickParent(rand.New(rand.NewSource(1)), nil); err == nil {
			t.Fatalf("%s: expected error for empty population", selector.Name())
		}
	}
	if _, err := NewSelector("roulette", 2); !errors.Is(err, genotype.ErrUnsupportedOperation) {
		t.Fatalf("expected ErrUnsupportedOperation, got %v", err)
	}
}

func TestSharingPostprocessorPenalisesCrowdingWithNegativeScores(t *testing.T) {
	crowded := mustFilled(t, 8, genotype.L11)
	loner := mustFilled(t, 8, genotype.L00)
	worst := mustFilled(t, 8, genotype.L01)
	scored := []ScoredGenotype{
		{Genotype: crowded, Fitness: -2},
		{Genotype: crowded.Clone(), Fitness: -2},
		{Genotype: loner, Fitness: -3},
		{Genotype: worst, Fitness: -6},
	}
	out := SharingPostprocessor{Radius: 4}.Process(scored)
	if out[0].Fitness != 2 || out[1].Fitness != 2 {
		t.Fatalf("expected shifted crowded fitness 2, got %v and %v", out[0].Fitness, out[1].Fitness)
	}
	if out[2].Fitness != 3 || out[3].Fitness != 0 {
		t.Fatalf("expected shifted isolated fitness 3 and 0, got %v and %v", out[2].Fitness, out[3].Fitness)
	}
	if out[2].Fitness <= out[0].Fitness {
		t.Fatal("expected crowding to be penalised for negative scores")
	}
}

func TestSharingPostprocessorPenalisesCrowding(t *testing.T) {
	crowded := mustFilled(t, 8, genotype.L11)
	loner := mustFilled(t, 8, genotype.L00)
	scored := []ScoredGenotype{
		{Genotype: crowded, Fitness: 10},
		{Genotype: crowded.Clone(), Fitness: 10},
		{Genotype: loner, Fitness: 6},
	}
	out := SharingPostprocessor{Radius: 4}.Process(scored)
	if out[0].Fitness != 5 || out[1].Fitness != 5 {
		t.Fatalf("expected crowded genotypes to share fitness, got %v and %v", out[0].Fitness, out[1].Fitness)
	}
	if out[2].Fitness != 6 {
		t.Fatalf("expected isolated genotype to keep fitness, got %v", out[2].Fitness)
	}
	if scored[0].Fitness != 10 {
		t.Fatal("expected input to stay unmodified")
	}

	if _, err := NewFitnessPostprocessor("sharing", 0); !errors.Is(err, genotype.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := NewFitnessPostprocessor("novelty", 1); !errors.Is(err, genotype.ErrUnsupportedOperation) {
		t.Fatalf("expected ErrUnsupportedOperation, got %v", err)
	}
}
