package evo

import (
	"fmt"
	"math/rand"

	"locusga/internal/genotype"
)

// ScoredGenotype pairs a genotype with the fitness used for ranking.
type ScoredGenotype struct {
	Genotype *genotype.Genotype
	Fitness  float64
}

// Selector chooses a parent from a population ranked best first.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []ScoredGenotype) (*genotype.Genotype, error)
}

// NewSelector resolves a configured selection method.
func NewSelector(method string, size int) (Selector, error) {
	switch method {
	case "elite":
		return EliteSelector{Count: size}, nil
	case "tournament":
		return TournamentSelector{TournamentSize: size}, nil
	default:
		return nil, fmt.Errorf("%w: selection method %q", genotype.ErrUnsupportedOperation, method)
	}
}

// EliteSelector picks uniformly from the top Count genotypes. A non-positive
// Count uses the top half.
type EliteSelector struct {
	Count int
}

func (EliteSelector) Name() string {
	return "elite"
}

func (s EliteSelector) PickParent(rng *rand.Rand, ranked []ScoredGenotype) (*genotype.Genotype, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("ranked population is empty")
	}
	count := s.Count
	if count <= 0 {
		count = (len(ranked) + 1) / 2
	}
	if count > len(ranked) {
		count = len(ranked)
	}
	return ranked[rng.Intn(count)].Genotype, nil
}

// TournamentSelector samples TournamentSize candidates with replacement and
// picks the fittest.
type TournamentSelector struct {
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []ScoredGenotype) (*genotype.Genotype, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("ranked population is empty")
	}

	tournamentSize := s.TournamentSize
	if tournamentSize <= 0 {
		tournamentSize = 3
	}

	best := ranked[rng.Intn(len(ranked))]
	for i := 1; i < tournamentSize; i++ {
		candidate := ranked[rng.Intn(len(ranked))]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best.Genotype, nil
}
