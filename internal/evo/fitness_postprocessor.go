package evo

import (
	"fmt"

	"locusga/internal/genotype"
)

// FitnessPostprocessor adjusts fitness values after evaluation and before
// ranking/selection.
type FitnessPostprocessor interface {
	Name() string
	Process(scored []ScoredGenotype) []ScoredGenotype
}

// NewFitnessPostprocessor resolves a configured postprocessor.
func NewFitnessPostprocessor(method string, radius int) (FitnessPostprocessor, error) {
	switch method {
	case "", "none":
		return NoopFitnessPostprocessor{}, nil
	case "sharing":
		if radius <= 0 {
			return nil, fmt.Errorf("%w: sharing radius must be > 0, got %d", genotype.ErrInvalidArgument, radius)
		}
		return SharingPostprocessor{Radius: radius}, nil
	default:
		return nil, fmt.Errorf("%w: fitness postprocessor %q", genotype.ErrUnsupportedOperation, method)
	}
}

type NoopFitnessPostprocessor struct{}

func (NoopFitnessPostprocessor) Name() string {
	return "none"
}

func (NoopFitnessPostprocessor) Process(scored []ScoredGenotype) []ScoredGenotype {
	return cloneScored(scored)
}

// SharingPostprocessor divides each fitness by its niche count, using a
// triangular kernel over locus distance: neighbours closer than Radius loci
// share fitness. When any score is negative, all scores are first shifted so
// the lowest is 0; dividing a negative score would reward crowding.
type SharingPostprocessor struct {
	Radius int
}

func (SharingPostprocessor) Name() string {
	return "sharing"
}

func (p SharingPostprocessor) Process(scored []ScoredGenotype) []ScoredGenotype {
	out := cloneScored(scored)
	if p.Radius <= 0 {
		return out
	}
	offset := 0.0
	genes := make([][]genotype.Locus, len(scored))
	for i := range scored {
		genes[i] = scored[i].Genotype.Gene()
		if scored[i].Fitness < -offset {
			offset = -scored[i].Fitness
		}
	}
	for i := range out {
		niche := 0.0
		for j := range genes {
			d, err := genotype.Distance(genes[i], genes[j])
			if err != nil || d >= p.Radius {
				continue
			}
			niche += 1 - float64(d)/float64(p.Radius)
		}
		// niche >= 1 because every genotype shares with itself.
		out[i].Fitness = (scored[i].Fitness + offset) / niche
	}
	return out
}

func cloneScored(scored []ScoredGenotype) []ScoredGenotype {
	out := make([]ScoredGenotype, len(scored))
	copy(out, scored)
	return out
}
