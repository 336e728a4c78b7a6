// Package fitness assigns scores to genotypes. Functions only read the gene;
// callers store the result with Genotype.SetFitness.
package fitness

import (
	"context"
	"fmt"

	"locusga/internal/genotype"
)

type Function interface {
	Name() string
	Evaluate(ctx context.Context, g *genotype.Genotype) (genotype.Fitness, error)
}

// OneMax counts set bits across all loci.
type OneMax struct{}

func (OneMax) Name() string {
	return "onemax"
}

func (OneMax) Evaluate(_ context.Context, g *genotype.Genotype) (genotype.Fitness, error) {
	ones := 0
	for i := 0; i < g.Len(); i++ {
		ones += g.At(i).Ones()
	}
	return genotype.Fitness{Score: float64(ones)}, nil
}

// LeadingOnes counts the (1,1) loci before the first other value.
type LeadingOnes struct{}

func (LeadingOnes) Name() string {
	return "leading-ones"
}

func (LeadingOnes) Evaluate(_ context.Context, g *genotype.Genotype) (genotype.Fitness, error) {
	n := 0
	for ; n < g.Len(); n++ {
		if g.At(n) != genotype.L11 {
			break
		}
	}
	return genotype.Fitness{Score: float64(n)}, nil
}

// Target scores closeness to a reference gene: Score is the negated Hamming
// distance, so a perfect match scores 0.
type Target struct {
	Gene []genotype.Locus
}

// TargetName is the configuration key for Target. Target needs a reference
// gene, so it is built with NewTarget instead of resolved from the registry.
const TargetName = "target"

// NewTarget builds a Target from a bit string in Genotype.String form.
func NewTarget(gene string) (Target, error) {
	g, err := genotype.Parse(gene)
	if err != nil {
		return Target{}, fmt.Errorf("target gene: %w", err)
	}
	return Target{Gene: g.Gene()}, nil
}

func (Target) Name() string {
	return TargetName
}

func (t Target) Evaluate(_ context.Context, g *genotype.Genotype) (genotype.Fitness, error) {
	d, err := genotype.Distance(t.Gene, g.Gene())
	if err != nil {
		return genotype.Fitness{}, fmt.Errorf("target fitness: %w", err)
	}
	return genotype.Fitness{Score: -float64(d)}, nil
}

// Trap is a deceptive per-locus trap: (1,1) scores 3, otherwise each zero bit
// scores 1, so the local gradient points away from the optimum.
type Trap struct{}

func (Trap) Name() string {
	return "trap"
}

func (Trap) Evaluate(_ context.Context, g *genotype.Genotype) (genotype.Fitness, error) {
	score := 0
	objectives := make([]float64, g.Len())
	for i := 0; i < g.Len(); i++ {
		l := g.At(i)
		v := 2 - l.Ones()
		if l == genotype.L11 {
			v = 3
		}
		objectives[i] = float64(v)
		score += v
	}
	return genotype.Fitness{Score: float64(score), Objectives: objectives}, nil
}
