package evo

import (
	"context"
	"fmt"
	"math/rand"

	"locusga/internal/genotype"
)

// Operator produces a child from one or more parents. Parents are read-only.
type Operator interface {
	Name() string
	Apply(ctx context.Context, rng *rand.Rand, parents ...*genotype.Genotype) (*genotype.Genotype, error)
}

// Recombination wraps Genotype.Recombine; it needs exactly two parents.
type Recombination struct {
	Method genotype.RecombinationMethod
}

func (o Recombination) Name() string {
	return "recombine(" + o.Method.String() + ")"
}

func (o Recombination) Apply(_ context.Context, rng *rand.Rand, parents ...*genotype.Genotype) (*genotype.Genotype, error) {
	if len(parents) != 2 {
		return nil, fmt.Errorf("%w: recombination needs 2 parents, got %d", genotype.ErrInvalidArgument, len(parents))
	}
	return parents[0].Recombine(parents[1], o.Method, rng)
}

// Mutation wraps Genotype.Mutate; it needs exactly one parent.
type Mutation struct {
	Rate float64
	Mode genotype.MutationMode
}

func (o Mutation) Name() string {
	return fmt.Sprintf("mutate(%s,%g)", o.Mode, o.Rate)
}

func (o Mutation) Apply(_ context.Context, rng *rand.Rand, parents ...*genotype.Genotype) (*genotype.Genotype, error) {
	if len(parents) != 1 {
		return nil, fmt.Errorf("%w: mutation needs 1 parent, got %d", genotype.ErrInvalidArgument, len(parents))
	}
	return parents[0].Mutate(o.Rate, o.Mode, rng)
}

// Breeder recombines two parents and mutates the result.
type Breeder struct {
	Recombination Recombination
	Mutation      Mutation
}

func (b Breeder) Breed(ctx context.Context, rng *rand.Rand, first, second *genotype.Genotype) (*genotype.Genotype, error) {
	child, err := b.Recombination.Apply(ctx, rng, first, second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Recombination.Name(), err)
	}
	mutated, err := b.Mutation.Apply(ctx, rng, child)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Mutation.Name(), err)
	}
	return mutated, nil
}
