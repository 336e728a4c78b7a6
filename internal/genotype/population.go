package genotype

import (
	"fmt"
	"math/rand"
)

// Random builds a genotype with every locus drawn uniformly from the four values.
func Random(rng *rand.Rand, length int) (*Genotype, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidArgument)
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: gene length must be > 0, got %d", ErrInvalidArgument, length)
	}
	gene := make([]Locus, length)
	for i := range gene {
		gene[i] = Locus(rng.Intn(4))
	}
	return &Genotype{gene: gene}, nil
}

// RandomPopulation returns count independent random genotypes of the given length.
func RandomPopulation(rng *rand.Rand, count, length int) ([]*Genotype, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: population count must be > 0, got %d", ErrInvalidArgument, count)
	}
	population := make([]*Genotype, 0, count)
	for i := 0; i < count; i++ {
		g, err := Random(rng, length)
		if err != nil {
			return nil, err
		}
		population = append(population, g)
	}
	return population, nil
}
