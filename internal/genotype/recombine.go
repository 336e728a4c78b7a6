package genotype

import (
	"fmt"
	"math/rand"
	"strings"
)

// RecombinationMethod selects a crossover strategy.
type RecombinationMethod int

const (
	// Uniform takes every locus from either parent with a fair coin.
	Uniform RecombinationMethod = iota + 1
	// OnePointCrossover splices the receiver's prefix onto the other parent's suffix.
	OnePointCrossover
)

// RecombinationMethods lists every supported method in declaration order.
var RecombinationMethods = []RecombinationMethod{Uniform, OnePointCrossover}

func (m RecombinationMethod) String() string {
	switch m {
	case Uniform:
		return "uniform"
	case OnePointCrossover:
		return "1-point crossover"
	default:
		return fmt.Sprintf("RecombinationMethod(%d)", int(m))
	}
}

// ParseRecombinationMethod maps a configuration key to a method. Unknown keys
// are an error; there is no default strategy.
func ParseRecombinationMethod(name string) (RecombinationMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "uniform":
		return Uniform, nil
	case "1-point crossover", "one-point", "1-point":
		return OnePointCrossover, nil
	default:
		return 0, fmt.Errorf("%w: recombination method %q", ErrUnsupportedOperation, name)
	}
}

func (m RecombinationMethod) MarshalText() ([]byte, error) {
	switch m {
	case Uniform, OnePointCrossover:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("%w: recombination method %d", ErrUnsupportedOperation, int(m))
	}
}

func (m *RecombinationMethod) UnmarshalText(text []byte) error {
	parsed, err := ParseRecombinationMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Recombine breeds a child from g and other. Neither parent is modified and
// the child is unevaluated. rng is not safe for concurrent use: concurrent
// callers need their own *rand.Rand per goroutine or per call.
func (g *Genotype) Recombine(other *Genotype, method RecombinationMethod, rng *rand.Rand) (*Genotype, error) {
	if other == nil {
		return nil, fmt.Errorf("%w: other parent is required", ErrInvalidArgument)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidArgument)
	}
	if len(g.gene) != len(other.gene) {
		return nil, fmt.Errorf("%w: parent lengths differ: %d != %d", ErrInvalidArgument, len(g.gene), len(other.gene))
	}

	var (
		gene []Locus
		err  error
	)
	switch method {
	case Uniform:
		gene = uniformCrossover(g.gene, other.gene, rng)
	case OnePointCrossover:
		gene, err = onePointCrossover(g.gene, other.gene, rng)
	default:
		err = fmt.Errorf("%w: recombination method %s", ErrUnsupportedOperation, method)
	}
	if err != nil {
		return nil, err
	}
	return &Genotype{gene: gene}, nil
}

func uniformCrossover(a, b []Locus, rng *rand.Rand) []Locus {
	child := make([]Locus, len(a))
	for i := range child {
		if rng.Intn(2) == 0 {
			child[i] = a[i]
		} else {
			child[i] = b[i]
		}
	}
	return child
}

// onePointCrossover draws the cut k from [1, n-1] before anything else so a
// seeded source fixes the crossover point.
func onePointCrossover(a, b []Locus, rng *rand.Rand) ([]Locus, error) {
	n := len(a)
	if n < 2 {
		return nil, fmt.Errorf("%w: 1-point crossover needs length >= 2, got %d", ErrInvalidArgument, n)
	}
	k := 1 + rng.Intn(n-1)
	return spliceAt(a, b, k), nil
}

func spliceAt(a, b []Locus, k int) []Locus {
	child := make([]Locus, len(a))
	copy(child[:k], a[:k])
	copy(child[k:], b[k:])
	return child
}

// CrossoverAt performs 1-point crossover at a caller-chosen cut k in [1, Len()-1].
func (g *Genotype) CrossoverAt(other *Genotype, k int) (*Genotype, error) {
	if other == nil {
		return nil, fmt.Errorf("%w: other parent is required", ErrInvalidArgument)
	}
	if len(g.gene) != len(other.gene) {
		return nil, fmt.Errorf("%w: parent lengths differ: %d != %d", ErrInvalidArgument, len(g.gene), len(other.gene))
	}
	if k < 1 || k >= len(g.gene) {
		return nil, fmt.Errorf("%w: crossover index %d outside [1, %d]", ErrInvalidArgument, k, len(g.gene)-1)
	}
	return &Genotype{gene: spliceAt(g.gene, other.gene, k)}, nil
}
