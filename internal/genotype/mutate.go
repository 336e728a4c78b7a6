package genotype

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// MutationMode selects how a chosen locus is replaced. Every mode guarantees
// the replacement differs from the original value.
type MutationMode int

const (
	// Resample replaces the locus with one of the three other values, uniformly.
	Resample MutationMode = iota + 1
	// BitFlip flips exactly one of the two bits, chosen uniformly.
	BitFlip
)

var MutationModes = []MutationMode{Resample, BitFlip}

func (m MutationMode) String() string {
	switch m {
	case Resample:
		return "resample"
	case BitFlip:
		return "bit-flip"
	default:
		return fmt.Sprintf("MutationMode(%d)", int(m))
	}
}

// ParseMutationMode maps a configuration key to a mode. The empty key
// selects Resample.
func ParseMutationMode(name string) (MutationMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "resample":
		return Resample, nil
	case "bit-flip", "bitflip":
		return BitFlip, nil
	default:
		return 0, fmt.Errorf("%w: mutation mode %q", ErrUnsupportedOperation, name)
	}
}

func (m MutationMode) MarshalText() ([]byte, error) {
	switch m {
	case Resample, BitFlip:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("%w: mutation mode %d", ErrUnsupportedOperation, int(m))
	}
}

func (m *MutationMode) UnmarshalText(text []byte) error {
	parsed, err := ParseMutationMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Mutate returns a child in which each locus independently changes with
// probability rate. The receiver is not modified and the child is unevaluated.
// As with Recombine, rng must not be shared between goroutines.
func (g *Genotype) Mutate(rate float64, mode MutationMode, rng *rand.Rand) (*Genotype, error) {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return nil, fmt.Errorf("%w: mutation rate must be in [0,1], got %v", ErrInvalidArgument, rate)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidArgument)
	}

	var replace func(Locus, *rand.Rand) Locus
	switch mode {
	case Resample:
		replace = resampleLocus
	case BitFlip:
		replace = flipOneBit
	default:
		return nil, fmt.Errorf("%w: mutation mode %s", ErrUnsupportedOperation, mode)
	}

	child := make([]Locus, len(g.gene))
	for i, l := range g.gene {
		if rng.Float64() < rate {
			child[i] = replace(l, rng)
			continue
		}
		child[i] = l
	}
	return &Genotype{gene: child}, nil
}

// resampleLocus XORs with a non-zero mask, which maps l onto each of the
// three other values with equal probability.
func resampleLocus(l Locus, rng *rand.Rand) Locus {
	return l ^ Locus(1+rng.Intn(3))
}

func flipOneBit(l Locus, rng *rand.Rand) Locus {
	return l ^ Locus(1<<rng.Intn(2))
}
