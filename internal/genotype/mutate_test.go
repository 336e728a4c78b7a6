package genotype

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testMutationRate = 0.05

func TestMutateLength(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	for _, mode := range MutationModes {
		for i := 0; i < iterations; i++ {
			length := statLengthMinimum + rng.Intn(statLengthMaximum-statLengthMinimum)
			parent := mustRandomPopulation(t, rng, 1, length)[0]
			assignRandomFitness(rng, []*Genotype{parent})
			child, err := parent.Mutate(testMutationRate, mode, rng)
			if err != nil {
				t.Fatalf("%s: mutate: %v", mode, err)
			}
			if child.Len() != length {
				t.Fatalf("%s: expected length %d, got %d", mode, length, child.Len())
			}
			if _, ok := child.Fitness(); ok {
				t.Fatalf("%s: expected child to be unevaluated", mode)
			}
		}
	}
}

func TestMutateSometimesChanges(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	for i := 0; i < iterations; i++ {
		length := statLengthMinimum + rng.Intn(statLengthMaximum-statLengthMinimum)
		parent := mustRandomPopulation(t, rng, 1, length)[0]
		child, err := parent.Mutate(testMutationRate, Resample, rng)
		if err != nil {
			t.Fatalf("mutate: %v", err)
		}
		d, err := Distance(parent.Gene(), child.Gene())
		if err != nil {
			t.Fatalf("distance: %v", err)
		}
		if d > 0 {
			return
		}
	}
	t.Fatalf("no mutation observed in %d trials", iterations)
}

func TestMutateLeavesParentUnmodified(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	for i := 0; i < iterations; i++ {
		parent := mustRandomPopulation(t, rng, 1, 32)[0]
		assignRandomFitness(rng, []*Genotype{parent})
		before := parent.Clone()
		if _, err := parent.Mutate(1, Resample, rng); err != nil {
			t.Fatalf("mutate: %v", err)
		}
		if diff := snapshotDiff(before, parent); diff != "" {
			t.Fatalf("parent modified (-before +after):\n%s", diff)
		}
	}
}

func TestMutateHasNoLocusBias(t *testing.T) {
	rng := rand.New(rand.NewSource(24))
	length := statLengthMinimum + rng.Intn(statLengthMaximum-statLengthMinimum)
	hits := make([]int, length)
	for i := 0; i < statTrials; i++ {
		parent, err := Random(rng, length)
		if err != nil {
			t.Fatalf("random genotype: %v", err)
		}
		child, err := parent.Mutate(testMutationRate, Resample, rng)
		if err != nil {
			t.Fatalf("mutate: %v", err)
		}
		for j := 0; j < length; j++ {
			if parent.At(j) != child.At(j) {
				hits[j]++
			}
		}
	}

	total := 0
	for _, h := range hits {
		total += h
	}
	average := float64(total) / float64(length)
	outOfBounds := 0
	for _, h := range hits {
		if float64(h) > average*1.2 || float64(h) < average*0.8 {
			outOfBounds++
		}
	}
	if float64(outOfBounds) >= float64(length)/20 {
		t.Fatalf("per-locus mutation counts are biased: %d of %d loci outside ±20%% of %.1f", outOfBounds, length, average)
	}

	observedRate := average / float64(statTrials)
	if math.Abs(observedRate-testMutationRate) > testMutationRate*0.1 {
		t.Fatalf("observed mutation rate %.4f, expected about %.2f", observedRate, testMutationRate)
	}
}

func TestMutateRateBoundaries(t *testing.T) {
	rng := rand.New(rand.NewSource(25))
	parent := mustRandomPopulation(t, rng, 1, 50)[0]

	for _, mode := range MutationModes {
		same, err := parent.Mutate(0, mode, rng)
		if err != nil {
			t.Fatalf("%s: mutate rate 0: %v", mode, err)
		}
		if diff := cmp.Diff(parent.Gene(), same.Gene()); diff != "" {
			t.Fatalf("%s: rate 0 changed the gene (-parent +child):\n%s", mode, diff)
		}

		all, err := parent.Mutate(1, mode, rng)
		if err != nil {
			t.Fatalf("%s: mutate rate 1: %v", mode, err)
		}
		for j := 0; j < parent.Len(); j++ {
			if parent.At(j) == all.At(j) {
				t.Fatalf("%s: rate 1 left locus %d unchanged", mode, j)
			}
		}
	}
}

func TestBitFlipChangesExactlyOneBit(t *testing.T) {
	rng := rand.New(rand.NewSource(26))
	parent := mustRandomPopulation(t, rng, 1, 64)[0]
	child, err := parent.Mutate(1, BitFlip, rng)
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	for j := 0; j < parent.Len(); j++ {
		diff := parent.At(j) ^ child.At(j)
		if diff != L01 && diff != L10 {
			t.Fatalf("locus %d: %s -> %s flips more than one bit", j, parent.At(j), child.At(j))
		}
	}
}

func TestResampleReachesOtherValuesUniformly(t *testing.T) {
	rng := rand.New(rand.NewSource(27))
	parent := mustFilled(t, 100, L00)
	counts := map[Locus]int{}
	const rounds = 300
	for i := 0; i < rounds; i++ {
		child, err := parent.Mutate(1, Resample, rng)
		if err != nil {
			t.Fatalf("mutate: %v", err)
		}
		for j := 0; j < child.Len(); j++ {
			counts[child.At(j)]++
		}
	}
	if counts[L00] != 0 {
		t.Fatalf("resample kept the original value %d times", counts[L00])
	}
	expected := float64(rounds*parent.Len()) / 3
	for _, l := range []Locus{L01, L10, L11} {
		if got := float64(counts[l]); math.Abs(got-expected) > expected*0.05 {
			t.Fatalf("value %s reached %v times, expected about %.0f", l, got, expected)
		}
	}
}

func TestMutateErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(28))
	g := mustFilled(t, 10, L01)
	for _, rate := range []float64{-0.1, 1.5, math.NaN(), math.Inf(1)} {
		if _, err := g.Mutate(rate, Resample, rng); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("rate %v: expected ErrInvalidArgument, got %v", rate, err)
		}
	}
	if _, err := g.Mutate(0.5, Resample, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for nil rng, got %v", err)
	}
	if _, err := g.Mutate(0.5, MutationMode(0), rng); !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("expected ErrUnsupportedOperation for unknown mode, got %v", err)
	}
	if _, err := ParseMutationMode("gaussian"); !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("expected ErrUnsupportedOperation for unknown mode name, got %v", err)
	}
	if mode, err := ParseMutationMode(""); err != nil || mode != Resample {
		t.Fatalf("expected empty mode to select resample, got %s err=%v", mode, err)
	}
}
