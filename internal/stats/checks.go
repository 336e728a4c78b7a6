// Package stats verifies the statistical contracts of the genetic operators
// by running many seeded trials and comparing empirical frequencies against
// fixed tolerance bands.
package stats

import (
	"context"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"locusga/internal/genotype"
)

type Property string

const (
	PropertyUniform  Property = "uniform"
	PropertyOnePoint Property = "one-point"
	PropertyMutation Property = "mutation"
)

// Properties lists every check in the order RunChecks executes them.
var Properties = []Property{PropertyUniform, PropertyOnePoint, PropertyMutation}

func ParseProperty(name string) (Property, error) {
	for _, p := range Properties {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: property %q", genotype.ErrUnsupportedOperation, name)
}

type CheckConfig struct {
	Length  int
	Trials  int
	Workers int
	Seed    int64
	// Rate and Mode apply to the mutation check only.
	Rate float64
	Mode genotype.MutationMode
}

// Report is the outcome of one property check. Failures holds one line per
// violated bound.
type Report struct {
	Property Property
	Passed   bool
	Length   int
	Trials   int
	Metrics  map[string]float64
	Failures []string
}

func (r *Report) fail(format string, args ...any) {
	r.Passed = false
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

type recombineFunc func(self, other *genotype.Genotype, rng *rand.Rand) (*genotype.Genotype, error)

type mutateFunc func(parent *genotype.Genotype, rng *rand.Rand) (*genotype.Genotype, error)

func recombineWith(method genotype.RecombinationMethod) recombineFunc {
	return func(self, other *genotype.Genotype, rng *rand.Rand) (*genotype.Genotype, error) {
		return self.Recombine(other, method, rng)
	}
}

// RunChecks executes the requested properties, or all of them when none are given.
func RunChecks(ctx context.Context, cfg CheckConfig, properties ...Property) ([]Report, error) {
	if len(properties) == 0 {
		properties = Properties
	}
	reports := make([]Report, 0, len(properties))
	for _, p := range properties {
		var (
			report Report
			err    error
		)
		switch p {
		case PropertyUniform:
			report, err = CheckUniformRecombination(ctx, cfg)
		case PropertyOnePoint:
			report, err = CheckOnePointCrossover(ctx, cfg)
		case PropertyMutation:
			report, err = CheckMutationBias(ctx, cfg)
		default:
			err = fmt.Errorf("%w: property %q", genotype.ErrUnsupportedOperation, p)
		}
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// CheckUniformRecombination crosses an all-(1,1) parent with an all-(0,0)
// parent, swapping receiver and argument at random. Each locus must be (1,1)
// with frequency in (0.4, 0.6) and fewer than a tenth of the children may
// have a (1,1) share outside [0.2, 0.8].
func CheckUniformRecombination(ctx context.Context, cfg CheckConfig) (Report, error) {
	return checkUniform(ctx, cfg, recombineWith(genotype.Uniform))
}

// CheckOnePointCrossover requires exactly one crossover point per child, never
// at index 0, with every position's hit count within ±40% of the expected
// count and fewer than length/20 positions outside ±20%.
func CheckOnePointCrossover(ctx context.Context, cfg CheckConfig) (Report, error) {
	return checkOnePoint(ctx, cfg, recombineWith(genotype.OnePointCrossover))
}

// CheckMutationBias mutates fresh random genotypes and requires every
// locus's change count within ±20% of the per-locus average for all but
// length/20 loci, and at least one change overall.
func CheckMutationBias(ctx context.Context, cfg CheckConfig) (Report, error) {
	mode := cfg.Mode
	if mode == 0 {
		mode = genotype.Resample
	}
	return checkMutation(ctx, cfg, func(parent *genotype.Genotype, rng *rand.Rand) (*genotype.Genotype, error) {
		return parent.Mutate(cfg.Rate, mode, rng)
	})
}

func checkUniform(ctx context.Context, cfg CheckConfig, recombine recombineFunc) (Report, error) {
	if err := validate(cfg, 1); err != nil {
		return Report{}, err
	}
	ones, zeroes, err := extremalParents(cfg.Length)
	if err != nil {
		return Report{}, err
	}

	type tally struct {
		hits        []int
		outOfBounds int
	}
	shards, err := runShards(ctx, cfg, func() *tally {
		return &tally{hits: make([]int, cfg.Length)}
	}, func(t *tally, rng *rand.Rand) error {
		self, other := ones, zeroes
		if rng.Intn(2) == 1 {
			self, other = zeroes, ones
		}
		child, err := recombine(self, other, rng)
		if err != nil {
			return err
		}
		numOnes := 0
		for i := 0; i < child.Len(); i++ {
			if child.At(i) == genotype.L11 {
				numOnes++
				t.hits[i]++
			}
		}
		ratio := float64(numOnes) / float64(cfg.Length)
		if ratio < 0.2 || ratio > 0.8 {
			t.outOfBounds++
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	hits := make([]int, cfg.Length)
	outOfBounds := 0
	for _, t := range shards {
		addInto(hits, t.hits)
		outOfBounds += t.outOfBounds
	}

	report := newReport(PropertyUniform, cfg)
	if outOfBounds >= cfg.Trials/10 {
		report.fail("%d of %d children have a (1,1) share outside [0.2, 0.8]", outOfBounds, cfg.Trials)
	}
	minFreq, maxFreq := 1.0, 0.0
	for i, hit := range hits {
		freq := float64(hit) / float64(cfg.Trials)
		minFreq = min(minFreq, freq)
		maxFreq = max(maxFreq, freq)
		if freq <= 0.4 || freq >= 0.6 {
			report.fail("locus %d is (1,1) with frequency %.4f, outside (0.4, 0.6)", i, freq)
		}
	}
	report.Metrics["out_of_bounds_fraction"] = float64(outOfBounds) / float64(cfg.Trials)
	report.Metrics["min_locus_frequency"] = minFreq
	report.Metrics["max_locus_frequency"] = maxFreq
	return report, nil
}

func checkOnePoint(ctx context.Context, cfg CheckConfig, recombine recombineFunc) (Report, error) {
	if err := validate(cfg, 2); err != nil {
		return Report{}, err
	}
	ones, zeroes, err := extremalParents(cfg.Length)
	if err != nil {
		return Report{}, err
	}

	type tally struct {
		hits       []int
		multiPoint int
	}
	shards, err := runShards(ctx, cfg, func() *tally {
		return &tally{hits: make([]int, cfg.Length)}
	}, func(t *tally, rng *rand.Rand) error {
		self, other := ones, zeroes
		if rng.Intn(2) == 1 {
			self, other = zeroes, ones
		}
		child, err := recombine(self, other, rng)
		if err != nil {
			return err
		}
		points := genotype.CrossPoints(child.Gene())
		if len(points) != 1 {
			t.multiPoint++
			return nil
		}
		t.hits[points[0]]++
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	hits := make([]int, cfg.Length)
	multiPoint := 0
	for _, t := range shards {
		addInto(hits, t.hits)
		multiPoint += t.multiPoint
	}

	report := newReport(PropertyOnePoint, cfg)
	if multiPoint > 0 {
		report.fail("%d children did not have exactly one crossover point", multiPoint)
	}
	// Index 0 can never be reported by CrossPoints; a child equal to one
	// parent shows up in multiPoint instead.
	expected := float64(cfg.Trials-multiPoint) / float64(cfg.Length-1)
	if expected == 0 {
		return report, nil
	}
	outOfBounds := 0
	maxDeviation := 0.0
	for point := 1; point < cfg.Length; point++ {
		hit := float64(hits[point])
		deviation := (hit - expected) / expected
		if deviation < 0 {
			deviation = -deviation
		}
		maxDeviation = max(maxDeviation, deviation)
		if deviation >= 0.4 {
			report.fail("point %d hit %.0f times, expected %.1f ±40%%", point, hit, expected)
		}
		if deviation > 0.2 {
			outOfBounds++
		}
	}
	if float64(outOfBounds) >= float64(cfg.Length)/20 {
		report.fail("%d of %d points outside ±20%% of expected", outOfBounds, cfg.Length-1)
	}
	report.Metrics["expected_hits"] = expected
	report.Metrics["max_relative_deviation"] = maxDeviation
	report.Metrics["points_outside_20pct"] = float64(outOfBounds)
	return report, nil
}

func checkMutation(ctx context.Context, cfg CheckConfig, mutate mutateFunc) (Report, error) {
	if err := validate(cfg, 1); err != nil {
		return Report{}, err
	}
	if cfg.Rate < 0 || cfg.Rate > 1 {
		return Report{}, fmt.Errorf("%w: mutation rate must be in [0,1], got %v", genotype.ErrInvalidArgument, cfg.Rate)
	}

	type tally struct {
		hits []int
	}
	shards, err := runShards(ctx, cfg, func() *tally {
		return &tally{hits: make([]int, cfg.Length)}
	}, func(t *tally, rng *rand.Rand) error {
		parent, err := genotype.Random(rng, cfg.Length)
		if err != nil {
			return err
		}
		child, err := mutate(parent, rng)
		if err != nil {
			return err
		}
		for i := 0; i < cfg.Length; i++ {
			if parent.At(i) != child.At(i) {
				t.hits[i]++
			}
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	hits := make([]int, cfg.Length)
	for _, t := range shards {
		addInto(hits, t.hits)
	}
	total := 0
	for _, h := range hits {
		total += h
	}

	report := newReport(PropertyMutation, cfg)
	average := float64(total) / float64(cfg.Length)
	if total == 0 && cfg.Rate > 0 {
		report.fail("no locus mutated in %d trials", cfg.Trials)
	}
	outOfBounds := 0
	for _, h := range hits {
		if float64(h) > average*1.2 || float64(h) < average*0.8 {
			outOfBounds++
		}
	}
	if float64(outOfBounds) >= float64(cfg.Length)/20 {
		report.fail("%d of %d loci mutate outside ±20%% of the average %.1f", outOfBounds, cfg.Length, average)
	}
	report.Metrics["observed_rate"] = average / float64(cfg.Trials)
	report.Metrics["average_changes_per_locus"] = average
	report.Metrics["loci_outside_20pct"] = float64(outOfBounds)
	return report, nil
}

// runShards splits cfg.Trials across cfg.Workers goroutines. Shard seeds are
// drawn up front from cfg.Seed, so results depend only on Seed and Workers.
func runShards[T any](ctx context.Context, cfg CheckConfig, newTally func() *T, trial func(*T, *rand.Rand) error) ([]*T, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > cfg.Trials {
		workers = cfg.Trials
	}

	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, workers)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	tallies := make([]*T, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		n := cfg.Trials / workers
		if w < cfg.Trials%workers {
			n++
		}
		tallies[w] = newTally()
		w := w
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seeds[w]))
			for i := 0; i < n; i++ {
				if i%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				if err := trial(tallies[w], rng); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tallies, nil
}

func validate(cfg CheckConfig, minLength int) error {
	if cfg.Length < minLength {
		return fmt.Errorf("%w: length must be >= %d, got %d", genotype.ErrInvalidArgument, minLength, cfg.Length)
	}
	if cfg.Trials <= 0 {
		return fmt.Errorf("%w: trials must be > 0, got %d", genotype.ErrInvalidArgument, cfg.Trials)
	}
	return nil
}

func extremalParents(length int) (*genotype.Genotype, *genotype.Genotype, error) {
	ones, err := genotype.Filled(length, genotype.L11)
	if err != nil {
		return nil, nil, err
	}
	zeroes, err := genotype.Filled(length, genotype.L00)
	if err != nil {
		return nil, nil, err
	}
	return ones, zeroes, nil
}

func newReport(p Property, cfg CheckConfig) Report {
	return Report{
		Property: p,
		Passed:   true,
		Length:   cfg.Length,
		Trials:   cfg.Trials,
		Metrics:  map[string]float64{},
	}
}

func addInto(dst, src []int) {
	for i := range src {
		dst[i] += src[i]
	}
}
