package evo

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"locusga/internal/fitness"
	"locusga/internal/genotype"
	"locusga/internal/logging"
	"locusga/internal/model"
)

type MonitorConfig struct {
	Fitness        fitness.Function
	Breeder        Breeder
	Selector       Selector
	Postprocessor  FitnessPostprocessor
	PopulationSize int
	EliteCount     int
	Generations    int
	Workers        int
	Seed           int64
	// FitnessGoal stops the run once the best raw fitness reaches it.
	FitnessGoal *float64
	Logger      *zap.Logger
}

type RunResult struct {
	Generations     []model.GenerationSummary
	Best            ScoredGenotype
	GoalReached     bool
	FinalPopulation []ScoredGenotype
}

// BestByGeneration returns the best fitness of each evaluated generation.
func (r RunResult) BestByGeneration() []float64 {
	out := make([]float64, len(r.Generations))
	for i, g := range r.Generations {
		out[i] = g.BestFitness
	}
	return out
}

// PopulationMonitor drives the generational loop: evaluate, rank, keep the
// elite, breed the rest.
type PopulationMonitor struct {
	cfg    MonitorConfig
	rng    *rand.Rand
	logger *zap.Logger
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if cfg.Fitness == nil {
		return nil, fmt.Errorf("fitness function is required")
	}
	if cfg.PopulationSize < 2 {
		return nil, fmt.Errorf("population size must be >= 2")
	}
	if cfg.EliteCount < 0 || cfg.EliteCount >= cfg.PopulationSize {
		return nil, fmt.Errorf("elite count must be in [0, population size)")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Selector == nil {
		cfg.Selector = TournamentSelector{}
	}
	if cfg.Postprocessor == nil {
		cfg.Postprocessor = NoopFitnessPostprocessor{}
	}

	return &PopulationMonitor{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		logger: logging.OrNop(cfg.Logger),
	}, nil
}

// Run evolves initial for up to cfg.Generations generations. The initial
// genotypes receive fitness values; their genes are never modified.
func (m *PopulationMonitor) Run(ctx context.Context, initial []*genotype.Genotype) (RunResult, error) {
	if len(initial) != m.cfg.PopulationSize {
		return RunResult{}, fmt.Errorf("initial population mismatch: got=%d want=%d", len(initial), m.cfg.PopulationSize)
	}

	population := make([]*genotype.Genotype, len(initial))
	copy(population, initial)

	summaries := make([]model.GenerationSummary, 0, m.cfg.Generations)
	var (
		ranked []ScoredGenotype
		best   ScoredGenotype
	)
	for gen := 1; gen <= m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		raw, err := m.evaluatePopulation(ctx, population)
		if err != nil {
			return RunResult{}, err
		}
		best = bestOf(raw)
		ranked = m.cfg.Postprocessor.Process(raw)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Fitness > ranked[j].Fitness
		})

		summary := summarizeGeneration(raw, best, gen)
		summaries = append(summaries, summary)
		m.logger.Debug("generation evaluated",
			zap.Int("generation", gen),
			zap.Float64("best", summary.BestFitness),
			zap.Float64("mean", summary.MeanFitness),
			zap.Float64("diversity", summary.Diversity))

		if m.cfg.FitnessGoal != nil && best.Fitness >= *m.cfg.FitnessGoal {
			m.logger.Info("fitness goal reached",
				zap.Int("generation", gen),
				zap.Float64("best", best.Fitness))
			return RunResult{Generations: summaries, Best: best, GoalReached: true, FinalPopulation: ranked}, nil
		}
		if gen == m.cfg.Generations {
			break
		}

		population, err = m.nextGeneration(ctx, ranked)
		if err != nil {
			return RunResult{}, err
		}
	}

	m.logger.Info("run finished",
		zap.Int("generations", len(summaries)),
		zap.Float64("best", best.Fitness))
	return RunResult{Generations: summaries, Best: best, FinalPopulation: ranked}, nil
}

// evaluatePopulation scores every genotype lacking a fitness, then returns
// the population in its original order.
func (m *PopulationMonitor) evaluatePopulation(ctx context.Context, population []*genotype.Genotype) ([]ScoredGenotype, error) {
	scored := make([]ScoredGenotype, len(population))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Workers)
	for i, candidate := range population {
		i, candidate := i, candidate
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, ok := candidate.Fitness()
			if !ok {
				var err error
				f, err = m.cfg.Fitness.Evaluate(gctx, candidate)
				if err != nil {
					return fmt.Errorf("evaluate %s: %w", m.cfg.Fitness.Name(), err)
				}
				candidate.SetFitness(f)
			}
			scored[i] = ScoredGenotype{Genotype: candidate, Fitness: f.Score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scored, nil
}

// nextGeneration carries the elite over unchanged and breeds the remainder.
// Each child draws from its own source seeded from the monitor's generator,
// so the result does not depend on worker count or scheduling.
func (m *PopulationMonitor) nextGeneration(ctx context.Context, ranked []ScoredGenotype) ([]*genotype.Genotype, error) {
	next := make([]*genotype.Genotype, m.cfg.PopulationSize)
	for i := 0; i < m.cfg.EliteCount; i++ {
		next[i] = ranked[i].Genotype
	}

	seeds := make([]int64, m.cfg.PopulationSize)
	for i := m.cfg.EliteCount; i < m.cfg.PopulationSize; i++ {
		seeds[i] = m.rng.Int63()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Workers)
	for i := m.cfg.EliteCount; i < m.cfg.PopulationSize; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			first, err := m.cfg.Selector.PickParent(rng, ranked)
			if err != nil {
				return err
			}
			second, err := m.cfg.Selector.PickParent(rng, ranked)
			if err != nil {
				return err
			}
			child, err := m.cfg.Breeder.Breed(gctx, rng, first, second)
			if err != nil {
				return err
			}
			next[i] = child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}

func bestOf(scored []ScoredGenotype) ScoredGenotype {
	best := scored[0]
	for _, s := range scored[1:] {
		if s.Fitness > best.Fitness {
			best = s
		}
	}
	return best
}

func summarizeGeneration(scored []ScoredGenotype, best ScoredGenotype, generation int) model.GenerationSummary {
	summary := model.GenerationSummary{
		Generation:   generation,
		BestFitness:  best.Fitness,
		WorstFitness: best.Fitness,
	}
	bestGene := best.Genotype.Gene()
	total := 0.0
	distance := 0.0
	for _, s := range scored {
		total += s.Fitness
		if s.Fitness < summary.WorstFitness {
			summary.WorstFitness = s.Fitness
		}
		if d, err := genotype.Distance(bestGene, s.Genotype.Gene()); err == nil {
			distance += float64(d)
		}
	}
	summary.MeanFitness = total / float64(len(scored))
	summary.Diversity = distance / float64(len(scored)) / float64(len(bestGene))
	return summary
}
