// Package locusga is the embedding API: it runs configured evolutions,
// records them in a store and exposes the operator checks.
package locusga

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"locusga/internal/config"
	"locusga/internal/evo"
	"locusga/internal/fitness"
	"locusga/internal/genotype"
	"locusga/internal/logging"
	"locusga/internal/model"
	"locusga/internal/stats"
	"locusga/internal/storage"
)

const (
	defaultExportsDir = "exports"
	defaultDBPath     = "locusga.db"
	defaultRunsLimit  = 20

	// Fixed-width so stored timestamps sort lexically.
	createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var ErrRunNotFound = errors.New("run not found")

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
	Logger     *zap.Logger
}

type Client struct {
	store      storage.Store
	logger     *zap.Logger
	exportsDir string
	now        func() time.Time

	initOnce sync.Once
	initErr  error
}

type RunRequest struct {
	// Config defaults to config.Default() when nil.
	Config *config.Config
	// Fitness overrides the registry lookup of Config.Fitness.
	Fitness fitness.Function
}

type RunSummary struct {
	RunID            string
	Generations      []model.GenerationSummary
	BestByGeneration []float64
	FinalBestFitness float64
	Best             string
	GoalReached      bool
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID                string
	CreatedAtUTC         string
	Fitness              string
	Seed                 int64
	Population           int
	Generations          int
	CompletedGenerations int
	Recombination        string
	MutationMode         string
	FinalBestFitness     float64
	GoalReached          bool
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type CheckRequest struct {
	// Properties defaults to every check.
	Properties []string
	Length     int
	Trials     int
	Workers    int
	Seed       int64
	Rate       float64
	Mode       string
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		logger:     logging.OrNop(opts.Logger),
		exportsDir: exportsDir,
		now:        time.Now,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) ensureStore(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// Run evolves a random initial population as configured and records the
// run with its per-generation summaries.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg := req.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	fn := req.Fitness
	if fn == nil {
		var err error
		fn, err = cfg.FitnessFunction()
		if err != nil {
			return RunSummary{}, err
		}
	}
	method, err := cfg.RecombinationMethod()
	if err != nil {
		return RunSummary{}, err
	}
	mode, err := cfg.MutationMode()
	if err != nil {
		return RunSummary{}, err
	}
	selector, err := evo.NewSelector(cfg.Selection.Method, cfg.Selection.Size)
	if err != nil {
		return RunSummary{}, err
	}
	postprocessor, err := evo.NewFitnessPostprocessor(cfg.Postprocessor.Method, cfg.Postprocessor.Radius)
	if err != nil {
		return RunSummary{}, err
	}

	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := c.logger.With(zap.String("run_id", runID))

	rng := rand.New(rand.NewSource(cfg.Seed))
	initial, err := genotype.RandomPopulation(rng, cfg.Population, cfg.Initialization.Length)
	if err != nil {
		return RunSummary{}, err
	}

	monitor, err := evo.NewPopulationMonitor(evo.MonitorConfig{
		Fitness: fn,
		Breeder: evo.Breeder{
			Recombination: evo.Recombination{Method: method},
			Mutation:      evo.Mutation{Rate: cfg.Mutation.Rate, Mode: mode},
		},
		Selector:       selector,
		Postprocessor:  postprocessor,
		PopulationSize: cfg.Population,
		EliteCount:     cfg.Elite,
		Generations:    cfg.Generations,
		Workers:        cfg.Workers,
		Seed:           rng.Int63(),
		FitnessGoal:    cfg.FitnessGoal,
		Logger:         logger,
	})
	if err != nil {
		return RunSummary{}, err
	}

	logger.Info("run started",
		zap.String("fitness", fn.Name()),
		zap.Int("population", cfg.Population),
		zap.Int("generations", cfg.Generations),
		zap.Int("length", cfg.Initialization.Length),
		zap.Stringer("recombination", method),
		zap.Stringer("mutation_mode", mode))
	result, err := monitor.Run(ctx, initial)
	if err != nil {
		return RunSummary{}, err
	}

	record := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              runID,
		CreatedAtUTC:    c.now().UTC().Format(createdAtLayout),
		Seed:            cfg.Seed,
		Population:      cfg.Population,
		Generations:     cfg.Generations,
		Length:          cfg.Initialization.Length,
		Fitness:         fn.Name(),
		Selection:       selector.Name(),
		Recombination:   method,
		MutationRate:    cfg.Mutation.Rate,
		MutationMode:    mode,

		CompletedGenerations: len(result.Generations),
		FinalBestFitness:     result.Best.Fitness,
		GoalReached:          result.GoalReached,
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run %s: %w", runID, err)
	}
	if err := c.store.SaveGenerations(ctx, runID, result.Generations); err != nil {
		return RunSummary{}, fmt.Errorf("save generations %s: %w", runID, err)
	}

	return RunSummary{
		RunID:            runID,
		Generations:      append([]model.GenerationSummary(nil), result.Generations...),
		BestByGeneration: result.BestByGeneration(),
		FinalBestFitness: result.Best.Fitness,
		Best:             result.Best.Genotype.String(),
		GoalReached:      result.GoalReached,
	}, nil
}

// Runs lists recorded runs, newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}

	out := make([]RunItem, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunItem{
			RunID:                r.ID,
			CreatedAtUTC:         r.CreatedAtUTC,
			Fitness:              r.Fitness,
			Seed:                 r.Seed,
			Population:           r.Population,
			Generations:          r.Generations,
			CompletedGenerations: r.CompletedGenerations,
			Recombination:        r.Recombination.String(),
			MutationMode:         r.MutationMode.String(),
			FinalBestFitness:     r.FinalBestFitness,
			GoalReached:          r.GoalReached,
		})
	}
	return out, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]model.GenerationSummary, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return history, nil
}

// Check runs the statistical operator checks.
func (c *Client) Check(ctx context.Context, req CheckRequest) ([]stats.Report, error) {
	mode, err := genotype.ParseMutationMode(req.Mode)
	if err != nil {
		return nil, err
	}
	properties := make([]stats.Property, 0, len(req.Properties))
	for _, name := range req.Properties {
		if name == "all" {
			properties = nil
			break
		}
		p, err := stats.ParseProperty(name)
		if err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}

	cfg := stats.CheckConfig{
		Length:  req.Length,
		Trials:  req.Trials,
		Workers: req.Workers,
		Seed:    req.Seed,
		Rate:    req.Rate,
		Mode:    mode,
	}
	reports, err := stats.RunChecks(ctx, cfg, properties...)
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		c.logger.Info("check finished",
			zap.String("property", string(r.Property)),
			zap.Bool("passed", r.Passed),
			zap.Int("trials", r.Trials),
			zap.Int("length", r.Length))
	}
	return reports, nil
}

// Export writes a recorded run's artifacts under OutDir/<run id>.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	generations, _, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}

	dir, err := stats.WriteRunArtifacts(req.OutDir, stats.RunArtifacts{Run: run, Generations: generations})
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(dir)}, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID == "" && !latest {
		return "", errors.New("run id or latest is required")
	}
	if err := c.ensureStore(ctx); err != nil {
		return "", err
	}
	if runID != "" {
		return runID, nil
	}

	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("%w: no runs recorded", ErrRunNotFound)
	}
	return runs[0].ID, nil
}
