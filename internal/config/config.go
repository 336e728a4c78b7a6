// Package config loads run configuration from YAML. The layout keeps the
// operator settings in nested *_kwargs sections so existing run files map
// over unchanged.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"locusga/internal/fitness"
	"locusga/internal/genotype"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds one evolutionary run.
type Config struct {
	RunID       string   `yaml:"run_id"`
	Seed        int64    `yaml:"seed"`
	Population  int      `yaml:"population"`
	Generations int      `yaml:"generations"`
	Workers     int      `yaml:"workers"`
	Elite       int      `yaml:"elite"`
	Fitness     string   `yaml:"fitness"`
	FitnessGoal *float64 `yaml:"fitness_goal,omitempty"`

	FitnessKwargs FitnessKwargs `yaml:"fitness_kwargs,omitempty"`

	Selection      SelectionConfig      `yaml:"selection"`
	Postprocessor  PostprocessorConfig  `yaml:"postprocessor"`
	Initialization InitializationKwargs `yaml:"initialization_kwargs"`
	Recombination  RecombinationKwargs  `yaml:"recombination_kwargs"`
	Mutation       MutationKwargs       `yaml:"mutation_kwargs"`

	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// FitnessKwargs parameterises fitness functions that need more than a name.
type FitnessKwargs struct {
	// Target is the reference gene for the target function, two bits per locus.
	Target string `yaml:"target,omitempty"`
}

type SelectionConfig struct {
	Method string `yaml:"method"` // elite, tournament
	Size   int    `yaml:"size"`
}

// PostprocessorConfig selects fitness sharing. Radius is a locus distance.
type PostprocessorConfig struct {
	Method string `yaml:"method"` // none, sharing
	Radius int    `yaml:"radius"`
}

type InitializationKwargs struct {
	Length int `yaml:"length"`
}

type RecombinationKwargs struct {
	Method string `yaml:"method"` // uniform, 1-point crossover
}

type MutationKwargs struct {
	Rate float64 `yaml:"rate"`
	Mode string  `yaml:"mode"` // resample, bit-flip
}

type StoreConfig struct {
	Kind string `yaml:"kind"` // memory, sqlite
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

func Default() *Config {
	return &Config{
		Seed:        1,
		Population:  50,
		Generations: 100,
		Workers:     4,
		Elite:       2,
		Fitness:     "onemax",
		Selection: SelectionConfig{
			Method: "tournament",
			Size:   3,
		},
		Postprocessor:  PostprocessorConfig{Method: "none"},
		Initialization: InitializationKwargs{Length: 32},
		Recombination:  RecombinationKwargs{Method: "uniform"},
		Mutation: MutationKwargs{
			Rate: 0.05,
			Mode: "resample",
		},
		Store: StoreConfig{
			Kind: "memory",
			Path: "locusga.db",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and applies environment overrides.
// Unknown keys are rejected so a misspelled section cannot silently keep its default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks ranges and resolves the operator keys. Unknown operator
// keys surface genotype.ErrUnsupportedOperation.
func (c *Config) Validate() error {
	if c.Population < 2 {
		return fmt.Errorf("%w: population must be >= 2, got %d", ErrInvalidConfig, c.Population)
	}
	if c.Generations <= 0 {
		return fmt.Errorf("%w: generations must be > 0, got %d", ErrInvalidConfig, c.Generations)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be > 0, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Elite < 0 || c.Elite >= c.Population {
		return fmt.Errorf("%w: elite must be in [0, population), got %d", ErrInvalidConfig, c.Elite)
	}
	if strings.TrimSpace(c.Fitness) == "" {
		return fmt.Errorf("%w: fitness function is required", ErrInvalidConfig)
	}
	if !isLocalName(c.RunID) {
		return fmt.Errorf("%w: run_id %q must be a plain name without path separators", ErrInvalidConfig, c.RunID)
	}
	if c.Initialization.Length <= 0 {
		return fmt.Errorf("%w: initialization_kwargs.length must be > 0, got %d", ErrInvalidConfig, c.Initialization.Length)
	}
	if math.IsNaN(c.Mutation.Rate) || c.Mutation.Rate < 0 || c.Mutation.Rate > 1 {
		return fmt.Errorf("%w: mutation_kwargs.rate must be in [0,1], got %v", genotype.ErrInvalidArgument, c.Mutation.Rate)
	}
	method, err := c.RecombinationMethod()
	if err != nil {
		return err
	}
	if method == genotype.OnePointCrossover && c.Initialization.Length < 2 {
		return fmt.Errorf("%w: 1-point crossover needs length >= 2", genotype.ErrInvalidArgument)
	}
	if _, err := c.MutationMode(); err != nil {
		return err
	}
	fn, err := c.FitnessFunction()
	if err != nil {
		return err
	}
	if target, ok := fn.(fitness.Target); ok && len(target.Gene) != c.Initialization.Length {
		return fmt.Errorf("%w: fitness_kwargs.target has %d loci, initialization_kwargs.length is %d",
			ErrInvalidConfig, len(target.Gene), c.Initialization.Length)
	}
	switch c.Selection.Method {
	case "elite", "tournament":
	default:
		return fmt.Errorf("%w: selection method %q", genotype.ErrUnsupportedOperation, c.Selection.Method)
	}
	switch c.Postprocessor.Method {
	case "", "none":
	case "sharing":
		if c.Postprocessor.Radius <= 0 {
			return fmt.Errorf("%w: postprocessor.radius must be > 0 for sharing, got %d", ErrInvalidConfig, c.Postprocessor.Radius)
		}
	default:
		return fmt.Errorf("%w: fitness postprocessor %q", genotype.ErrUnsupportedOperation, c.Postprocessor.Method)
	}
	switch c.Store.Kind {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("%w: store kind %q", ErrInvalidConfig, c.Store.Kind)
	}
	return nil
}

func (c *Config) RecombinationMethod() (genotype.RecombinationMethod, error) {
	return genotype.ParseRecombinationMethod(c.Recombination.Method)
}

func (c *Config) MutationMode() (genotype.MutationMode, error) {
	return genotype.ParseMutationMode(c.Mutation.Mode)
}

// FitnessFunction resolves the configured fitness: target is built from
// fitness_kwargs, every other name comes from the fitness registry.
func (c *Config) FitnessFunction() (fitness.Function, error) {
	if c.Fitness == fitness.TargetName {
		if c.FitnessKwargs.Target == "" {
			return nil, fmt.Errorf("%w: fitness_kwargs.target is required for the target function", ErrInvalidConfig)
		}
		return fitness.NewTarget(c.FitnessKwargs.Target)
	}
	return fitness.Resolve(c.Fitness)
}

// isLocalName reports whether id can name a directory under an export root.
func isLocalName(id string) bool {
	if id == "" {
		return true
	}
	return id != "." && filepath.IsLocal(id) && filepath.Base(id) == id
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LOCUSGA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOCUSGA_STORE"); v != "" {
		c.Store.Kind = v
	}
	if v := os.Getenv("LOCUSGA_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("LOCUSGA_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}
