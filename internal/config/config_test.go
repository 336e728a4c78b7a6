package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locusga/internal/fitness"
	"locusga/internal/genotype"
)

const sampleConfig = `
seed: 7
population: 20
generations: 5
workers: 2
elite: 1
fitness: leading-ones
fitness_goal: 16
selection:
  method: elite
initialization_kwargs:
  length: 16
recombination_kwargs:
  method: 1-point crossover
mutation_kwargs:
  rate: 0.1
  mode: bit-flip
`

func TestParseNestedKwargs(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 16, cfg.Initialization.Length)
	assert.Equal(t, 0.1, cfg.Mutation.Rate)
	require.NotNil(t, cfg.FitnessGoal)
	assert.Equal(t, 16.0, *cfg.FitnessGoal)

	method, err := cfg.RecombinationMethod()
	require.NoError(t, err)
	assert.Equal(t, genotype.OnePointCrossover, method)

	mode, err := cfg.MutationMode()
	require.NoError(t, err)
	assert.Equal(t, genotype.BitFlip, mode)

	// Untouched sections keep their defaults.
	assert.Equal(t, "memory", cfg.Store.Kind)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("recombination_kwarg:\n  method: uniform\n"))
	require.Error(t, err)
}

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default().Population, cfg.Population)
	assert.Nil(t, cfg.FitnessGoal, "runs must not stop early unless a goal is configured")
	require.NoError(t, cfg.Validate())
}

func TestValidateNoSilentFallback(t *testing.T) {
	t.Run("recombination typo", func(t *testing.T) {
		cfg := Default()
		cfg.Recombination.Method = "unifrom"
		require.ErrorIs(t, cfg.Validate(), genotype.ErrUnsupportedOperation)
	})

	t.Run("mutation mode typo", func(t *testing.T) {
		cfg := Default()
		cfg.Mutation.Mode = "flip-flop"
		require.ErrorIs(t, cfg.Validate(), genotype.ErrUnsupportedOperation)
	})

	t.Run("selection typo", func(t *testing.T) {
		cfg := Default()
		cfg.Selection.Method = "roulette"
		require.ErrorIs(t, cfg.Validate(), genotype.ErrUnsupportedOperation)
	})

	t.Run("rate out of range", func(t *testing.T) {
		cfg := Default()
		cfg.Mutation.Rate = 1.01
		require.ErrorIs(t, cfg.Validate(), genotype.ErrInvalidArgument)
	})

	t.Run("non-positive length", func(t *testing.T) {
		cfg := Default()
		cfg.Initialization.Length = 0
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("elite fills population", func(t *testing.T) {
		cfg := Default()
		cfg.Elite = cfg.Population
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("postprocessor typo", func(t *testing.T) {
		cfg := Default()
		cfg.Postprocessor.Method = "niching"
		require.ErrorIs(t, cfg.Validate(), genotype.ErrUnsupportedOperation)
	})

	t.Run("sharing without radius", func(t *testing.T) {
		cfg := Default()
		cfg.Postprocessor.Method = "sharing"
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		cfg.Postprocessor.Radius = 4
		require.NoError(t, cfg.Validate())
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.yaml")
	cfg := Default()
	cfg.Seed = 99
	cfg.Recombination.Method = "1-point crossover"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOCUSGA_STORE", "sqlite")
	t.Setenv("LOCUSGA_DB_PATH", "/tmp/runs.db")
	t.Setenv("LOCUSGA_WORKERS", "8")
	t.Setenv("LOCUSGA_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Kind)
	assert.Equal(t, "/tmp/runs.db", cfg.Store.Path)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestTargetFitnessFromKwargs(t *testing.T) {
	cfg, err := Parse([]byte(`
fitness: target
fitness_kwargs:
  target: "11001100"
initialization_kwargs:
  length: 4
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	fn, err := cfg.FitnessFunction()
	require.NoError(t, err)
	target, ok := fn.(fitness.Target)
	require.True(t, ok, "expected a target function, got %T", fn)
	assert.Equal(t, []genotype.Locus{genotype.L11, genotype.L00, genotype.L11, genotype.L00}, target.Gene)
}

func TestValidateFitness(t *testing.T) {
	t.Run("unknown name", func(t *testing.T) {
		cfg := Default()
		cfg.Fitness = "onemx"
		require.ErrorIs(t, cfg.Validate(), fitness.ErrFunctionNotFound)
	})

	t.Run("target without gene", func(t *testing.T) {
		cfg := Default()
		cfg.Fitness = fitness.TargetName
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("target with malformed gene", func(t *testing.T) {
		cfg := Default()
		cfg.Fitness = fitness.TargetName
		cfg.FitnessKwargs.Target = "1201"
		require.ErrorIs(t, cfg.Validate(), genotype.ErrInvalidArgument)
	})

	t.Run("target length mismatch", func(t *testing.T) {
		cfg := Default()
		cfg.Fitness = fitness.TargetName
		cfg.FitnessKwargs.Target = "1100"
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})
}

func TestValidateRunID(t *testing.T) {
	for _, id := range []string{"../../x", "a/b", "/abs", ".", ".."} {
		cfg := Default()
		cfg.RunID = id
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig, id)
	}
	cfg := Default()
	cfg.RunID = "run-2026.10"
	require.NoError(t, cfg.Validate())
}
