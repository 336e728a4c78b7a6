package model

import "locusga/internal/genotype"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord describes one evolutionary run and how it ended. Genotypes are
// never persisted; only the settings and outcome are.
type RunRecord struct {
	VersionedRecord
	ID            string                       `json:"id"`
	CreatedAtUTC  string                       `json:"created_at_utc"`
	Seed          int64                        `json:"seed"`
	Population    int                          `json:"population"`
	Generations   int                          `json:"generations"`
	Length        int                          `json:"length"`
	Fitness       string                       `json:"fitness"`
	Selection     string                       `json:"selection"`
	Recombination genotype.RecombinationMethod `json:"recombination"`
	MutationRate  float64                      `json:"mutation_rate"`
	MutationMode  genotype.MutationMode        `json:"mutation_mode"`

	CompletedGenerations int     `json:"completed_generations"`
	FinalBestFitness     float64 `json:"final_best_fitness"`
	GoalReached          bool    `json:"goal_reached"`
}

// GenerationSummary aggregates one evaluated generation.
type GenerationSummary struct {
	Generation   int     `json:"generation"`
	BestFitness  float64 `json:"best_fitness"`
	MeanFitness  float64 `json:"mean_fitness"`
	WorstFitness float64 `json:"worst_fitness"`
	// Diversity is the mean locus distance to the best genotype, normalised by gene length.
	Diversity float64 `json:"diversity"`
}
