package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"locusga/internal/fitness"
	"locusga/pkg/locusga"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		runID         string
		fitnessName   string
		target        string
		seed          int64
		population    int
		generations   int
		workers       int
		elite         int
		length        int
		recombination string
		mutationRate  float64
		mutationMode  string
		goal          float64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evolve a population and record the run",
		Long: `Evolves a random population with the configured operators. Flags
override the matching keys of --config.

Example:
  locusctl run --store sqlite --fitness leading-ones --length 64 --recombination "1-point crossover"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			f := cmd.Flags()
			if f.Changed("run-id") {
				cfg.RunID = runID
			}
			if f.Changed("fitness") {
				cfg.Fitness = fitnessName
			}
			if f.Changed("target") {
				cfg.FitnessKwargs.Target = target
			}
			if f.Changed("seed") {
				cfg.Seed = seed
			}
			if f.Changed("population") {
				cfg.Population = population
			}
			if f.Changed("generations") {
				cfg.Generations = generations
			}
			if f.Changed("workers") {
				cfg.Workers = workers
			}
			if f.Changed("elite") {
				cfg.Elite = elite
			}
			if f.Changed("length") {
				cfg.Initialization.Length = length
			}
			if f.Changed("recombination") {
				cfg.Recombination.Method = recombination
			}
			if f.Changed("mutation-rate") {
				cfg.Mutation.Rate = mutationRate
			}
			if f.Changed("mutation-mode") {
				cfg.Mutation.Mode = mutationMode
			}
			if f.Changed("goal") {
				cfg.FitnessGoal = &goal
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Run(cmd.Context(), locusga.RunRequest{Config: cfg})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run completed run_id=%s fitness=%s pop=%s gens=%d/%d seed=%d\n",
				summary.RunID, cfg.Fitness, humanize.Comma(int64(cfg.Population)),
				len(summary.Generations), cfg.Generations, cfg.Seed)
			for _, g := range summary.Generations {
				fmt.Fprintf(out, "generation=%d best=%.6f mean=%.6f worst=%.6f diversity=%.4f\n",
					g.Generation, g.BestFitness, g.MeanFitness, g.WorstFitness, g.Diversity)
			}
			fmt.Fprintf(out, "final_best_fitness=%.6f goal_reached=%t\n", summary.FinalBestFitness, summary.GoalReached)
			fmt.Fprintf(out, "best=%s\n", summary.Best)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&runID, "run-id", "", "run id (random uuid when empty)")
	f.StringVar(&fitnessName, "fitness", "", "fitness function: "+strings.Join(append(fitness.List(), fitness.TargetName), ", "))
	f.StringVar(&target, "target", "", "reference gene for --fitness target, two bits per locus")
	f.Int64Var(&seed, "seed", 0, "random seed")
	f.IntVar(&population, "population", 0, "population size")
	f.IntVar(&generations, "generations", 0, "generation limit")
	f.IntVar(&workers, "workers", 0, "evaluation and breeding workers")
	f.IntVar(&elite, "elite", 0, "genotypes carried over unchanged")
	f.IntVar(&length, "length", 0, "loci per genotype")
	f.StringVar(&recombination, "recombination", "", `recombination method: "uniform" or "1-point crossover"`)
	f.Float64Var(&mutationRate, "mutation-rate", 0, "per-locus mutation probability")
	f.StringVar(&mutationMode, "mutation-mode", "", "mutation mode: resample or bit-flip")
	f.Float64Var(&goal, "goal", 0, "stop once the best fitness reaches this value")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	req := locusga.CheckRequest{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the statistical behaviour of the operators",
		Long: `Runs seeded trials of the recombination and mutation operators and
compares the observed frequencies against fixed tolerance bands.

Properties: uniform, one-point, mutation, all.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			defer client.Close()

			start := time.Now()
			reports, err := client.Check(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			failed := 0
			for _, r := range reports {
				fmt.Fprintf(out, "property=%s passed=%t length=%d trials=%s\n",
					r.Property, r.Passed, r.Length, humanize.Comma(int64(r.Trials)))
				names := make([]string, 0, len(r.Metrics))
				for name := range r.Metrics {
					names = append(names, name)
				}
				slices.Sort(names)
				for _, name := range names {
					fmt.Fprintf(out, "  %s=%.6f\n", name, r.Metrics[name])
				}
				for _, failure := range r.Failures {
					fmt.Fprintf(out, "  failure: %s\n", failure)
				}
				if !r.Passed {
					failed++
				}
			}
			fmt.Fprintf(out, "checked %d properties in %s\n", len(reports), time.Since(start).Round(time.Millisecond))
			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(reports))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&req.Properties, "property", []string{"all"}, "properties to check")
	f.IntVar(&req.Length, "length", 100, "loci per genotype")
	f.IntVar(&req.Trials, "trials", 25000, "trials per property")
	f.IntVar(&req.Workers, "workers", 4, "parallel trial shards")
	f.Int64Var(&req.Seed, "seed", 1, "random seed")
	f.Float64Var(&req.Rate, "rate", 0.05, "mutation rate for the mutation check")
	f.StringVar(&req.Mode, "mode", "resample", "mutation mode for the mutation check")
	return cmd
}

func newRunsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			defer client.Close()

			runs, err := client.Runs(cmd.Context(), locusga.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "no runs recorded")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(out, "run_id=%s created=%s fitness=%s seed=%d pop=%s gens=%d/%d recombination=%q mutation=%s final_best_fitness=%.6f goal_reached=%t\n",
					r.RunID, createdAge(r.CreatedAtUTC), r.Fitness, r.Seed, humanize.Comma(int64(r.Population)),
					r.CompletedGenerations, r.Generations, r.Recombination, r.MutationMode, r.FinalBestFitness, r.GoalReached)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	req := locusga.FitnessHistoryRequest{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show per-generation fitness of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			defer client.Close()

			history, err := client.FitnessHistory(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, g := range history {
				fmt.Fprintf(out, "generation=%d best=%.6f mean=%.6f worst=%.6f diversity=%.4f\n",
					g.Generation, g.BestFitness, g.MeanFitness, g.WorstFitness, g.Diversity)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.RunID, "run-id", "", "run id")
	f.BoolVar(&req.Latest, "latest", false, "use the most recent run")
	f.IntVar(&req.Limit, "limit", 0, "maximum generations to show")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	req := locusga.ExportRequest{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a run's record and fitness history to disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.RunID == "" && !req.Latest {
				return errors.New("export requires --run-id or --latest")
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Export(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s dir=%s\n", summary.RunID, summary.Directory)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.RunID, "run-id", "", "run id")
	f.BoolVar(&req.Latest, "latest", false, "use the most recent run")
	f.StringVar(&req.OutDir, "out", "exports", "output directory")
	return cmd
}

func createdAge(createdAtUTC string) string {
	t, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return strings.ReplaceAll(humanize.Time(t), " ", "_")
}
