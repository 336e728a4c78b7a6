package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"locusga/internal/config"
	"locusga/internal/logging"
	"locusga/pkg/locusga"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	storeKind  string
	dbPath     string
	logLevel   string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "locusctl",
		Short: "Evolve and verify two-bit locus genotypes",
		Long: `locusctl runs genetic algorithm experiments over genotypes made of
two-bit loci and checks the statistical behaviour of the operators.

Runs are recorded in the configured store; use --store sqlite to keep them
between invocations.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML run configuration")
	flags.StringVar(&a.storeKind, "store", "", "store backend: memory or sqlite")
	flags.StringVar(&a.dbPath, "db-path", "", "sqlite database path")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newRunCmd(a),
		newCheckCmd(a),
		newRunsCmd(a),
		newHistoryCmd(a),
		newExportCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.storeKind != "" {
		cfg.Store.Kind = a.storeKind
	}
	if a.dbPath != "" {
		cfg.Store.Path = a.dbPath
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.With(zap.String("command", cmd.Name()))
	return nil
}

func (a *app) client() (*locusga.Client, error) {
	return locusga.New(locusga.Options{
		StoreKind: a.cfg.Store.Kind,
		DBPath:    a.cfg.Store.Path,
		Logger:    a.logger,
	})
}
