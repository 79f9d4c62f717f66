package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/djdv/go-pagereplace/internal/record"
	"github.com/djdv/go-pagereplace/internal/sim"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

type globals struct {
	logger   *slog.Logger
	sinks    record.Multi
	onExit   sync.Once
	stderr   io.Writer
	envFile  string
	logLevel string
	csv      string
	sqlite   string
	metrics  string
	runID    string
}

// environment maps flag names to the variables that supply their defaults.
var environment = map[string]string{
	"policy":    "PAGESIM_POLICY",
	"capacity":  "PAGESIM_CAPACITY",
	"tick":      "PAGESIM_TICK",
	"log-level": "PAGESIM_LOG_LEVEL",
	"csv":       "PAGESIM_CSV",
	"sqlite":    "PAGESIM_SQLITE",
	"metrics":   "PAGESIM_METRICS",
}

func newRootCommand(stderr io.Writer) *cobra.Command {
	g := &globals{stderr: stderr}
	root := &cobra.Command{
		Use:   "pagesim",
		Short: "pagesim replays page accesses against page-replacement policies.",
		Long: `pagesim replays page accesses against the two-list, aging, ` +
			`and working-set page-replacement policies, narrating every ` +
			`fault, eviction, and list change. Steps can be recorded ` +
			`to CSV, SQLite, or a Prometheus textfile.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd)
		},
	}
	root.SetErr(stderr)
	flags := root.PersistentFlags()
	flags.StringVar(&g.envFile, "env-file", "",
		"load defaults from this file instead of ./.env")
	flags.StringVar(&g.logLevel, "log-level", "INFO",
		"narration level: DEBUG, INFO, WARN, or ERROR")
	flags.StringVar(&g.csv, "csv", "",
		"record steps to `PATH`.csv")
	flags.StringVar(&g.sqlite, "sqlite", "",
		"record steps to `PATH`.sqlite3")
	flags.StringVar(&g.metrics, "metrics", "",
		"write Prometheus metrics to this textfile `PATH`")
	flags.StringVar(&g.runID, "run-id", "",
		"identifier stored with recorded steps (default: generated)")
	root.AddCommand(
		newRunCommand(g),
		newDemoCommand(g),
	)
	return root
}

func (g *globals) setup(cmd *cobra.Command) error {
	if err := loadEnvironment(g.envFile); err != nil {
		return err
	}
	if err := applyEnvironment(cmd); err != nil {
		return err
	}
	level, err := sim.ParseLevel(g.logLevel)
	if err != nil {
		return err
	}
	g.logger = sim.NewLogger(g.stderr, level)
	return nil
}

func loadEnvironment(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("could not load environment file: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not load .env: %w", err)
	}
	return nil
}

// applyEnvironment sets every flag the user did not set
// from its environment variable, if present.
func applyEnvironment(cmd *cobra.Command) error {
	flags := cmd.Flags()
	for name, variable := range environment {
		flag := flags.Lookup(name)
		if flag == nil || flag.Changed {
			continue
		}
		value, ok := os.LookupEnv(variable)
		if !ok || value == "" {
			continue
		}
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("%s: %w", variable, err)
		}
	}
	return nil
}

// openSinks opens every requested recorder.
// Callers close the returned sink; the most recently
// opened one is also closed on [atexit.Exit].
func (g *globals) openSinks() (record.Multi, error) {
	var sinks record.Multi
	if g.csv != "" {
		sink, err := record.CreateCSV(g.csv)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if g.sqlite != "" {
		sink, err := record.OpenSQLite(g.sqlite)
		if err != nil {
			return nil, errors.Join(err, sinks.Close())
		}
		sinks = append(sinks, sink)
	}
	if g.metrics != "" {
		sinks = append(sinks, record.NewMetrics(g.metrics))
	}
	g.sinks = sinks
	g.onExit.Do(func() {
		atexit.Register(g.closeSinks)
	})
	return sinks, nil
}

func (g *globals) closeSinks() {
	if err := g.sinks.Close(); err != nil && g.logger != nil {
		g.logger.Error("could not close recorders", "error", err)
	}
}

func (g *globals) currentRunID() string {
	if g.runID == "" {
		g.runID = record.NewRunID()
	}
	return g.runID
}
