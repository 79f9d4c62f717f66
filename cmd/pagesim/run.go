package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/djdv/go-pagereplace"
	"github.com/djdv/go-pagereplace/internal/record"
	"github.com/djdv/go-pagereplace/internal/sim"
	"github.com/djdv/go-pagereplace/internal/trace"
	"github.com/spf13/cobra"
)

type runSettings struct {
	policy    string
	tracePath string
	pattern   string
	params    trace.Params
	tick      time.Duration
	capacity  int

	activeThreshold, inactiveThreshold,
	ageThreshold, clearInterval time.Duration
	minFree, targetFree,
	refillDivisor, scanDivisor int
	faultReference, urgentPageOut bool
}

func newRunCommand(g *globals) *cobra.Command {
	var (
		settings runSettings
		defaults = trace.DefaultParams(0)
		cmd      = &cobra.Command{
			Use:   "run",
			Short: "Replay a trace file or a generated workload.",
			Long: "Replay a trace file (`--trace`, `-` for stdin) or, " +
				"without one, a generated workload (`--pattern`). " +
				"Trace files hold page numbers separated by spaces or " +
				"commas; a `w` suffix marks a write and `#` starts a comment.",
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return g.run(cmd, &settings)
			},
		}
		flags = cmd.Flags()
	)
	flags.StringVarP(&settings.policy, "policy", "p", pagereplace.KindTwoList.String(),
		"policy: twolist (linux), aging (macos), or workingset (windows)")
	flags.IntVarP(&settings.capacity, "capacity", "c", 8,
		"resident units the policy may hold")
	flags.DurationVar(&settings.tick, "tick", 100*time.Millisecond,
		"logical time between two accesses")
	flags.StringVarP(&settings.tracePath, "trace", "t", "",
		"read accesses from this file")
	flags.StringVar(&settings.pattern, "pattern", "loop",
		"generated workload: sequential, loop, zipf, or uniform")
	flags.IntVar(&settings.params.Length, "length", defaults.Length,
		"generated accesses")
	flags.IntVar(&settings.params.Universe, "universe", 0,
		"distinct generated pages (default: 4 * capacity)")
	flags.IntVar(&settings.params.HotSize, "hot-size", 0,
		"loop pattern hot set size (default: capacity)")
	flags.Float64Var(&settings.params.HotRatio, "hot-ratio", defaults.HotRatio,
		"loop pattern share of accesses to the hot set")
	flags.Float64Var(&settings.params.Skew, "skew", defaults.Skew,
		"zipf pattern skew, > 1")
	flags.Float64Var(&settings.params.WriteRatio, "write-ratio", 0,
		"share of generated accesses that are writes")
	flags.Int64Var(&settings.params.Seed, "seed", defaults.Seed,
		"generator seed")
	flags.DurationVar(&settings.activeThreshold, "active-threshold",
		pagereplace.DefaultActiveThreshold, "aging: demote active units older than this")
	flags.DurationVar(&settings.inactiveThreshold, "inactive-threshold",
		pagereplace.DefaultInactiveThreshold, "aging: page out inactive units older than this")
	flags.IntVar(&settings.minFree, "min-free", 0,
		"aging: free-slot low-water mark (default: capacity / 4)")
	flags.IntVar(&settings.targetFree, "target-free", 0,
		"aging: free-slot high-water mark (default: capacity / 2)")
	flags.BoolVar(&settings.urgentPageOut, "urgent-page-out", false,
		"aging: ignore ages when a fault finds no free slot")
	flags.DurationVar(&settings.ageThreshold, "age-threshold",
		pagereplace.DefaultAgeThreshold, "workingset: trim units older than this")
	flags.DurationVar(&settings.clearInterval, "clear-interval",
		pagereplace.DefaultReferenceClearInterval, "workingset: reset reference bits this often")
	flags.IntVar(&settings.refillDivisor, "refill-divisor",
		pagereplace.DefaultRefillDivisor, "twolist: keep 1/N of resident units inactive")
	flags.IntVar(&settings.scanDivisor, "scan-divisor",
		pagereplace.DefaultScanDivisor, "twolist: scan at most 1/N of the inactive list per pass")
	flags.BoolVar(&settings.faultReference, "fault-reference", false,
		"twolist: faulted units start referenced")
	return cmd
}

func (s *runSettings) options(cmd *cobra.Command) []pagereplace.Option {
	var (
		flags   = cmd.Flags()
		options = []pagereplace.Option{
			pagereplace.WithActiveThreshold(s.activeThreshold),
			pagereplace.WithInactiveThreshold(s.inactiveThreshold),
			pagereplace.WithAgeThreshold(s.ageThreshold),
			pagereplace.WithReferenceClearInterval(s.clearInterval),
			pagereplace.WithRefillDivisor(s.refillDivisor),
			pagereplace.WithScanDivisor(s.scanDivisor),
			pagereplace.WithFaultReference(s.faultReference),
			pagereplace.WithUrgentPageOut(s.urgentPageOut),
		}
	)
	if flags.Changed("min-free") {
		options = append(options, pagereplace.WithMinFree(s.minFree))
	}
	if flags.Changed("target-free") {
		options = append(options, pagereplace.WithTargetFree(s.targetFree))
	}
	return options
}

func (s *runSettings) accesses(stdin io.Reader) ([]trace.Access, error) {
	switch s.tracePath {
	case "":
		params := s.params
		if params.Universe == 0 {
			params.Universe = max(s.capacity, 1) * 4
		}
		if params.HotSize == 0 {
			params.HotSize = max(s.capacity, 1)
		}
		params.Bias = 1
		return trace.Generate(s.pattern, params)
	case "-":
		return trace.Parse(stdin)
	default:
		file, err := os.Open(s.tracePath)
		if err != nil {
			return nil, err
		}
		accesses, err := trace.Parse(file)
		if cErr := file.Close(); err == nil {
			err = cErr
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.tracePath, err)
		}
		return accesses, nil
	}
}

func (g *globals) run(cmd *cobra.Command, settings *runSettings) error {
	kind, err := pagereplace.ParseKind(settings.policy)
	if err != nil {
		return err
	}
	accesses, err := settings.accesses(cmd.InOrStdin())
	if err != nil {
		return err
	}
	sinks, err := g.openSinks()
	if err != nil {
		return err
	}
	runner, err := sim.New(sim.Config{
		Logger:   g.logger,
		Sink:     sinks,
		Run:      g.currentRunID(),
		Options:  settings.options(cmd),
		Tick:     settings.tick,
		Capacity: settings.capacity,
		Kind:     kind,
	})
	if err != nil {
		return errors.Join(err, sinks.Close())
	}
	return g.drive(runner, sinks, func(runner *sim.Runner) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runner.Run(ctx, accesses)
	})
}

// drive runs fn, then summarizes the run and closes sinks
// regardless of how fn returned.
func (g *globals) drive(runner *sim.Runner, sinks record.Multi, fn func(*sim.Runner) error) error {
	err := fn(runner)
	if err != nil {
		g.logger.Error("run stopped", "step", runner.Steps(), "error", err)
	}
	return errors.Join(err, runner.Summarize(), sinks.Close())
}
