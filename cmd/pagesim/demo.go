package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"

	"github.com/djdv/go-pagereplace"
	"github.com/djdv/go-pagereplace/internal/sim"
	"github.com/djdv/go-pagereplace/internal/trace"
	"github.com/spf13/cobra"
)

func newDemoCommand(g *globals) *cobra.Command {
	var names []string
	for _, demo := range trace.Demos() {
		names = append(names, demo.Name)
	}
	return &cobra.Command{
		Use:   "demo [" + strings.Join(names, "|") + "]...",
		Short: "Run the scripted demonstrations.",
		Long: "Run the scripted demonstration of each policy: " +
			"linux drives the two-list policy in phases, " +
			"macos drives the aging policy with some writes, " +
			"and windows drives the working set. " +
			"Without arguments, every demonstration is run.",
		ValidArgs: names,
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			demos := trace.Demos()
			if len(args) > 0 {
				demos = demos[:0]
				for _, name := range args {
					demo, err := trace.LookupDemo(name)
					if err != nil {
						return err
					}
					demos = append(demos, demo)
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return g.runDemos(ctx, demos)
		},
	}
}

func (g *globals) runDemos(ctx context.Context, demos []trace.Demo) error {
	sinks, err := g.openSinks()
	if err != nil {
		return err
	}
	var errs []error
	for _, demo := range demos {
		kind, err := pagereplace.ParseKind(demo.Policy)
		if err != nil {
			errs = append(errs, err)
			break
		}
		runner, err := sim.New(sim.Config{
			Logger:   g.logger,
			Sink:     sinks,
			Run:      g.currentRunID(),
			Tick:     demo.Tick,
			Capacity: demo.Capacity,
			Kind:     kind,
		})
		if err != nil {
			errs = append(errs, err)
			break
		}
		err = runner.RunDemo(ctx, demo)
		if err != nil {
			g.logger.Error("demo stopped", "demo", demo.Name, "step", runner.Steps(), "error", err)
		}
		errs = append(errs, err, runner.Summarize())
		if err != nil {
			break
		}
	}
	errs = append(errs, sinks.Close())
	return errors.Join(errs...)
}
