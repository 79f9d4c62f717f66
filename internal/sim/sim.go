// Package sim drives a page-replacement policy with a trace,
// narrating and recording every access.
package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/djdv/go-pagereplace"
	"github.com/djdv/go-pagereplace/internal/record"
	"github.com/djdv/go-pagereplace/internal/trace"
)

type (
	// Config describes a run.
	Config struct {
		// Logger receives the narration.
		// If nil, narration is discarded.
		Logger *slog.Logger
		// Sink receives a [record.Step] for every access.
		// If nil, steps are not recorded.
		Sink record.Sink
		// Run identifies the run in recorded steps.
		// If empty, a new identifier is generated.
		Run     string
		Options []pagereplace.Option
		// Tick is the logical time that passes after each access.
		Tick     time.Duration
		Capacity int
		Kind     pagereplace.Kind
	}
	// Runner feeds accesses to a policy one at a time.
	Runner struct {
		policy pagereplace.Policy[int]
		clock  *pagereplace.LogicalClock
		logger *slog.Logger
		sink   record.Sink
		start  time.Time
		run    string
		tick   time.Duration
		steps  int
		kind   pagereplace.Kind
	}
)

// New constructs the configured policy on a fresh logical clock.
func New(config Config) (*Runner, error) {
	var (
		clock   = pagereplace.NewLogicalClock()
		options = append(config.Options[:len(config.Options):len(config.Options)],
			pagereplace.WithClock(clock))
	)
	policy, err := pagereplace.New[int](config.Kind, config.Capacity, options...)
	if err != nil {
		return nil, fmt.Errorf("could not construct %s policy: %w", config.Kind, err)
	}
	if config.Tick < 0 {
		return nil, fmt.Errorf("%w: tick %s is negative",
			pagereplace.ErrInvalidOption, config.Tick)
	}
	runner := &Runner{
		policy: policy,
		clock:  clock,
		logger: config.Logger,
		sink:   config.Sink,
		start:  clock.Now(),
		run:    config.Run,
		tick:   config.Tick,
		kind:   config.Kind,
	}
	if runner.logger == nil {
		runner.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if runner.run == "" {
		runner.run = record.NewRunID()
	}
	runner.logger = runner.logger.With("run", runner.run, "policy", config.Kind.String())
	return runner, nil
}

// Policy returns the policy being driven.
func (r *Runner) Policy() pagereplace.Policy[int] { return r.policy }

// Steps returns the number of accesses served so far.
func (r *Runner) Steps() int { return r.steps }

// Step serves a single access.
func (r *Runner) Step(access trace.Access) (record.Step, error) {
	var (
		event = r.policy.AccessPage(access.ID, access.Write)
		step  = record.Step{
			Run:      r.run,
			Policy:   r.kind.String(),
			Event:    event,
			Snapshot: r.policy.Snapshot(),
			Index:    r.steps,
			Elapsed:  r.clock.Now().Sub(r.start),
		}
	)
	r.narrate(step)
	r.steps++
	r.clock.Advance(r.tick)
	if r.sink != nil {
		if err := r.sink.Record(step); err != nil {
			return step, fmt.Errorf("could not record step %d: %w", step.Index, err)
		}
	}
	return step, nil
}

// Run serves every access in order, stopping early
// if ctx is done or a step cannot be recorded.
func (r *Runner) Run(ctx context.Context, accesses []trace.Access) error {
	for _, access := range accesses {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.Step(access); err != nil {
			return err
		}
	}
	return nil
}

// RunDemo runs each phase of demo, announcing phases as it goes.
// The policy's kind and capacity are not changed to match the demo.
func (r *Runner) RunDemo(ctx context.Context, demo trace.Demo) error {
	for i, phase := range demo.Phases {
		if len(demo.Phases) > 1 {
			r.logger.Info("phase", "demo", demo.Name, "index", i+1, "accesses", len(phase))
		}
		if err := r.Run(ctx, phase); err != nil {
			return err
		}
	}
	return nil
}

// Summarize logs the policy's counters and flushes the sink.
func (r *Runner) Summarize() error {
	stats := r.policy.Stats()
	r.logger.Info("summary",
		"accesses", stats.Accesses,
		"hits", stats.Hits,
		"soft_faults", stats.SoftFaults,
		"hard_faults", stats.HardFaults,
		"dropped", stats.Dropped,
		"promotions", stats.Promotions,
		"demotions", stats.Demotions,
		"evictions", stats.Evictions,
		"write_backs", stats.WriteBacks,
		"hit_ratio", fmt.Sprintf("%.3f", stats.HitRatio()),
		"elapsed", r.clock.Now().Sub(r.start),
	)
	if r.sink == nil {
		return nil
	}
	return r.sink.Flush()
}
