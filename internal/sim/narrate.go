package sim

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/djdv/go-pagereplace"
	"github.com/djdv/go-pagereplace/internal/record"
)

type constError string

const (
	// ErrUnknownLevel is returned from [ParseLevel].
	ErrUnknownLevel = constError("unknown log level")

	referencedMarker = "*"
	modifiedMarker   = "m"
)

func (errStr constError) Error() string { return string(errStr) }

// ParseLevel accepts DEBUG, INFO, WARN, or ERROR in any case.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
}

// Describe renders the lists of policy, marking referenced units
// with `*` and modified units with `m`.
func Describe(policy pagereplace.Policy[int]) string {
	snapshot := policy.Snapshot()
	return fmt.Sprintf("active: [%s] | inactive: [%s] | free: %d/%d",
		describeUnits(policy, snapshot.Active),
		describeUnits(policy, snapshot.Inactive),
		snapshot.Free, snapshot.Capacity,
	)
}

func describeUnits(policy pagereplace.Policy[int], ids []int) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprint(&b, id)
		unit, ok := policy.Lookup(id)
		if !ok {
			continue
		}
		if unit.Referenced {
			b.WriteString(referencedMarker)
		}
		if unit.Modified {
			b.WriteString(modifiedMarker)
		}
	}
	return b.String()
}

func (r *Runner) narrate(step record.Step) {
	var (
		event = step.Event
		attrs = []any{
			"step", step.Index,
			"elapsed", step.Elapsed,
			"page", event.ID,
			"write", event.Write,
			"outcome", event.Outcome.String(),
		}
	)
	if len(event.Actions) > 0 {
		actions := make([]string, len(event.Actions))
		for i, action := range event.Actions {
			actions[i] = action.String()
		}
		attrs = append(attrs, "actions", strings.Join(actions, "; "))
	}
	if event.ReferencesCleared {
		attrs = append(attrs, "references_cleared", true)
	}
	attrs = append(attrs, "lists", Describe(r.policy))
	level := slog.LevelInfo
	if event.Outcome == pagereplace.Dropped {
		level = slog.LevelWarn
	}
	r.logger.Log(context.Background(), level, "access", attrs...)
}
