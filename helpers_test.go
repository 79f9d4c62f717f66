package pagereplace_test

import (
	"slices"
	"testing"

	"github.com/djdv/go-pagereplace"
)

type testPolicy interface {
	pagereplace.Policy[int]
	Len() int
}

func accessAll(policy pagereplace.Policy[int], ids ...int) []pagereplace.Event[int] {
	events := make([]pagereplace.Event[int], len(ids))
	for i, id := range ids {
		events[i] = policy.AccessPage(id, false)
	}
	return events
}

func checkLists(
	tb testing.TB,
	policy pagereplace.Policy[int],
	wantActive, wantInactive []int, msg string,
) {
	tb.Helper()
	snapshot := policy.Snapshot()
	if slices.Equal(snapshot.Active, wantActive) &&
		slices.Equal(snapshot.Inactive, wantInactive) {
		return
	}
	tb.Fatalf(
		"unexpected lists %s"+
			"\n\tgot: active %v inactive %v"+
			"\n\twant: active %v inactive %v",
		msg,
		snapshot.Active, snapshot.Inactive,
		wantActive, wantInactive)
}

func checkOutcome(
	tb testing.TB,
	event pagereplace.Event[int],
	want pagereplace.Outcome, msg string,
) {
	tb.Helper()
	if event.Outcome == want {
		return
	}
	tb.Fatalf(
		"unexpected outcome %s"+
			"\n\tgot: %s"+
			"\n\twant: %s",
		msg, event.Outcome, want)
}

func checkEvicted(
	tb testing.TB,
	event pagereplace.Event[int],
	want []int, msg string,
) {
	tb.Helper()
	got := event.Evictions()
	if slices.Equal(got, want) {
		return
	}
	tb.Fatalf(
		"unexpected evictions %s"+
			"\n\tgot: %v"+
			"\n\twant: %v"+
			"\n\tevent: %s",
		msg, got, want, &event)
}

// checkResidency verifies that every listed identifier is resident exactly
// once, in the list matching its residency, and within capacity.
func checkResidency(tb testing.TB, policy testPolicy, msg string) {
	tb.Helper()
	var (
		snapshot = policy.Snapshot()
		seen     = make(map[int]struct{}, snapshot.Capacity)
		total    = len(snapshot.Active) + len(snapshot.Inactive)
	)
	if total > snapshot.Capacity {
		tb.Fatalf("%s: %d units resident with capacity %d",
			msg, total, snapshot.Capacity)
	}
	if total != policy.Len() {
		tb.Fatalf("%s: lists hold %d units but store holds %d",
			msg, total, policy.Len())
	}
	check := func(ids []int, want ...pagereplace.Residency) {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				tb.Fatalf("%s: %d listed more than once: %s", msg, id, snapshot)
			}
			seen[id] = struct{}{}
			unit, ok := policy.Lookup(id)
			if !ok {
				tb.Fatalf("%s: %d listed but not resident", msg, id)
			}
			if !slices.Contains(want, unit.Residency) {
				tb.Fatalf("%s: %d is %s but listed as one of %v",
					msg, id, unit.Residency, want)
			}
		}
	}
	check(snapshot.Active, pagereplace.Active, pagereplace.Resident)
	check(snapshot.Inactive, pagereplace.Inactive)
}

func sequence(start, end int) []int {
	ids := make([]int, 0, end-start+1)
	for id := start; id <= end; id++ {
		ids = append(ids, id)
	}
	return ids
}
