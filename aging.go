package pagereplace

import (
	"cmp"
	"fmt"
	"time"

	"github.com/djdv/go-pagereplace/internal/ring"
)

// Aging keeps resident units on an active and an inactive list,
// ordered oldest first, and accounts for free page frames.
// Active units older than the active threshold are demoted; a page-out
// daemon frees inactive units older than the inactive threshold whenever
// free frames drop below a low-water mark, until a high-water mark is met.
// Touching an inactive unit is a soft fault; touching a non-resident
// unit is a hard fault.
// Concurrent access must be guarded by the caller.
// Constructed by [NewAging].
type Aging[ID cmp.Ordered] struct {
	clock            Clock
	store            *PageStore[ID]
	active, inactive *ring.List[ID]
	stats            Stats
	activeThreshold,
	inactiveThreshold time.Duration
	capacity, free,
	minFree, targetFree int
	urgentPageOut bool
}

// NewAging creates an [Aging] policy with capacity page frames.
// It honors [WithClock], [WithActiveThreshold], [WithInactiveThreshold],
// [WithMinFree], [WithTargetFree], and [WithUrgentPageOut].
// The low-water mark defaults to a quarter of capacity (at least 1),
// and the high-water mark to half of capacity (at least the low-water mark).
func NewAging[ID cmp.Ordered](capacity int, options ...Option) (*Aging[ID], error) {
	settings, err := newSettings(capacity, options)
	if err != nil {
		return nil, err
	}
	minFree := settings.minFree
	if minFree == 0 {
		minFree = max(1, capacity/4)
	}
	targetFree := settings.targetFree
	if targetFree == 0 {
		targetFree = max(minFree, capacity/2)
	}
	if minFree > targetFree || targetFree > capacity {
		return nil, fmt.Errorf(
			"%w: free page marks must satisfy 1 <= min (%d) <= target (%d) <= capacity (%d)",
			ErrInvalidOption, minFree, targetFree, capacity)
	}
	return &Aging[ID]{
		clock:             settings.clock,
		store:             NewPageStore[ID](capacity),
		active:            ring.New[ID](capacity),
		inactive:          ring.New[ID](capacity),
		activeThreshold:   settings.activeThreshold,
		inactiveThreshold: settings.inactiveThreshold,
		capacity:          capacity,
		free:              capacity,
		minFree:           minFree,
		targetFree:        targetFree,
		urgentPageOut:     settings.urgentPageOut,
	}, nil
}

// AccessPage references id, marking it modified if write is set.
func (a *Aging[ID]) AccessPage(id ID, write bool) Event[ID] {
	event := Event[ID]{ID: id, Write: write}
	if unit, ok := a.store.Get(id); ok {
		if unit.Residency == Inactive {
			a.inactive.Remove(id)
			a.active.PushBack(id)
			unit.Residency = Active
			event.Outcome = SoftFault
		} else {
			event.Outcome = Hit
		}
		unit.touch(a.clock.Now(), write)
	} else {
		a.handleHardFault(id, write, &event)
	}
	a.balance(&event)
	if debugging {
		a.checkInvariants()
	}
	countEvent(&a.stats, &event)
	return event
}

func (a *Aging[ID]) handleHardFault(id ID, write bool, event *Event[ID]) {
	event.Outcome = HardFault
	if a.free == 0 {
		a.pageOut(a.urgentPageOut, event)
	}
	if a.free == 0 {
		if victim, ok := a.inactive.PopFront(); ok {
			unit, err := a.store.Remove(victim)
			must(err)
			a.free++
			event.addEviction(ForcedEvicted, unit)
		}
	}
	if a.free == 0 {
		event.Outcome = Dropped
		return
	}
	a.free--
	unit := &Unit[ID]{
		ID:        id,
		Residency: Active,
	}
	unit.touch(a.clock.Now(), write)
	must(a.store.Insert(unit))
	a.active.PushBack(id)
}

// balance demotes aged active units and wakes
// the page-out daemon below the low-water mark.
func (a *Aging[ID]) balance(event *Event[ID]) {
	now := a.clock.Now()
	for id := range a.active.All() {
		unit := a.store.mustGet(id)
		if unit.age(now) <= a.activeThreshold {
			continue
		}
		a.active.Remove(id)
		a.inactive.PushBack(id)
		unit.Residency = Inactive
		event.add(Demoted, id)
	}
	if a.free < a.minFree {
		a.pageOut(a.urgentPageOut && a.free == 0, event)
	}
}

// pageOut frees inactive units, oldest first, until the high-water mark
// is met. Unless urgent, only units older than the inactive threshold
// are freed. Modified units are reported as written back.
func (a *Aging[ID]) pageOut(urgent bool, event *Event[ID]) {
	now := a.clock.Now()
	for id := range a.inactive.All() {
		if a.free >= a.targetFree {
			return
		}
		unit := a.store.mustGet(id)
		if !urgent && unit.age(now) <= a.inactiveThreshold {
			continue
		}
		a.inactive.Remove(id)
		_, err := a.store.Remove(id)
		must(err)
		a.free++
		event.addEviction(Evicted, unit)
	}
}

// Lookup returns a copy of the unit for id if it is resident.
func (a *Aging[ID]) Lookup(id ID) (Unit[ID], bool) {
	if unit, ok := a.store.Get(id); ok {
		return *unit, true
	}
	return Unit[ID]{}, false
}

// Snapshot returns both lists, oldest first.
func (a *Aging[ID]) Snapshot() Snapshot[ID] {
	return Snapshot[ID]{
		Active:   a.active.Slice(),
		Inactive: a.inactive.Slice(),
		Free:     a.free,
		Capacity: a.capacity,
	}
}

// Stats returns the policy's running counters.
func (a *Aging[ID]) Stats() Stats { return a.stats }

// Len returns the number of resident units.
func (a *Aging[ID]) Len() int { return a.store.Size() }

// Marks returns the low and high free-page water marks.
func (a *Aging[ID]) Marks() (minFree, targetFree int) {
	return a.minFree, a.targetFree
}

func (a *Aging[ID]) checkInvariants() {
	assert(a.store.Size() == a.active.Len()+a.inactive.Len(),
		"store and lists disagree on resident count")
	assert(a.store.Size()+a.free == a.capacity,
		"resident and free frames do not add up to capacity")
	for unit := range a.store.Units() {
		switch unit.Residency {
		case Active:
			assert(a.active.Contains(unit.ID), "active unit missing from active list")
		case Inactive:
			assert(a.inactive.Contains(unit.ID), "inactive unit missing from inactive list")
		default:
			assert(false, "unit has a residency this policy does not use")
		}
	}
}
