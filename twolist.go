package pagereplace

import (
	"cmp"

	"github.com/djdv/go-pagereplace/internal/ring"
)

// TwoList keeps resident units on an active and an inactive list.
// A unit enters the inactive list on a fault, is promoted to the active
// list by its second reference, and is reclaimed from the inactive tail.
// The inactive list is refilled from the active tail so that it holds
// at least a fixed share of all resident units.
// Concurrent access must be guarded by the caller.
// Constructed by [NewTwoList].
type TwoList[ID cmp.Ordered] struct {
	clock            Clock
	store            *PageStore[ID]
	active, inactive *ring.List[ID]
	stats            Stats
	capacity,
	refillDivisor, scanDivisor int
	faultReference bool
}

// NewTwoList creates a [TwoList] holding at most capacity units.
// It honors [WithClock], [WithRefillDivisor], [WithScanDivisor],
// and [WithFaultReference].
func NewTwoList[ID cmp.Ordered](capacity int, options ...Option) (*TwoList[ID], error) {
	settings, err := newSettings(capacity, options)
	if err != nil {
		return nil, err
	}
	return &TwoList[ID]{
		clock:          settings.clock,
		store:          NewPageStore[ID](capacity),
		active:         ring.New[ID](capacity),
		inactive:       ring.New[ID](capacity),
		capacity:       capacity,
		refillDivisor:  settings.refillDivisor,
		scanDivisor:    settings.scanDivisor,
		faultReference: settings.faultReference,
	}, nil
}

// AccessPage references id. The write flag is recorded
// in the event only; this policy does not track dirty units.
func (tl *TwoList[ID]) AccessPage(id ID, write bool) Event[ID] {
	event := Event[ID]{ID: id, Write: write}
	if unit, ok := tl.store.Get(id); ok {
		tl.markAccessed(unit, &event)
	} else {
		tl.handleFault(id, &event)
	}
	if debugging {
		tl.checkInvariants()
	}
	countEvent(&tl.stats, &event)
	return event
}

func (tl *TwoList[ID]) markAccessed(unit *Unit[ID], event *Event[ID]) {
	unit.touch(tl.clock.Now(), false)
	switch {
	case unit.Residency == Active:
		unit.Referenced = true
		event.Outcome = Hit
	case !unit.Referenced:
		unit.Referenced = true
		event.Outcome = Referenced
	default:
		tl.activate(unit)
		event.Outcome = Promoted
	}
}

// activate moves an inactive unit to the head of the active list.
func (tl *TwoList[ID]) activate(unit *Unit[ID]) {
	tl.inactive.Remove(unit.ID)
	tl.active.PushFront(unit.ID)
	unit.Residency = Active
	unit.Referenced = false
}

func (tl *TwoList[ID]) handleFault(id ID, event *Event[ID]) {
	event.Outcome = HardFault
	if tl.store.Size() >= tl.capacity {
		tl.reclaim(1, event)
	}
	unit := &Unit[ID]{
		ID:         id,
		LastAccess: tl.clock.Now(),
		Referenced: tl.faultReference,
		Residency:  Inactive,
	}
	must(tl.store.Insert(unit))
	tl.inactive.PushFront(id)
	tl.refill(0, event)
}

// refill moves units from the active tail to the inactive head until
// the inactive list reaches its target share, or at least minimum
// units were moved. Referenced units at the active tail have their bit
// cleared and are rotated to the active head; rotations are not moves.
func (tl *TwoList[ID]) refill(minimum int, event *Event[ID]) {
	var (
		total  = tl.active.Len() + tl.inactive.Len()
		target = total / tl.refillDivisor
		toMove = max(target-tl.inactive.Len(), minimum)
	)
	for moved := 0; moved < toMove && tl.active.Len() > 0; {
		id, _ := tl.active.PopBack()
		unit := tl.store.mustGet(id)
		if unit.Referenced {
			unit.Referenced = false
			tl.active.PushFront(id)
			continue
		}
		unit.Residency = Inactive
		unit.Referenced = false
		tl.inactive.PushFront(id)
		event.add(Refilled, id)
		moved++
	}
}

// Reclaim evicts up to n units from the inactive list, refilling it from
// the active list as needed. It returns what was done to which units.
// Reclaim is best effort: it stops early when both lists are exhausted.
func (tl *TwoList[ID]) Reclaim(n int) []Action[ID] {
	var event Event[ID]
	tl.reclaim(n, &event)
	if debugging {
		tl.checkInvariants()
	}
	for _, action := range event.Actions {
		if action.Kind == Evicted {
			tl.stats.Evictions++
		}
	}
	return event.Actions
}

func (tl *TwoList[ID]) reclaim(n int, event *Event[ID]) (freed int) {
	remaining := n
	for remaining > 0 && (tl.inactive.Len() > 0 || tl.active.Len() > 0) {
		var (
			maxScan         = max(tl.inactive.Len()/tl.scanDivisor, n*2)
			scanned         int
			victims, spared []ID
		)
		for id := range tl.inactive.Backward() {
			if len(victims) >= remaining || scanned >= maxScan {
				break
			}
			scanned++
			unit := tl.store.mustGet(id)
			if unit.Referenced {
				unit.Referenced = false
				spared = append(spared, id)
			} else {
				victims = append(victims, id)
			}
		}
		for _, id := range victims {
			tl.inactive.Remove(id)
			unit, err := tl.store.Remove(id)
			must(err)
			event.addEviction(Evicted, unit)
		}
		for _, id := range spared {
			tl.inactive.Remove(id)
			tl.active.PushFront(id)
			tl.store.mustGet(id).Residency = Active
			event.add(SecondChance, id)
		}
		remaining -= len(victims)
		freed += len(victims)
		if remaining == 0 || tl.active.Len() == 0 {
			break
		}
		tl.refill(remaining, event)
	}
	return freed
}

// Lookup returns a copy of the unit for id if it is resident.
func (tl *TwoList[ID]) Lookup(id ID) (Unit[ID], bool) {
	if unit, ok := tl.store.Get(id); ok {
		return *unit, true
	}
	return Unit[ID]{}, false
}

// Snapshot returns both lists from head to tail.
func (tl *TwoList[ID]) Snapshot() Snapshot[ID] {
	return Snapshot[ID]{
		Active:   tl.active.Slice(),
		Inactive: tl.inactive.Slice(),
		Free:     tl.capacity - tl.store.Size(),
		Capacity: tl.capacity,
	}
}

// Stats returns the policy's running counters.
func (tl *TwoList[ID]) Stats() Stats { return tl.stats }

// Len returns the number of resident units.
func (tl *TwoList[ID]) Len() int { return tl.store.Size() }

func (tl *TwoList[ID]) checkInvariants() {
	assert(tl.store.Size() == tl.active.Len()+tl.inactive.Len(),
		"store and lists disagree on resident count")
	assert(tl.store.Size() <= tl.capacity,
		"resident count exceeds capacity")
	for unit := range tl.store.Units() {
		switch unit.Residency {
		case Active:
			assert(tl.active.Contains(unit.ID), "active unit missing from active list")
		case Inactive:
			assert(tl.inactive.Contains(unit.ID), "inactive unit missing from inactive list")
		default:
			assert(false, "unit has a residency this policy does not use")
		}
	}
}
