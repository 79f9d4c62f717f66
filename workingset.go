package pagereplace

import (
	"cmp"
	"time"

	"github.com/djdv/go-pagereplace/internal/ring"
)

// WorkingSet keeps at most maxSize resident units in a single set.
// Reference bits are reset periodically; units that age past the age
// threshold are trimmed unless referenced, in which case they lose the
// bit instead (second chance). When a fault finds the set full, every
// aged unreferenced unit is evicted, or the oldest unit if none qualify.
// Concurrent access must be guarded by the caller.
// Constructed by [NewWorkingSet].
type WorkingSet[ID cmp.Ordered] struct {
	lastClear time.Time
	clock     Clock
	store     *PageStore[ID]
	members   *ring.List[ID]
	stats     Stats
	ageThreshold,
	clearInterval time.Duration
	maxSize int
}

// NewWorkingSet creates a [WorkingSet] holding at most maxSize units.
// It honors [WithClock], [WithAgeThreshold],
// and [WithReferenceClearInterval].
func NewWorkingSet[ID cmp.Ordered](maxSize int, options ...Option) (*WorkingSet[ID], error) {
	settings, err := newSettings(maxSize, options)
	if err != nil {
		return nil, err
	}
	return &WorkingSet[ID]{
		lastClear:     settings.clock.Now(),
		clock:         settings.clock,
		store:         NewPageStore[ID](maxSize),
		members:       ring.New[ID](maxSize),
		ageThreshold:  settings.ageThreshold,
		clearInterval: settings.clearInterval,
		maxSize:       maxSize,
	}, nil
}

// AccessPage references id, marking it modified if write is set.
func (ws *WorkingSet[ID]) AccessPage(id ID, write bool) Event[ID] {
	var (
		event = Event[ID]{ID: id, Write: write}
		now   = ws.clock.Now()
	)
	if now.Sub(ws.lastClear) > ws.clearInterval {
		for unit := range ws.store.Units() {
			unit.Referenced = false
		}
		ws.lastClear = now
		event.ReferencesCleared = true
	}
	if unit, ok := ws.store.Get(id); ok {
		unit.touch(now, write)
		unit.Referenced = true
		event.Outcome = Hit
	} else {
		ws.handleFault(id, write, now, &event)
	}
	ws.trim(now, &event)
	if debugging {
		ws.checkInvariants()
	}
	countEvent(&ws.stats, &event)
	return event
}

func (ws *WorkingSet[ID]) handleFault(id ID, write bool, now time.Time, event *Event[ID]) {
	event.Outcome = HardFault
	if ws.store.Size() >= ws.maxSize {
		ws.evict(now, event)
	}
	unit := &Unit[ID]{
		ID:         id,
		Referenced: true,
		Residency:  Resident,
	}
	unit.touch(now, write)
	must(ws.store.Insert(unit))
	ws.members.PushBack(id)
}

// evict removes every aged, unreferenced unit,
// or the least recently accessed unit if there are none.
func (ws *WorkingSet[ID]) evict(now time.Time, event *Event[ID]) {
	var victims []ID
	for id := range ws.members.All() {
		unit := ws.store.mustGet(id)
		if unit.age(now) > ws.ageThreshold && !unit.Referenced {
			victims = append(victims, id)
		}
	}
	if len(victims) == 0 {
		if oldest, ok := ws.oldest(); ok {
			victims = append(victims, oldest)
		}
	}
	for _, id := range victims {
		ws.remove(id, event)
	}
}

// oldest returns the unit with the earliest access time.
// Ties go to the lowest identifier.
func (ws *WorkingSet[ID]) oldest() (ID, bool) {
	var (
		oldest *Unit[ID]
		found  bool
	)
	for id := range ws.members.All() {
		unit := ws.store.mustGet(id)
		if !found ||
			unit.LastAccess.Before(oldest.LastAccess) ||
			(unit.LastAccess.Equal(oldest.LastAccess) && unit.ID < oldest.ID) {
			oldest, found = unit, true
		}
	}
	if !found {
		var zero ID
		return zero, false
	}
	return oldest.ID, true
}

// trim gives aged, referenced units a second chance
// and evicts aged, unreferenced ones.
func (ws *WorkingSet[ID]) trim(now time.Time, event *Event[ID]) {
	for id := range ws.members.All() {
		unit := ws.store.mustGet(id)
		if unit.age(now) <= ws.ageThreshold {
			continue
		}
		if unit.Referenced {
			unit.Referenced = false
			event.add(SecondChance, id)
			continue
		}
		ws.remove(id, event)
	}
}

func (ws *WorkingSet[ID]) remove(id ID, event *Event[ID]) {
	ws.members.Remove(id)
	unit, err := ws.store.Remove(id)
	must(err)
	event.addEviction(Evicted, unit)
}

// Lookup returns a copy of the unit for id if it is resident.
func (ws *WorkingSet[ID]) Lookup(id ID) (Unit[ID], bool) {
	if unit, ok := ws.store.Get(id); ok {
		return *unit, true
	}
	return Unit[ID]{}, false
}

// Snapshot reports the set's members, in insertion order, as active.
func (ws *WorkingSet[ID]) Snapshot() Snapshot[ID] {
	return Snapshot[ID]{
		Active:   ws.members.Slice(),
		Free:     ws.maxSize - ws.store.Size(),
		Capacity: ws.maxSize,
	}
}

// Stats returns the policy's running counters.
func (ws *WorkingSet[ID]) Stats() Stats { return ws.stats }

// Len returns the number of resident units.
func (ws *WorkingSet[ID]) Len() int { return ws.store.Size() }

func (ws *WorkingSet[ID]) checkInvariants() {
	assert(ws.store.Size() == ws.members.Len(),
		"store and set disagree on resident count")
	assert(ws.store.Size() <= ws.maxSize,
		"resident count exceeds maximum size")
	for unit := range ws.store.Units() {
		assert(unit.Residency == Resident && ws.members.Contains(unit.ID),
			"stored unit missing from set")
	}
}
