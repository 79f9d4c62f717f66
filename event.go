package pagereplace

import (
	"cmp"
	"fmt"
	"strings"
)

// Outcome classifies how an access was served.
type Outcome uint8

const (
	// Hit means the unit was resident in its hot population.
	Hit Outcome = iota
	// Referenced means an inactive unit received its first reference.
	Referenced
	// Promoted means an inactive unit moved to the active list.
	Promoted
	// SoftFault means a resident but inactive unit was reactivated.
	SoftFault
	// HardFault means the unit was not resident and has been loaded.
	HardFault
	// Dropped means the unit was not resident and no slot could be freed.
	// The access is not recorded in residency.
	Dropped
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Referenced:
		return "referenced"
	case Promoted:
		return "promoted"
	case SoftFault:
		return "soft fault"
	case HardFault:
		return "hard fault"
	case Dropped:
		return "dropped"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// Fault reports whether the access missed residency.
func (o Outcome) Fault() bool {
	return o == HardFault || o == Dropped
}

// ActionKind classifies maintenance performed during an access.
type ActionKind uint8

const (
	// Evicted units were removed from residency.
	Evicted ActionKind = iota
	// ForcedEvicted units were removed regardless of age
	// because no free slot remained.
	ForcedEvicted
	// Demoted units moved from the active to the inactive population.
	Demoted
	// Refilled units moved from the active list to the inactive list
	// to rebalance the two.
	Refilled
	// SecondChance units had their reference bit cleared
	// instead of being evicted.
	SecondChance
)

func (k ActionKind) String() string {
	switch k {
	case Evicted:
		return "evicted"
	case ForcedEvicted:
		return "forced eviction"
	case Demoted:
		return "demoted"
	case Refilled:
		return "refilled"
	case SecondChance:
		return "second chance"
	default:
		return fmt.Sprintf("ActionKind(%d)", uint8(k))
	}
}

type (
	// Action is one change applied to a unit during an access.
	Action[ID cmp.Ordered] struct {
		ID   ID
		Kind ActionKind
		// Dirty is set on evictions of modified units,
		// which are considered written back.
		Dirty bool
	}
	// Event describes everything a policy did for one access.
	Event[ID cmp.Ordered] struct {
		Actions []Action[ID]
		ID      ID
		Write   bool
		Outcome Outcome
		// ReferencesCleared is set when every resident
		// reference bit was reset before serving the access.
		ReferencesCleared bool
	}
)

func (a Action[ID]) String() string {
	if a.Dirty && (a.Kind == Evicted || a.Kind == ForcedEvicted) {
		return fmt.Sprintf("%s %v (written back)", a.Kind, a.ID)
	}
	return fmt.Sprintf("%s %v", a.Kind, a.ID)
}

// Evictions returns the identifiers removed from residency.
func (e *Event[ID]) Evictions() []ID {
	var ids []ID
	for _, action := range e.Actions {
		if action.Kind == Evicted || action.Kind == ForcedEvicted {
			ids = append(ids, action.ID)
		}
	}
	return ids
}

func (e *Event[ID]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v", e.ID)
	if e.Write {
		b.WriteString(" (write)")
	}
	fmt.Fprintf(&b, ": %s", e.Outcome)
	for _, action := range e.Actions {
		fmt.Fprintf(&b, "; %s", action)
	}
	return b.String()
}

func (e *Event[ID]) add(kind ActionKind, id ID) {
	e.Actions = append(e.Actions, Action[ID]{ID: id, Kind: kind})
}

func (e *Event[ID]) addEviction(kind ActionKind, unit *Unit[ID]) {
	e.Actions = append(e.Actions, Action[ID]{
		ID:    unit.ID,
		Kind:  kind,
		Dirty: unit.Modified,
	})
}
