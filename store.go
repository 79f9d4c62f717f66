package pagereplace

import (
	"cmp"
	"fmt"
	"iter"
	"time"
)

// Residency describes which population a resident unit belongs to.
type Residency uint8

const (
	// Inactive units are candidates for reclamation.
	Inactive Residency = iota
	// Active units are protected until demoted.
	Active
	// Resident is used by policies with a single population.
	Resident
)

func (r Residency) String() string {
	switch r {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case Resident:
		return "resident"
	default:
		return fmt.Sprintf("Residency(%d)", uint8(r))
	}
}

type (
	// Unit is the resident metadata of a page.
	Unit[ID cmp.Ordered] struct {
		// LastAccess is the clock time of the most recent touch.
		LastAccess time.Time
		ID         ID
		// Referenced is true if the unit was accessed
		// since a policy last cleared the bit.
		Referenced bool
		// Modified is true if the unit was written to
		// since it became resident.
		Modified  bool
		Residency Residency
	}
	// PageStore owns the units of one policy instance,
	// indexed by identifier. A unit is stored if and only if
	// it is resident. Lists elsewhere hold identifiers only.
	PageStore[ID cmp.Ordered] struct {
		units map[ID]*Unit[ID]
	}
)

func (u *Unit[ID]) touch(now time.Time, write bool) {
	u.LastAccess = now
	if write {
		u.Modified = true
	}
}

func (u *Unit[ID]) age(now time.Time) time.Duration {
	return now.Sub(u.LastAccess)
}

// NewPageStore creates an empty store sized for capacity units.
func NewPageStore[ID cmp.Ordered](capacity int) *PageStore[ID] {
	return &PageStore[ID]{
		units: make(map[ID]*Unit[ID], max(capacity, 0)),
	}
}

// Get returns the unit for id if it is resident.
// The returned unit is owned by the store and may be modified in place.
func (s *PageStore[ID]) Get(id ID) (*Unit[ID], bool) {
	unit, ok := s.units[id]
	return unit, ok
}

// Insert stores unit under its identifier.
func (s *PageStore[ID]) Insert(unit *Unit[ID]) error {
	if _, ok := s.units[unit.ID]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, unit.ID)
	}
	s.units[unit.ID] = unit
	return nil
}

// Remove deletes and returns the unit stored for id.
func (s *PageStore[ID]) Remove(id ID) (*Unit[ID], error) {
	unit, ok := s.units[id]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	delete(s.units, id)
	return unit, nil
}

// mustGet is used for identifiers taken from a policy list,
// which must always be stored.
func (s *PageStore[ID]) mustGet(id ID) *Unit[ID] {
	unit, ok := s.units[id]
	if !ok {
		must(fmt.Errorf("%w: %v is listed but not stored", ErrNotFound, id))
	}
	return unit
}

// Size returns the number of resident units.
func (s *PageStore[ID]) Size() int { return len(s.units) }

// Units returns an iterator over the (unordered) resident units.
func (s *PageStore[ID]) Units() iter.Seq[*Unit[ID]] {
	return func(yield func(*Unit[ID]) bool) {
		for _, unit := range s.units {
			if !yield(unit) {
				return
			}
		}
	}
}
