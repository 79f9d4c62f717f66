package pagereplace

import (
	"cmp"
	"fmt"
	"strings"
	"time"
)

type (
	// Policy is a page-replacement policy driven one access at a time.
	// Concurrent access must be guarded by the caller.
	Policy[ID cmp.Ordered] interface {
		// AccessPage references id, faulting it in if needed,
		// and reports everything the policy did in response.
		AccessPage(id ID, write bool) Event[ID]
		// Lookup returns a copy of the unit for id if it is resident.
		Lookup(id ID) (Unit[ID], bool)
		// Snapshot returns a copy of the policy's lists.
		Snapshot() Snapshot[ID]
		// Stats returns the policy's running counters.
		Stats() Stats
	}
	// Snapshot is a copy of a policy's residency state.
	Snapshot[ID cmp.Ordered] struct {
		// Active is ordered the way the policy orders its
		// active population (for a working set, all residents).
		Active []ID
		// Inactive is ordered the way the policy scans it.
		Inactive       []ID
		Free, Capacity int
	}
	// Stats counts what a policy did since construction.
	Stats struct {
		Accesses, Hits,
		SoftFaults, HardFaults, Dropped,
		Promotions, Demotions,
		Evictions, WriteBacks uint64
	}
	// Kind names one of the policies in this package.
	Kind uint8
	// Option configures a policy constructor.
	// Options that do not apply to a policy are ignored by it.
	Option func(*settings) error
	settings struct {
		clock Clock
		activeThreshold, inactiveThreshold,
		ageThreshold, clearInterval time.Duration
		minFree, targetFree,
		refillDivisor, scanDivisor int
		faultReference, urgentPageOut bool
	}
)

// MinimumCapacity defines the lowest capacity supported by the constructors.
const MinimumCapacity = 1

const (
	// DefaultActiveThreshold is the age after which
	// an aging policy demotes an active unit.
	DefaultActiveThreshold = 400 * time.Millisecond
	// DefaultInactiveThreshold is the age after which
	// the page-out daemon may free an inactive unit.
	DefaultInactiveThreshold = 800 * time.Millisecond
	// DefaultAgeThreshold is the age after which
	// a working set considers a unit for trimming.
	DefaultAgeThreshold = time.Second
	// DefaultReferenceClearInterval is how often
	// a working set resets every reference bit.
	DefaultReferenceClearInterval = time.Second
	// DefaultRefillDivisor sets the two-list inactive target
	// to a third of all resident units.
	DefaultRefillDivisor = 3
	// DefaultScanDivisor sets the two-list reclaim scan budget
	// to a sixth of the inactive list.
	DefaultScanDivisor = 6
)

const (
	// KindTwoList selects [TwoList].
	KindTwoList Kind = iota
	// KindAging selects [Aging].
	KindAging
	// KindWorkingSet selects [WorkingSet].
	KindWorkingSet
)

// Kinds lists every [Kind], in declaration order.
func Kinds() []Kind { return []Kind{KindTwoList, KindAging, KindWorkingSet} }

func (k Kind) String() string {
	switch k {
	case KindTwoList:
		return "twolist"
	case KindAging:
		return "aging"
	case KindWorkingSet:
		return "workingset"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind accepts a policy name or the name
// of the operating system it models.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "twolist", "two-list", "linux":
		return KindTwoList, nil
	case "aging", "macos", "darwin":
		return KindAging, nil
	case "workingset", "working-set", "windows":
		return KindWorkingSet, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// New constructs the policy named by kind.
func New[ID cmp.Ordered](kind Kind, capacity int, options ...Option) (Policy[ID], error) {
	switch kind {
	case KindTwoList:
		return NewTwoList[ID](capacity, options...)
	case KindAging:
		return NewAging[ID](capacity, options...)
	case KindWorkingSet:
		return NewWorkingSet[ID](capacity, options...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// WithClock sets the time source used to age units.
// Without it, each policy uses its own [LogicalClock].
func WithClock(clock Clock) Option {
	return func(s *settings) error {
		if clock == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidOption)
		}
		s.clock = clock
		return nil
	}
}

// WithActiveThreshold sets the age after which
// an aging policy demotes active units.
func WithActiveThreshold(age time.Duration) Option {
	return durationOption("active threshold", age,
		func(s *settings) *time.Duration { return &s.activeThreshold })
}

// WithInactiveThreshold sets the age after which
// an aging policy's page-out daemon frees inactive units.
func WithInactiveThreshold(age time.Duration) Option {
	return durationOption("inactive threshold", age,
		func(s *settings) *time.Duration { return &s.inactiveThreshold })
}

// WithAgeThreshold sets the age after which a working set
// trims units (or clears their reference bit).
func WithAgeThreshold(age time.Duration) Option {
	return durationOption("age threshold", age,
		func(s *settings) *time.Duration { return &s.ageThreshold })
}

// WithReferenceClearInterval sets how much clock time must pass
// before a working set resets every reference bit.
func WithReferenceClearInterval(interval time.Duration) Option {
	return durationOption("reference clear interval", interval,
		func(s *settings) *time.Duration { return &s.clearInterval })
}

func durationOption(name string, value time.Duration, field func(*settings) *time.Duration) Option {
	return func(s *settings) error {
		if value < 0 {
			return negativeDurationError(name, value)
		}
		*field(s) = value
		return nil
	}
}

// WithMinFree sets the aging policy's low-water mark.
func WithMinFree(pages int) Option {
	return func(s *settings) error {
		if pages < 1 {
			return fmt.Errorf("%w: minimum free pages must be >=1 but %d was requested",
				ErrInvalidThreshold, pages)
		}
		s.minFree = pages
		return nil
	}
}

// WithTargetFree sets the aging policy's high-water mark.
func WithTargetFree(pages int) Option {
	return func(s *settings) error {
		if pages < 1 {
			return fmt.Errorf("%w: target free pages must be >=1 but %d was requested",
				ErrInvalidThreshold, pages)
		}
		s.targetFree = pages
		return nil
	}
}

// WithRefillDivisor sets the two-list inactive target
// to total resident units divided by divisor.
func WithRefillDivisor(divisor int) Option {
	return func(s *settings) error {
		if divisor < 1 {
			return divisorError("refill divisor", divisor)
		}
		s.refillDivisor = divisor
		return nil
	}
}

// WithScanDivisor sets the two-list reclaim scan budget
// to the inactive length divided by divisor
// (never less than twice the pages requested).
func WithScanDivisor(divisor int) Option {
	return func(s *settings) error {
		if divisor < 1 {
			return divisorError("scan divisor", divisor)
		}
		s.scanDivisor = divisor
		return nil
	}
}

// WithFaultReference makes a two-list fault count
// as the unit's first reference, so the next access promotes it.
func WithFaultReference(referenced bool) Option {
	return func(s *settings) error {
		s.faultReference = referenced
		return nil
	}
}

// WithUrgentPageOut makes an aging page-out daemon that starts with
// no free pages reclaim inactive units regardless of their age.
func WithUrgentPageOut(urgent bool) Option {
	return func(s *settings) error {
		s.urgentPageOut = urgent
		return nil
	}
}

func newSettings(capacity int, options []Option) (*settings, error) {
	if capacity < MinimumCapacity {
		return nil, minCapacityError(capacity)
	}
	s := &settings{
		activeThreshold:   DefaultActiveThreshold,
		inactiveThreshold: DefaultInactiveThreshold,
		ageThreshold:      DefaultAgeThreshold,
		clearInterval:     DefaultReferenceClearInterval,
		refillDivisor:     DefaultRefillDivisor,
		scanDivisor:       DefaultScanDivisor,
	}
	for _, apply := range options {
		if err := apply(s); err != nil {
			return nil, err
		}
	}
	if s.clock == nil {
		s.clock = NewLogicalClock()
	}
	return s, nil
}

// HitRatio returns the share of accesses that did not fault.
func (s Stats) HitRatio() float64 {
	if s.Accesses == 0 {
		return 0
	}
	faults := s.HardFaults + s.Dropped
	return float64(s.Accesses-faults) / float64(s.Accesses)
}

func countEvent[ID cmp.Ordered](stats *Stats, event *Event[ID]) {
	stats.Accesses++
	switch event.Outcome {
	case Hit, Referenced:
		stats.Hits++
	case Promoted:
		stats.Hits++
		stats.Promotions++
	case SoftFault:
		stats.SoftFaults++
	case HardFault:
		stats.HardFaults++
	case Dropped:
		stats.Dropped++
	}
	for _, action := range event.Actions {
		switch action.Kind {
		case Evicted, ForcedEvicted:
			stats.Evictions++
			if action.Dirty {
				stats.WriteBacks++
			}
		case Demoted, Refilled:
			stats.Demotions++
		}
	}
}

func (s Snapshot[ID]) String() string {
	return fmt.Sprintf("active: %v | inactive: %v | free: %d/%d",
		s.Active, s.Inactive, s.Free, s.Capacity)
}

var (
	_ Policy[int] = (*TwoList[int])(nil)
	_ Policy[int] = (*Aging[int])(nil)
	_ Policy[int] = (*WorkingSet[int])(nil)
)
