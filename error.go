package pagereplace

import "fmt"

type constError string

const (
	// ErrInvalidCapacity may be returned from policy constructors.
	ErrInvalidCapacity = constError("invalid capacity")
	// ErrInvalidThreshold may be returned from policy constructors
	// when an age, interval, or divisor option is out of range.
	ErrInvalidThreshold = constError("invalid threshold")
	// ErrInvalidOption may be returned from policy constructors
	// when options contradict each other.
	ErrInvalidOption = constError("invalid option")
	// ErrUnknownKind may be returned from [New] and [ParseKind].
	ErrUnknownKind = constError("unknown policy kind")
	// ErrDuplicateKey is returned from [PageStore.Insert].
	ErrDuplicateKey = constError("duplicate key")
	// ErrNotFound is returned from [PageStore.Remove].
	ErrNotFound = constError("not found")
)

func (errStr constError) Error() string { return string(errStr) }

func minCapacityError(capacity int) error {
	return fmt.Errorf(
		"%w: must be >=%d but %d was requested",
		ErrInvalidCapacity, MinimumCapacity, capacity)
}

func negativeDurationError(name string, value any) error {
	return fmt.Errorf(
		"%w: %s must not be negative but %v was requested",
		ErrInvalidThreshold, name, value)
}

func divisorError(name string, divisor int) error {
	return fmt.Errorf(
		"%w: %s must be >=1 but %d was requested",
		ErrInvalidThreshold, name, divisor)
}

// must panics on errors that can only come from
// a broken list/index invariant inside a policy.
func must(err error) {
	if err != nil {
		panic(fmt.Errorf("pagereplace: invariant violated: %w", err))
	}
}
