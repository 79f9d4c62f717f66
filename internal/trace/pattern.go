package trace

import (
	"fmt"
	"strings"
)

// Params configures [Generate]. Fields a pattern does not use are ignored.
type Params struct {
	Universe, Length, HotSize int
	HotRatio, Skew, Bias      float64
	// WriteRatio is the share of accesses marked as writes.
	WriteRatio float64
	Seed       int64
}

// Patterns lists the names accepted by [Generate].
func Patterns() []string {
	return []string{"sequential", "loop", "zipf", "uniform"}
}

// DefaultParams returns parameters scaled to a policy of the given capacity:
// a universe four times larger, a hot set the size of capacity
// receiving 90% of accesses, and a Zipf skew of 1.2.
func DefaultParams(capacity int) Params {
	return Params{
		Universe: max(capacity, 1) * 4,
		Length:   1024,
		HotSize:  max(capacity, 1),
		HotRatio: 0.9,
		Skew:     1.2,
		Bias:     1.0,
		Seed:     1,
	}
}

// Generate builds the named access pattern.
func Generate(pattern string, params Params) ([]Access, error) {
	if params.Length < 0 || params.Universe < 1 {
		return nil, fmt.Errorf(
			"%w: length (%d) must not be negative and universe (%d) must be positive",
			ErrInvalidParameter, params.Length, params.Universe)
	}
	if params.WriteRatio < 0 || params.WriteRatio > 1 {
		return nil, fmt.Errorf("%w: write ratio %v is outside [0, 1]",
			ErrInvalidParameter, params.WriteRatio)
	}
	var accesses []Access
	switch strings.ToLower(pattern) {
	case "sequential":
		accesses = Sequential(params.Universe, params.Length)
	case "loop":
		if params.HotRatio < 0 || params.HotRatio > 1 {
			return nil, fmt.Errorf("%w: hot ratio %v is outside [0, 1]",
				ErrInvalidParameter, params.HotRatio)
		}
		accesses = Loop(params.HotSize, params.Universe, params.Length,
			params.HotRatio, params.Seed)
	case "zipf":
		if params.Skew <= 1 || params.Bias < 1 {
			return nil, fmt.Errorf("%w: zipf needs skew > 1 and bias >= 1 (got %v, %v)",
				ErrInvalidParameter, params.Skew, params.Bias)
		}
		accesses = Zipf(params.Universe, params.Length,
			params.Skew, params.Bias, params.Seed)
	case "uniform":
		accesses = Uniform(params.Universe, params.Length, params.Seed)
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)",
			ErrUnknownPattern, pattern, strings.Join(Patterns(), ", "))
	}
	if params.WriteRatio > 0 {
		accesses = WithWrites(accesses, params.WriteRatio, params.Seed)
	}
	return accesses, nil
}
