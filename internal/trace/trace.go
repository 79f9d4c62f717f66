// Package trace provides access sequences for driving page-replacement
// policies: a small text format and reproducible workload generators.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
)

// Access is one reference to a page.
type Access struct {
	ID    int
	Write bool
}

type constError string

const (
	// ErrSyntax is returned from [Parse] for malformed tokens.
	ErrSyntax = constError("trace syntax error")
	// ErrUnknownPattern is returned from [Generate].
	ErrUnknownPattern = constError("unknown pattern")
	// ErrInvalidParameter is returned from [Generate].
	ErrInvalidParameter = constError("invalid pattern parameter")
)

func (errStr constError) Error() string { return string(errStr) }

func (a Access) String() string {
	if a.Write {
		return strconv.Itoa(a.ID) + "w"
	}
	return strconv.Itoa(a.ID)
}

// Reads returns a read access for each id.
func Reads(ids ...int) []Access {
	accesses := make([]Access, len(ids))
	for i, id := range ids {
		accesses[i] = Access{ID: id}
	}
	return accesses
}

// Parse reads a trace of whitespace or comma separated tokens.
// A token is a page number, optionally suffixed with `w` (write)
// or `r` (read). Text after `#` on a line is ignored.
func Parse(r io.Reader) ([]Access, error) {
	var (
		accesses []Access
		scanner  = bufio.NewScanner(r)
		line     int
	)
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if comment := strings.IndexByte(text, '#'); comment >= 0 {
			text = text[:comment]
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		for _, field := range fields {
			access, err := parseToken(field)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			accesses = append(accesses, access)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return accesses, nil
}

func parseToken(token string) (Access, error) {
	var (
		access Access
		digits = token
	)
	switch last := strings.ToLower(token[len(token)-1:]); last {
	case "w":
		access.Write = true
		digits = token[:len(token)-1]
	case "r":
		digits = token[:len(token)-1]
	}
	id, err := strconv.Atoi(digits)
	if err != nil || id < 0 {
		return Access{}, fmt.Errorf("%w: %q is not a page number", ErrSyntax, token)
	}
	access.ID = id
	return access, nil
}

// Format writes accesses in the format read by [Parse],
// perLine tokens to a line.
func Format(w io.Writer, accesses []Access, perLine int) error {
	perLine = max(perLine, 1)
	for i, access := range accesses {
		sep := " "
		if (i+1)%perLine == 0 || i == len(accesses)-1 {
			sep = "\n"
		}
		if _, err := io.WriteString(w, access.String()+sep); err != nil {
			return err
		}
	}
	return nil
}

// Sequential cycles through pages [0, universe).
func Sequential(universe, length int) []Access {
	universe = max(universe, 1)
	seq := make([]Access, length)
	for i := range seq {
		seq[i].ID = i % universe
	}
	return seq
}

// Loop sends hotRatio of accesses to a hot set of hotSize pages
// and the rest to the remainder of the universe.
func Loop(hotSize, universe, length int, hotRatio float64, seed int64) []Access {
	var (
		seq      = make([]Access, length)
		rng      = rand.New(rand.NewSource(seed))
		coldSize = universe - hotSize
	)
	hotSize = max(1, min(hotSize, universe))
	for i := range seq {
		if coldSize < 1 || rng.Float64() < hotRatio {
			seq[i].ID = rng.Intn(hotSize)
		} else {
			seq[i].ID = hotSize + rng.Intn(coldSize)
		}
	}
	return seq
}

// Zipf draws pages from a Zipf distribution over [0, universe).
func Zipf(universe, length int, skew, bias float64, seed int64) []Access {
	var (
		seq  = make([]Access, length)
		rng  = rand.New(rand.NewSource(seed))
		imax = uint64(max(universe, 1) - 1)
		zipf = rand.NewZipf(rng, skew, bias, imax)
	)
	for i := range seq {
		seq[i].ID = int(zipf.Uint64())
	}
	return seq
}

// Uniform draws pages uniformly from [0, universe).
func Uniform(universe, length int, seed int64) []Access {
	var (
		seq = make([]Access, length)
		rng = rand.New(rand.NewSource(seed))
	)
	universe = max(universe, 1)
	for i := range seq {
		seq[i].ID = rng.Intn(universe)
	}
	return seq
}

// WithWrites marks each access as a write with probability ratio.
// The input is not modified.
func WithWrites(accesses []Access, ratio float64, seed int64) []Access {
	var (
		marked = make([]Access, len(accesses))
		rng    = rand.New(rand.NewSource(seed))
	)
	for i, access := range accesses {
		access.Write = rng.Float64() < ratio
		marked[i] = access
	}
	return marked
}
