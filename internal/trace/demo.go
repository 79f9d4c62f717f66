package trace

import (
	"fmt"
	"strings"
	"time"
)

// Demo is a scripted run of one policy.
type Demo struct {
	// Name identifies the demo and the system it models.
	Name string
	// Policy is the name of the policy the demo drives.
	Policy   string
	Phases   [][]Access
	Capacity int
	// Tick is the time that passes between two accesses.
	Tick time.Duration
}

// ErrUnknownDemo is returned from [LookupDemo].
const ErrUnknownDemo = constError("unknown demo")

// Demos returns the built-in demos.
func Demos() []Demo {
	return []Demo{
		{
			Name:     "linux",
			Policy:   "twolist",
			Capacity: 5,
			Phases: [][]Access{
				Reads(1, 2, 3, 4, 5),
				Reads(2, 3, 5),
				Reads(6, 8, 9),
				Reads(9, 8, 9, 8),
				Reads(1, 1, 4, 4, 7, 7),
			},
		},
		{
			Name:     "macos",
			Policy:   "aging",
			Capacity: 5,
			Tick:     150 * time.Millisecond,
			Phases: [][]Access{
				WithWrites(Reads(1, 2, 3, 4, 1, 2, 5, 6, 1, 2, 3, 4, 5, 6), 1.0/3, 1),
			},
		},
		{
			Name:     "windows",
			Policy:   "workingset",
			Capacity: 8,
			Tick:     100 * time.Millisecond,
			Phases: [][]Access{
				Reads(
					1, 2, 3, 4, 1, 2, 5, 6, 1, 2, 3, 4, 5, 6, 7, 8, 9, 1, 2, 3,
					9, 9, 8, 8, 7, 7, 6, 4, 4, 3, 3, 4, 2, 2, 5, 5, 5, 2, 4, 1,
				),
			},
		},
	}
}

// LookupDemo returns the demo with the given name.
func LookupDemo(name string) (Demo, error) {
	var names []string
	for _, demo := range Demos() {
		if strings.EqualFold(demo.Name, name) {
			return demo, nil
		}
		names = append(names, demo.Name)
	}
	return Demo{}, fmt.Errorf("%w: %q (want one of %s)",
		ErrUnknownDemo, name, strings.Join(names, ", "))
}

// Accesses returns every phase of the demo in order.
func (d Demo) Accesses() []Access {
	var accesses []Access
	for _, phase := range d.Phases {
		accesses = append(accesses, phase...)
	}
	return accesses
}
