package pagereplace_test

import (
	"fmt"
	"time"

	"github.com/djdv/go-pagereplace"
)

func ExampleTwoList() {
	const capacity = 5
	policy, err := pagereplace.NewTwoList[int](capacity)
	if err != nil {
		panic(err) // TODO(Anyone): Handle error.
	}
	for _, id := range []int{1, 2, 3, 4, 5, 2, 2} {
		policy.AccessPage(id, false)
	}
	fmt.Println(policy.Snapshot())
	// Output:
	// active: [2] | inactive: [5 4 3 1] | free: 0/5
}

func ExampleAging() {
	const capacity = 3
	clock := pagereplace.NewLogicalClock()
	policy, err := pagereplace.NewAging[int](capacity,
		pagereplace.WithClock(clock))
	if err != nil {
		panic(err) // TODO(Anyone): Handle error.
	}
	policy.AccessPage(1, true)
	policy.AccessPage(2, false)
	clock.Advance(500 * time.Millisecond)
	event := policy.AccessPage(3, false)
	fmt.Println(&event)
	clock.Advance(time.Second)
	event = policy.AccessPage(4, false)
	fmt.Println(&event)
	fmt.Println(policy.Snapshot())
	// Output:
	// 3: hard fault; demoted 1; demoted 2
	// 4: hard fault; evicted 1 (written back); demoted 3; evicted 2
	// active: [4] | inactive: [3] | free: 1/3
}

func ExampleWorkingSet() {
	const maxSize = 2
	policy, err := pagereplace.NewWorkingSet[string](maxSize)
	if err != nil {
		panic(err) // TODO(Anyone): Handle error.
	}
	for _, id := range []string{"a", "b", "a", "c"} {
		event := policy.AccessPage(id, false)
		fmt.Println(&event)
	}
	// Output:
	// a: hard fault
	// b: hard fault
	// a: hit
	// c: hard fault; evicted a
}
