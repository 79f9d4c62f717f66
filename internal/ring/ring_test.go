package ring_test

import (
	"slices"
	"testing"

	"github.com/djdv/go-pagereplace/internal/ring"
)

func TestList(t *testing.T) {
	t.Run("zero value", zeroValue)
	t.Run("push order", pushOrder)
	t.Run("duplicates", duplicates)
	t.Run("pop", pop)
	t.Run("remove while iterating", removeWhileIterating)
	t.Run("early stop", earlyStop)
}

func zeroValue(t *testing.T) {
	t.Parallel()
	var list ring.List[int]
	if _, ok := list.Front(); ok {
		t.Fatal("empty list returned a front element")
	}
	if _, ok := list.PopBack(); ok {
		t.Fatal("empty list popped a back element")
	}
	list.PushBack(1)
	checkOrder(t, &list, []int{1}, "after push on zero value")
}

func pushOrder(t *testing.T) {
	t.Parallel()
	list := ring.New[int](4)
	list.PushFront(2)
	list.PushFront(1)
	list.PushBack(3)
	list.PushBack(4)
	checkOrder(t, list, []int{1, 2, 3, 4}, "after mixed pushes")
	got := slices.Collect(list.Backward())
	if want := []int{4, 3, 2, 1}; !slices.Equal(got, want) {
		t.Fatalf("backward order mismatch"+
			"\n\tgot: %v"+
			"\n\twant: %v",
			got, want)
	}
}

func duplicates(t *testing.T) {
	t.Parallel()
	list := ring.New[string](2)
	if !list.PushBack("a") {
		t.Fatal("first insert rejected")
	}
	if list.PushFront("a") {
		t.Fatal("duplicate insert accepted")
	}
	if list.Len() != 1 {
		t.Fatalf("expected length 1, got %d", list.Len())
	}
	if !list.Remove("a") || list.Remove("a") {
		t.Fatal("remove did not report membership correctly")
	}
	if list.Contains("a") {
		t.Fatal("removed id still reported as member")
	}
}

func pop(t *testing.T) {
	t.Parallel()
	list := ring.New[int](3)
	for i := range 3 {
		list.PushBack(i + 1)
	}
	if id, _ := list.PopBack(); id != 3 {
		t.Fatalf("expected tail 3, got %d", id)
	}
	if id, _ := list.PopFront(); id != 1 {
		t.Fatalf("expected head 1, got %d", id)
	}
	checkOrder(t, list, []int{2}, "after pops")
}

func removeWhileIterating(t *testing.T) {
	t.Parallel()
	list := ring.New[int](6)
	for i := range 6 {
		list.PushBack(i + 1)
	}
	for id := range list.Backward() {
		if id%2 == 0 {
			list.Remove(id)
		}
	}
	checkOrder(t, list, []int{1, 3, 5}, "after removing evens backward")
	for id := range list.All() {
		if id != 3 {
			list.Remove(id)
		}
	}
	checkOrder(t, list, []int{3}, "after removing forward")
}

func earlyStop(t *testing.T) {
	t.Parallel()
	list := ring.New[int](3)
	for i := range 3 {
		list.PushBack(i)
	}
	var seen int
	for range list.All() {
		seen++
		break
	}
	if seen != 1 {
		t.Fatalf("expected iteration to stop after 1, saw %d", seen)
	}
}

func checkOrder(tb testing.TB, list *ring.List[int], want []int, msg string) {
	tb.Helper()
	got := list.Slice()
	if slices.Equal(got, want) {
		return
	}
	tb.Fatalf("unexpected order %s"+
		"\n\tgot: %v"+
		"\n\twant: %v",
		msg, got, want)
}
