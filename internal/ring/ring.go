// Package ring is a specialized adaption of `container/ring`
// for ordered lists of page identifiers.
package ring

import "iter"

type (
	// A List is an ordered sequence of unique identifiers.
	// The front of the list is its head, the back is its tail.
	// It is backed by a circular ring anchored at a sentinel element,
	// and an index so that membership and removal are constant time.
	// The zero value is an empty list ready to use.
	List[ID comparable] struct {
		root  element[ID]
		index map[ID]*element[ID]
	}
	element[ID comparable] struct {
		next, prev *element[ID]
		id         ID
	}
)

// New creates an empty list with room for capacity identifiers.
func New[ID comparable](capacity int) *List[ID] {
	l := &List[ID]{
		index: make(map[ID]*element[ID], max(capacity, 0)),
	}
	l.root.init()
	return l
}

func (e *element[ID]) init() *element[ID] {
	e.next = e
	e.prev = e
	return e
}

// link connects e with s such that e.next
// becomes s and returns the original value of e.next.
// s must be a single unlinked element.
func (e *element[ID]) link(s *element[ID]) *element[ID] {
	n := e.next
	// Note: Cannot use multiple assignment because
	// evaluation order of LHS is not specified.
	e.next = s
	s.prev = e
	s.next = n
	n.prev = s
	return n
}

// unlink removes e from whatever ring it is part of.
func (e *element[ID]) unlink() {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
}

func (l *List[ID]) lazyInit() {
	if l.root.next == nil {
		l.root.init()
	}
	if l.index == nil {
		l.index = make(map[ID]*element[ID])
	}
}

// Len returns the number of identifiers in the list.
func (l *List[ID]) Len() int { return len(l.index) }

// Contains reports whether id is a member of the list.
func (l *List[ID]) Contains(id ID) bool {
	_, ok := l.index[id]
	return ok
}

// PushFront inserts id at the head of the list.
// It returns false (and leaves the list unchanged)
// if id is already a member.
func (l *List[ID]) PushFront(id ID) bool {
	return l.insertAfter(&l.root, id)
}

// PushBack inserts id at the tail of the list.
// It returns false (and leaves the list unchanged)
// if id is already a member.
func (l *List[ID]) PushBack(id ID) bool {
	l.lazyInit()
	return l.insertAfter(l.root.prev, id)
}

func (l *List[ID]) insertAfter(at *element[ID], id ID) bool {
	l.lazyInit()
	if _, ok := l.index[id]; ok {
		return false
	}
	e := &element[ID]{id: id}
	at.link(e)
	l.index[id] = e
	return true
}

// Remove removes id from the list, reporting whether it was a member.
func (l *List[ID]) Remove(id ID) bool {
	e, ok := l.index[id]
	if !ok {
		return false
	}
	e.unlink()
	delete(l.index, id)
	return true
}

// Front returns the head of the list.
func (l *List[ID]) Front() (ID, bool) {
	if l.Len() == 0 {
		var zero ID
		return zero, false
	}
	return l.root.next.id, true
}

// Back returns the tail of the list.
func (l *List[ID]) Back() (ID, bool) {
	if l.Len() == 0 {
		var zero ID
		return zero, false
	}
	return l.root.prev.id, true
}

// PopFront removes and returns the head of the list.
func (l *List[ID]) PopFront() (ID, bool) {
	id, ok := l.Front()
	if ok {
		l.Remove(id)
	}
	return id, ok
}

// PopBack removes and returns the tail of the list.
func (l *List[ID]) PopBack() (ID, bool) {
	id, ok := l.Back()
	if ok {
		l.Remove(id)
	}
	return id, ok
}

// All returns an iterator over the list from head to tail.
// The identifier being yielded may be removed during iteration;
// other mutations have undefined results.
func (l *List[ID]) All() iter.Seq[ID] {
	return func(yield func(ID) bool) {
		if l.Len() == 0 {
			return
		}
		for e := l.root.next; e != &l.root; {
			next := e.next
			if !yield(e.id) {
				return
			}
			e = next
		}
	}
}

// Backward returns an iterator over the list from tail to head.
// The identifier being yielded may be removed during iteration;
// other mutations have undefined results.
func (l *List[ID]) Backward() iter.Seq[ID] {
	return func(yield func(ID) bool) {
		if l.Len() == 0 {
			return
		}
		for e := l.root.prev; e != &l.root; {
			prev := e.prev
			if !yield(e.id) {
				return
			}
			e = prev
		}
	}
}

// Slice returns a copy of the list from head to tail.
func (l *List[ID]) Slice() []ID {
	ids := make([]ID, 0, l.Len())
	for id := range l.All() {
		ids = append(ids, id)
	}
	return ids
}
