// Package bounded provides fixed capacity list used for every collection
// that crosses the wire: datapoints per datastream, datastreams per feed,
// response headers. Capacity is set once, storage is allocated once,
// Add past capacity is rejected and nothing is ever dropped.
package bounded

import "fmt"

var ErrFull = fmt.Errorf("bounded list is full")

type List[T any] struct {
	items []T
}

func New[T any](capacity int) List[T] {
	if capacity < 0 {
		panic(fmt.Sprintf("code error bounded.New capacity=%d", capacity))
	}
	return List[T]{items: make([]T, 0, capacity)}
}

func (l *List[T]) Cap() int   { return cap(l.items) }
func (l *List[T]) Len() int   { return len(l.items) }
func (l *List[T]) Full() bool { return len(l.items) == cap(l.items) }

// Add appends v or returns ErrFull.
func (l *List[T]) Add(v T) error {
	if l.Full() {
		return ErrFull
	}
	l.items = append(l.items, v)
	return nil
}

// Grow appends zero value and returns pointer to it, nil when full.
func (l *List[T]) Grow() *T {
	var zero T
	if l.Add(zero) != nil {
		return nil
	}
	return &l.items[len(l.items)-1]
}

// At returns pointer into backing storage, valid until Reset.
func (l *List[T]) At(i int) *T { return &l.items[i] }

// Items is a view, do not append to it.
func (l *List[T]) Items() []T { return l.items[:len(l.items):len(l.items)] }

// Reset keeps capacity, zeroes elements so no value leaks into reuse.
func (l *List[T]) Reset() {
	var zero T
	for i := range l.items {
		l.items[i] = zero
	}
	l.items = l.items[:0]
}

func (l *List[T]) String() string {
	return fmt.Sprintf("(%d/%d)", len(l.items), cap(l.items))
}
