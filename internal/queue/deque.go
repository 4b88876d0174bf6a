// Package queue provides the double-ended pending queue and the append-only
// completion log used by the orchestrator's run context.
//
// Neither type is safe for concurrent use; the orchestrator is the single writer.
package queue

const minCapacity = 8

// Deque is a double-ended queue backed by a growable ring buffer.
type Deque[T any] struct {
	buf   []T
	head  int
	count int
}

// NewDeque creates a deque holding the given items in order.
func NewDeque[T any](items ...T) *Deque[T] {
	d := &Deque[T]{}
	for _, it := range items {
		d.PushBack(it)
	}
	return d
}

// Len returns the number of items in the deque.
func (d *Deque[T]) Len() int {
	return d.count
}

// IsEmpty reports whether the deque holds no items.
func (d *Deque[T]) IsEmpty() bool {
	return d.count == 0
}

// PushBack appends an item at the back.
func (d *Deque[T]) PushBack(v T) {
	d.grow()
	d.buf[(d.head+d.count)%len(d.buf)] = v
	d.count++
}

// PushFront inserts an item at the front.
func (d *Deque[T]) PushFront(v T) {
	d.grow()
	d.head = (d.head - 1 + len(d.buf)) % len(d.buf)
	d.buf[d.head] = v
	d.count++
}

// PopFront removes and returns the front item.
// The second return value is false when the deque is empty.
func (d *Deque[T]) PopFront() (T, bool) {
	var zero T
	if d.count == 0 {
		return zero, false
	}
	v := d.buf[d.head]
	d.buf[d.head] = zero
	d.head = (d.head + 1) % len(d.buf)
	d.count--
	return v, true
}

// PeekFront returns the front item without removing it.
func (d *Deque[T]) PeekFront() (T, bool) {
	var zero T
	if d.count == 0 {
		return zero, false
	}
	return d.buf[d.head], true
}

// Items returns a copy of the contents, front first.
func (d *Deque[T]) Items() []T {
	out := make([]T, d.count)
	for i := 0; i < d.count; i++ {
		out[i] = d.buf[(d.head+i)%len(d.buf)]
	}
	return out
}

// Clear drops all items and releases the backing buffer.
func (d *Deque[T]) Clear() {
	d.buf = nil
	d.head = 0
	d.count = 0
}

func (d *Deque[T]) grow() {
	if d.count < len(d.buf) {
		return
	}
	newCap := len(d.buf) * 2
	if newCap < minCapacity {
		newCap = minCapacity
	}
	buf := make([]T, newCap)
	for i := 0; i < d.count; i++ {
		buf[i] = d.buf[(d.head+i)%len(d.buf)]
	}
	d.buf = buf
	d.head = 0
}
