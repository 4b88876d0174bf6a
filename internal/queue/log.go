package queue

// Log is an append-only sequence. Entries are never removed or replaced.
type Log[T any] struct {
	entries []T
}

// Append adds an entry at the end of the log.
func (l *Log[T]) Append(v T) {
	l.entries = append(l.entries, v)
}

// Len returns the number of entries.
func (l *Log[T]) Len() int {
	return len(l.entries)
}

// At returns the entry at index i in insertion order.
func (l *Log[T]) At(i int) T {
	return l.entries[i]
}

// Items returns a copy of the entries in insertion order.
func (l *Log[T]) Items() []T {
	out := make([]T, len(l.entries))
	copy(out, l.entries)
	return out
}

// Reset discards the log. Only the run-context reset uses this.
func (l *Log[T]) Reset() {
	l.entries = nil
}
