package queue

import (
	"reflect"
	"testing"
)

func TestDeque_FIFO(t *testing.T) {
	d := NewDeque(1, 2, 3)

	for _, want := range []int{1, 2, 3} {
		got, ok := d.PopFront()
		if !ok {
			t.Fatalf("PopFront returned ok=false, want %d", want)
		}
		if got != want {
			t.Errorf("PopFront() = %d, want %d", got, want)
		}
	}

	if _, ok := d.PopFront(); ok {
		t.Error("PopFront on empty deque should return ok=false")
	}
}

func TestDeque_PushFrontJumpsQueue(t *testing.T) {
	d := NewDeque("b", "c")
	d.PushFront("a")

	if got := d.Items(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Items() = %v, want [a b c]", got)
	}

	front, ok := d.PeekFront()
	if !ok || front != "a" {
		t.Errorf("PeekFront() = %q, %v, want a, true", front, ok)
	}
	if d.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (peek must not remove)", d.Len())
	}
}

func TestDeque_GrowAcrossWrap(t *testing.T) {
	d := NewDeque[int]()

	// Force the head to wrap before the buffer grows.
	for i := 0; i < minCapacity; i++ {
		d.PushBack(i)
	}
	for i := 0; i < 3; i++ {
		d.PopFront()
	}
	for i := 0; i < 3; i++ {
		d.PushFront(-i - 1)
	}
	for i := minCapacity; i < minCapacity*3; i++ {
		d.PushBack(i)
	}

	items := d.Items()
	if len(items) != d.Len() {
		t.Fatalf("len(Items()) = %d, Len() = %d", len(items), d.Len())
	}

	want := []int{-3, -2, -1}
	for i := 3; i < minCapacity*3; i++ {
		want = append(want, i)
	}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("Items() = %v\nwant      %v", items, want)
	}
}

func TestDeque_Clear(t *testing.T) {
	d := NewDeque(1, 2)
	d.Clear()

	if !d.IsEmpty() {
		t.Error("deque should be empty after Clear")
	}
	d.PushBack(5)
	if got, _ := d.PopFront(); got != 5 {
		t.Errorf("PopFront() after Clear = %d, want 5", got)
	}
}

func TestLog_AppendOnly(t *testing.T) {
	var l Log[string]
	l.Append("first")
	l.Append("second")

	items := l.Items()
	items[0] = "mutated"

	if l.At(0) != "first" {
		t.Error("mutating Items() result must not affect the log")
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}

	l.Reset()
	if l.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", l.Len())
	}
}
