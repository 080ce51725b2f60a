// Package ringbuf provides a fixed-capacity FIFO buffer. Pushing onto a full
// ring overwrites the oldest element.
package ringbuf

type Ring[T any] struct {
	items []T
	head  int // index of the next write
	size  int
}

func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

func (r *Ring[T]) Cap() int { return len(r.items) }

func (r *Ring[T]) Len() int { return r.size }

// Push appends v. When the ring was full the evicted element is returned
// with ok set.
func (r *Ring[T]) Push(v T) (evicted T, ok bool) {
	if r.size == len(r.items) {
		evicted, ok = r.items[r.head], true
	} else {
		r.size++
	}
	r.items[r.head] = v
	r.head = (r.head + 1) % len(r.items)
	return evicted, ok
}

// Newest returns up to n elements, newest first. n <= 0 returns all.
func (r *Ring[T]) Newest(n int) []T {
	if n <= 0 || n > r.size {
		n = r.size
	}
	out := make([]T, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.head - i + len(r.items)) % len(r.items)
		out = append(out, r.items[idx])
	}
	return out
}

// Resize changes the capacity, keeping the newest elements.
func (r *Ring[T]) Resize(capacity int) {
	if capacity <= 0 {
		capacity = 1
	}
	if capacity == len(r.items) {
		return
	}
	keep := r.Newest(capacity)
	next := New[T](capacity)
	for i := len(keep) - 1; i >= 0; i-- {
		next.Push(keep[i])
	}
	*r = *next
}
