// Package ringbuf provides a generic bounded FIFO ring used for the
// per-asset history windows. Once the ring is at capacity, a push evicts
// the oldest entry, so the ring always holds the most recent values in
// insertion order.
package ringbuf

// Ring is a fixed-capacity FIFO ring. Not safe for concurrent use; the
// owning store guards access with its own lock.
type Ring[T any] struct {
	buf   []T
	start int // index of the oldest entry
	count int
}

// New creates a ring with the given capacity. Capacity must be ≥ 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest entry if the ring is full.
func (r *Ring[T]) Push(v T) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = v
		r.count++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Values returns the entries oldest-first as a fresh slice.
func (r *Ring[T]) Values() []T {
	out := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// Len returns the current number of entries.
func (r *Ring[T]) Len() int { return r.count }

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }
