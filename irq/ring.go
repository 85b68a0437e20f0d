package irq

import (
	"runtime"
	"sync/atomic"
)

// Ring is a bounded multi-producer, single-consumer queue.
// Producers may run in interrupt-like contexts: no locks, no allocations.
type Ring[T any] struct {
	_     [0]func() // prevent accidental copying.
	mask  uint32
	head  atomic.Uint32
	tail  atomic.Uint32
	slots []ringSlot[T]
}

type ringSlot[T any] struct {
	seq atomic.Uint32
	val T
}

// NewRing returns a ring holding up to size elements, rounded up to a power
// of two (minimum 2).
func NewRing[T any](size int) *Ring[T] {
	n := uint32(2)
	for int(n) < size {
		n <<= 1
	}
	r := &Ring[T]{mask: n - 1, slots: make([]ringSlot[T], n)}
	for i := range r.slots {
		r.slots[i].seq.Store(uint32(i))
	}
	return r
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return len(r.slots) }

// Len returns an approximate number of queued elements.
func (r *Ring[T]) Len() int { return int(r.head.Load() - r.tail.Load()) }

// TryPush enqueues v, returning false if the ring is full.
func (r *Ring[T]) TryPush(v T) bool {
	for {
		pos := r.head.Load()
		slot := &r.slots[pos&r.mask]
		dif := int32(slot.seq.Load() - pos)
		switch {
		case dif == 0:
			// Reserve the slot, then publish it.
			if r.head.CompareAndSwap(pos, pos+1) {
				slot.val = v
				slot.seq.Store(pos + 1)
				return true
			}
		case dif < 0:
			return false
		}
	}
}

// Push enqueues v, yielding until there is room.
func (r *Ring[T]) Push(v T) {
	for !r.TryPush(v) {
		runtime.Gosched()
	}
}

// TryPop dequeues one element, returning false if the ring is empty.
// Only one goroutine may pop.
func (r *Ring[T]) TryPop() (T, bool) {
	var zero T
	pos := r.tail.Load()
	slot := &r.slots[pos&r.mask]
	if int32(slot.seq.Load()-(pos+1)) < 0 {
		return zero, false
	}
	v := slot.val
	slot.val = zero
	slot.seq.Store(pos + r.mask + 1)
	r.tail.Store(pos + 1)
	return v, true
}
