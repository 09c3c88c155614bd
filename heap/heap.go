// Package heap implements the fixed-capacity, freelist-backed object heap
// used to store one kind of game entity (§4.B). Every live peer must
// allocate and free slots in the same order from the same event stream, so
// the allocation policy — pop the lowest free index, extend while under
// capacity, fail when full — is the load-bearing invariant of this package,
// not an implementation detail.
package heap

import (
	stdheap "container/heap"
	"errors"

	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/handle"
	"github.com/ETdoFresh/Love2D-CommandAndConquer-TiberianDawn-sub003/log"
)

// ErrFull is returned by Allocate when the heap has no free slot and is
// already at capacity.
var ErrFull = errors.New("heap: at capacity")

// ErrNotAllocated is returned by Free when the given index is not
// currently allocated.
var ErrNotAllocated = errors.New("heap: index not allocated")

type slot[T any] struct {
	value      T
	generation int
	allocated  bool
}

// intMinHeap is a container/heap.Interface over plain ints, used as the
// heap's freelist so the lowest free index is always popped first in
// O(log n) instead of scanning.
type intMinHeap []int

func (h intMinHeap) Len() int            { return len(h) }
func (h intMinHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)         { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Heap is a fixed-capacity slab of entities of a single kind, addressed by
// dense index and target handle generation.
type Heap[T any] struct {
	kind     handle.Kind
	capacity int
	slots    []slot[T]
	free     intMinHeap
}

// New creates an empty heap of the given kind and capacity.
func New[T any](kind handle.Kind, capacity int) *Heap[T] {
	return &Heap[T]{
		kind:     kind,
		capacity: capacity,
		slots:    make([]slot[T], 0, capacity),
		free:     make(intMinHeap, 0),
	}
}

// Kind returns the entity kind this heap stores.
func (h *Heap[T]) Kind() handle.Kind { return h.kind }

// Capacity returns the fixed maximum number of live slots.
func (h *Heap[T]) Capacity() int { return h.capacity }

// Count returns the number of currently allocated slots.
func (h *Heap[T]) Count() int {
	return len(h.slots) - len(h.free)
}

// Allocate reserves the lowest available index and returns the target
// handle referencing it. It returns ErrFull if every slot up to capacity
// is live.
func (h *Heap[T]) Allocate() (handle.Handle, error) {
	if len(h.free) > 0 {
		idx := stdheap.Pop(&h.free).(int)
		s := &h.slots[idx]
		s.allocated = true
		var zero T
		s.value = zero
		return handle.Encode(h.kind, s.generation, idx), nil
	}
	if len(h.slots) >= h.capacity {
		log.HeapExhausted(h.kind.String())
		return handle.None, ErrFull
	}
	idx := len(h.slots)
	h.slots = append(h.slots, slot[T]{allocated: true})
	return handle.Encode(h.kind, 0, idx), nil
}

// Free vacates the slot at index, bumping its generation so any handle
// minted before this call resolves to "none" even if the slot is
// reallocated later (defends against ABA across allocate/free cycles).
func (h *Heap[T]) Free(index int) error {
	if index < 0 || index >= len(h.slots) || !h.slots[index].allocated {
		return ErrNotAllocated
	}
	s := &h.slots[index]
	s.allocated = false
	s.generation = (s.generation + 1) & handle.MaxGeneration
	var zero T
	s.value = zero
	stdheap.Push(&h.free, index)
	return nil
}

// Get resolves a target handle to its live entity. It returns (zero,
// false) if the handle's kind doesn't match this heap, the index is out
// of range, the slot is not allocated, or the handle's generation is
// stale.
func (h *Heap[T]) Get(hdl handle.Handle) (T, bool) {
	var zero T
	kind, generation, index, ok := handle.Decode(hdl)
	if !ok || kind != h.kind {
		return zero, false
	}
	if index < 0 || index >= len(h.slots) {
		return zero, false
	}
	s := &h.slots[index]
	if !s.allocated || s.generation != generation {
		return zero, false
	}
	return s.value, true
}

// GetByIndex resolves a raw dense index, bypassing generation checks. Used
// by iteration and by the simulation layer once it already trusts the
// index (e.g. after Allocate).
func (h *Heap[T]) GetByIndex(index int) (T, bool) {
	var zero T
	if index < 0 || index >= len(h.slots) || !h.slots[index].allocated {
		return zero, false
	}
	return h.slots[index].value, true
}

// Set overwrites the value stored at index. The index must currently be
// allocated.
func (h *Heap[T]) Set(index int, value T) error {
	if index < 0 || index >= len(h.slots) || !h.slots[index].allocated {
		return ErrNotAllocated
	}
	h.slots[index].value = value
	return nil
}

// HandleAt returns the current target handle for a live index, or None if
// the index is not allocated.
func (h *Heap[T]) HandleAt(index int) handle.Handle {
	if index < 0 || index >= len(h.slots) || !h.slots[index].allocated {
		return handle.None
	}
	return handle.Encode(h.kind, h.slots[index].generation, index)
}

// IterActive calls fn for every allocated index in ascending order.
// Iteration order is part of the determinism contract: the state hash
// folds entities in this same order (§4.D).
func (h *Heap[T]) IterActive(fn func(index int, value T)) {
	for i := range h.slots {
		if h.slots[i].allocated {
			fn(i, h.slots[i].value)
		}
	}
}

// ActiveIndices returns every allocated index in ascending order.
func (h *Heap[T]) ActiveIndices() []int {
	indices := make([]int, 0, h.Count())
	for i := range h.slots {
		if h.slots[i].allocated {
			indices = append(indices, i)
		}
	}
	return indices
}

// SavedEntity is one record of the flat save-file representation: a live
// index paired with its serialized entity bytes.
type SavedEntity struct {
	Index int
	Data  []byte
}

// Save produces a flat (index -> serialized entity) record using encode
// for each live slot, in ascending index order. Cross-heap target handles
// embedded in entities are saved as plain handle values; resolving them
// against a freshly loaded heap is the second pass described in §4.B and
// is the caller's responsibility (the target heap may not be loaded yet).
func (h *Heap[T]) Save(encode func(T) []byte) []SavedEntity {
	out := make([]SavedEntity, 0, h.Count())
	h.IterActive(func(index int, value T) {
		out = append(out, SavedEntity{Index: index, Data: encode(value)})
	})
	return out
}

// Load resets the heap and repopulates it from a flat save record,
// preserving exact indices. Generation counters are not part of the save
// record: every loaded slot starts at generation 0, so a handle captured
// before the save resolves after Load only if it was minted at generation
// 0. It is the first of the two save/load passes; run a second pass
// over the freshly loaded heaps to resolve any target handles inside the
// decoded entities.
func (h *Heap[T]) Load(records []SavedEntity, decode func([]byte) (T, error)) error {
	maxIndex := -1
	for _, r := range records {
		if r.Index > maxIndex {
			maxIndex = r.Index
		}
	}
	size := maxIndex + 1
	if size > h.capacity {
		return ErrFull
	}
	h.slots = make([]slot[T], size)
	h.free = make(intMinHeap, 0, size)
	present := make([]bool, size)
	for _, r := range records {
		value, err := decode(r.Data)
		if err != nil {
			return err
		}
		h.slots[r.Index] = slot[T]{value: value, allocated: true}
		present[r.Index] = true
	}
	for i := 0; i < size; i++ {
		if !present[i] {
			h.free = append(h.free, i)
		}
	}
	stdheap.Init(&h.free)
	return nil
}
