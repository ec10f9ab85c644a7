package world

import (
	"iter"
)

// Handle is the int32 a script stores to refer to a world object. The low
// 16 bits select the slot and the high bits carry the slot generation, so a
// handle to a removed object never resolves to its successor.
type Handle int32

// NoHandle never resolves.
const NoHandle Handle = 0

const maxSlots = 1 << 16

func makeHandle(index int, generation uint16) Handle {
	return Handle(int32(generation)<<16 | int32(index))
}

func (h Handle) index() int {
	return int(uint32(h) & 0xFFFF)
}

func (h Handle) generation() uint16 {
	return uint16(uint32(h) >> 16)
}

type slot[T any] struct {
	value      T
	generation uint16
	used       bool
}

// Pool stores objects of one kind.
type Pool[T any] struct {
	slots []slot[T]
	free  []int
	count int
}

// Insert stores v and returns its handle, or NoHandle if the pool is full.
func (p *Pool[T]) Insert(v T) Handle {
	var i int
	if n := len(p.free); n > 0 {
		i = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		if len(p.slots) == maxSlots {
			return NoHandle
		}
		i = len(p.slots)
		p.slots = append(p.slots, slot[T]{})
	}
	s := &p.slots[i]
	s.generation++
	// generation 0 is reserved so that NoHandle stays invalid
	if s.generation == 0 || s.generation > 0x7FFF {
		s.generation = 1
	}
	s.value = v
	s.used = true
	p.count++
	return makeHandle(i, s.generation)
}

// Get resolves h.
func (p *Pool[T]) Get(h Handle) (*T, bool) {
	i := h.index()
	if h <= 0 || i >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[i]
	if !s.used || s.generation != h.generation() {
		return nil, false
	}
	return &s.value, true
}

// Remove frees the slot behind h.
func (p *Pool[T]) Remove(h Handle) bool {
	if _, ok := p.Get(h); !ok {
		return false
	}
	i := h.index()
	var zero T
	p.slots[i].value = zero
	p.slots[i].used = false
	p.free = append(p.free, i)
	p.count--
	return true
}

// Len returns the number of live objects.
func (p *Pool[T]) Len() int {
	return p.count
}

// All yields every live object in slot order.
func (p *Pool[T]) All() iter.Seq2[Handle, *T] {
	return func(yield func(Handle, *T) bool) {
		for i := range p.slots {
			s := &p.slots[i]
			if !s.used {
				continue
			}
			if !yield(makeHandle(i, s.generation), &s.value) {
				return
			}
		}
	}
}
