package vm

import "fmt"

// ThreadID is a generational handle to a thread. A handle whose thread has
// been removed never resolves again, even after its slot is reused.
type ThreadID struct {
	Index      uint32
	Generation uint32
}

// String formats the handle as index:generation.
func (id ThreadID) String() string {
	return fmt.Sprintf("%d:%d", id.Index, id.Generation)
}

type threadSlot struct {
	thread     *Thread
	generation uint32
}

// threadArena owns every live Thread, indexed by slot.
type threadArena struct {
	slots []threadSlot
	free  []uint32
}

func (a *threadArena) insert(t *Thread) ThreadID {
	if n := len(a.free); n > 0 {
		index := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[index].thread = t
		return ThreadID{Index: index, Generation: a.slots[index].generation}
	}
	a.slots = append(a.slots, threadSlot{thread: t, generation: 1})
	return ThreadID{Index: uint32(len(a.slots) - 1), Generation: 1}
}

func (a *threadArena) get(id ThreadID) *Thread {
	if int(id.Index) >= len(a.slots) {
		return nil
	}
	slot := a.slots[id.Index]
	if slot.generation != id.Generation {
		return nil
	}
	return slot.thread
}

func (a *threadArena) remove(id ThreadID) bool {
	if a.get(id) == nil {
		return false
	}
	slot := &a.slots[id.Index]
	slot.thread = nil
	slot.generation++
	a.free = append(a.free, id.Index)
	return true
}
