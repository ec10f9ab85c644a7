package vm

import (
	"strings"
)

const (
	// LocalCount is the number of variables in a thread's local window.
	LocalCount = 256
	// StackDepth is the maximum number of pending return addresses.
	StackDepth = 4
	// NameLength is the maximum length of a thread name.
	NameLength = 16
	// DefaultThreadName is the name a thread starts with.
	DefaultThreadName = "THREAD"

	// TimerA and TimerB are the local variables advanced by elapsed
	// milliseconds every tick the thread runs.
	TimerA = 16
	TimerB = 17
)

// Wake counter values with a special meaning.
const (
	// Runnable threads execute on the current tick.
	Runnable int32 = 0
	// Suspended threads wait for an explicit Wake.
	Suspended int32 = -1
)

// Condition mask values used while folding an if-block.
const (
	conditionMaskPassed uint8 = 0xFF
	conditionMaskFailed uint8 = 0x00
)

// Thread is a pseudo-thread: one cooperative execution context.
// Handlers reach the running thread through Context.Thread and may modify
// its program counter, wake counter and condition state directly.
type Thread struct {
	name [NameLength]byte

	// BaseAddress is where the thread started; negative labels are relative to it.
	BaseAddress uint32
	// ProgramCounter is the offset of the next instruction.
	ProgramCounter uint32

	// Condition state for if-blocks.
	ConditionCount  uint32
	ConditionMask   uint8
	ConditionAND    bool
	ConditionResult bool

	// WakeCounter is -1 when suspended, 0 when runnable and otherwise the
	// milliseconds left to sleep.
	WakeCounter int32

	calls      [StackDepth]uint32
	stackDepth int

	locals *Memory

	IsMission        bool
	Finished         bool
	DeathArrestCheck bool
	WastedOrBusted   bool

	faulted bool
}

func newThread(start uint32, mission bool) *Thread {
	t := &Thread{
		BaseAddress:      start,
		ProgramCounter:   start,
		WakeCounter:      Runnable,
		locals:           newFixedMemory(LocalCount * CellSize),
		IsMission:        mission,
		DeathArrestCheck: true,
	}
	t.SetName(DefaultThreadName)
	return t
}

// Name returns the thread name.
func (t *Thread) Name() string {
	return strings.TrimRight(string(t.name[:]), "\x00")
}

// SetName sets the thread name, truncated to NameLength bytes.
func (t *Thread) SetName(name string) {
	clear(t.name[:])
	copy(t.name[:], name)
}

// Locals returns the thread-local variable window.
func (t *Thread) Locals() *Memory {
	return t.locals
}

// Local reads local variable index as an integer.
func (t *Thread) Local(index int) int32 {
	v, _ := t.locals.Int32(uint32(index * CellSize))
	return v
}

// SetLocal writes an integer to local variable index.
func (t *Thread) SetLocal(index int, v int32) {
	_ = t.locals.SetInt32(uint32(index*CellSize), v)
}

// StackDepth returns the number of pending return addresses.
func (t *Thread) StackDepth() int {
	return t.stackDepth
}

// CallStack returns a copy of the pending return addresses, oldest first.
func (t *Thread) CallStack() []uint32 {
	out := make([]uint32, t.stackDepth)
	copy(out, t.calls[:t.stackDepth])
	return out
}

// Faulted reports whether the thread stopped on a fatal error.
func (t *Thread) Faulted() bool {
	return t.faulted
}

// Localize resolves a jump label. Negative labels are relative to the
// thread's base address, others are absolute.
func (t *Thread) Localize(label int32) uint32 {
	if label < 0 {
		return t.BaseAddress + uint32(-int64(label))
	}
	return uint32(label)
}

// Jump moves the program counter to label.
func (t *Thread) Jump(label int32) {
	t.ProgramCounter = t.Localize(label)
}

// Gosub pushes the current program counter and jumps to label.
func (t *Thread) Gosub(label int32) error {
	if t.stackDepth >= StackDepth {
		return NewStackOverflowError(t.Name(), t.ProgramCounter)
	}
	t.calls[t.stackDepth] = t.ProgramCounter
	t.stackDepth++
	t.Jump(label)
	return nil
}

// Return pops the most recent return address into the program counter.
func (t *Thread) Return() error {
	if t.stackDepth == 0 {
		return NewStackUnderflowError(t.Name(), t.ProgramCounter)
	}
	t.stackDepth--
	t.ProgramCounter = t.calls[t.stackDepth]
	return nil
}

// Sleep suspends the thread for ms milliseconds. Zero suspends it until
// it is explicitly woken.
func (t *Thread) Sleep(ms int32) {
	if ms <= 0 {
		t.WakeCounter = Suspended
		return
	}
	t.WakeCounter = ms
}

// Halt finishes the thread and yields immediately.
func (t *Thread) Halt() {
	t.WakeCounter = Suspended
	t.Finished = true
}

// BeginCondition starts an if-block. n <= 7 expects n+1 results combined with
// AND; larger values expect n-19 results combined with OR.
func (t *Thread) BeginCondition(n int32) {
	if n <= 7 {
		t.ConditionCount = uint32(n + 1)
		t.ConditionMask = conditionMaskPassed
		t.ConditionAND = true
		t.ConditionResult = true
		return
	}
	count := n - 19
	if count < 0 {
		count = 0
	}
	t.ConditionCount = uint32(count)
	t.ConditionMask = conditionMaskFailed
	t.ConditionAND = false
	t.ConditionResult = false
}

// ApplyCondition records the result of a condition-producing instruction.
// Outside an if-block the result is stored as is; inside one it is folded
// into the pending result and the outstanding count is decremented.
func (t *Thread) ApplyCondition(result bool) {
	t.ConditionResult = result
	if t.ConditionCount == 0 {
		return
	}
	t.ConditionCount--
	if t.ConditionAND {
		if !result {
			t.ConditionMask = conditionMaskFailed
		}
	} else if t.ConditionMask != 0 || result {
		t.ConditionMask = 1
	}
	t.ConditionResult = t.ConditionMask != 0
}

// advanceTimers adds elapsed milliseconds to the two per-thread timers.
func (t *Thread) advanceTimers(ms int32) {
	t.SetLocal(TimerA, t.Local(TimerA)+ms)
	t.SetLocal(TimerB, t.Local(TimerB)+ms)
}

// unwindToOutermost drops every pending call and resumes at the first return
// address, used when a mission thread's player is wasted or busted.
func (t *Thread) unwindToOutermost() {
	if t.stackDepth > 0 {
		t.ProgramCounter = t.calls[0]
	}
	t.stackDepth = 0
}
