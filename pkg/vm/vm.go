// Package vm provides the virtual machine for executing compiled game scripts.
// It implements a cooperative multithreading model with support for:
// - Fetch/decode/execute of tagged bytecode
// - Pseudo-threads with bounded call stacks and local variable windows
// - If-block condition folding (AND / OR)
// - A global variable heap addressed by byte offset
// - Opcode modules bound into a registry
// - Snapshot and restore for saved games
package vm

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/zurustar/scmvm/pkg/logger"
	"github.com/zurustar/scmvm/pkg/opcode"
	"github.com/zurustar/scmvm/pkg/scm"
)

// DefaultInstructionBudget bounds how many instructions one thread may run
// in a single tick before the scheduler moves on to the next thread.
const DefaultInstructionBudget = 10000

// Machine owns the schedule of live threads and the global heap, and runs
// them in order each tick.
type Machine struct {
	file     *scm.File
	code     []byte
	registry *Registry
	globals  *Memory

	// Threads in schedule order; pending holds threads started mid-tick.
	threads  threadArena
	schedule []ThreadID
	pending  []ThreadID
	inTick   bool

	random *Random
	env    Environment

	// Configuration
	budget      int
	yieldResume bool
	trace       bool
	entryPoint  uint32
	noEntry     bool
	minGlobals  int
	seed        uint64
	seeded      bool

	// missionFlag is the heap offset of the on-mission flag, -1 if undeclared.
	missionFlag int32
	remainder   time.Duration

	// Logger
	log *slog.Logger
}

// Option is a functional option for configuring the Machine.
type Option func(*Machine)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Machine) {
		m.log = log
	}
}

// WithInstructionBudget sets the per-thread, per-tick instruction budget.
func WithInstructionBudget(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.budget = n
		}
	}
}

// WithSeed fixes the random seed so runs are reproducible.
func WithSeed(seed uint64) Option {
	return func(m *Machine) {
		m.seed = seed
		m.seeded = true
	}
}

// WithEnvironment sets the external collaborator consulted by the scheduler
// and the mission opcodes.
func WithEnvironment(env Environment) Option {
	return func(m *Machine) {
		if env != nil {
			m.env = env
		}
	}
}

// WithYieldResume makes a thread that suspended itself with a zero sleep
// runnable again at the end of its burst, so it resumes on the next tick.
func WithYieldResume(enabled bool) Option {
	return func(m *Machine) {
		m.yieldResume = enabled
	}
}

// WithTrace logs every dispatched instruction at debug level.
func WithTrace(enabled bool) Option {
	return func(m *Machine) {
		m.trace = enabled
	}
}

// WithGlobalsSize grows the heap to at least n bytes.
func WithGlobalsSize(n int) Option {
	return func(m *Machine) {
		m.minGlobals = n
	}
}

// WithEntryPoint sets where the entry thread starts. Defaults to 0.
func WithEntryPoint(addr uint32) Option {
	return func(m *Machine) {
		m.entryPoint = addr
	}
}

// WithoutEntryThread skips starting the entry thread at construction.
func WithoutEntryThread() Option {
	return func(m *Machine) {
		m.noEntry = true
	}
}

// New creates a machine that executes file with the opcodes in registry.
// The global heap is initialised from the file and the entry thread is
// scheduled unless WithoutEntryThread is given.
func New(file *scm.File, registry *Registry, opts ...Option) (*Machine, error) {
	m := &Machine{
		file:        file,
		code:        file.Data,
		registry:    registry,
		env:         nopEnvironment{},
		budget:      DefaultInstructionBudget,
		missionFlag: -1,
		log:         logger.GetLogger(),
	}

	// Apply options
	for _, opt := range opts {
		opt(m)
	}

	m.globals = NewMemory(file.GlobalsImage())
	if err := m.globals.Grow(m.minGlobals); err != nil {
		return nil, err
	}

	if !m.seeded {
		m.seed = uint64(time.Now().UnixNano())
	}
	m.random = NewRandom(m.seed)

	if !m.noEntry {
		m.StartThread(m.entryPoint, false)
	}

	m.log.Debug("Machine created",
		"code_size", len(m.code),
		"globals_size", m.globals.Len(),
		"opcodes", registry.Len(),
		"budget", m.budget)
	return m, nil
}

// File returns the loaded script image.
func (m *Machine) File() *scm.File {
	return m.file
}

// Registry returns the opcode registry.
func (m *Machine) Registry() *Registry {
	return m.registry
}

// Globals returns the global variable heap.
func (m *Machine) Globals() *Memory {
	return m.globals
}

// Random returns the machine-wide random generator.
func (m *Machine) Random() *Random {
	return m.random
}

// Seed returns the seed the random generator was created with.
func (m *Machine) Seed() uint64 {
	return m.seed
}

// MissionFlag returns the heap offset of the on-mission flag, if declared.
func (m *Machine) MissionFlag() (uint32, bool) {
	if m.missionFlag < 0 {
		return 0, false
	}
	return uint32(m.missionFlag), true
}

// SetMissionFlag declares the global cell that holds the on-mission flag.
func (m *Machine) SetMissionFlag(offset uint32) {
	m.missionFlag = int32(offset)
}

// StartThread creates a thread at address and schedules it. Threads started
// while a tick is running join the schedule when that tick ends, in
// creation order.
func (m *Machine) StartThread(address uint32, mission bool) ThreadID {
	t := newThread(address, mission)
	id := m.threads.insert(t)
	if m.inTick {
		m.pending = append(m.pending, id)
	} else {
		m.schedule = append(m.schedule, id)
	}
	m.log.Debug("Thread started", "id", id.String(), "address", address, "mission", mission, "deferred", m.inTick)
	return id
}

// Thread resolves a handle. Handles of removed threads do not resolve.
func (m *Machine) Thread(id ThreadID) (*Thread, bool) {
	t := m.threads.get(id)
	return t, t != nil
}

// Threads returns the handles of scheduled threads in execution order.
// Threads started during the current tick are not included yet.
func (m *Machine) Threads() []ThreadID {
	out := make([]ThreadID, len(m.schedule))
	copy(out, m.schedule)
	return out
}

// ThreadCount returns the number of live threads, pending ones included.
func (m *Machine) ThreadCount() int {
	return len(m.schedule) + len(m.pending)
}

// Terminate removes a thread. Its condition state and call stack are
// discarded. During a tick the thread is marked finished and removed when
// the tick ends.
func (m *Machine) Terminate(id ThreadID) bool {
	t := m.threads.get(id)
	if t == nil {
		return false
	}
	t.Finished = true
	t.WakeCounter = Suspended
	if !m.inTick {
		m.sweep()
	}
	m.log.Debug("Thread terminated", "id", id.String(), "name", t.Name())
	return true
}

// Wake makes a suspended thread runnable.
func (m *Machine) Wake(id ThreadID) bool {
	t := m.threads.get(id)
	if t == nil || t.Finished {
		return false
	}
	if t.WakeCounter == Suspended {
		t.WakeCounter = Runnable
	}
	return true
}

// Execute advances the machine by elapsed time. Elapsed time is counted in
// whole milliseconds; the remainder carries over to the next call. A call
// that adds up to less than a millisecond only performs housekeeping.
//
// Every scheduled thread runs in order until it sleeps, yields, finishes or
// exhausts its instruction budget. A fatal error aborts the tick, marks the
// owning thread faulted and is returned; faulted threads are skipped until
// terminated.
func (m *Machine) Execute(elapsed time.Duration) error {
	if elapsed < 0 {
		elapsed = 0
	}
	total := elapsed + m.remainder
	ms := total / time.Millisecond
	m.remainder = total - ms*time.Millisecond
	if ms > math.MaxInt32 {
		ms = math.MaxInt32
	}

	m.promote()
	m.sweep()
	if ms == 0 {
		return nil
	}

	m.inTick = true
	defer func() {
		m.inTick = false
		m.sweep()
		m.promote()
	}()

	for _, id := range m.schedule {
		t := m.threads.get(id)
		if t == nil || t.Finished || t.faulted {
			continue
		}
		if err := m.executeThread(id, t, int32(ms)); err != nil {
			t.faulted = true
			m.log.Error("Thread faulted", "id", id.String(), "name", t.Name(), "error", err)
			return err
		}
	}
	return nil
}

// executeThread runs one thread's burst for this tick.
func (m *Machine) executeThread(id ThreadID, t *Thread, ms int32) error {
	if t.WakeCounter > 0 {
		t.WakeCounter -= ms
		if t.WakeCounter > 0 {
			return nil
		}
		t.WakeCounter = Runnable
	}
	if t.WakeCounter == Suspended {
		return nil
	}

	if t.IsMission && t.DeathArrestCheck && m.env.PlayerWastedOrBusted() {
		t.WastedOrBusted = true
		t.unwindToOutermost()
		m.log.Debug("Mission thread unwound", "name", t.Name(), "pc", t.ProgramCounter)
	}

	executed := 0
	for t.WakeCounter == Runnable && !t.Finished {
		if executed >= m.budget {
			m.log.Warn("Instruction budget exhausted", "name", t.Name(), "pc", t.ProgramCounter, "budget", m.budget)
			break
		}
		if err := m.step(id, t); err != nil {
			return err
		}
		executed++
	}

	t.advanceTimers(ms)

	if m.yieldResume && t.WakeCounter == Suspended && !t.Finished {
		t.WakeCounter = Runnable
	}
	return nil
}

// step fetches, decodes and executes one instruction.
func (m *Machine) step(id ThreadID, t *Thread) error {
	offset := t.ProgramCounter
	dec := Decoder{
		Code:    m.code,
		Globals: m.globals,
		Locals:  t.locals,
		Thread:  t.Name(),
	}

	raw, next, err := dec.Opcode(offset)
	if err != nil {
		return err
	}
	op, negate := opcode.Split(raw)

	entry, ok := m.registry.Lookup(op)
	if !ok {
		return NewIllegalInstructionError(op, offset, t.Name())
	}

	args, next, err := dec.Arguments(next, entry.Shape)
	if err != nil {
		return err
	}

	if m.trace {
		m.log.Debug("Dispatch",
			"thread", t.Name(),
			"offset", fmt.Sprintf("%04x", offset),
			"opcode", op.String(),
			"name", entry.Name,
			"negated", negate,
			"args", args.String())
	}

	t.ProgramCounter = next

	if entry.Handler == nil {
		return nil
	}
	ctx := &Context{
		Machine:  m,
		Thread:   t,
		ThreadID: id,
		Opcode:   op,
		Offset:   offset,
	}
	cond, err := entry.Handler(ctx, args)
	if err != nil {
		if rerr, ok := AsRuntimeError(err); ok {
			rerr.withLocation(t.Name(), offset, op)
			if !rerr.IsFatal() {
				m.log.Error("Opcode error", "name", entry.Name, "error", rerr)
				return nil
			}
			return rerr
		}
		return fmt.Errorf("opcode %s (%s) at offset %04x on thread %s: %w", op, entry.Name, offset, t.Name(), err)
	}

	if cond != Unconditional {
		result := cond == ConditionTrue
		if negate {
			result = !result
		}
		t.ApplyCondition(result)
	}
	return nil
}

// promote appends threads started during the last tick to the schedule.
func (m *Machine) promote() {
	if len(m.pending) == 0 {
		return
	}
	m.schedule = append(m.schedule, m.pending...)
	m.pending = m.pending[:0]
}

// sweep removes finished threads from the schedule and the arena.
func (m *Machine) sweep() {
	kept := m.schedule[:0]
	for _, id := range m.schedule {
		t := m.threads.get(id)
		if t == nil {
			continue
		}
		if t.Finished {
			m.threads.remove(id)
			m.log.Debug("Thread removed", "id", id.String(), "name", t.Name())
			continue
		}
		kept = append(kept, id)
	}
	m.schedule = kept
}
