package vm

import (
	"fmt"
)

// Snapshot is the persisted state of a machine. Globals is the heap
// byte for byte, so offsets held by scripts stay valid after a restore.
type Snapshot struct {
	Globals     []byte        `cbor:"1,keyasint" json:"globals"`
	Threads     []ThreadImage `cbor:"2,keyasint" json:"threads"`
	MissionFlag int32         `cbor:"3,keyasint" json:"mission_flag"`
	Seed        uint64        `cbor:"4,keyasint" json:"seed"`
}

// ThreadImage is the persisted state of one thread.
type ThreadImage struct {
	Name             string   `cbor:"1,keyasint" json:"name"`
	BaseAddress      uint32   `cbor:"2,keyasint" json:"base_address"`
	ProgramCounter   uint32   `cbor:"3,keyasint" json:"program_counter"`
	ConditionCount   uint32   `cbor:"4,keyasint" json:"condition_count"`
	ConditionMask    uint8    `cbor:"5,keyasint" json:"condition_mask"`
	ConditionAND     bool     `cbor:"6,keyasint" json:"condition_and"`
	ConditionResult  bool     `cbor:"7,keyasint" json:"condition_result"`
	WakeCounter      int32    `cbor:"8,keyasint" json:"wake_counter"`
	Calls            []uint32 `cbor:"9,keyasint" json:"calls"`
	Locals           []byte   `cbor:"10,keyasint" json:"locals"`
	IsMission        bool     `cbor:"11,keyasint" json:"is_mission"`
	DeathArrestCheck bool     `cbor:"12,keyasint" json:"death_arrest_check"`
	WastedOrBusted   bool     `cbor:"13,keyasint" json:"wasted_or_busted"`
}

// Snapshot captures the heap and every live thread in schedule order.
// Threads started during a tick that has not finished are included after
// the scheduled ones. Finished threads are left out.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		Globals:     m.globals.Bytes(),
		MissionFlag: m.missionFlag,
		Seed:        m.seed,
	}
	ids := append(m.Threads(), m.pending...)
	for _, id := range ids {
		t := m.threads.get(id)
		if t == nil || t.Finished {
			continue
		}
		s.Threads = append(s.Threads, ThreadImage{
			Name:             t.Name(),
			BaseAddress:      t.BaseAddress,
			ProgramCounter:   t.ProgramCounter,
			ConditionCount:   t.ConditionCount,
			ConditionMask:    t.ConditionMask,
			ConditionAND:     t.ConditionAND,
			ConditionResult:  t.ConditionResult,
			WakeCounter:      t.WakeCounter,
			Calls:            t.CallStack(),
			Locals:           t.locals.Bytes(),
			IsMission:        t.IsMission,
			DeathArrestCheck: t.DeathArrestCheck,
			WastedOrBusted:   t.WastedOrBusted,
		})
	}
	return s
}

// Restore replaces the heap and the thread schedule with s. It must not be
// called from an opcode handler. Existing thread handles stop resolving.
func (m *Machine) Restore(s Snapshot) error {
	if m.inTick {
		return fmt.Errorf("cannot restore a snapshot during a tick")
	}
	threads := make([]*Thread, 0, len(s.Threads))
	for i, img := range s.Threads {
		if len(img.Calls) > StackDepth {
			return fmt.Errorf("thread %d (%s): call stack depth %d exceeds %d", i, img.Name, len(img.Calls), StackDepth)
		}
		if len(img.Locals) > LocalCount*CellSize {
			return fmt.Errorf("thread %d (%s): %d bytes of locals exceed %d", i, img.Name, len(img.Locals), LocalCount*CellSize)
		}
		t := newThread(img.BaseAddress, img.IsMission)
		t.SetName(img.Name)
		t.ProgramCounter = img.ProgramCounter
		t.ConditionCount = img.ConditionCount
		t.ConditionMask = img.ConditionMask
		t.ConditionAND = img.ConditionAND
		t.ConditionResult = img.ConditionResult
		t.WakeCounter = img.WakeCounter
		t.stackDepth = copy(t.calls[:], img.Calls)
		copy(t.locals.data, img.Locals)
		t.DeathArrestCheck = img.DeathArrestCheck
		t.WastedOrBusted = img.WastedOrBusted
		threads = append(threads, t)
	}

	if err := m.globals.Load(s.Globals); err != nil {
		return err
	}
	m.missionFlag = s.MissionFlag
	if s.Seed != 0 {
		m.seed = s.Seed
		m.random = NewRandom(s.Seed)
	}

	// Bump every generation so handles from before the restore go stale.
	for _, id := range append(m.schedule, m.pending...) {
		m.threads.remove(id)
	}
	m.schedule = m.schedule[:0]
	m.pending = m.pending[:0]
	m.remainder = 0
	for _, t := range threads {
		m.schedule = append(m.schedule, m.threads.insert(t))
	}

	m.log.Info("Snapshot restored", "threads", len(threads), "globals_size", m.globals.Len())
	return nil
}
