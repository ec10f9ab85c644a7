package savegame

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/zurustar/scmvm/pkg/vm"
)

// threadView is the JSON form of a thread. Locals are shown as int32 cells
// so they can be indexed by variable number.
type threadView struct {
	Name             string   `json:"name"`
	BaseAddress      uint32   `json:"base_address"`
	ProgramCounter   uint32   `json:"program_counter"`
	WakeCounter      int32    `json:"wake_counter"`
	ConditionCount   uint32   `json:"condition_count"`
	ConditionAND     bool     `json:"condition_and"`
	ConditionResult  bool     `json:"condition_result"`
	Calls            []uint32 `json:"calls"`
	Locals           []int32  `json:"locals"`
	IsMission        bool     `json:"is_mission"`
	DeathArrestCheck bool     `json:"death_arrest_check"`
	WastedOrBusted   bool     `json:"wasted_or_busted"`
}

type snapshotView struct {
	Globals     []int32      `json:"globals"`
	Threads     []threadView `json:"threads"`
	MissionFlag int32        `json:"mission_flag"`
	Seed        uint64       `json:"seed"`
}

// cells splits b into little-endian int32 cells; a trailing partial cell
// is dropped.
func cells(b []byte) []int32 {
	out := make([]int32, len(b)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// RenderJSON renders s for people and jq. Global cell i is the 4 bytes at
// heap offset i*4.
func RenderJSON(s vm.Snapshot) ([]byte, error) {
	v := snapshotView{
		Globals:     cells(s.Globals),
		Threads:     make([]threadView, 0, len(s.Threads)),
		MissionFlag: s.MissionFlag,
		Seed:        s.Seed,
	}
	for _, t := range s.Threads {
		calls := t.Calls
		if calls == nil {
			calls = []uint32{}
		}
		v.Threads = append(v.Threads, threadView{
			Name:             t.Name,
			BaseAddress:      t.BaseAddress,
			ProgramCounter:   t.ProgramCounter,
			WakeCounter:      t.WakeCounter,
			ConditionCount:   t.ConditionCount,
			ConditionAND:     t.ConditionAND,
			ConditionResult:  t.ConditionResult,
			Calls:            calls,
			Locals:           cells(t.Locals),
			IsMission:        t.IsMission,
			DeathArrestCheck: t.DeathArrestCheck,
			WastedOrBusted:   t.WastedOrBusted,
		})
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("savegame: render: %w", err)
	}
	return data, nil
}
