package savegame

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/zurustar/scmvm/pkg/opcode"
	"github.com/zurustar/scmvm/pkg/scm"
	"github.com/zurustar/scmvm/pkg/vm"
)

// runningMachine returns a machine whose entry thread has set global 8,
// started a named child with an argument and gone to sleep.
func runningMachine(t *testing.T) *vm.Machine {
	t.Helper()
	b := scm.NewBuilder(0)
	b.Op(opcode.SetGlobalInt).Global(8).Int(42)
	b.Op(opcode.StartThread)
	child := b.Label()
	b.Int(7).End()
	loop := b.Offset()
	b.Op(opcode.Sleep).Int(250)
	b.Op(opcode.Jump).Int32(int32(loop))
	b.Patch(child, int32(b.Offset()))
	b.Op(opcode.NameThread).String8("CHILD")
	b.Op(opcode.Sleep).Int(0)
	b.Op(opcode.EndThread)

	m, err := vm.New(scm.FromCode(b.Bytes(), 64), vm.NewRegistry(vm.CoreModule()), vm.WithSeed(99))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := m.Execute(16 * time.Millisecond); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func TestEncodeDecode(t *testing.T) {
	snap := runningMachine(t).Snapshot()
	data, err := Encode(snap, "main.scm")
	if err != nil {
		t.Fatal(err)
	}
	got, script, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if script != "main.scm" {
		t.Errorf("script = %q", script)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Errorf("decoded snapshot differs:\n got %+v\nwant %+v", got, snap)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	a, _ := Encode(runningMachine(t).Snapshot(), "x")
	b, _ := Encode(runningMachine(t).Snapshot(), "x")
	if !bytes.Equal(a, b) {
		t.Error("same state encoded to different bytes")
	}
}

func TestDecodeRejectsOtherVersions(t *testing.T) {
	data, err := cborEncMode.Marshal(image{Version: Version + 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := Decode(data); !errors.Is(err, ErrVersion) {
		t.Errorf("Decode error = %v, want ErrVersion", err)
	}
	if _, _, err := Decode([]byte{0xFF, 0x00}); err == nil {
		t.Error("garbage decoded without error")
	}
}

func TestRestoreFromImage(t *testing.T) {
	m := runningMachine(t)
	data, err := Encode(m.Snapshot(), "")
	if err != nil {
		t.Fatal(err)
	}
	snap, _, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}

	fresh, err := vm.New(scm.FromCode([]byte{0, 0}, 64), vm.NewRegistry(vm.CoreModule()), vm.WithoutEntryThread())
	if err != nil {
		t.Fatal(err)
	}
	if err := fresh.Restore(snap); err != nil {
		t.Fatal(err)
	}
	if v, _ := fresh.Globals().Int32(8); v != 42 {
		t.Errorf("global 8 = %d after restore", v)
	}
	if fresh.ThreadCount() != 2 {
		t.Errorf("restored %d threads, want 2", fresh.ThreadCount())
	}
	if !reflect.DeepEqual(fresh.Snapshot(), m.Snapshot()) {
		t.Error("restored machine snapshots differently")
	}
}

func TestStore(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	s, err := Open(filepath.Join(t.TempDir(), "saves.db"), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Load("1"); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("Load of empty slot = %v, want ErrSlotNotFound", err)
	}

	snap := runningMachine(t).Snapshot()
	if err := s.Save("1", "main.scm", snap); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load("1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Error("loaded snapshot differs")
	}

	// overwrite and add a second slot
	snap.MissionFlag = 12
	if err := s.Save("1", "main.scm", snap); err != nil {
		t.Fatal(err)
	}
	if err := s.Save("2", "other.scm", snap); err != nil {
		t.Fatal(err)
	}
	infos, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 || infos[0].Slot != "1" || infos[1].Script != "other.scm" {
		t.Fatalf("List = %+v", infos)
	}
	if !infos[0].SavedAt.Equal(now) || infos[0].Size == 0 {
		t.Errorf("slot info = %+v", infos[0])
	}
	if got, _ := s.Load("1"); got.MissionFlag != 12 {
		t.Error("Save did not replace the slot")
	}

	if err := s.Delete("1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("missing"); err != nil {
		t.Errorf("deleting a missing slot: %v", err)
	}
	if infos, _ := s.List(); len(infos) != 1 {
		t.Errorf("List after delete = %+v", infos)
	}
}

func TestStoreInMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Save("quick", "", vm.Snapshot{Globals: make([]byte, 8)}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load("quick"); err != nil {
		t.Error(err)
	}
}

func TestRenderJSON(t *testing.T) {
	data, err := RenderJSON(runningMachine(t).Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	var v struct {
		Globals []int32 `json:"globals"`
		Threads []struct {
			Name        string  `json:"name"`
			WakeCounter int32   `json:"wake_counter"`
			Locals      []int32 `json:"locals"`
		} `json:"threads"`
		Seed uint64 `json:"seed"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatal(err)
	}
	if len(v.Globals) != 16 || v.Globals[2] != 42 {
		t.Errorf("globals = %v", v.Globals)
	}
	if len(v.Threads) != 2 || v.Threads[1].Name != "CHILD" {
		t.Fatalf("threads = %+v", v.Threads)
	}
	if v.Threads[1].Locals[0] != 7 || len(v.Threads[1].Locals) != vm.LocalCount {
		t.Errorf("child locals start %v", v.Threads[1].Locals[:2])
	}
	if v.Threads[1].WakeCounter != vm.Suspended || v.Seed != 99 {
		t.Errorf("wake=%d seed=%d", v.Threads[1].WakeCounter, v.Seed)
	}
}

func TestCanonicalKeys(t *testing.T) {
	data, _ := Encode(vm.Snapshot{}, "")
	var raw map[int]cbor.RawMessage
	if err := cbor.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, k := range []int{1, 3} {
		if _, ok := raw[k]; !ok {
			t.Errorf("key %d missing from %v", k, raw)
		}
	}
}
