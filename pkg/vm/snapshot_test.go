package vm

import (
	"testing"

	"github.com/zurustar/scmvm/pkg/opcode"
)

// counterProgram increments global 8 once per 50ms from inside a subroutine.
func counterProgram() []byte {
	b := program()
	b.Op(opcode.NameThread).ImplicitString("COUNTER")
	loop := b.Offset()
	b.Op(opcode.Gosub)
	sub := b.Label()
	b.Op(opcode.Jump).Int32(int32(loop))
	b.Patch(sub, int32(b.Offset()))
	b.Op(opcode.AddGlobalInt).Global(8).Int(1)
	b.Op(opcode.SetLocalInt).Local(3).Int(77)
	b.Op(opcode.Sleep).Int(50)
	b.Op(opcode.Return)
	return b.Bytes()
}

func TestSnapshotRestore(t *testing.T) {
	code := counterProgram()
	m := newTestMachine(t, code, WithSeed(5))
	for i := 0; i < 5; i++ {
		_ = m.Execute(tick)
	}
	m.SetMissionFlag(40)

	snap := m.Snapshot()
	if len(snap.Threads) != 1 {
		t.Fatalf("snapshot threads = %d", len(snap.Threads))
	}
	img := snap.Threads[0]
	if img.Name != "COUNTER" || len(img.Calls) != 1 || len(img.Locals) != LocalCount*CellSize {
		t.Errorf("thread image = %+v", img)
	}
	if snap.MissionFlag != 40 || snap.Seed != 5 || len(snap.Globals) != testGlobalsSize {
		t.Errorf("snapshot header = flag %d seed %d globals %d", snap.MissionFlag, snap.Seed, len(snap.Globals))
	}

	restored := newTestMachine(t, code, WithoutEntryThread())
	if err := restored.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	for i := 0; i < 20; i++ {
		_ = m.Execute(tick)
		_ = restored.Execute(tick)
		if a, b := globalInt(t, m, 8), globalInt(t, restored, 8); a != b {
			t.Fatalf("tick %d: original %d, restored %d", i, a, b)
		}
	}
	_, th := entryThread(t, restored)
	if th.Local(3) != 77 || th.Name() != "COUNTER" {
		t.Errorf("restored thread = %q local3=%d", th.Name(), th.Local(3))
	}
	if off, ok := restored.MissionFlag(); !ok || off != 40 {
		t.Errorf("mission flag = %d, %v", off, ok)
	}
}

func TestRestoreInvalidatesHandles(t *testing.T) {
	m := newTestMachine(t, counterProgram())
	old, _ := entryThread(t, m)
	if err := m.Restore(m.Snapshot()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, ok := m.Thread(old); ok {
		t.Error("handle from before the restore still resolves")
	}
	if len(m.Threads()) != 1 {
		t.Errorf("threads = %d", len(m.Threads()))
	}
}

func TestRestoreRejectsBadImages(t *testing.T) {
	m := newTestMachine(t, nil, WithoutEntryThread())
	tests := []struct {
		name string
		img  ThreadImage
	}{
		{"deep call stack", ThreadImage{Calls: make([]uint32, StackDepth+1)}},
		{"oversized locals", ThreadImage{Locals: make([]byte, LocalCount*CellSize+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.Restore(Snapshot{Threads: []ThreadImage{tt.img}}); err == nil {
				t.Error("expected Restore to fail")
			}
		})
	}
}
