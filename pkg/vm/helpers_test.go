package vm

import (
	"testing"
	"time"

	"github.com/zurustar/scmvm/pkg/opcode"
	"github.com/zurustar/scmvm/pkg/scm"
)

const testGlobalsSize = 256

// tick is one scheduler step of 16ms.
const tick = 16 * time.Millisecond

// newTestMachine loads code as a bare image and installs the core module plus
// any extra modules.
func newTestMachine(t *testing.T, code []byte, opts ...Option) *Machine {
	t.Helper()
	m, err := New(scm.FromCode(code, testGlobalsSize), NewRegistry(CoreModule()), opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}

// newMachineWith is newTestMachine with a custom registry.
func newMachineWith(t *testing.T, code []byte, reg *Registry, opts ...Option) *Machine {
	t.Helper()
	m, err := New(scm.FromCode(code, testGlobalsSize), reg, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}

type opBuilder = scm.Builder

// program starts a builder for a bare image.
func program() *scm.Builder {
	return scm.NewBuilder(0)
}

// halt appends an end-thread instruction.
func halt(b *scm.Builder) *scm.Builder {
	return b.Op(opcode.EndThread)
}

func globalInt(t *testing.T, m *Machine, offset uint32) int32 {
	t.Helper()
	v, err := m.Globals().Int32(offset)
	if err != nil {
		t.Fatalf("read global %d: %v", offset, err)
	}
	return v
}

func globalFloat(t *testing.T, m *Machine, offset uint32) float32 {
	t.Helper()
	v, err := m.Globals().Float32(offset)
	if err != nil {
		t.Fatalf("read global %d: %v", offset, err)
	}
	return v
}

// entryThread returns the first scheduled thread.
func entryThread(t *testing.T, m *Machine) (ThreadID, *Thread) {
	t.Helper()
	ids := m.Threads()
	if len(ids) == 0 {
		t.Fatal("no threads scheduled")
	}
	th, ok := m.Thread(ids[0])
	if !ok {
		t.Fatal("entry thread does not resolve")
	}
	return ids[0], th
}

// probeModule binds a condition opcode that returns a fixed result, for
// exercising if-block folding.
func probeModule(results map[opcode.ID]bool) *Module {
	m := NewModule("probe")
	for id, r := range results {
		r := r
		m.Bind(id, func(ctx *Context, args Arguments) (Condition, error) {
			return Result(r), nil
		}, 0, "probe")
	}
	return m
}

const (
	probeTrue  opcode.ID = 0x0F00
	probeFalse opcode.ID = 0x0F01
)
