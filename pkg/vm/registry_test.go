package vm

import (
	"slices"
	"testing"

	"github.com/zurustar/scmvm/pkg/opcode"
)

const overrideID opcode.ID = 0x0700

// storeHandler writes v into global 8.
func storeHandler(v int32) HandlerFunc {
	return func(ctx *Context, args Arguments) (Condition, error) {
		return Unconditional, ctx.Machine.Globals().SetInt32(8, v)
	}
}

func TestRegistryLaterModuleWins(t *testing.T) {
	first := NewModule("First")
	first.Bind(overrideID, storeHandler(1), 0, "STORE")
	second := NewModule("Second")
	second.Bind(overrideID, storeHandler(2), 0, "STORE")

	reg := NewRegistry(CoreModule(), first, second)
	e, ok := reg.Lookup(overrideID)
	if !ok || e.Module != "Second" {
		t.Fatalf("Lookup = %+v, %v; want the Second binding", e, ok)
	}

	m := newMachineWith(t, halt(program().Op(overrideID)).Bytes(), reg)
	if err := m.Execute(tick); err != nil {
		t.Fatal(err)
	}
	if got := globalInt(t, m, 8); got != 2 {
		t.Errorf("global = %d, want 2 from the later module", got)
	}
}

func TestRegistryCoreOpcodeOverride(t *testing.T) {
	// 後からインストールしたモジュールは組み込み命令も置き換えられる
	mod := NewModule("Patch")
	mod.Bind(opcode.Nop, storeHandler(3), 0, "NOP")

	m := newMachineWith(t, halt(program().Op(opcode.Nop)).Bytes(), NewRegistry(CoreModule(), mod))
	if err := m.Execute(tick); err != nil {
		t.Fatal(err)
	}
	if got := globalInt(t, m, 8); got != 3 {
		t.Errorf("global = %d, want 3", got)
	}
}

func TestRegistryLaterBindWithinModule(t *testing.T) {
	mod := NewModule("Single")
	mod.Bind(overrideID, storeHandler(1), 0, "OLD")
	mod.Bind(overrideID, storeHandler(2), 1, "NEW")

	reg := NewRegistry(mod)
	e, ok := reg.Lookup(overrideID)
	if !ok || e.Name != "NEW" || e.Shape.Arity() != 1 {
		t.Fatalf("Lookup = %+v, %v; want NEW with one operand", e, ok)
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d, want 1", reg.Len())
	}
	if len(mod.Entries()) != 2 {
		t.Errorf("module should keep both bindings, has %d", len(mod.Entries()))
	}
}

func TestRegistryModulesInInstallOrder(t *testing.T) {
	reg := NewRegistry(CoreModule(), NewModule("A"))
	reg.Install(NewModule("B"))
	reg.Install(NewModule("A"))

	want := []string{CoreModuleName, "A", "B", "A"}
	if got := reg.Modules(); !slices.Equal(got, want) {
		t.Errorf("Modules = %v, want %v", got, want)
	}
	if _, ok := reg.Lookup(0x7ABC); ok {
		t.Error("unbound ID should not resolve")
	}
}
