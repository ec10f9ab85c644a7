package vm

import (
	"fmt"

	"github.com/zurustar/scmvm/pkg/opcode"
)

// registerControlOpcodes registers sleeping, jumps, subroutines and if-blocks.
func registerControlOpcodes(m *Module) {
	m.Bind(opcode.Nop, nil, 0, "NOP")

	// sleep(ms): zero suspends until woken
	m.Bind(opcode.Sleep, func(ctx *Context, args Arguments) (Condition, error) {
		ctx.Thread.Sleep(args[0].IntValue())
		return Unconditional, nil
	}, 1, "Sleep thread")

	m.Bind(opcode.Jump, func(ctx *Context, args Arguments) (Condition, error) {
		ctx.Thread.Jump(args[0].IntValue())
		return Unconditional, nil
	}, 1, "Jump")

	// jump_if_false(label) reads the folded result of the last if-block
	m.Bind(opcode.JumpIfFalse, func(ctx *Context, args Arguments) (Condition, error) {
		if !ctx.Thread.ConditionResult {
			ctx.Thread.Jump(args[0].IntValue())
		}
		return Unconditional, nil
	}, 1, "Jump if false")

	m.Bind(opcode.Gosub, func(ctx *Context, args Arguments) (Condition, error) {
		return Unconditional, ctx.Thread.Gosub(args[0].IntValue())
	}, 1, "Gosub")

	m.Bind(opcode.Return, func(ctx *Context, args Arguments) (Condition, error) {
		return Unconditional, ctx.Thread.Return()
	}, 0, "Return")

	// call(label, label): the second label is carried by the encoding but
	// execution only follows the first.
	m.Bind(opcode.Call, func(ctx *Context, args Arguments) (Condition, error) {
		return Unconditional, ctx.Thread.Gosub(args[0].IntValue())
	}, 2, "Call")

	m.Bind(opcode.If, func(ctx *Context, args Arguments) (Condition, error) {
		ctx.Thread.BeginCondition(args[0].IntValue())
		return Unconditional, nil
	}, 1, "If")
}

// registerThreadOpcodes registers thread lifecycle and mission opcodes.
func registerThreadOpcodes(m *Module) {
	m.Bind(opcode.EndThread, func(ctx *Context, args Arguments) (Condition, error) {
		ctx.Thread.Halt()
		return Unconditional, nil
	}, 0, "End Thread")

	// start_thread(label, args...): args land in locals 0..n of the new thread
	m.Bind(opcode.StartThread, func(ctx *Context, args Arguments) (Condition, error) {
		addr := ctx.Thread.Localize(args[0].IntValue())
		params := args[1:]
		if len(params) > LocalCount {
			return Unconditional, NewOutOfBoundsError(
				fmt.Sprintf("%d thread parameters exceed %d locals", len(params), LocalCount), ctx.Offset, ctx.Thread.Name())
		}
		id := ctx.Machine.StartThread(addr, false)
		t, _ := ctx.Machine.Thread(id)
		for i, p := range params {
			if err := t.locals.SetUint32(uint32(i*CellSize), p.Bits()); err != nil {
				return Unconditional, err
			}
		}
		return Unconditional, nil
	}, -1, "Start New Thread")

	m.Bind(opcode.StartMission, func(ctx *Context, args Arguments) (Condition, error) {
		ctx.Machine.StartThread(ctx.Thread.Localize(args[0].IntValue()), true)
		return Unconditional, nil
	}, 1, "Start Mission Thread")

	// launch_mission(index) starts the mission block at that index
	m.Bind(opcode.LaunchMission, func(ctx *Context, args Arguments) (Condition, error) {
		offset, err := ctx.Machine.File().MissionOffset(int(args[0].IntValue()))
		if err != nil {
			return Unconditional, NewRuntimeError(ErrorInvalidOperation, err.Error())
		}
		ctx.Machine.StartThread(offset, true)
		return Unconditional, nil
	}, 1, "Start Mission")

	m.Bind(opcode.MissionOver, func(ctx *Context, args Arguments) (Condition, error) {
		ctx.Environment().CleanupMission()
		if offset, ok := ctx.Machine.MissionFlag(); ok {
			if err := ctx.Machine.Globals().SetInt32(offset, 0); err != nil {
				return Unconditional, err
			}
		}
		return Unconditional, nil
	}, 0, "Set Mission Finished")

	m.Bind(opcode.MissionFlag, func(ctx *Context, args Arguments) (Condition, error) {
		if args[0].Space != GlobalSpace {
			return Unconditional, NewRuntimeError(ErrorInvalidOperation,
				fmt.Sprintf("mission flag must be a global variable, got %s", args[0]))
		}
		ctx.Machine.SetMissionFlag(args[0].Offset)
		return Unconditional, nil
	}, 1, "Declare Mission Flag")

	m.Bind(opcode.SetDeathArrest, func(ctx *Context, args Arguments) (Condition, error) {
		ctx.Thread.DeathArrestCheck = args[0].IntValue() != 0
		return Unconditional, nil
	}, 1, "Set Death Arrest State")

	m.Bind(opcode.WastedOrBusted, func(ctx *Context, args Arguments) (Condition, error) {
		return Result(ctx.Thread.WastedOrBusted), nil
	}, 0, "Has Death Or Arrest Been Executed")

	m.Bind(opcode.NameThread, func(ctx *Context, args Arguments) (Condition, error) {
		ctx.Thread.SetName(args[0].Str)
		return Unconditional, nil
	}, 1, "Name Thread")
}
