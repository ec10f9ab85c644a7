package world

import (
	"github.com/zurustar/scmvm/pkg/activity"
	"github.com/zurustar/scmvm/pkg/opcode"
	"github.com/zurustar/scmvm/pkg/vm"
)

// ModuleName is the name of the module returned by Module.
const ModuleName = "World"

// Module returns the opcodes that create, move and query characters in w.
func (w *World) Module() *vm.Module {
	m := vm.NewModule(ModuleName)

	// create_char(type, model, x, y, z, out handle)
	m.Bind(opcode.CreateChar, func(ctx *vm.Context, args vm.Arguments) (vm.Condition, error) {
		pos := activity.Vec3{X: args[2].FloatValue(), Y: args[3].FloatValue(), Z: args[4].FloatValue()}
		h, err := w.CreateCharacter(args[0].IntValue(), args[1].IntValue(), pos, ctx.Thread.IsMission)
		if err != nil {
			return vm.Unconditional, vm.NewRuntimeError(vm.ErrorInvalidOperation, err.Error())
		}
		return vm.Unconditional, args[5].SetInt(int32(h))
	}, 6, "Create Character")

	m.Bind(opcode.DeleteChar, func(ctx *vm.Context, args vm.Arguments) (vm.Condition, error) {
		h := Handle(args[0].IntValue())
		if !w.DeleteCharacter(h) {
			return vm.Unconditional, vm.NewInvalidHandleError("character", int32(h))
		}
		return vm.Unconditional, nil
	}, 1, "Delete Character")

	// get_char_coordinates(handle, out x, out y, out z)
	m.Bind(opcode.GetCharCoords, func(ctx *vm.Context, args vm.Arguments) (vm.Condition, error) {
		c, ok := w.Character(Handle(args[0].IntValue()))
		if !ok {
			return vm.Unconditional, vm.NewInvalidHandleError("character", args[0].IntValue())
		}
		p := c.Body.Position
		for i, v := range [...]float32{p.X, p.Y, p.Z} {
			if err := args[i+1].SetFloat(v); err != nil {
				return vm.Unconditional, err
			}
		}
		return vm.Unconditional, nil
	}, 4, "Get Character Coordinates")

	// is_char_in_area_2d(handle, x1, y1, x2, y2, marker)
	m.Bind(opcode.IsCharInArea2D, func(ctx *vm.Context, args vm.Arguments) (vm.Condition, error) {
		c, ok := w.Character(Handle(args[0].IntValue()))
		if !ok {
			// a missing character is never inside the area
			ctx.Logger().Warn("Area check on invalid handle", "handle", args[0].IntValue(), "thread", ctx.Thread.Name())
			return vm.ConditionFalse, nil
		}
		p := c.Body.Position
		x1, y1 := args[1].FloatValue(), args[2].FloatValue()
		x2, y2 := args[3].FloatValue(), args[4].FloatValue()
		inside := p.X >= min(x1, x2) && p.X <= max(x1, x2) &&
			p.Y >= min(y1, y2) && p.Y <= max(y1, y2)
		return vm.Result(inside), nil
	}, 6, "Is Character in 2D Area")

	// char_go_to_coord_2d(handle, x, y)
	m.Bind(opcode.CharGoToCoord2D, func(ctx *vm.Context, args vm.Arguments) (vm.Condition, error) {
		c, ok := w.Character(Handle(args[0].IntValue()))
		if !ok {
			return vm.Unconditional, vm.NewInvalidHandleError("character", args[0].IntValue())
		}
		target := activity.Vec3{X: args[1].FloatValue(), Y: args[2].FloatValue(), Z: c.Body.Position.Z}
		c.Controller = c.Controller.SetNext(activity.GoToActivity(target, false))
		return vm.Unconditional, nil
	}, 3, "Character Go To 2D Coordinate")

	return m
}
