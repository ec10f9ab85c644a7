package vm

import (
	"math"

	"github.com/zurustar/scmvm/pkg/opcode"
)

type intOp func(a, b int32) (int32, error)
type floatOp func(a, b float32) float32

// intUpdate binds target op= value for integer variables.
func intUpdate(op intOp) HandlerFunc {
	return func(ctx *Context, args Arguments) (Condition, error) {
		v, err := op(args[0].IntValue(), args[1].IntValue())
		if err != nil {
			return Unconditional, err
		}
		return Unconditional, args[0].SetInt(v)
	}
}

// floatUpdate binds target op= value for float variables.
func floatUpdate(op floatOp) HandlerFunc {
	return func(ctx *Context, args Arguments) (Condition, error) {
		return Unconditional, args[0].SetFloat(op(args[0].FloatValue(), args[1].FloatValue()))
	}
}

func addInt(a, b int32) (int32, error) { return a + b, nil }
func subInt(a, b int32) (int32, error) { return a - b, nil }
func mulInt(a, b int32) (int32, error) { return a * b, nil }

// divInt leaves the target untouched on a zero divisor.
func divInt(a, b int32) (int32, error) {
	if b == 0 {
		return a, NewDivisionByZeroError()
	}
	return a / b, nil
}

func addFloat(a, b float32) float32 { return a + b }
func subFloat(a, b float32) float32 { return a - b }
func mulFloat(a, b float32) float32 { return a * b }
func divFloat(a, b float32) float32 { return a / b }

func setInt(ctx *Context, args Arguments) (Condition, error) {
	return Unconditional, args[0].SetInt(args[1].IntValue())
}

func setFloat(ctx *Context, args Arguments) (Condition, error) {
	return Unconditional, args[0].SetFloat(args[1].FloatValue())
}

// copyVar copies the raw cell so int and float variables share one handler.
func copyVar(ctx *Context, args Arguments) (Condition, error) {
	return Unconditional, args[0].SetBits(args[1].Bits())
}

// registerMathOpcodes registers assignment and arithmetic on variables.
// Global and local variants share handlers since operands read and write
// through their reference whatever space it points into.
func registerMathOpcodes(m *Module) {
	m.Bind(opcode.SetGlobalInt, setInt, 2, "Set Global Integer")
	m.Bind(opcode.SetGlobalFloat, setFloat, 2, "Set Global Float")
	m.Bind(opcode.SetLocalInt, setInt, 2, "Set Local Int")
	m.Bind(opcode.SetLocalFloat, setFloat, 2, "Set Local Float")

	m.Bind(opcode.AddGlobalInt, intUpdate(addInt), 2, "Increment Global Int")
	m.Bind(opcode.AddGlobalFloat, floatUpdate(addFloat), 2, "Increment Global Float")
	m.Bind(opcode.AddLocalInt, intUpdate(addInt), 2, "Increment Local Int")
	m.Bind(opcode.AddLocalFloat, floatUpdate(addFloat), 2, "Increment Local Float")

	m.Bind(opcode.SubGlobalInt, intUpdate(subInt), 2, "Decrement Global Int")
	m.Bind(opcode.SubGlobalFloat, floatUpdate(subFloat), 2, "Decrement Global Float")
	m.Bind(opcode.SubLocalInt, intUpdate(subInt), 2, "Decrement Local Int")
	m.Bind(opcode.SubLocalFloat, floatUpdate(subFloat), 2, "Decrement Local Float")

	m.Bind(opcode.MulGlobalInt, intUpdate(mulInt), 2, "Multiply Global Int by Int")
	m.Bind(opcode.MulGlobalFloat, floatUpdate(mulFloat), 2, "Multiply Global Float by Float")
	m.Bind(opcode.MulLocalInt, intUpdate(mulInt), 2, "Multiply Local Int by Int")
	m.Bind(opcode.MulLocalFloat, floatUpdate(mulFloat), 2, "Multiply Local Float by Float")

	m.Bind(opcode.DivGlobalInt, intUpdate(divInt), 2, "Divide Global by Integer")
	m.Bind(opcode.DivGlobalFloat, floatUpdate(divFloat), 2, "Divide Global by Float")
	m.Bind(opcode.DivLocalInt, intUpdate(divInt), 2, "Divide Local by Integer")
	m.Bind(opcode.DivLocalFloat, floatUpdate(divFloat), 2, "Divide Local by Float")

	// var op= var: int, float, local int, local float
	m.Bind(opcode.AddVarInt, intUpdate(addInt), 2, "Increment Global Integer by Global Integer")
	m.Bind(opcode.AddVarInt+1, floatUpdate(addFloat), 2, "Increment Global Float by Global Float")
	m.Bind(opcode.AddVarInt+2, intUpdate(addInt), 2, "Increment Local Integer by Local Integer")
	m.Bind(opcode.AddVarInt+3, floatUpdate(addFloat), 2, "Increment Local Float by Local Float")
	m.Bind(opcode.SubVarInt, intUpdate(subInt), 2, "Decrement Global Integer by Global Integer")
	m.Bind(opcode.SubVarInt+1, floatUpdate(subFloat), 2, "Decrement Global Float by Global Float")
	m.Bind(opcode.SubVarInt+2, intUpdate(subInt), 2, "Decrement Local Integer by Local Integer")
	m.Bind(opcode.SubVarInt+3, floatUpdate(subFloat), 2, "Decrement Local Float by Local Float")
	m.Bind(opcode.MulVarFloat, floatUpdate(mulFloat), 2, "Multiply Global Float by Global Float")

	m.Bind(opcode.SetVarInt, copyVar, 2, "Set Global Int To Global")
	m.Bind(opcode.SetVarInt+1, copyVar, 2, "Set Local Int To Local")
	m.Bind(opcode.SetVarInt+2, copyVar, 2, "Set Global Float To Global")
	m.Bind(opcode.SetVarInt+3, copyVar, 2, "Set Local Float To Local")

	// floor(out int, float)
	m.Bind(opcode.FloorToInt, func(ctx *Context, args Arguments) (Condition, error) {
		return Unconditional, args[0].SetInt(int32(math.Floor(float64(args[1].FloatValue()))))
	}, 2, "Floor Float To Int")

	// sqrt(float, out float)
	m.Bind(opcode.Sqrt, func(ctx *Context, args Arguments) (Condition, error) {
		return Unconditional, args[1].SetFloat(float32(math.Sqrt(float64(args[0].FloatValue()))))
	}, 2, "Sqrt")
}
