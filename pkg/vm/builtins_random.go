package vm

import (
	"github.com/zurustar/scmvm/pkg/opcode"
)

// registerRandomOpcodes registers the opcodes that draw from the machine's
// generator.
func registerRandomOpcodes(m *Module) {
	// random_float(min, max, out)
	m.Bind(opcode.RandomFloat, func(ctx *Context, args Arguments) (Condition, error) {
		v := ctx.Machine.Random().Float(args[0].FloatValue(), args[1].FloatValue())
		return Unconditional, args[2].SetFloat(v)
	}, 3, "Random Float in Range")

	// random_int(min, max, out): both bounds inclusive
	m.Bind(opcode.RandomInt, func(ctx *Context, args Arguments) (Condition, error) {
		v := ctx.Machine.Random().Int(args[0].IntValue(), args[1].IntValue())
		return Unconditional, args[2].SetInt(v)
	}, 3, "Random Int in Range")
}
