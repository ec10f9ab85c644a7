package vm

import (
	"fmt"

	"github.com/zurustar/scmvm/pkg/opcode"
)

func greaterInt(ctx *Context, args Arguments) (Condition, error) {
	return Result(args[0].IntValue() > args[1].IntValue()), nil
}

func greaterFloat(ctx *Context, args Arguments) (Condition, error) {
	return Result(args[0].FloatValue() > args[1].FloatValue()), nil
}

func greaterEqualInt(ctx *Context, args Arguments) (Condition, error) {
	return Result(args[0].IntValue() >= args[1].IntValue()), nil
}

func greaterEqualFloat(ctx *Context, args Arguments) (Condition, error) {
	return Result(args[0].FloatValue() >= args[1].FloatValue()), nil
}

func equalInt(ctx *Context, args Arguments) (Condition, error) {
	return Result(args[0].IntValue() == args[1].IntValue()), nil
}

func equalFloat(ctx *Context, args Arguments) (Condition, error) {
	return Result(args[0].FloatValue() == args[1].FloatValue()), nil
}

// bindRange binds fn to count consecutive IDs starting at first. The IDs of a
// range differ only in which operands are literals, globals or locals.
func bindRange(m *Module, first opcode.ID, count int, fn HandlerFunc, name string) {
	for i := 0; i < count; i++ {
		m.Bind(first+opcode.ID(i), fn, 2, fmt.Sprintf("%s (form %d)", name, i))
	}
}

// registerCompareOpcodes registers the condition-producing comparisons.
func registerCompareOpcodes(m *Module) {
	bindRange(m, opcode.GreaterInt, 8, greaterInt, "Int Greater Than")
	bindRange(m, opcode.GreaterFloat, 8, greaterFloat, "Float Greater Than")
	bindRange(m, opcode.GreaterEqualInt, 8, greaterEqualInt, "Int Greater Or Equal")
	bindRange(m, opcode.GreaterEqualFloat, 8, greaterEqualFloat, "Float Greater Or Equal")
	bindRange(m, opcode.EqualInt, 5, equalInt, "Int Equal To")
	bindRange(m, opcode.EqualFloat, 5, equalFloat, "Float Equal To")
}
