package vm

import (
	"fmt"
	"math"
	"strings"

	"github.com/zurustar/scmvm/pkg/opcode"
)

// Space identifies the variable space a reference points into.
type Space uint8

const (
	// NoSpace marks a literal operand.
	NoSpace Space = iota
	// GlobalSpace is the machine-wide heap.
	GlobalSpace
	// LocalSpace is the running thread's local window.
	LocalSpace
)

// Argument is one decoded operand. Literals carry their value; references
// carry the cell they address and read and write through it, so handlers
// can treat "set variable" operands uniformly whatever their space.
type Argument struct {
	Tag  opcode.Tag
	Int  int32
	Real float32
	Str  string

	// Space and Offset locate the referenced cell. Offset is a byte offset.
	Space  Space
	Offset uint32
	mem    *Memory
}

// IsReference reports whether the argument addresses a variable.
func (a Argument) IsReference() bool {
	return a.mem != nil
}

// IsFloat reports whether the argument is a float literal.
func (a Argument) IsFloat() bool {
	return a.Tag == opcode.Float16 || a.Tag == opcode.Float32
}

// IsString reports whether the argument is a string literal.
func (a Argument) IsString() bool {
	return a.Tag == opcode.String8 || a.Tag == opcode.VarString || a.Tag.IsImplicitString()
}

// IntValue returns the argument as an integer, reading through references.
func (a Argument) IntValue() int32 {
	if a.mem != nil {
		v, _ := a.mem.Int32(a.Offset)
		return v
	}
	if a.IsFloat() {
		return int32(a.Real)
	}
	return a.Int
}

// FloatValue returns the argument as a float, reading through references.
func (a Argument) FloatValue() float32 {
	if a.mem != nil {
		v, _ := a.mem.Float32(a.Offset)
		return v
	}
	if a.IsFloat() {
		return a.Real
	}
	return float32(a.Int)
}

// Bits returns the raw 4 byte value of the argument.
func (a Argument) Bits() uint32 {
	if a.mem != nil {
		v, _ := a.mem.Uint32(a.Offset)
		return v
	}
	if a.IsFloat() {
		return math.Float32bits(a.Real)
	}
	return uint32(a.Int)
}

// SetInt writes an integer through a reference.
func (a Argument) SetInt(v int32) error {
	if a.mem == nil {
		return NewRuntimeError(ErrorInvalidOperation, fmt.Sprintf("cannot assign to %s literal", a.Tag))
	}
	return a.mem.SetInt32(a.Offset, v)
}

// SetFloat writes a float through a reference.
func (a Argument) SetFloat(v float32) error {
	if a.mem == nil {
		return NewRuntimeError(ErrorInvalidOperation, fmt.Sprintf("cannot assign to %s literal", a.Tag))
	}
	return a.mem.SetFloat32(a.Offset, v)
}

// SetBits writes raw bits through a reference.
func (a Argument) SetBits(v uint32) error {
	if a.mem == nil {
		return NewRuntimeError(ErrorInvalidOperation, fmt.Sprintf("cannot assign to %s literal", a.Tag))
	}
	return a.mem.SetUint32(a.Offset, v)
}

// String formats the argument for traces.
func (a Argument) String() string {
	switch {
	case a.Space == GlobalSpace:
		return fmt.Sprintf("$%d", a.Offset)
	case a.Space == LocalSpace:
		return fmt.Sprintf("%d@", a.Offset/CellSize)
	case a.IsFloat():
		return fmt.Sprintf("%g", a.Real)
	case a.IsString():
		return fmt.Sprintf("%q", a.Str)
	default:
		return fmt.Sprintf("%d", a.Int)
	}
}

// Arguments is the decoded operand list of one instruction.
type Arguments []Argument

// String formats the operand list for traces.
func (args Arguments) String() string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}
