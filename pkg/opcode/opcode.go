// Package opcode defines the bytecode encoding for the script virtual machine.
// This package is the foundation that the loader, the assembler and the VM depend on.
// The assembler emits these encodings, and the VM decodes and executes them.
package opcode

import "fmt"

// ID identifies an instruction. It is stored little-endian in two bytes.
type ID uint16

// NegateMask is the high bit of an encoded opcode. When set, the boolean
// result of a condition-producing instruction is inverted.
const NegateMask ID = 0x8000

// Split separates an encoded opcode into the handler ID and the negate flag.
func Split(raw uint16) (ID, bool) {
	id := ID(raw)
	return id &^ NegateMask, id&NegateMask != 0
}

// String formats the ID the way diagnostics print it.
func (id ID) String() string {
	return fmt.Sprintf("%04x", uint16(id))
}

// Tag is the type byte that precedes every operand.
type Tag uint8

// Operand tags.
const (
	// EndOfArgs terminates the operand list of a variadic instruction.
	EndOfArgs Tag = 0x00
	// Int32 is a 4 byte literal integer.
	Int32 Tag = 0x01
	// Global references the global heap by byte offset (u16).
	Global Tag = 0x02
	// Local references the thread-local window by variable index (u16).
	Local Tag = 0x03
	// Int8 is a 1 byte literal integer, sign-extended.
	Int8 Tag = 0x04
	// Int16 is a 2 byte literal integer, sign-extended.
	Int16 Tag = 0x05
	// Float16 is a 2 byte fixed-point literal (value / 16).
	Float16 Tag = 0x06
	// GlobalArray is an element of an array in the global heap.
	// Payload: base offset (u16), index variable (u16), size (u8), flags (u8).
	GlobalArray Tag = 0x07
	// LocalArray is an element of an array in the thread-local window.
	// Payload: base index (u16), index variable (u16), size (u8), flags (u8).
	LocalArray Tag = 0x08
	// String8 is an explicit fixed-width 8 byte string.
	String8 Tag = 0x09
	// Float32 is a 4 byte IEEE-754 literal.
	Float32 Tag = 0x0A
	// VarString is a length-prefixed string (u8 length + bytes).
	VarString Tag = 0x0E

	// ImplicitStringMin is the smallest tag byte that is the first character
	// of an implicit 8 byte string rather than a type tag.
	ImplicitStringMin Tag = 42
)

// ArrayIndexLocal is set in an array operand's flags when the index
// variable lives in the thread-local window.
const ArrayIndexLocal uint8 = 0x80

// StringWidth is the width of fixed strings (String8 and implicit strings).
const StringWidth = 8

// IsImplicitString reports whether a tag byte starts an implicit string.
func (t Tag) IsImplicitString() bool {
	return t > ImplicitStringMin
}

// Width returns the number of payload bytes following the tag byte for
// fixed-width tags. VarString and implicit strings are reported as -1.
func (t Tag) Width() int {
	switch t {
	case EndOfArgs:
		return 0
	case Int8:
		return 1
	case Int16, Float16, Global, Local:
		return 2
	case Int32, Float32:
		return 4
	case GlobalArray, LocalArray:
		return 6
	case String8:
		return StringWidth
	default:
		return -1
	}
}

// IsReference reports whether operands with this tag address a variable.
func (t Tag) IsReference() bool {
	switch t {
	case Global, Local, GlobalArray, LocalArray:
		return true
	default:
		return false
	}
}

// String returns a short name for the tag.
func (t Tag) String() string {
	switch t {
	case EndOfArgs:
		return "end"
	case Int32:
		return "int32"
	case Global:
		return "global"
	case Local:
		return "local"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Float16:
		return "float16"
	case GlobalArray:
		return "global[]"
	case LocalArray:
		return "local[]"
	case String8:
		return "string8"
	case Float32:
		return "float32"
	case VarString:
		return "string"
	}
	if t.IsImplicitString() {
		return "string"
	}
	return fmt.Sprintf("tag(%02x)", uint8(t))
}
