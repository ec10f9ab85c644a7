package scm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/zurustar/scmvm/pkg/opcode"
)

// Builder emits tagged bytecode. It is used by tests and tooling to produce
// images; it does not compile script source.
type Builder struct {
	buf  []byte
	base uint32
}

// NewBuilder creates a builder whose first byte will live at offset base
// once placed in an image.
func NewBuilder(base uint32) *Builder {
	return &Builder{base: base}
}

// Offset returns the absolute offset of the next emitted byte.
func (b *Builder) Offset() uint32 {
	return b.base + uint32(len(b.buf))
}

// Bytes returns the emitted bytecode.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// Op emits an opcode.
func (b *Builder) Op(id opcode.ID) *Builder {
	b.buf = binary.LittleEndian.AppendUint16(b.buf, uint16(id))
	return b
}

// NotOp emits an opcode with the negate flag set.
func (b *Builder) NotOp(id opcode.ID) *Builder {
	return b.Op(id | opcode.NegateMask)
}

// Int emits an integer literal using the narrowest encoding.
func (b *Builder) Int(v int32) *Builder {
	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return b.Int8(int8(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return b.Int16(int16(v))
	default:
		return b.Int32(v)
	}
}

// Int8 emits a one byte integer literal.
func (b *Builder) Int8(v int8) *Builder {
	b.buf = append(b.buf, byte(opcode.Int8), byte(v))
	return b
}

// Int16 emits a two byte integer literal.
func (b *Builder) Int16(v int16) *Builder {
	b.buf = append(b.buf, byte(opcode.Int16))
	b.buf = binary.LittleEndian.AppendUint16(b.buf, uint16(v))
	return b
}

// Int32 emits a four byte integer literal.
func (b *Builder) Int32(v int32) *Builder {
	b.buf = append(b.buf, byte(opcode.Int32))
	b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(v))
	return b
}

// Label emits a four byte integer placeholder and returns the offset of its
// payload within the builder for Patch.
func (b *Builder) Label() int {
	b.Int32(0)
	return len(b.buf) - 4
}

// Patch overwrites a placeholder emitted by Label.
func (b *Builder) Patch(at int, v int32) {
	binary.LittleEndian.PutUint32(b.buf[at:], uint32(v))
}

// Float16 emits a fixed-point float literal (1/16 precision).
func (b *Builder) Float16(v float32) *Builder {
	b.buf = append(b.buf, byte(opcode.Float16))
	b.buf = binary.LittleEndian.AppendUint16(b.buf, uint16(int16(v*16)))
	return b
}

// Float32 emits a four byte float literal.
func (b *Builder) Float32(v float32) *Builder {
	b.buf = append(b.buf, byte(opcode.Float32))
	b.buf = binary.LittleEndian.AppendUint32(b.buf, math.Float32bits(v))
	return b
}

// Global emits a reference to the global cell at byte offset.
func (b *Builder) Global(offset uint16) *Builder {
	b.buf = append(b.buf, byte(opcode.Global))
	b.buf = binary.LittleEndian.AppendUint16(b.buf, offset)
	return b
}

// Local emits a reference to local variable index.
func (b *Builder) Local(index uint16) *Builder {
	b.buf = append(b.buf, byte(opcode.Local))
	b.buf = binary.LittleEndian.AppendUint16(b.buf, index)
	return b
}

// GlobalArray emits a global array element reference.
func (b *Builder) GlobalArray(base, indexVar uint16, size uint8, localIndex bool) *Builder {
	return b.array(opcode.GlobalArray, base, indexVar, size, localIndex)
}

// LocalArray emits a local array element reference.
func (b *Builder) LocalArray(base, indexVar uint16, size uint8, localIndex bool) *Builder {
	return b.array(opcode.LocalArray, base, indexVar, size, localIndex)
}

func (b *Builder) array(tag opcode.Tag, base, indexVar uint16, size uint8, localIndex bool) *Builder {
	var flags uint8
	if localIndex {
		flags |= opcode.ArrayIndexLocal
	}
	b.buf = append(b.buf, byte(tag))
	b.buf = binary.LittleEndian.AppendUint16(b.buf, base)
	b.buf = binary.LittleEndian.AppendUint16(b.buf, indexVar)
	b.buf = append(b.buf, size, flags)
	return b
}

// String8 emits an explicit fixed-width string, truncated to 8 bytes.
func (b *Builder) String8(s string) *Builder {
	b.buf = append(b.buf, byte(opcode.String8))
	b.buf = append(b.buf, fixedString(s)...)
	return b
}

// ImplicitString emits an untagged 8 byte string. The first byte must be
// above the implicit string threshold, which holds for printable names.
func (b *Builder) ImplicitString(s string) *Builder {
	raw := fixedString(s)
	if !opcode.Tag(raw[0]).IsImplicitString() {
		panic(fmt.Sprintf("scm: %q cannot be encoded as an implicit string", s))
	}
	b.buf = append(b.buf, raw...)
	return b
}

// VarString emits a length-prefixed string of at most 255 bytes.
func (b *Builder) VarString(s string) *Builder {
	if len(s) > math.MaxUint8 {
		s = s[:math.MaxUint8]
	}
	b.buf = append(b.buf, byte(opcode.VarString), byte(len(s)))
	b.buf = append(b.buf, s...)
	return b
}

// End closes a variadic operand list.
func (b *Builder) End() *Builder {
	b.buf = append(b.buf, byte(opcode.EndOfArgs))
	return b
}

// Raw appends bytes verbatim.
func (b *Builder) Raw(p ...byte) *Builder {
	b.buf = append(b.buf, p...)
	return b
}

func fixedString(s string) []byte {
	raw := make([]byte, opcode.StringWidth)
	copy(raw, s)
	return raw
}
