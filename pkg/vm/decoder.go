package vm

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/zurustar/scmvm/pkg/opcode"
)

// Decoder reads opcodes and tagged operands from a bytecode buffer.
// Globals and Locals are the spaces references resolve against; Thread is
// the name reported in diagnostics.
type Decoder struct {
	Code    []byte
	Globals *Memory
	Locals  *Memory
	Thread  string
}

// Opcode reads the raw two byte opcode at cursor.
func (d *Decoder) Opcode(cursor uint32) (uint16, uint32, error) {
	b, err := d.read(cursor, 2)
	if err != nil {
		return 0, cursor, err
	}
	return binary.LittleEndian.Uint16(b), cursor + 2, nil
}

// Arguments decodes the operand list described by shape.
func (d *Decoder) Arguments(cursor uint32, shape opcode.Shape) (Arguments, uint32, error) {
	args := make(Arguments, 0, shape.Count)
	for i := 0; i < shape.Count; i++ {
		arg, next, err := d.required(cursor)
		if err != nil {
			return nil, cursor, err
		}
		args = append(args, arg)
		cursor = next
	}

	switch shape.Kind {
	case opcode.Terminated:
		for {
			arg, next, err := d.Argument(cursor)
			if err != nil {
				return nil, cursor, err
			}
			cursor = next
			if arg.Tag == opcode.EndOfArgs {
				break
			}
			args = append(args, arg)
		}
	case opcode.Counted:
		n := args[0].IntValue()
		if n < 0 {
			return nil, cursor, NewOutOfBoundsError(fmt.Sprintf("negative operand count %d", n), cursor, d.Thread)
		}
		for i := int32(0); i < n; i++ {
			arg, next, err := d.required(cursor)
			if err != nil {
				return nil, cursor, err
			}
			args = append(args, arg)
			cursor = next
		}
	}
	return args, cursor, nil
}

// required decodes an operand where the end-of-list tag is not allowed.
func (d *Decoder) required(cursor uint32) (Argument, uint32, error) {
	arg, next, err := d.Argument(cursor)
	if err != nil {
		return arg, cursor, err
	}
	if arg.Tag == opcode.EndOfArgs {
		return arg, cursor, NewUnknownTypeError(opcode.EndOfArgs, cursor, d.Thread)
	}
	return arg, next, nil
}

// Argument decodes a single operand at cursor and returns the cursor
// following it.
func (d *Decoder) Argument(cursor uint32) (Argument, uint32, error) {
	b, err := d.read(cursor, 1)
	if err != nil {
		return Argument{}, cursor, err
	}
	tag := opcode.Tag(b[0])

	if tag.IsImplicitString() {
		raw, err := d.read(cursor, opcode.StringWidth)
		if err != nil {
			return Argument{}, cursor, err
		}
		return Argument{Tag: tag, Str: decodeString(raw)}, cursor + opcode.StringWidth, nil
	}

	at := cursor + 1
	switch tag {
	case opcode.EndOfArgs:
		return Argument{Tag: tag}, at, nil

	case opcode.Int8:
		p, err := d.read(at, 1)
		if err != nil {
			return Argument{}, cursor, err
		}
		return Argument{Tag: tag, Int: int32(int8(p[0]))}, at + 1, nil

	case opcode.Int16:
		p, err := d.read(at, 2)
		if err != nil {
			return Argument{}, cursor, err
		}
		return Argument{Tag: tag, Int: int32(int16(binary.LittleEndian.Uint16(p)))}, at + 2, nil

	case opcode.Int32:
		p, err := d.read(at, 4)
		if err != nil {
			return Argument{}, cursor, err
		}
		return Argument{Tag: tag, Int: int32(binary.LittleEndian.Uint32(p))}, at + 4, nil

	case opcode.Float16:
		p, err := d.read(at, 2)
		if err != nil {
			return Argument{}, cursor, err
		}
		v := int16(binary.LittleEndian.Uint16(p))
		return Argument{Tag: tag, Real: float32(v) / 16}, at + 2, nil

	case opcode.Float32:
		p, err := d.read(at, 4)
		if err != nil {
			return Argument{}, cursor, err
		}
		return Argument{Tag: tag, Real: math.Float32frombits(binary.LittleEndian.Uint32(p))}, at + 4, nil

	case opcode.Global, opcode.Local:
		p, err := d.read(at, 2)
		if err != nil {
			return Argument{}, cursor, err
		}
		arg, err := d.reference(tag, tag == opcode.Local, uint32(binary.LittleEndian.Uint16(p)), cursor)
		return arg, at + 2, err

	case opcode.GlobalArray, opcode.LocalArray:
		p, err := d.read(at, 6)
		if err != nil {
			return Argument{}, cursor, err
		}
		arg, err := d.arrayElement(tag, p, cursor)
		return arg, at + 6, err

	case opcode.String8:
		p, err := d.read(at, opcode.StringWidth)
		if err != nil {
			return Argument{}, cursor, err
		}
		return Argument{Tag: tag, Str: decodeString(p)}, at + opcode.StringWidth, nil

	case opcode.VarString:
		n, err := d.read(at, 1)
		if err != nil {
			return Argument{}, cursor, err
		}
		p, err := d.read(at+1, int(n[0]))
		if err != nil {
			return Argument{}, cursor, err
		}
		return Argument{Tag: tag, Str: decodeString(p)}, at + 1 + uint32(n[0]), nil
	}

	return Argument{}, cursor, NewUnknownTypeError(tag, cursor, d.Thread)
}

// reference builds a reference argument for a variable operand. Local
// operands hold a variable index, global operands a byte offset.
func (d *Decoder) reference(tag opcode.Tag, local bool, v uint32, at uint32) (Argument, error) {
	arg := Argument{Tag: tag}
	if local {
		arg.Space = LocalSpace
		arg.Offset = v * CellSize
		arg.mem = d.Locals
	} else {
		arg.Space = GlobalSpace
		arg.Offset = v
		arg.mem = d.Globals
	}
	if arg.mem == nil || !arg.mem.Contains(arg.Offset) {
		return Argument{}, NewOutOfBoundsError(fmt.Sprintf("%s variable %d out of bounds", tag, v), at, d.Thread)
	}
	return arg, nil
}

// arrayElement resolves an array operand to the element its index variable
// currently selects.
func (d *Decoder) arrayElement(tag opcode.Tag, p []byte, at uint32) (Argument, error) {
	base := binary.LittleEndian.Uint16(p[0:])
	indexVar := binary.LittleEndian.Uint16(p[2:])
	size := int32(p[4])
	flags := p[5]

	index, err := d.reference(opcode.Global, flags&opcode.ArrayIndexLocal != 0, uint32(indexVar), at)
	if err != nil {
		return Argument{}, err
	}
	i := index.IntValue()
	if i < 0 || i >= size {
		return Argument{}, NewOutOfBoundsError(fmt.Sprintf("array index %d out of range (size %d)", i, size), at, d.Thread)
	}

	// 要素位置は16ビットで折り返さない
	if tag == opcode.LocalArray {
		return d.reference(tag, true, uint32(base)+uint32(i), at)
	}
	return d.reference(tag, false, uint32(base)+uint32(i)*CellSize, at)
}

func (d *Decoder) read(at uint32, n int) ([]byte, error) {
	end := uint64(at) + uint64(n)
	if end > uint64(len(d.Code)) {
		return nil, NewOutOfBoundsError(fmt.Sprintf("read of %d bytes past end of code (%d bytes)", n, len(d.Code)), at, d.Thread)
	}
	return d.Code[at:end], nil
}

// decodeString converts a NUL padded Windows-1252 string to UTF-8.
func decodeString(raw []byte) string {
	if i := strings.IndexByte(string(raw), 0); i >= 0 {
		raw = raw[:i]
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(s)
}
