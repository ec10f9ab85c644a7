package vm

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/zurustar/scmvm/pkg/opcode"
	"github.com/zurustar/scmvm/pkg/scm"
)

// decodeOne decodes the single operand emitted into b and checks that the
// cursor lands exactly at the end of it.
func decodeOne(b *scm.Builder) (Argument, bool) {
	code := b.Bytes()
	d, _, _ := newDecoder(code)
	arg, next, err := d.Argument(0)
	if err != nil {
		return arg, false
	}
	return arg, next == uint32(len(code))
}

// TestProperty5_ArgumentRoundTrip tests that encoding then decoding an
// operand of each tag yields the original value and width.
// Feature: decoder, Property 5: オペランドのラウンドトリップ
func TestProperty5_ArgumentRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("integer literals", prop.ForAll(
		func(v int32) bool {
			arg, ok := decodeOne(program().Int(v))
			return ok && !arg.IsReference() && arg.IntValue() == v
		},
		gen.Int32(),
	))

	properties.Property("float32 literals", prop.ForAll(
		func(v float32) bool {
			arg, ok := decodeOne(program().Float32(v))
			return ok && arg.Tag == opcode.Float32 && arg.FloatValue() == v
		},
		gen.Float32Range(-1e6, 1e6),
	))

	properties.Property("float16 literals", prop.ForAll(
		func(raw int16) bool {
			v := float32(raw) / 16
			arg, ok := decodeOne(program().Float16(v))
			return ok && arg.Tag == opcode.Float16 && arg.FloatValue() == v
		},
		gen.Int16(),
	))

	properties.Property("global references", prop.ForAll(
		func(offset uint16) bool {
			arg, ok := decodeOne(program().Global(offset))
			return ok && arg.Space == GlobalSpace && arg.Offset == uint32(offset)
		},
		gen.UInt16Range(0, 60),
	))

	properties.Property("local references", prop.ForAll(
		func(index uint16) bool {
			arg, ok := decodeOne(program().Local(index))
			return ok && arg.Space == LocalSpace && arg.Offset == uint32(index)*CellSize
		},
		gen.UInt16Range(0, LocalCount-1),
	))

	properties.Property("fixed strings", prop.ForAll(
		func(s string) bool {
			if len(s) > opcode.StringWidth {
				s = s[:opcode.StringWidth]
			}
			arg, ok := decodeOne(program().String8(s))
			return ok && arg.Str == s
		},
		gen.AlphaString(),
	))

	properties.Property("length-prefixed strings", prop.ForAll(
		func(s string) bool {
			if len(s) > 255 {
				s = s[:255]
			}
			arg, ok := decodeOne(program().VarString(s))
			return ok && arg.Str == s
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
