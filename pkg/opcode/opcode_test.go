package opcode

import "testing"

func TestSplit(t *testing.T) {
	tests := []struct {
		raw     uint16
		id      ID
		negated bool
	}{
		{0x0038, 0x0038, false},
		{0x8038, 0x0038, true},
		{0x80D6, 0x00D6, true},
		{0x7FFF, 0x7FFF, false},
	}

	for _, tt := range tests {
		id, negated := Split(tt.raw)
		if id != tt.id || negated != tt.negated {
			t.Errorf("Split(%04x) = (%v, %v), want (%v, %v)", tt.raw, id, negated, tt.id, tt.negated)
		}
	}
}

func TestTagWidth(t *testing.T) {
	tests := []struct {
		tag   Tag
		width int
	}{
		{EndOfArgs, 0},
		{Int8, 1},
		{Int16, 2},
		{Float16, 2},
		{Global, 2},
		{Local, 2},
		{Int32, 4},
		{Float32, 4},
		{GlobalArray, 6},
		{LocalArray, 6},
		{String8, 8},
		{VarString, -1},
		{Tag('M'), -1},
	}

	for _, tt := range tests {
		t.Run(tt.tag.String(), func(t *testing.T) {
			if got := tt.tag.Width(); got != tt.width {
				t.Errorf("Width() = %d, want %d", got, tt.width)
			}
		})
	}
}

func TestImplicitString(t *testing.T) {
	if Tag(42).IsImplicitString() {
		t.Error("tag 42 should not start an implicit string")
	}
	if !Tag(43).IsImplicitString() {
		t.Error("tag 43 should start an implicit string")
	}
	if !Tag('A').IsImplicitString() {
		t.Error("'A' should start an implicit string")
	}
}

func TestShapeFromArity(t *testing.T) {
	tests := []struct {
		arity int
		want  Shape
	}{
		{0, Shape{Kind: Fixed, Count: 0}},
		{3, Shape{Kind: Fixed, Count: 3}},
		{-1, Shape{Kind: Terminated, Count: 1}},
	}

	for _, tt := range tests {
		got := ShapeFromArity(tt.arity)
		if got != tt.want {
			t.Errorf("ShapeFromArity(%d) = %+v, want %+v", tt.arity, got, tt.want)
		}
		if got.Arity() != tt.arity {
			t.Errorf("Arity() = %d, want %d", got.Arity(), tt.arity)
		}
	}

	if CountedShape(0).Count != 1 {
		t.Error("CountedShape must require at least the count operand")
	}
}
