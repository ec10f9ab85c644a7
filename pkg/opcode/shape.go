package opcode

import "fmt"

// ShapeKind describes how the operand list of an instruction is delimited.
type ShapeKind uint8

const (
	// Fixed instructions consume exactly Count operands.
	Fixed ShapeKind = iota
	// Terminated instructions consume Count operands and then any number of
	// further operands up to an EndOfArgs tag.
	Terminated
	// Counted instructions consume Count operands, the first of which is an
	// integer giving the number of operands that follow.
	Counted
)

// Shape is the parameter-shape descriptor stored with every registry entry.
// Argument decoding is driven by the shape alone.
type Shape struct {
	Kind  ShapeKind
	Count int
}

// FixedShape returns a shape consuming exactly n operands.
func FixedShape(n int) Shape {
	return Shape{Kind: Fixed, Count: n}
}

// TerminatedShape returns a shape with n required operands followed by a
// list closed by EndOfArgs.
func TerminatedShape(n int) Shape {
	return Shape{Kind: Terminated, Count: n}
}

// CountedShape returns a shape with n required operands where the first
// holds the number of trailing operands.
func CountedShape(n int) Shape {
	if n < 1 {
		n = 1
	}
	return Shape{Kind: Counted, Count: n}
}

// ShapeFromArity converts the signed arity used by Bind.
// Non-negative values are fixed, negative values are terminated lists
// with |arity| required operands.
func ShapeFromArity(arity int) Shape {
	if arity < 0 {
		return TerminatedShape(-arity)
	}
	return FixedShape(arity)
}

// Arity returns the signed arity equivalent of the shape.
func (s Shape) Arity() int {
	if s.Kind == Fixed {
		return s.Count
	}
	return -s.Count
}

func (s Shape) String() string {
	switch s.Kind {
	case Terminated:
		return fmt.Sprintf("%d+...", s.Count)
	case Counted:
		return fmt.Sprintf("%d+n", s.Count)
	default:
		return fmt.Sprintf("%d", s.Count)
	}
}
