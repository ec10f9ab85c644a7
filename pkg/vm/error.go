// Package vm provides error handling for the script virtual machine.
package vm

import (
	"errors"
	"fmt"

	"github.com/zurustar/scmvm/pkg/opcode"
)

// ErrorType represents the type of runtime error.
type ErrorType string

const (
	// Fatal errors - the owning thread stops and the tick is aborted
	ErrorIllegalInstruction ErrorType = "ILLEGAL_INSTRUCTION"
	ErrorUnknownType        ErrorType = "UNKNOWN_TYPE"
	ErrorStackOverflow      ErrorType = "STACK_OVERFLOW"
	ErrorStackUnderflow     ErrorType = "STACK_UNDERFLOW"
	ErrorOutOfBounds        ErrorType = "OUT_OF_BOUNDS"

	// Non-fatal errors - logged, execution continues with the next instruction
	ErrorDivisionByZero   ErrorType = "DIVISION_BY_ZERO"
	ErrorInvalidOperation ErrorType = "INVALID_OPERATION"
	ErrorInvalidHandle    ErrorType = "INVALID_HANDLE"
)

// RuntimeError represents a runtime error in the VM.
// Decode errors carry the thread name and byte offset of the fault, plus the
// opcode or tag that caused it.
type RuntimeError struct {
	Type    ErrorType
	Message string
	Thread  string    // Name of the thread that faulted, empty if unknown
	Offset  uint32    // Byte offset into the bytecode buffer
	Opcode  opcode.ID // Opcode involved, if any
	Tag     opcode.Tag
	Context string // Additional context information
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	switch e.Type {
	case ErrorIllegalInstruction:
		return fmt.Sprintf("[%s] illegal instruction %s encountered at offset %04x on thread %s",
			e.Type, e.Opcode, e.Offset, e.Thread)
	case ErrorUnknownType:
		return fmt.Sprintf("[%s] unknown data type %02x encountered at offset %04x on thread %s",
			e.Type, uint8(e.Tag), e.Offset, e.Thread)
	}
	if e.Thread != "" {
		return fmt.Sprintf("[%s] %s at offset %04x on thread %s", e.Type, e.Message, e.Offset, e.Thread)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// IsFatal returns true if the error is fatal and the thread must stop.
func (e *RuntimeError) IsFatal() bool {
	switch e.Type {
	case ErrorIllegalInstruction, ErrorUnknownType, ErrorStackOverflow, ErrorStackUnderflow, ErrorOutOfBounds:
		return true
	default:
		return false
	}
}

// NewRuntimeError creates a new RuntimeError.
func NewRuntimeError(errType ErrorType, message string) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: message,
	}
}

// NewIllegalInstructionError reports an opcode with no registered handler.
func NewIllegalInstructionError(id opcode.ID, offset uint32, thread string) *RuntimeError {
	return &RuntimeError{
		Type:    ErrorIllegalInstruction,
		Message: fmt.Sprintf("illegal instruction %s", id),
		Thread:  thread,
		Offset:  offset,
		Opcode:  id,
	}
}

// NewUnknownTypeError reports an operand tag the decoder does not recognise.
func NewUnknownTypeError(tag opcode.Tag, offset uint32, thread string) *RuntimeError {
	return &RuntimeError{
		Type:    ErrorUnknownType,
		Message: fmt.Sprintf("unknown data type %02x", uint8(tag)),
		Thread:  thread,
		Offset:  offset,
		Tag:     tag,
	}
}

// NewStackOverflowError reports a call exceeding the thread's call-stack bound.
func NewStackOverflowError(thread string, offset uint32) *RuntimeError {
	return &RuntimeError{
		Type:    ErrorStackOverflow,
		Message: fmt.Sprintf("stack overflow: depth exceeds maximum %d", StackDepth),
		Thread:  thread,
		Offset:  offset,
	}
}

// NewStackUnderflowError reports a return with an empty call stack.
func NewStackUnderflowError(thread string, offset uint32) *RuntimeError {
	return &RuntimeError{
		Type:    ErrorStackUnderflow,
		Message: "stack underflow: return with empty call stack",
		Thread:  thread,
		Offset:  offset,
	}
}

// NewOutOfBoundsError reports an access outside the bytecode buffer or a
// variable space.
func NewOutOfBoundsError(message string, offset uint32, thread string) *RuntimeError {
	return &RuntimeError{
		Type:    ErrorOutOfBounds,
		Message: message,
		Thread:  thread,
		Offset:  offset,
	}
}

// NewDivisionByZeroError creates a division by zero error.
func NewDivisionByZeroError() *RuntimeError {
	return NewRuntimeError(ErrorDivisionByZero, "integer division by zero")
}

// NewInvalidHandleError reports a script handle that no longer resolves.
func NewInvalidHandleError(kind string, handle int32) *RuntimeError {
	return NewRuntimeError(ErrorInvalidHandle, fmt.Sprintf("invalid %s handle %d", kind, handle))
}

// withLocation fills in thread and offset when the handler did not.
func (e *RuntimeError) withLocation(thread string, offset uint32, id opcode.ID) *RuntimeError {
	if e.Thread == "" {
		e.Thread = thread
		e.Offset = offset
	}
	if e.Opcode == 0 {
		e.Opcode = id
	}
	return e
}

// AsRuntimeError extracts a *RuntimeError from an error chain.
func AsRuntimeError(err error) (*RuntimeError, bool) {
	var rerr *RuntimeError
	if errors.As(err, &rerr) {
		return rerr, true
	}
	return nil, false
}

// IsFatal reports whether err stops the owning thread. Errors that are not
// RuntimeErrors come from handlers and are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if rerr, ok := AsRuntimeError(err); ok {
		return rerr.IsFatal()
	}
	return true
}
