package vm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// CellSize is the width in bytes of one script variable.
// Changing it breaks saved games.
const CellSize = 4

// Memory is a byte-addressed arena of 4 byte cells. The global heap and each
// thread's local window are Memory values. Every access is bounds checked;
// values are little-endian.
//
// Offsets handed out for a Memory stay valid for its whole lifetime: it only
// ever grows.
type Memory struct {
	data  []byte
	fixed bool
}

// NewMemory creates a growable arena initialised with a copy of image.
func NewMemory(image []byte) *Memory {
	data := make([]byte, len(image))
	copy(data, image)
	return &Memory{data: data}
}

// newFixedMemory creates an arena of exactly size bytes that refuses to grow.
func newFixedMemory(size int) *Memory {
	return &Memory{data: make([]byte, size), fixed: true}
}

// Len returns the size of the arena in bytes.
func (m *Memory) Len() int {
	return len(m.data)
}

// Grow extends the arena to at least size bytes. It never shrinks.
func (m *Memory) Grow(size int) error {
	if size <= len(m.data) {
		return nil
	}
	if m.fixed {
		return fmt.Errorf("memory is fixed at %d bytes, cannot grow to %d", len(m.data), size)
	}
	grown := make([]byte, size)
	copy(grown, m.data)
	m.data = grown
	return nil
}

// Bytes returns a copy of the arena contents.
func (m *Memory) Bytes() []byte {
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}

// Load replaces the arena contents with image. The arena keeps its size when
// image is shorter and grows when it is longer.
func (m *Memory) Load(image []byte) error {
	if err := m.Grow(len(image)); err != nil {
		return err
	}
	clear(m.data)
	copy(m.data, image)
	return nil
}

// Contains reports whether a whole cell starting at offset lies in the arena.
func (m *Memory) Contains(offset uint32) bool {
	return uint64(offset)+CellSize <= uint64(len(m.data))
}

func (m *Memory) check(offset uint32) error {
	if !m.Contains(offset) {
		return NewOutOfBoundsError(fmt.Sprintf("cell %d outside memory of %d bytes", offset, len(m.data)), offset, "")
	}
	return nil
}

// Uint32 reads the raw bits of the cell at offset.
func (m *Memory) Uint32(offset uint32) (uint32, error) {
	if err := m.check(offset); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.data[offset:]), nil
}

// SetUint32 writes the raw bits of the cell at offset.
func (m *Memory) SetUint32(offset uint32, v uint32) error {
	if err := m.check(offset); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[offset:], v)
	return nil
}

// Int32 reads the cell at offset as an integer.
func (m *Memory) Int32(offset uint32) (int32, error) {
	v, err := m.Uint32(offset)
	return int32(v), err
}

// SetInt32 writes an integer to the cell at offset.
func (m *Memory) SetInt32(offset uint32, v int32) error {
	return m.SetUint32(offset, uint32(v))
}

// Float32 reads the cell at offset as a float.
func (m *Memory) Float32(offset uint32) (float32, error) {
	v, err := m.Uint32(offset)
	return math.Float32frombits(v), err
}

// SetFloat32 writes a float to the cell at offset.
func (m *Memory) SetFloat32(offset uint32, v float32) error {
	return m.SetUint32(offset, math.Float32bits(v))
}
