// Package scm reads compiled script images.
//
// An image starts with three segments, each introduced by an 8 byte header
// that is itself a valid jump instruction to the next segment:
//
//	jump opcode (u16) | int32 tag | target (i32) | segment byte
//
// Segment 0 is the global variable space; global operands address the
// image by absolute byte offset, so the heap is initialised with a copy of
// bytes [0, end of globals). Segment 1 lists model names, segment 2 holds
// the main script size and the mission offsets. Code follows.
package scm

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/zurustar/scmvm/pkg/fileutil"
	"github.com/zurustar/scmvm/pkg/opcode"
)

const (
	// SegmentHeaderSize is the size of the jump that opens every segment.
	SegmentHeaderSize = 8
	// ModelNameSize is the fixed width of a model name entry.
	ModelNameSize = 24
	// missionHeaderSize covers main size, largest mission, mission count
	// and the reserved u16 that follows it.
	missionHeaderSize = 12
)

// File is a loaded script image.
type File struct {
	// Data is the whole image; the VM executes from it directly.
	Data []byte
	// GlobalsSize is the size of the heap image, counted from offset 0.
	GlobalsSize uint32
	// Models lists the model names declared by the script.
	Models []string
	// MainSize is the size of the main script, header included.
	MainSize uint32
	// LargestMission is the size of the largest mission block.
	LargestMission uint32
	// Missions holds the absolute start offset of every mission.
	Missions []uint32
	// CodeStart is the first instruction after the headers.
	CodeStart uint32

	raw bool
}

// Load reads an image from disk. A directory is searched case-insensitively
// for data/main.scm.
func Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		resolved, err := fileutil.ResolveCaseInsensitive(path, "data", "main.scm")
		if err != nil {
			return nil, err
		}
		path = resolved
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes the segment headers of an image.
func Parse(data []byte) (*File, error) {
	f := &File{Data: data}

	modelsAt, err := segmentTarget(data, 0)
	if err != nil {
		return nil, fmt.Errorf("globals segment: %w", err)
	}
	f.GlobalsSize = modelsAt

	missionsAt, err := segmentTarget(data, modelsAt)
	if err != nil {
		return nil, fmt.Errorf("models segment: %w", err)
	}
	p := modelsAt + SegmentHeaderSize
	count, err := u32(data, p)
	if err != nil {
		return nil, fmt.Errorf("models segment: %w", err)
	}
	p += 4
	if uint64(p)+uint64(count)*ModelNameSize > uint64(missionsAt) {
		return nil, fmt.Errorf("models segment: %d names overrun segment end %d", count, missionsAt)
	}
	f.Models = make([]string, count)
	for i := range f.Models {
		name := data[p : p+ModelNameSize]
		if n := strings.IndexByte(string(name), 0); n >= 0 {
			name = name[:n]
		}
		f.Models[i] = string(name)
		p += ModelNameSize
	}

	codeAt, err := segmentTarget(data, missionsAt)
	if err != nil {
		return nil, fmt.Errorf("missions segment: %w", err)
	}
	p = missionsAt + SegmentHeaderSize
	if uint64(p)+missionHeaderSize > uint64(len(data)) {
		return nil, fmt.Errorf("missions segment: truncated header at %d", p)
	}
	f.MainSize = binary.LittleEndian.Uint32(data[p:])
	f.LargestMission = binary.LittleEndian.Uint32(data[p+4:])
	missions := binary.LittleEndian.Uint16(data[p+8:])
	p += missionHeaderSize
	if uint64(p)+uint64(missions)*4 > uint64(codeAt) {
		return nil, fmt.Errorf("missions segment: %d offsets overrun segment end %d", missions, codeAt)
	}
	f.Missions = make([]uint32, missions)
	for i := range f.Missions {
		f.Missions[i] = binary.LittleEndian.Uint32(data[p:])
		if f.Missions[i] >= uint32(len(data)) {
			return nil, fmt.Errorf("mission %d offset %d outside image", i, f.Missions[i])
		}
		p += 4
	}
	f.CodeStart = codeAt
	return f, nil
}

// FromCode wraps bare bytecode with no segment headers. The heap is a
// separate zeroed space of globalsSize bytes.
func FromCode(code []byte, globalsSize uint32) *File {
	return &File{
		Data:        code,
		GlobalsSize: globalsSize,
		MainSize:    uint32(len(code)),
		raw:         true,
	}
}

// GlobalsImage returns the initial contents of the global heap.
func (f *File) GlobalsImage() []byte {
	image := make([]byte, f.GlobalsSize)
	if !f.raw {
		copy(image, f.Data[:f.GlobalsSize])
	}
	return image
}

// MissionOffset returns the start offset of mission index.
func (f *File) MissionOffset(index int) (uint32, error) {
	if index < 0 || index >= len(f.Missions) {
		return 0, fmt.Errorf("mission %d out of range (%d missions)", index, len(f.Missions))
	}
	return f.Missions[index], nil
}

// segmentTarget validates the jump at offset and returns its target.
func segmentTarget(data []byte, offset uint32) (uint32, error) {
	if uint64(offset)+SegmentHeaderSize > uint64(len(data)) {
		return 0, fmt.Errorf("truncated segment header at %d", offset)
	}
	op := opcode.ID(binary.LittleEndian.Uint16(data[offset:]))
	if op != opcode.Jump {
		return 0, fmt.Errorf("segment at %d starts with opcode %s, want jump", offset, op)
	}
	if tag := opcode.Tag(data[offset+2]); tag != opcode.Int32 {
		return 0, fmt.Errorf("segment at %d has jump operand %s, want int32", offset, tag)
	}
	target := binary.LittleEndian.Uint32(data[offset+3:])
	if target <= offset || target > uint32(len(data)) {
		return 0, fmt.Errorf("segment at %d jumps to invalid target %d", offset, target)
	}
	return target, nil
}

func u32(data []byte, at uint32) (uint32, error) {
	if uint64(at)+4 > uint64(len(data)) {
		return 0, fmt.Errorf("truncated value at %d", at)
	}
	return binary.LittleEndian.Uint32(data[at:]), nil
}
