package scm

import (
	"encoding/binary"
	"fmt"

	"github.com/zurustar/scmvm/pkg/opcode"
)

// Layout describes where the parts of an image land.
type Layout struct {
	GlobalsSize uint32 // bytes of global variables after the first header
	Models      []string
	Missions    int // number of mission blocks
}

// ModelsStart returns the offset of the models segment header.
func (l Layout) ModelsStart() uint32 {
	return SegmentHeaderSize + l.GlobalsSize
}

// MissionsStart returns the offset of the missions segment header.
func (l Layout) MissionsStart() uint32 {
	return l.ModelsStart() + SegmentHeaderSize + 4 + uint32(len(l.Models))*ModelNameSize
}

// CodeStart returns the offset of the first main script instruction.
func (l Layout) CodeStart() uint32 {
	return l.MissionsStart() + SegmentHeaderSize + missionHeaderSize + uint32(l.Missions)*4
}

// FirstGlobal returns the byte offset of the first global variable.
func (l Layout) FirstGlobal() uint16 {
	return SegmentHeaderSize
}

// Assemble lays out a complete image. main must have been built for
// CodeStart; missions are appended after it in order and should only use
// negative (mission-relative) labels.
func Assemble(l Layout, main []byte, missions ...[]byte) ([]byte, error) {
	if len(missions) != l.Missions {
		return nil, fmt.Errorf("layout declares %d missions, got %d", l.Missions, len(missions))
	}

	image := make([]byte, 0, int(l.CodeStart())+len(main))
	image = appendSegmentHeader(image, l.ModelsStart(), 's')
	image = append(image, make([]byte, l.GlobalsSize)...)

	image = appendSegmentHeader(image, l.MissionsStart(), 0)
	image = binary.LittleEndian.AppendUint32(image, uint32(len(l.Models)))
	for _, m := range l.Models {
		image = append(image, fixedName(m)...)
	}

	mainSize := l.CodeStart() + uint32(len(main))
	var largest uint32
	offsets := make([]uint32, len(missions))
	at := mainSize
	for i, m := range missions {
		offsets[i] = at
		at += uint32(len(m))
		if uint32(len(m)) > largest {
			largest = uint32(len(m))
		}
	}

	image = appendSegmentHeader(image, l.CodeStart(), 1)
	image = binary.LittleEndian.AppendUint32(image, mainSize)
	image = binary.LittleEndian.AppendUint32(image, largest)
	image = binary.LittleEndian.AppendUint16(image, uint16(len(missions)))
	image = binary.LittleEndian.AppendUint16(image, 0)
	for _, off := range offsets {
		image = binary.LittleEndian.AppendUint32(image, off)
	}

	if uint32(len(image)) != l.CodeStart() {
		return nil, fmt.Errorf("header size mismatch: %d != %d", len(image), l.CodeStart())
	}
	image = append(image, main...)
	for _, m := range missions {
		image = append(image, m...)
	}
	return image, nil
}

func appendSegmentHeader(image []byte, target uint32, segment byte) []byte {
	image = binary.LittleEndian.AppendUint16(image, uint16(opcode.Jump))
	image = append(image, byte(opcode.Int32))
	image = binary.LittleEndian.AppendUint32(image, target)
	return append(image, segment)
}

func fixedName(s string) []byte {
	raw := make([]byte, ModelNameSize)
	copy(raw, s)
	return raw
}
