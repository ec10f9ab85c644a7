// Package savegame persists machine snapshots.
//
// A save image is CBOR in canonical mode, so the same machine state always
// produces the same bytes. Images are kept in numbered slots of a SQLite
// database and can be rendered as JSON for inspection.
package savegame

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zurustar/scmvm/pkg/vm"
)

// Version is the image format written by Encode.
const Version = 1

// ErrVersion is returned for images written by an unknown format version.
var ErrVersion = errors.New("unsupported save image version")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("savegame: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// image is the top-level record of an encoded save.
type image struct {
	Version  int         `cbor:"1,keyasint"`
	Script   string      `cbor:"2,keyasint,omitempty"`
	Snapshot vm.Snapshot `cbor:"3,keyasint"`
}

// Encode serializes s. script names the bytecode the snapshot belongs to
// and may be empty.
func Encode(s vm.Snapshot, script string) ([]byte, error) {
	data, err := cborEncMode.Marshal(image{Version: Version, Script: script, Snapshot: s})
	if err != nil {
		return nil, fmt.Errorf("savegame: marshal: %w", err)
	}
	return data, nil
}

// Decode parses an image produced by Encode and returns the snapshot and
// the script name stored with it.
func Decode(data []byte) (vm.Snapshot, string, error) {
	var img image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return vm.Snapshot{}, "", fmt.Errorf("savegame: unmarshal: %w", err)
	}
	if img.Version != Version {
		return vm.Snapshot{}, "", fmt.Errorf("%w: %d", ErrVersion, img.Version)
	}
	return img.Snapshot, img.Script, nil
}
