package vm

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/funvibe/bfjit/internal/ir"
)

var ErrBadBundle = errors.New("invalid bundle")

// Bundle is a compiled script saved for later runs. The script holds the
// instructions as they were after the passes ran, so loading a bundle does
// not apply passes again.
type Bundle struct {
	Script *ir.Script

	// SourceFile is the original source file path (for error messages)
	SourceFile string
}

// bundleVersion is bumped when the encoded Bundle layout changes.
const bundleVersion byte = 0x01

var bundleMagic = [4]byte{'B', 'F', 'J', 'B'}

// selfContainedMagic is the footer magic for self-contained binaries
var selfContainedMagic = [4]byte{'B', 'F', 'J', 'S'}

// selfContainedFooterSize is the size of the self-contained footer:
// 8 bytes (bundle size) + 4 bytes (magic)
const selfContainedFooterSize = 12

// Serialize converts a Bundle to binary format.
// Format:
// - Magic number (4 bytes): "BFJB"
// - Version (1 byte)
// - Gob-encoded Bundle data
func (b *Bundle) Serialize() ([]byte, error) {
	if b.Script == nil {
		return nil, fmt.Errorf("%w: no script", ErrBadBundle)
	}
	if b.Script.Released() {
		return nil, ir.ErrReleased
	}
	buf := new(bytes.Buffer)
	buf.Write(bundleMagic[:])
	buf.WriteByte(bundleVersion)

	if err := gob.NewEncoder(buf).Encode(b); err != nil {
		return nil, fmt.Errorf("bundle gob encoding failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Deserialize reads data written by Serialize.
func Deserialize(data []byte) (*Bundle, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("%w: data too short", ErrBadBundle)
	}
	if !bytes.Equal(data[:4], bundleMagic[:]) {
		return nil, fmt.Errorf("%w: invalid magic number, expected BFJB", ErrBadBundle)
	}
	if version := data[4]; version != bundleVersion {
		return nil, fmt.Errorf("%w: unsupported version %d (this binary supports %d)", ErrBadBundle, version, bundleVersion)
	}

	var bundle Bundle
	if err := gob.NewDecoder(bytes.NewReader(data[5:])).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("%w: gob decoding failed: %w", ErrBadBundle, err)
	}
	if bundle.Script == nil {
		return nil, fmt.Errorf("%w: no script", ErrBadBundle)
	}
	return &bundle, nil
}

// PackSelfContained creates a self-contained binary by appending bundle data
// to the host binary with a footer.
// Output format: [hostBinary][bundleData][8-byte bundleSize LE][4-byte "BFJS"]
func PackSelfContained(hostBinary []byte, bundle *Bundle) ([]byte, error) {
	bundleData, err := bundle.Serialize()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize bundle: %w", err)
	}

	// never stack a second bundle on an already packed host
	host := hostBinary[:GetHostBinarySize(hostBinary)]

	out := make([]byte, 0, len(host)+len(bundleData)+selfContainedFooterSize)
	out = append(out, host...)
	out = append(out, bundleData...)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(bundleData)))
	out = append(out, selfContainedMagic[:]...)
	return out, nil
}

// footer returns the embedded bundle size if data ends in a valid footer.
func footer(data []byte) (int64, bool) {
	size := int64(len(data))
	if size < selfContainedFooterSize {
		return 0, false
	}
	footerStart := size - selfContainedFooterSize
	if !bytes.Equal(data[footerStart+8:], selfContainedMagic[:]) {
		return 0, false
	}
	bundleSize := int64(binary.LittleEndian.Uint64(data[footerStart : footerStart+8]))
	if bundleSize <= 0 || bundleSize > footerStart {
		return 0, false
	}
	return bundleSize, true
}

// ExtractEmbeddedBundle reads a self-contained binary and extracts the embedded
// bundle, if present. Returns nil, nil if no embedded bundle is found.
func ExtractEmbeddedBundle(binaryData []byte) (*Bundle, error) {
	bundleSize, ok := footer(binaryData)
	if !ok {
		return nil, nil
	}
	footerStart := int64(len(binaryData)) - selfContainedFooterSize
	return Deserialize(binaryData[footerStart-bundleSize : footerStart])
}

// GetHostBinarySize returns the size of the host binary portion of a
// self-contained binary, stripping every appended bundle layer.
func GetHostBinarySize(binaryData []byte) int64 {
	size := int64(len(binaryData))
	for {
		bundleSize, ok := footer(binaryData[:size])
		if !ok {
			return size
		}
		size = size - selfContainedFooterSize - bundleSize
	}
}
