package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Bytecode buffers produced by the engine start with a fixed-layout header.
// Two fields matter here: the source hash, which encodes the length of the
// original source text, and the flag hash, which must match the loading
// engine's flag configuration before the cache is trusted.
const (
	SourceHashOffset = 8
	FlagHashOffset   = 12
	headerFieldSize  = 4
)

// minBufferSize is the smallest buffer that can carry both header fields.
const minBufferSize = FlagHashOffset + headerFieldSize

// SourceLength reads the original source text length from a bytecode
// buffer's source-hash header.
func SourceLength(buf []byte) (int, error) {
	if len(buf) < minBufferSize {
		return 0, fmt.Errorf("bytecode: buffer too short for header: %d bytes", len(buf))
	}
	return int(binary.LittleEndian.Uint32(buf[SourceHashOffset : SourceHashOffset+headerFieldSize])), nil
}

// PatchFlagHash overwrites buf's flag-hash header with the flag-hash bytes
// of ref, typically a reference compilation produced by the engine build
// that will load the buffer. Only buf is modified.
func PatchFlagHash(buf, ref []byte) error {
	if len(buf) < minBufferSize {
		return fmt.Errorf("bytecode: buffer too short for header: %d bytes", len(buf))
	}
	if len(ref) < minBufferSize {
		return fmt.Errorf("bytecode: reference buffer too short for header: %d bytes", len(ref))
	}
	copy(buf[FlagHashOffset:FlagHashOffset+headerFieldSize], ref[FlagHashOffset:FlagHashOffset+headerFieldSize])
	return nil
}
