package bytecode

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical encoding so reports for identical builds are
// byte-identical.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// FileRecord is one emitted bytecode file, accumulated for reporting.
type FileRecord struct {
	Name string `cbor:"1,keyasint"`
	Size int    `cbor:"2,keyasint"`
}

// Report summarizes one build's bytecode output.
type Report struct {
	BuildID string       `cbor:"1,keyasint"`
	Target  string       `cbor:"2,keyasint"`
	Files   []FileRecord `cbor:"3,keyasint,omitempty"`
}

// MarshalReport serializes a Report to canonical CBOR bytes.
func MarshalReport(r *Report) ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// UnmarshalReport deserializes a Report from CBOR bytes.
func UnmarshalReport(data []byte) (*Report, error) {
	var r Report
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal report: %w", err)
	}
	return &r, nil
}

// WriteReport writes the build's report to path as canonical CBOR.
func WriteReport(b *Build, path string) error {
	data, err := MarshalReport(&Report{
		BuildID: b.ID,
		Target:  string(b.Target),
		Files:   b.Records(),
	})
	if err != nil {
		return fmt.Errorf("bytecode: marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("bytecode: writing report: %w", err)
	}
	return nil
}
