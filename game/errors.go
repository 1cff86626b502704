package game

import "fmt"

// InvalidStructureError reports a buffer that failed a codec's validation.
// Validation failure is an ordinary result, not a panic: candidate
// addresses are expected to fail while discovery scans.
type InvalidStructureError struct {
	Reason    string
	BytesSeen []byte
}

func (e *InvalidStructureError) Error() string {
	return fmt.Sprintf("invalid structure: %s", e.Reason)
}

func invalidStructure(reason string, seen []byte) error {
	capped := seen
	if len(capped) > 32 {
		capped = capped[:32]
	}
	return &InvalidStructureError{Reason: reason, BytesSeen: capped}
}
