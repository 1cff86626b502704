package game

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/japanese"
)

// DecodeShiftJIS converts a Shift-JIS byte range to a string. Decoding
// stops at the first NUL byte. Malformed input never fails: the longest
// valid prefix is returned, since game memory can be observed mid-write.
func DecodeShiftJIS(raw []byte) string {
	if n := bytes.IndexByte(raw, 0); n >= 0 {
		raw = raw[:n]
	}
	if len(raw) == 0 {
		return ""
	}
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
	if err != nil {
		return ""
	}
	s := string(decoded)
	// The decoder substitutes U+FFFD for invalid sequences; a trailing
	// partial multi-byte sequence becomes one replacement rune. Keep the
	// prefix up to the first substitution.
	if i := strings.IndexRune(s, '�'); i >= 0 {
		return s[:i]
	}
	return s
}
