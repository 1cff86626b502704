package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePatternWithWildcards(t *testing.T) {
	p, err := CompilePattern("48 8B 05 ?? ?? ?? ?? C3")
	require.NoError(t, err)
	assert.Equal(t, 8, p.Len())

	data := []byte{0x00, 0x48, 0x8B, 0x05, 0xAA, 0xBB, 0xCC, 0xDD, 0xC3, 0x00}
	assert.Equal(t, 1, p.Scan(data))
}

func TestCompilePatternRejectsOddLength(t *testing.T) {
	_, err := CompilePattern("48 8")
	assert.Error(t, err)
}

func TestCompilePatternRejectsBadHex(t *testing.T) {
	_, err := CompilePattern("48 ZZ")
	assert.Error(t, err)
}

func TestPatternScanNoMatch(t *testing.T) {
	p := LiteralPattern([]byte{0xDE, 0xAD})
	assert.Equal(t, -1, p.Scan([]byte{0x01, 0x02, 0x03}))
}

func TestPatternScanAll(t *testing.T) {
	p := LiteralPattern([]byte{0xAB})
	hits := p.ScanAll([]byte{0xAB, 0x00, 0xAB, 0xAB})
	assert.Equal(t, []int{0, 2, 3}, hits)
}

func TestMockReaderTypedHelpers(t *testing.T) {
	r := NewMockBuilder().
		WriteU32(0, 0x12345678).
		WriteU64(4, 0xDEADBEEFCAFEBABE).
		WriteU16(12, 0xBEEF).
		Build()

	v32, err := ReadU32(r, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v32)

	v64, err := ReadU64(r, 0x1004)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xDEADBEEFCAFEBABE), v64)

	v16, err := ReadU16(r, 0x100C)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), v16)

	i32, err := ReadI32(r, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, int32(0x12345678), i32)
}

func TestMockReaderOutOfBounds(t *testing.T) {
	r := NewMockReader([]byte{1, 2, 3, 4}, 0x1000)

	_, err := r.ReadBytes(0x1002, 4)
	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, uint64(0x1002), readErr.Address)
	assert.Equal(t, 4, readErr.Requested)
	assert.Equal(t, 2, readErr.Got)

	_, err = r.ReadBytes(0x500, 4)
	assert.ErrorAs(t, err, &readErr)
}

func TestBufferAccessors(t *testing.T) {
	buf := NewBuffer([]byte{0x78, 0x56, 0x34, 0x12, 0xFF})

	v, ok := buf.U32At(0)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x12345678), v)

	b, ok := buf.U8At(4)
	assert.True(t, ok)
	assert.Equal(t, uint8(0xFF), b)

	_, ok = buf.U32At(2)
	assert.False(t, ok)

	_, ok = buf.U32At(-1)
	assert.False(t, ok)
}
