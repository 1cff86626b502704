package memory

import (
	"encoding/binary"

	"golang.org/x/text/encoding/japanese"
)

// MockReader reads from an in-memory buffer instead of a live process. It
// backs every discovery and codec test.
type MockReader struct {
	data []byte
	base uint64
}

func NewMockReader(data []byte, base uint64) *MockReader {
	return &MockReader{data: data, base: base}
}

func (m *MockReader) ReadBytes(address uint64, size int) ([]byte, error) {
	if address < m.base {
		return nil, &ReadError{Address: address, Requested: size}
	}
	offset := address - m.base
	if offset+uint64(size) > uint64(len(m.data)) {
		got := 0
		if offset < uint64(len(m.data)) {
			got = len(m.data) - int(offset)
		}
		return nil, &ReadError{Address: address, Requested: size, Got: got}
	}
	out := make([]byte, size)
	copy(out, m.data[offset:offset+uint64(size)])
	return out, nil
}

func (m *MockReader) BaseAddress() uint64 { return m.base }

func (m *MockReader) Len() int { return len(m.data) }

// MockBuilder assembles a memory image for tests.
type MockBuilder struct {
	data []byte
	base uint64
}

func NewMockBuilder() *MockBuilder {
	return &MockBuilder{base: 0x1000}
}

func (b *MockBuilder) Base(base uint64) *MockBuilder {
	b.base = base
	return b
}

func (b *MockBuilder) WithSize(size int) *MockBuilder {
	b.ensure(size)
	return b
}

func (b *MockBuilder) WriteU32(offset int, value uint32) *MockBuilder {
	b.ensure(offset + 4)
	binary.LittleEndian.PutUint32(b.data[offset:], value)
	return b
}

func (b *MockBuilder) WriteI32(offset int, value int32) *MockBuilder {
	return b.WriteU32(offset, uint32(value))
}

func (b *MockBuilder) WriteU16(offset int, value uint16) *MockBuilder {
	b.ensure(offset + 2)
	binary.LittleEndian.PutUint16(b.data[offset:], value)
	return b
}

func (b *MockBuilder) WriteU64(offset int, value uint64) *MockBuilder {
	b.ensure(offset + 8)
	binary.LittleEndian.PutUint64(b.data[offset:], value)
	return b
}

func (b *MockBuilder) WriteBytes(offset int, bytes []byte) *MockBuilder {
	b.ensure(offset + len(bytes))
	copy(b.data[offset:], bytes)
	return b
}

// WriteShiftJIS encodes text as Shift-JIS and writes it NUL-terminated.
func (b *MockBuilder) WriteShiftJIS(offset int, text string) *MockBuilder {
	encoded, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(text))
	if err != nil {
		encoded = []byte(text)
	}
	b.ensure(offset + len(encoded) + 1)
	copy(b.data[offset:], encoded)
	b.data[offset+len(encoded)] = 0
	return b
}

func (b *MockBuilder) Build() *MockReader {
	return &MockReader{data: b.data, base: b.base}
}

func (b *MockBuilder) ensure(size int) {
	if len(b.data) < size {
		grown := make([]byte, size)
		copy(grown, b.data)
		b.data = grown
	}
}
