package memory

import (
	"encoding/binary"
	"fmt"
)

// Reader is the read-only view of a target address space. The live process
// implements it via ReadProcessMemory; tests implement it with MockReader.
type Reader interface {
	// ReadBytes returns exactly size bytes at address or an error. A short
	// read never succeeds silently.
	ReadBytes(address uint64, size int) ([]byte, error)
	// BaseAddress is the load address of the target's main module.
	BaseAddress() uint64
}

// ReadError reports a failed or short cross-process read.
type ReadError struct {
	Address   uint64
	Requested int
	Got       int
	Err       error
}

func (e *ReadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("read of %d bytes at 0x%X failed: %v", e.Requested, e.Address, e.Err)
	}
	return fmt.Sprintf("short read at 0x%X: requested %d, got %d", e.Address, e.Requested, e.Got)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Typed helpers over Reader. All values are little-endian, matching the
// target's x64 layout. Addresses have no alignment requirement.

func ReadU8(r Reader, address uint64) (uint8, error) {
	buf, err := r.ReadBytes(address, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func ReadU16(r Reader, address uint64) (uint16, error) {
	buf, err := r.ReadBytes(address, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

func ReadU32(r Reader, address uint64) (uint32, error) {
	buf, err := r.ReadBytes(address, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func ReadI32(r Reader, address uint64) (int32, error) {
	v, err := ReadU32(r, address)
	return int32(v), err
}

func ReadU64(r Reader, address uint64) (uint64, error) {
	buf, err := r.ReadBytes(address, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}
