// Package codec reads and writes little-endian fixed-width integers into a
// byte region at a given offset.
//
// All accessors are bounds-checked: a request that would read or write past
// the end of the buffer returns a [BoundsError] instead of panicking on a
// slice index. This is the only responsibility of the package; it has no
// knowledge of the header layout or the ring protocol built on top of it.
package codec

import (
	"encoding/binary"
	"fmt"
)

// BoundsError reports an attempt to read or write outside a buffer.
type BoundsError struct {
	Offset int
	Size   int
	BufLen int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("codec: access at offset %d size %d exceeds buffer length %d", e.Offset, e.Size, e.BufLen)
}

func checkBounds(buf []byte, offset, size int) error {
	if offset < 0 || size < 0 || offset+size > len(buf) {
		return &BoundsError{Offset: offset, Size: size, BufLen: len(buf)}
	}

	return nil
}

// ReadUint16 reads a little-endian uint16 at offset.
func ReadUint16(buf []byte, offset int) (uint16, error) {
	if err := checkBounds(buf, offset, 2); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(buf[offset:]), nil
}

// WriteUint16 writes v as a little-endian uint16 at offset.
func WriteUint16(buf []byte, offset int, v uint16) error {
	if err := checkBounds(buf, offset, 2); err != nil {
		return err
	}

	binary.LittleEndian.PutUint16(buf[offset:], v)

	return nil
}

// ReadUint32 reads a little-endian uint32 at offset.
func ReadUint32(buf []byte, offset int) (uint32, error) {
	if err := checkBounds(buf, offset, 4); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(buf[offset:]), nil
}

// WriteUint32 writes v as a little-endian uint32 at offset.
func WriteUint32(buf []byte, offset int, v uint32) error {
	if err := checkBounds(buf, offset, 4); err != nil {
		return err
	}

	binary.LittleEndian.PutUint32(buf[offset:], v)

	return nil
}

// ReadUint64 reads a little-endian uint64 at offset.
func ReadUint64(buf []byte, offset int) (uint64, error) {
	if err := checkBounds(buf, offset, 8); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(buf[offset:]), nil
}

// WriteUint64 writes v as a little-endian uint64 at offset.
func WriteUint64(buf []byte, offset int, v uint64) error {
	if err := checkBounds(buf, offset, 8); err != nil {
		return err
	}

	binary.LittleEndian.PutUint64(buf[offset:], v)

	return nil
}

// ReadInt16 reads a little-endian, two's-complement int16 at offset.
func ReadInt16(buf []byte, offset int) (int16, error) {
	v, err := ReadUint16(buf, offset)
	if err != nil {
		return 0, err
	}

	return int16(v), nil
}

// WriteInt16 writes v as a little-endian, two's-complement int16 at offset.
func WriteInt16(buf []byte, offset int, v int16) error {
	return WriteUint16(buf, offset, uint16(v))
}

// ReadInt32 reads a little-endian, two's-complement int32 at offset.
func ReadInt32(buf []byte, offset int) (int32, error) {
	v, err := ReadUint32(buf, offset)
	if err != nil {
		return 0, err
	}

	return int32(v), nil
}

// WriteInt32 writes v as a little-endian, two's-complement int32 at offset.
func WriteInt32(buf []byte, offset int, v int32) error {
	return WriteUint32(buf, offset, uint32(v))
}

// ReadInt64 reads a little-endian, two's-complement int64 at offset.
func ReadInt64(buf []byte, offset int) (int64, error) {
	v, err := ReadUint64(buf, offset)
	if err != nil {
		return 0, err
	}

	return int64(v), nil
}

// WriteInt64 writes v as a little-endian, two's-complement int64 at offset.
func WriteInt64(buf []byte, offset int, v int64) error {
	return WriteUint64(buf, offset, uint64(v))
}
