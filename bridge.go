package mmqf

import (
	"encoding/binary"
	"fmt"
)

// Bridge turns application values into fixed-width byte slots and back.
// The queue core treats the byte slice as opaque; it only guarantees the
// slice passed to Enqueue is exactly SlotSize() bytes.
type Bridge[T any] interface {
	ToBytes(v T, slotSize uint32) ([]byte, error)
	FromBytes(slot []byte) (T, error)
}

// BytesBridge passes raw byte slices through, zero-padding on encode and
// reporting ErrSlotTooLarge when the input doesn't fit. It is the escape
// hatch for callers with their own element codec.
type BytesBridge struct{}

// ErrSlotTooLarge is returned by BytesBridge.ToBytes when v is longer than
// the slot.
var ErrSlotTooLarge = fmt.Errorf("mmqf: value exceeds slot size")

// ToBytes zero-pads v to slotSize bytes.
func (BytesBridge) ToBytes(v []byte, slotSize uint32) ([]byte, error) {
	if uint32(len(v)) > slotSize {
		return nil, ErrSlotTooLarge
	}

	out := make([]byte, slotSize)
	copy(out, v)

	return out, nil
}

// FromBytes returns a copy of slot unchanged; callers that know their
// payload is shorter than the slot must trim trailing padding themselves.
func (BytesBridge) FromBytes(slot []byte) ([]byte, error) {
	out := make([]byte, len(slot))
	copy(out, slot)

	return out, nil
}

// Uint64Bridge encodes a uint64 as 8 little-endian bytes, zero-padded to
// slotSize.
type Uint64Bridge struct{}

func (Uint64Bridge) ToBytes(v uint64, slotSize uint32) ([]byte, error) {
	if slotSize < 8 {
		return nil, fmt.Errorf("slot_size %d too small for uint64: %w", slotSize, ErrSlotTooLarge)
	}

	out := make([]byte, slotSize)
	binary.LittleEndian.PutUint64(out, v)

	return out, nil
}

func (Uint64Bridge) FromBytes(slot []byte) (uint64, error) {
	if len(slot) < 8 {
		return 0, fmt.Errorf("slot is %d bytes, want >= 8", len(slot))
	}

	return binary.LittleEndian.Uint64(slot), nil
}

// Int64Bridge encodes an int64 as 8 little-endian, two's-complement bytes,
// zero-padded to slotSize.
type Int64Bridge struct{}

func (Int64Bridge) ToBytes(v int64, slotSize uint32) ([]byte, error) {
	return Uint64Bridge{}.ToBytes(uint64(v), slotSize)
}

func (Int64Bridge) FromBytes(slot []byte) (int64, error) {
	v, err := Uint64Bridge{}.FromBytes(slot)

	return int64(v), err
}
