// Package format builds, validates, and parses the mmqf v0 file header.
//
// The header is a fixed 39-byte, little-endian, byte-exact layout:
//
//	offset size  field
//	 0     8     magic            = 00 4D 4D 51 46 03 1A 0A
//	 8     1     version          = 0x00
//	 9     4     header_crc       (CRC-32/IEEE over bytes 13..=38)
//	13     8     length           (total file size in bytes)
//	21     8     schema_id
//	29     4     capacity
//	33     4     slot_size
//	37     2     data_offset      = 39
//
// The CRC covers everything that describes the queue's geometry and
// identity (length through data_offset); magic and version identify the
// file itself and sit outside the checksummed window.
package format

import (
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/mmqf/mmqf/internal/codec"
)

// HeaderSize is the fixed on-disk size of a v0 header, in bytes.
const HeaderSize = 39

// ControlBlockSize is the fixed size of the control block that begins the
// data region (head, tail, size, 8 bytes reserved).
const ControlBlockSize = 32

// CurrentVersion is the version this package writes.
const CurrentVersion = 0

// MinSupportedVersion is the lowest version this package will open.
const MinSupportedVersion = 0

var magic = [8]byte{0x00, 0x4D, 0x4D, 0x51, 0x46, 0x03, 0x1A, 0x0A}

const (
	offMagic      = 0
	offVersion    = 8
	offHeaderCRC  = 9
	offLength     = 13
	offSchemaID   = 21
	offCapacity   = 29
	offSlotSize   = 33
	offDataOffset = 37

	// crcWindowStart/crcWindowEnd bound the header bytes the CRC is computed
	// over: [length .. data_offset], inclusive of data_offset's two bytes.
	crcWindowStart = offLength
	crcWindowEnd   = HeaderSize
)

// Sentinel errors classifying why a header failed to validate. Callers
// should use errors.Is.
var (
	// ErrInvalidFormat indicates the magic bytes don't match, or the buffer
	// is too short to contain a header.
	ErrInvalidFormat = errors.New("format: invalid format")

	// ErrVersionUnsupported indicates the on-disk version is outside
	// [MinSupportedVersion, CurrentVersion].
	ErrVersionUnsupported = errors.New("format: unsupported version")

	// ErrChecksumMismatch indicates the header CRC does not match its
	// recomputed value.
	ErrChecksumMismatch = errors.New("format: checksum mismatch")

	// ErrFileTruncated indicates the on-disk length field disagrees with the
	// actual file size.
	ErrFileTruncated = errors.New("format: file truncated")
)

// Header is the parsed, validated content of a v0 file header.
type Header struct {
	Version    uint8
	Length     uint64
	SchemaID   uint64
	Capacity   uint32
	SlotSize   uint32
	DataOffset uint16
}

// Create builds a v0 header for a newly created file with the given
// geometry and returns its encoded byte representation. The header's
// length field is data_offset + slot_size*capacity + ControlBlockSize,
// matching the file container's invariant #4.
func Create(schemaID uint64, capacity, slotSize uint32) []byte {
	h := Header{
		Version:    CurrentVersion,
		SchemaID:   schemaID,
		Capacity:   capacity,
		SlotSize:   slotSize,
		DataOffset: HeaderSize,
	}
	h.Length = uint64(h.DataOffset) + uint64(slotSize)*uint64(capacity) + ControlBlockSize

	return Encode(h)
}

// Encode serializes h into a HeaderSize-byte buffer, computing and filling
// in the header CRC.
func Encode(h Header) []byte {
	buf := make([]byte, HeaderSize)

	copy(buf[offMagic:], magic[:])
	buf[offVersion] = h.Version

	// codec errors are impossible here: buf is exactly HeaderSize and every
	// offset/width pair below fits within it by construction.
	_ = codec.WriteUint64(buf, offLength, h.Length)
	_ = codec.WriteUint64(buf, offSchemaID, h.SchemaID)
	_ = codec.WriteUint32(buf, offCapacity, h.Capacity)
	_ = codec.WriteUint32(buf, offSlotSize, h.SlotSize)
	_ = codec.WriteUint16(buf, offDataOffset, h.DataOffset)

	crc := crc32.ChecksumIEEE(buf[crcWindowStart:crcWindowEnd])
	_ = codec.WriteUint32(buf, offHeaderCRC, crc)

	return buf
}

// Validate checks buf against the v0 format rules, in the order spec'd:
// magic, version, checksum, then (if actualSize >= 0) the on-disk length
// against the actual file size. Pass a negative actualSize to skip the
// truncation check (e.g. when validating a header before the file geometry
// is known).
func Validate(buf []byte, actualSize int64) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("header is %d bytes, want %d: %w", len(buf), HeaderSize, ErrInvalidFormat)
	}

	if [8]byte(buf[offMagic:offMagic+8]) != magic {
		return fmt.Errorf("magic bytes do not match: %w", ErrInvalidFormat)
	}

	version := buf[offVersion]
	if version < MinSupportedVersion || version > CurrentVersion {
		return fmt.Errorf("version %d not in [%d, %d]: %w", version, MinSupportedVersion, CurrentVersion, ErrVersionUnsupported)
	}

	wantCRC, err := codec.ReadUint32(buf, offHeaderCRC)
	if err != nil {
		return fmt.Errorf("reading header_crc: %w", err)
	}

	gotCRC := crc32.ChecksumIEEE(buf[crcWindowStart:crcWindowEnd])
	if gotCRC != wantCRC {
		return fmt.Errorf("header_crc %#x, computed %#x: %w", wantCRC, gotCRC, ErrChecksumMismatch)
	}

	if actualSize >= 0 {
		length, err := codec.ReadUint64(buf, offLength)
		if err != nil {
			return fmt.Errorf("reading length: %w", err)
		}

		if length != uint64(actualSize) {
			return fmt.Errorf("length field %d, actual file size %d: %w", length, actualSize, ErrFileTruncated)
		}
	}

	return nil
}

// Decode parses buf into a Header without validating it. Callers must call
// Validate first.
func Decode(buf []byte) (Header, error) {
	var h Header

	if len(buf) < HeaderSize {
		return h, fmt.Errorf("header is %d bytes, want %d: %w", len(buf), HeaderSize, ErrInvalidFormat)
	}

	h.Version = buf[offVersion]

	length, err := codec.ReadUint64(buf, offLength)
	if err != nil {
		return Header{}, err
	}

	schemaID, err := codec.ReadUint64(buf, offSchemaID)
	if err != nil {
		return Header{}, err
	}

	capacity, err := codec.ReadUint32(buf, offCapacity)
	if err != nil {
		return Header{}, err
	}

	slotSize, err := codec.ReadUint32(buf, offSlotSize)
	if err != nil {
		return Header{}, err
	}

	dataOffset, err := codec.ReadUint16(buf, offDataOffset)
	if err != nil {
		return Header{}, err
	}

	h.Length = length
	h.SchemaID = schemaID
	h.Capacity = capacity
	h.SlotSize = slotSize
	h.DataOffset = dataOffset

	return h, nil
}
