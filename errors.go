package mmqf

import (
	"errors"

	"github.com/mmqf/mmqf/internal/format"
	"github.com/mmqf/mmqf/internal/mmapfile"
	"github.com/mmqf/mmqf/internal/ring"
)

// Sentinel error kinds. Callers classify errors with errors.Is.
//
// IoError has no sentinel of its own: underlying I/O failures are wrapped
// with fmt.Errorf("...: %w", err) and surfaced as-is, so callers that care
// inspect the wrapped error directly (e.g. errors.Is(err, os.ErrNotExist)).
var (
	// ErrInvalidFormat indicates the file's magic bytes don't match, the
	// header is too short, or a control-block value is out of range.
	ErrInvalidFormat = format.ErrInvalidFormat

	// ErrVersionUnsupported indicates the on-disk format version is outside
	// the range this build supports.
	ErrVersionUnsupported = format.ErrVersionUnsupported

	// ErrChecksumMismatch indicates the header CRC does not match.
	ErrChecksumMismatch = format.ErrChecksumMismatch

	// ErrFileTruncated indicates the on-disk length field disagrees with
	// the actual file size.
	ErrFileTruncated = format.ErrFileTruncated

	// ErrGeometryMismatch indicates Create found an existing file whose
	// capacity or slot_size differs from the requested geometry.
	ErrGeometryMismatch = mmapfile.ErrGeometryMismatch

	// ErrSchemaMismatch is never returned by this package; it is provided
	// for callers that want to classify their own schema_id comparison.
	// schema_id is opaque to the core: callers verify it, the core only
	// ever compares it for equality.
	ErrSchemaMismatch = errors.New("mmqf: schema mismatch")

	// ErrQueueFull is returned by Enqueue when the queue is at capacity.
	ErrQueueFull = ring.ErrQueueFull

	// ErrEmpty is returned by Dequeue/Peek on an empty queue.
	ErrEmpty = ring.ErrEmpty

	// ErrClosed is returned by Enqueue, Dequeue, Peek and Sync on a Queue
	// after Close.
	ErrClosed = errors.New("mmqf: queue is closed")
)
