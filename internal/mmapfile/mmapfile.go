// Package mmapfile opens or creates a file at a path, maps its data region
// into memory, and exposes the queue's geometry (capacity, slot size,
// schema id, data offset) to the layers built on top of it.
//
// The mapping and the advisory create-time lock are built on
// golang.org/x/sys/unix rather than the lower-level syscall package: it is
// the more idiomatic, actively maintained home for Mmap/Munmap/Fsync.
package mmapfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/mmqf/mmqf/internal/format"
	"github.com/mmqf/mmqf/internal/fs"
)

// Sentinel errors specific to the container layer. Header-validation errors
// (format.ErrInvalidFormat etc.) propagate unchanged through Open/Create.
var (
	// ErrGeometryMismatch indicates a create-if-compatible call found an
	// existing file whose capacity or slot_size differs from the request.
	ErrGeometryMismatch = errors.New("mmapfile: geometry mismatch")
)

// File is an open, mapped queue file. Its Data buffer is the data region
// (control block + slots); callers never see the header bytes.
type File struct {
	osFile *os.File
	data   []byte
	header format.Header

	// Dev/Ino identify the file for the process-local coordination registry
	// the ring core uses when the same file is opened more than once in one
	// process, so handles share one set of sequence/cursor/size counters
	// instead of racing independently.
	Dev uint64
	Ino uint64
}

// OpenExisting opens path, which must already exist, validates its header,
// and maps its data region read-write.
func OpenExisting(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}

	file, err := mapOpenFile(f)
	if err != nil {
		f.Close()

		return nil, err
	}

	return file, nil
}

// Create creates a new queue file, or — when overwrite is false and a file
// already exists at path — validates the existing file and opens it in
// place of creating, requiring its on-disk capacity and slot_size to match
// the requested geometry (ErrGeometryMismatch otherwise). When overwrite is
// true, any existing file at path is replaced unconditionally.
//
// locker, if non-nil, is held for the duration of header writing (never
// while validating/opening an already-compatible existing file).
func Create(path string, schemaID uint64, capacity, slotSize uint32, overwrite bool, locker *fs.Locker) (*File, error) {
	if !overwrite {
		if existing, err := tryOpenCompatible(path, capacity, slotSize); err != nil {
			return nil, err
		} else if existing != nil {
			return existing, nil
		}
	}

	return createNew(path, schemaID, capacity, slotSize, locker)
}

// tryOpenCompatible returns a non-nil *File if path exists and its header
// validates with matching geometry. It returns (nil, nil) if path does not
// exist (caller should create it), and an error — including
// ErrGeometryMismatch — for any other outcome.
func tryOpenCompatible(path string, capacity, slotSize uint32) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("open %q: %w", path, err)
	}

	file, err := mapOpenFile(f)
	if err != nil {
		f.Close()

		return nil, err
	}

	if file.header.Capacity != capacity || file.header.SlotSize != slotSize {
		file.Close()

		return nil, fmt.Errorf("on-disk capacity=%d slot_size=%d, requested capacity=%d slot_size=%d: %w",
			file.header.Capacity, file.header.SlotSize, capacity, slotSize, ErrGeometryMismatch)
	}

	return file, nil
}

func createNew(path string, schemaID uint64, capacity, slotSize uint32, locker *fs.Locker) (*File, error) {
	var lock *fs.Lock

	if locker != nil {
		l, err := locker.Lock(path + ".lock")
		if err != nil {
			return nil, fmt.Errorf("acquire create lock: %w", err)
		}

		lock = l
		defer lock.Close()
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %q: %w", path, err)
	}

	header := format.Create(schemaID, capacity, slotSize)

	decoded, err := format.Decode(header)
	if err != nil {
		f.Close()

		return nil, err
	}

	if err := f.Truncate(int64(decoded.Length)); err != nil {
		f.Close()

		return nil, fmt.Errorf("truncate %q to %d: %w", path, decoded.Length, err)
	}

	if _, err := f.WriteAt(header, 0); err != nil {
		f.Close()

		return nil, fmt.Errorf("write header to %q: %w", path, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()

		return nil, fmt.Errorf("sync %q: %w", path, err)
	}

	file, err := mapOpenFile(f)
	if err != nil {
		f.Close()

		return nil, err
	}

	return file, nil
}

// mapOpenFile validates the header of an already-open *os.File and mmaps
// its data region. On error, the caller is responsible for closing f.
func mapOpenFile(f *os.File) (*File, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	headerBuf := make([]byte, format.HeaderSize)
	if _, err := f.ReadAt(headerBuf, 0); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if err := format.Validate(headerBuf, stat.Size()); err != nil {
		return nil, err
	}

	header, err := format.Decode(headerBuf)
	if err != nil {
		return nil, err
	}

	dataLen := int(header.Length) - int(header.DataOffset)

	data, err := unix.Mmap(int(f.Fd()), int64(header.DataOffset), dataLen, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}

	dev, ino := statIdentity(stat)

	return &File{
		osFile: f,
		data:   data,
		header: header,
		Dev:    dev,
		Ino:    ino,
	}, nil
}

// Data returns the mapped data region: the 32-byte control block followed
// by capacity*slot_size bytes of slots. Writes to it are observable
// process-wide immediately; disk persistence is OS-scheduled unless Sync
// is called.
func (f *File) Data() []byte {
	return f.data
}

// Capacity returns the file's immutable element capacity.
func (f *File) Capacity() uint32 {
	return f.header.Capacity
}

// SlotSize returns the file's immutable per-element slot size in bytes.
func (f *File) SlotSize() uint32 {
	return f.header.SlotSize
}

// SchemaID returns the file's immutable schema identifier.
func (f *File) SchemaID() uint64 {
	return f.header.SchemaID
}

// DataOffset returns the byte offset at which the data region begins.
func (f *File) DataOffset() uint16 {
	return f.header.DataOffset
}

// Sync forces the mapped region's dirty pages to disk (msync) and then
// fsyncs the underlying file descriptor's metadata.
func (f *File) Sync() error {
	if err := unix.Msync(f.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("msync: %w", err)
	}

	if err := f.osFile.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}

	return nil
}

// Close unmaps the data region and closes the underlying file descriptor.
func (f *File) Close() error {
	var errs []error

	if f.data != nil {
		if err := unix.Munmap(f.data); err != nil {
			errs = append(errs, fmt.Errorf("munmap: %w", err))
		}

		f.data = nil
	}

	if err := f.osFile.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	}

	return errors.Join(errs...)
}
