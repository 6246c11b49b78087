package mmqf

import "fmt"

// Options configures Create of a new queue file.
type Options struct {
	// Path is the filesystem path of the queue file.
	Path string

	// SchemaID is an opaque, caller-defined identifier for the element
	// layout. Fixed at creation time; mmqf never interprets it.
	SchemaID uint64

	// Capacity is the maximum number of elements the queue can hold.
	// Immutable once the file is created.
	Capacity uint32

	// SlotSize is the fixed size in bytes of one element slot. Immutable
	// once the file is created.
	SlotSize uint32

	// Overwrite, when true, replaces any existing file at Path
	// unconditionally. When false and a file already exists at Path, it is
	// opened in place of being recreated if its on-disk capacity and
	// slot_size match; otherwise Create returns ErrGeometryMismatch.
	Overwrite bool
}

func (o Options) validate() error {
	if o.Path == "" {
		return fmt.Errorf("path is required")
	}

	if o.Capacity == 0 {
		return fmt.Errorf("capacity must be >= 1")
	}

	if o.SlotSize == 0 {
		return fmt.Errorf("slot_size must be >= 1")
	}

	return nil
}
