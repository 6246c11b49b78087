package mmqf

import (
	"errors"
	"sync"

	"github.com/mmqf/mmqf/internal/fs"
	"github.com/mmqf/mmqf/internal/mmapfile"
	"github.com/mmqf/mmqf/internal/ring"
)

// Queue is a handle to an open, mapped queue file.
//
// Enqueue/Dequeue/Peek/Size/IsEmpty/IsFull/BusyIterations are safe for
// concurrent use by multiple goroutines, including concurrently with each
// other, per the ring protocol in internal/ring. A Queue must be obtained
// via Create or Open; the zero value is not usable.
type Queue struct {
	_ [0]func() // prevent external construction

	// mu guards closed. See internal/fs and internal/ring for the
	// lower-level locking this builds on.
	mu     sync.RWMutex
	closed bool

	file *mmapfile.File
	ring *ring.Ring
}

// Create creates a new queue file per opts, or attaches to a
// geometry-compatible existing one (see Options.Overwrite).
func Create(opts Options) (*Queue, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	locker := fs.NewLocker(fs.NewReal())

	file, err := mmapfile.Create(opts.Path, opts.SchemaID, opts.Capacity, opts.SlotSize, opts.Overwrite, locker)
	if err != nil {
		return nil, err
	}

	return wrap(file)
}

// Open opens an existing, valid queue file at path.
func Open(path string) (*Queue, error) {
	file, err := mmapfile.OpenExisting(path)
	if err != nil {
		return nil, err
	}

	return wrap(file)
}

func wrap(file *mmapfile.File) (*Queue, error) {
	r, err := ring.New(file.Data(), file.Capacity(), file.SlotSize(), file.Dev, file.Ino)
	if err != nil {
		file.Close()

		return nil, err
	}

	return &Queue{file: file, ring: r}, nil
}

func (q *Queue) checkOpen() bool {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()

	return !closed
}

// Enqueue encodes slot (which must be exactly SlotSize() bytes) into the
// queue. Returns ErrQueueFull if the queue is at capacity, ErrClosed if the
// queue has been closed.
func (q *Queue) Enqueue(slot []byte) error {
	if !q.checkOpen() {
		return ErrClosed
	}

	return q.ring.Enqueue(slot)
}

// Dequeue removes and returns the oldest element. Returns ErrEmpty if the
// queue has nothing to dequeue, ErrClosed if the queue has been closed.
func (q *Queue) Dequeue() ([]byte, error) {
	if !q.checkOpen() {
		return nil, ErrClosed
	}

	return q.ring.Dequeue()
}

// Peek returns the oldest element without removing it. Returns ErrEmpty if
// the queue is empty, ErrClosed if the queue has been closed.
func (q *Queue) Peek() ([]byte, error) {
	if !q.checkOpen() {
		return nil, ErrClosed
	}

	return q.ring.Peek()
}

// Size returns the current element count.
func (q *Queue) Size() uint32 {
	return q.ring.Size()
}

// Capacity returns the queue's immutable element capacity.
func (q *Queue) Capacity() uint32 {
	return q.ring.Capacity()
}

// SlotSize returns the queue's immutable per-element slot size in bytes.
func (q *Queue) SlotSize() uint32 {
	return q.ring.SlotSize()
}

// SchemaID returns the queue's immutable schema identifier, as recorded at
// creation time.
func (q *Queue) SchemaID() uint64 {
	return q.file.SchemaID()
}

// IsEmpty reports whether the queue currently holds no elements.
func (q *Queue) IsEmpty() bool {
	return q.ring.IsEmpty()
}

// IsFull reports whether the queue currently holds Capacity() elements.
func (q *Queue) IsFull() bool {
	return q.ring.IsFull()
}

// BusyIterations returns the cumulative number of spins on the ring's
// publication barriers, counted across every Queue in this process that is
// open on the same file. Diagnostic only.
func (q *Queue) BusyIterations() uint64 {
	return q.ring.BusyIterations()
}

// Sync forces the mapped region's dirty pages to disk. Explicit durability
// is available but never required per operation.
func (q *Queue) Sync() error {
	if !q.checkOpen() {
		return ErrClosed
	}

	return q.file.Sync()
}

// Close flushes and releases the mapping and closes the underlying file.
// Close is idempotent; subsequent calls are no-ops.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	q.ring.Close()

	syncErr := q.file.Sync()

	return errors.Join(syncErr, q.file.Close())
}
