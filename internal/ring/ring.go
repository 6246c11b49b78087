// Package ring implements the concurrent enqueue/dequeue protocol over a
// mapped data region: sequence claiming, publication ordering, wrap-around
// offset arithmetic, and the persisted head/tail/size control block.
//
// This is the hard part of the queue. The protocol is lock-free on the hot
// path (claiming a sequence and writing slot bytes never blocks), but
// serializes the two places size is mutated — the mapped control block and
// an in-process cache of it — behind a single mutex, and serializes
// publication of claims into that critical section behind a busy-wait
// spin on a cursor, so concurrent producers still commit to the mapped
// tail/size in the order they claimed their sequence numbers.
package ring

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/mmqf/mmqf/internal/codec"
	"github.com/mmqf/mmqf/internal/format"
)

// Sentinel errors for the ring's soft, expected outcomes. Callers use
// errors.Is.
var (
	// ErrQueueFull is returned by Enqueue when admitting the claimed
	// sequence would exceed capacity.
	ErrQueueFull = errors.New("ring: queue full")

	// ErrEmpty is returned by Dequeue/Peek when there is nothing to
	// remove or inspect.
	ErrEmpty = errors.New("ring: empty")
)

const (
	offHead = 0
	offTail = 8
	offSize = 16
)

// Ring is a handle onto one queue file's data region. Multiple Rings in the
// same process backed by the same (dev, ino) share their sequence/size
// state via the package registry; each still holds its own mapped data
// slice (mmap's MAP_SHARED semantics make concurrent writes through either
// mapping visible to the other).
type Ring struct {
	data     []byte
	capacity uint32
	slotSize uint32

	id identity
	sc *sharedCounters
}

// New wraps data (the mapped data region returned by mmapfile.File.Data)
// with the ring protocol. dev/ino identify the backing file for in-process
// coordination when it is opened more than once.
func New(data []byte, capacity, slotSize uint32, dev, ino uint64) (*Ring, error) {
	span := uint64(capacity) * uint64(slotSize)

	head, err := codec.ReadUint64(data, offHead)
	if err != nil {
		return nil, fmt.Errorf("reading control block head: %w", err)
	}

	tail, err := codec.ReadUint64(data, offTail)
	if err != nil {
		return nil, fmt.Errorf("reading control block tail: %w", err)
	}

	size, err := codec.ReadUint64(data, offSize)
	if err != nil {
		return nil, fmt.Errorf("reading control block size: %w", err)
	}

	// Reject any control-block value whose upper 4 bytes are nonzero
	// rather than silently truncating it.
	if head > 0xFFFFFFFF || tail > 0xFFFFFFFF || size > 0xFFFFFFFF {
		return nil, fmt.Errorf("control block value exceeds 32 bits: %w", format.ErrInvalidFormat)
	}

	if head == 0 {
		head = format.ControlBlockSize
	}

	if tail == 0 {
		tail = format.ControlBlockSize
	}

	if err := checkAligned(head, slotSize, span); err != nil {
		return nil, fmt.Errorf("control block head: %w", err)
	}

	if err := checkAligned(tail, slotSize, span); err != nil {
		return nil, fmt.Errorf("control block tail: %w", err)
	}

	if size > uint64(capacity) {
		return nil, fmt.Errorf("control block size %d exceeds capacity %d: %w", size, capacity, format.ErrInvalidFormat)
	}

	id := identity{dev: dev, ino: ino}
	sc := acquireCounters(id, head, tail, size)

	return &Ring{data: data, capacity: capacity, slotSize: slotSize, id: id, sc: sc}, nil
}

func checkAligned(offset uint64, slotSize uint32, span uint64) error {
	base := format.ControlBlockSize

	if offset < uint64(base) || offset >= uint64(base)+span {
		return fmt.Errorf("offset %d out of slot region [%d, %d): %w", offset, base, uint64(base)+span, format.ErrInvalidFormat)
	}

	if (offset-uint64(base))%uint64(slotSize) != 0 {
		return fmt.Errorf("offset %d not aligned to slot_size %d: %w", offset, slotSize, format.ErrInvalidFormat)
	}

	return nil
}

// Close detaches this Ring from the in-process shared counters for its
// file. It does not touch the mapped data; callers close the underlying
// file container separately.
func (r *Ring) Close() {
	releaseCounters(r.id, r.sc)
}

// Capacity returns the immutable element capacity.
func (r *Ring) Capacity() uint32 {
	return r.capacity
}

// SlotSize returns the immutable per-element slot size.
func (r *Ring) SlotSize() uint32 {
	return r.slotSize
}

// Size returns the current element count.
func (r *Ring) Size() uint32 {
	return uint32(r.sc.committedSize.Load())
}

// IsEmpty reports whether the queue currently holds no elements.
func (r *Ring) IsEmpty() bool {
	return r.sc.committedSize.Load() == 0
}

// IsFull reports whether the queue currently holds capacity elements.
func (r *Ring) IsFull() bool {
	return r.sc.committedSize.Load() >= uint64(r.capacity)
}

// BusyIterations returns the cumulative number of spins this Ring (and any
// Ring sharing its counters) has performed on the publication barrier.
// Diagnostic only.
func (r *Ring) BusyIterations() uint64 {
	return r.sc.busyIterations.Load()
}

func (r *Ring) span() uint64 {
	return uint64(r.capacity) * uint64(r.slotSize)
}

// slotOffset computes the mapped byte offset of the slot for the (claim-1)th
// operation past base (the snapshot of head or tail taken at open time).
// Reduces (claim-1) mod capacity before multiplying by slot_size so the
// arithmetic stays bounded for long-running processes; equivalent to
// reducing (claim-1)*slot_size mod (capacity*slot_size) since slot_size
// divides the modulus.
func (r *Ring) slotOffset(base, claim uint64) uint64 {
	idx := (claim - 1) % uint64(r.capacity)
	span := r.span()
	rel := (base - uint64(format.ControlBlockSize) + idx*uint64(r.slotSize)) % span

	return uint64(format.ControlBlockSize) + rel
}

// advance wraps offset forward by one slot within [32, 32+span).
func (r *Ring) advance(offset uint64) uint64 {
	span := r.span()

	return uint64(format.ControlBlockSize) + (offset-uint64(format.ControlBlockSize)+uint64(r.slotSize))%span
}

// Enqueue claims the next sequence, writes slot (which must be exactly
// SlotSize() bytes), and publishes it in claim order. Returns ErrQueueFull
// if doing so would exceed capacity.
func (r *Ring) Enqueue(slot []byte) error {
	if uint32(len(slot)) != r.slotSize {
		return fmt.Errorf("slot is %d bytes, want %d", len(slot), r.slotSize)
	}

	claim := r.sc.enqueueSeq.Add(1)

	fill := r.sc.committedSize.Load() + claim - r.sc.publishCursor.Load()
	if fill > uint64(r.capacity) {
		r.sc.enqueueSeq.Add(^uint64(0))

		return ErrQueueFull
	}

	offset := r.slotOffset(r.sc.initialTail, claim)
	copy(r.data[offset:offset+uint64(r.slotSize)], slot)

	for r.sc.publishCursor.Load() != claim-1 {
		r.sc.busyIterations.Add(1)
		runtime.Gosched()
	}

	newTail := r.advance(offset)

	r.sc.mu.Lock()
	_ = codec.WriteUint64(r.data, offTail, newTail)
	newSize := r.sc.committedSize.Add(1)
	_ = codec.WriteUint64(r.data, offSize, newSize)
	r.sc.mu.Unlock()

	r.sc.publishCursor.Store(claim)

	return nil
}

// Dequeue claims the next sequence, busy-waits for its turn, and removes
// the oldest remaining element. Returns ErrEmpty if there is nothing to
// dequeue.
//
// Availability is checked against the committed (persisted) size rather
// than against the producer-side publish cursor alone, which can
// momentarily under-report what's actually available to a consumer.
func (r *Ring) Dequeue() ([]byte, error) {
	claim := r.sc.dequeueSeq.Add(1)

	inFlight := claim - r.sc.dequeuePublishCursor.Load()
	if inFlight > r.sc.committedSize.Load() {
		r.sc.dequeueSeq.Add(^uint64(0))

		return nil, ErrEmpty
	}

	offset := r.slotOffset(r.sc.initialHead, claim)
	out := make([]byte, r.slotSize)
	copy(out, r.data[offset:offset+uint64(r.slotSize)])

	for r.sc.dequeuePublishCursor.Load() != claim-1 {
		r.sc.busyIterations.Add(1)
		runtime.Gosched()
	}

	newHead := r.advance(offset)

	r.sc.mu.Lock()
	_ = codec.WriteUint64(r.data, offHead, newHead)
	newSize := r.sc.committedSize.Add(^uint64(0))
	_ = codec.WriteUint64(r.data, offSize, newSize)
	r.sc.mu.Unlock()

	r.sc.dequeuePublishCursor.Store(claim)

	return out, nil
}

// Peek returns the oldest remaining element without removing it. It always
// reads the mapped head and size directly, never a cached in-memory copy.
// A mapped head of 0 (never dequeued) means the first slot.
func (r *Ring) Peek() ([]byte, error) {
	r.sc.mu.Lock()

	size, err := codec.ReadUint64(r.data, offSize)
	if err != nil {
		r.sc.mu.Unlock()

		return nil, err
	}

	if size == 0 {
		r.sc.mu.Unlock()

		return nil, ErrEmpty
	}

	head, err := codec.ReadUint64(r.data, offHead)
	if err != nil {
		r.sc.mu.Unlock()

		return nil, err
	}

	if head == 0 {
		head = format.ControlBlockSize
	}

	out := make([]byte, r.slotSize)
	copy(out, r.data[head:head+uint64(r.slotSize)])
	r.sc.mu.Unlock()

	return out, nil
}
