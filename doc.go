// Package mmqf provides a persistent, bounded FIFO queue backed by a
// memory-mapped file.
//
// The file is both the storage medium and the shared state across
// processes: the queue survives restarts, and concurrent producers/
// consumers synchronize through atomic counters and shared memory rather
// than in-process locks alone.
//
// # Basic Usage
//
//	q, err := mmqf.Create(mmqf.Options{
//	    Path:     "/tmp/orders.mmqf",
//	    SchemaID: 42,
//	    Capacity: 1024,
//	    SlotSize: 64,
//	})
//	if err != nil {
//	    // handle ErrGeometryMismatch, I/O errors, etc.
//	}
//	defer q.Close()
//
//	if err := q.Enqueue(payload); errors.Is(err, mmqf.ErrQueueFull) {
//	    // back off and retry
//	}
//
//	payload, err := q.Dequeue()
//	if errors.Is(err, mmqf.ErrEmpty) {
//	    // nothing to do
//	}
//
// # Concurrency
//
// Enqueue/Dequeue/Peek are safe for concurrent use by any number of
// producer/consumer goroutines in one process, including through several
// Queue handles opened on the same file. The sequence and cursor counters
// live in process memory, so producers and consumers in different
// processes that map the same file are not coordinated with each other.
// There is no blocking primitive on the hot path:
// claiming a sequence number never waits, and publication order is
// enforced by a short busy-wait spin (see BusyIterations).
//
// # Error Handling
//
// Format/geometry errors (ErrInvalidFormat, ErrVersionUnsupported,
// ErrChecksumMismatch, ErrFileTruncated, ErrGeometryMismatch) are fatal at
// Create/Open time. ErrQueueFull and ErrEmpty are ordinary, expected return
// values from Enqueue/Dequeue/Peek, not exceptional control flow. Use
// errors.Is to classify.
//
// # Non-goals
//
// Elements are fixed-width byte slots; slot size and capacity are fixed at
// creation time and the queue never grows. There is no replication,
// encryption, or compression, and no durability guarantee stronger than
// "the OS eventually writes mapped pages" — call Sync for an explicit
// flush.
package mmqf
