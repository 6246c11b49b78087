package ring

import (
	"sync"
	"sync/atomic"
)

// identity uniquely identifies a queue file by device and inode, mirroring
// the per-inode coordination pattern used elsewhere in this corpus for
// sharing in-process state across multiple handles to the same file.
type identity struct {
	dev uint64
	ino uint64
}

// sharedCounters holds the in-memory sequence/cursor/size state for a queue
// file. When a single process opens the same file more than once, all
// [Ring] instances for that file share one sharedCounters so their claims
// are drawn from a single sequence space instead of silently racing two
// independent ones against the same mapped bytes.
type sharedCounters struct {
	// mu is the process-local mutex guarding size mutation: size is updated
	// in two places (mapped bytes and committedSize) atomically together.
	mu sync.Mutex

	enqueueSeq           atomic.Uint64
	dequeueSeq           atomic.Uint64
	publishCursor        atomic.Uint64
	dequeuePublishCursor atomic.Uint64
	committedSize        atomic.Uint64
	busyIterations       atomic.Uint64

	initialHead uint64
	initialTail uint64

	refCount atomic.Int32
}

var registry sync.Map // map[identity]*sharedCounters

// acquireCounters returns the sharedCounters for id, creating one via
// initialHead/initialTail/initialSize the first time this process attaches
// to id. Callers must call releaseCounters when done.
func acquireCounters(id identity, initialHead, initialTail, initialSize uint64) *sharedCounters {
	for {
		if val, loaded := registry.Load(id); loaded {
			entry := val.(*sharedCounters)

			for {
				old := entry.refCount.Load()
				if old <= 0 {
					break
				}

				if entry.refCount.CompareAndSwap(old, old+1) {
					return entry
				}
			}

			continue
		}

		entry := &sharedCounters{initialHead: initialHead, initialTail: initialTail}
		entry.committedSize.Store(initialSize)
		entry.refCount.Store(1)

		if _, loaded := registry.LoadOrStore(id, entry); !loaded {
			return entry
		}
	}
}

// releaseCounters decrements id's reference count, removing the shared
// entry from the registry once the last Ring attached to it closes.
func releaseCounters(id identity, sc *sharedCounters) {
	if sc.refCount.Add(-1) <= 0 {
		registry.CompareAndDelete(id, sc)
	}
}
