package mmqf_test

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mmqf/mmqf"
)

func enc4(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)

	return b
}

func dec4(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

func Test_Scenario_S1_Simple(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "s1.mmqf")

	q, err := mmqf.Create(mmqf.Options{Path: path, SchemaID: 42, Capacity: 4, SlotSize: 4, Overwrite: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer q.Close()

	for _, v := range []uint32{1, 2, 3, 4} {
		if err := q.Enqueue(enc4(v)); err != nil {
			t.Fatalf("Enqueue(%d): %v", v, err)
		}
	}

	for _, want := range []uint32{1, 2, 3, 4} {
		got, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue: %v", err)
		}

		if dec4(got) != want {
			t.Fatalf("got=%d, want=%d", dec4(got), want)
		}
	}

	if q.Size() != 0 {
		t.Fatalf("Size()=%d, want=0", q.Size())
	}
}

func Test_Scenario_S4_ChecksumMismatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "s4.mmqf")

	q, err := mmqf.Create(mmqf.Options{Path: path, SchemaID: 1, Capacity: 4, SlotSize: 4, Overwrite: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	flipByteAt(t, path, 29)

	_, err = mmqf.Open(path)
	if !errors.Is(err, mmqf.ErrChecksumMismatch) {
		t.Fatalf("Open err=%v, want ErrChecksumMismatch", err)
	}
}

func Test_Create_RejectsIncompatibleExistingGeometry(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "geom.mmqf")

	q, err := mmqf.Create(mmqf.Options{Path: path, SchemaID: 1, Capacity: 4, SlotSize: 4})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	q.Close()

	_, err = mmqf.Create(mmqf.Options{Path: path, SchemaID: 1, Capacity: 8, SlotSize: 4})
	if !errors.Is(err, mmqf.ErrGeometryMismatch) {
		t.Fatalf("err=%v, want ErrGeometryMismatch", err)
	}
}

func Test_Create_AttachesToCompatibleExistingFile_WhenOverwriteFalse(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "attach.mmqf")

	q1, err := mmqf.Create(mmqf.Options{Path: path, SchemaID: 1, Capacity: 4, SlotSize: 4})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := q1.Enqueue(enc4(99)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := q1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	q2, err := mmqf.Create(mmqf.Options{Path: path, SchemaID: 1, Capacity: 4, SlotSize: 4})
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	defer q2.Close()

	if q2.Size() != 1 {
		t.Fatalf("Size()=%d, want=1 (attach must preserve data)", q2.Size())
	}
}

func Test_Persistence_AcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reopen.mmqf")

	q, err := mmqf.Create(mmqf.Options{Path: path, SchemaID: 1, Capacity: 8, SlotSize: 4, Overwrite: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, v := range []uint32{1, 2, 3} {
		if err := q.Enqueue(enc4(v)); err != nil {
			t.Fatalf("Enqueue(%d): %v", v, err)
		}
	}

	if _, err := q.Dequeue(); err != nil {
		t.Fatalf("Dequeue: %v", err)
	}

	sizeBeforeClose := q.Size()

	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	q2, err := mmqf.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer q2.Close()

	if q2.Size() != sizeBeforeClose {
		t.Fatalf("Size()=%d, want=%d", q2.Size(), sizeBeforeClose)
	}

	got, err := q2.Dequeue()
	if err != nil {
		t.Fatalf("Dequeue after reopen: %v", err)
	}

	if dec4(got) != 2 {
		t.Fatalf("got=%d, want=2 (oldest unconsumed element)", dec4(got))
	}
}

func Test_Scenario_S6_ConcurrentProducersNoLossNoDup(t *testing.T) {
	t.Parallel()

	const (
		producers   = 20
		perProducer = 500
		total       = producers * perProducer
	)

	path := filepath.Join(t.TempDir(), "s6.mmqf")

	q, err := mmqf.Create(mmqf.Options{Path: path, SchemaID: 1, Capacity: total, SlotSize: 4, Overwrite: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer q.Close()

	var wg sync.WaitGroup

	for p := range producers {
		wg.Add(1)

		go func(p int) {
			defer wg.Done()

			for i := range perProducer {
				v := uint32(p*perProducer + i)

				if err := q.Enqueue(enc4(v)); err != nil {
					t.Errorf("producer %d Enqueue(%d): %v", p, v, err)

					return
				}
			}
		}(p)
	}

	wg.Wait()

	seen := make(map[uint32]bool, total)

	for range total {
		got, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue: %v", err)
		}

		v := dec4(got)
		if seen[v] {
			t.Fatalf("duplicate %d", v)
		}

		seen[v] = true
	}

	if len(seen) != total {
		t.Fatalf("drained %d distinct values, want %d", len(seen), total)
	}
}

func flipByteAt(t *testing.T, path string, offset int64) {
	t.Helper()

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("open %q: %v", path, err)
	}
	defer f.Close()

	var b [1]byte

	if _, err := f.ReadAt(b[:], offset); err != nil {
		t.Fatalf("read: %v", err)
	}

	b[0] ^= 0xFF

	if _, err := f.WriteAt(b[:], offset); err != nil {
		t.Fatalf("write: %v", err)
	}
}
