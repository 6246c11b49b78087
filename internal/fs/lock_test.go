package fs

import (
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

func Test_Locker_Lock_Blocks_Concurrent_Creators_Of_The_Same_Path(t *testing.T) {
	t.Parallel()

	locker := NewLocker(NewReal())
	path := filepath.Join(t.TempDir(), "queue.mmqf.lock")

	first, err := locker.Lock(path)
	if err != nil {
		t.Fatalf("Lock(%q): %v", path, err)
	}

	acquired := make(chan struct{})

	go func() {
		second, err := locker.Lock(path)
		if err != nil {
			t.Errorf("second Lock(%q): %v", path, err)

			return
		}

		close(acquired)

		_ = second.Close()
	}()

	select {
	case <-acquired:
		t.Fatalf("second Lock(%q) acquired while first is still held", path)
	case <-time.After(20 * time.Millisecond):
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("second Lock(%q) never acquired after first was released", path)
	}
}

func Test_Locker_Locks_Do_Not_Interfere_Across_Paths(t *testing.T) {
	t.Parallel()

	locker := NewLocker(NewReal())
	dir := t.TempDir()
	path1 := filepath.Join(dir, "a.mmqf.lock")
	path2 := filepath.Join(dir, "b.mmqf.lock")

	l1, err := locker.Lock(path1)
	if err != nil {
		t.Fatalf("Lock(%q): %v", path1, err)
	}
	t.Cleanup(func() { _ = l1.Close() })

	l2, err := locker.Lock(path2)
	if err != nil {
		t.Fatalf("Lock(%q) while holding %q: %v", path2, path1, err)
	}
	if err := l2.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}
}

func Test_Locker_Lock_Creates_Parent_Directory_When_Missing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "queue.mmqf.lock")

	locker := NewLocker(NewReal())

	lock, err := locker.Lock(path)
	if err != nil {
		t.Fatalf("Lock(%q): %v", path, err)
	}
	if err := lock.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}
}

func Test_Locker_Can_Reacquire_After_Close(t *testing.T) {
	t.Parallel()

	locker := NewLocker(NewReal())
	path := filepath.Join(t.TempDir(), "queue.mmqf.lock")

	for i := range 3 {
		l, err := locker.Lock(path)
		if err != nil {
			t.Fatalf("Lock(%q) #%d: %v", path, i, err)
		}
		if err := l.Close(); err != nil {
			t.Fatalf("Close() #%d: %v", i, err)
		}
	}
}

func Test_Lock_Close_Is_Idempotent(t *testing.T) {
	t.Parallel()

	locker := NewLocker(NewReal())
	path := filepath.Join(t.TempDir(), "queue.mmqf.lock")

	lock, err := locker.Lock(path)
	if err != nil {
		t.Fatalf("Lock(%q): %v", path, err)
	}

	if err := lock.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}
	if err := lock.Close(); err != nil {
		t.Fatalf("Close() second: %v", err)
	}
}

func Test_Locker_Lock_Serializes_Many_Concurrent_Create_Races(t *testing.T) {
	// Mirrors mmqf's actual use of Locker: several goroutines racing to
	// create the same queue file call Lock(path+".lock") before touching the
	// file; exactly one should ever hold the lock at a time.
	t.Parallel()

	locker := NewLocker(NewReal())
	path := filepath.Join(t.TempDir(), "queue.mmqf.lock")

	const racers = 16

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
	)

	for range racers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			l, err := locker.Lock(path)
			if err != nil {
				t.Errorf("Lock(%q): %v", path, err)

				return
			}

			mu.Lock()
			holders++
			ok := holders == 1
			mu.Unlock()

			if !ok {
				t.Errorf("Lock(%q): more than one holder at once", path)
			}

			mu.Lock()
			holders--
			mu.Unlock()

			_ = l.Close()
		}()
	}

	wg.Wait()
}

func Test_Locker_Lock_Retries_When_LockFile_Was_Replaced_During_Acquire(t *testing.T) {
	// Verifies Lock() doesn't return an error if the lock file is replaced
	// while acquiring the lock: it retries until it locks the inode
	// currently at path.

	open1 := &syscall.Stat_t{Dev: 1, Ino: 1}
	open2 := &syscall.Stat_t{Dev: 1, Ino: 2}
	pathInfo := &syscall.Stat_t{Dev: 1, Ino: 2}

	var openCalls int

	locker := NewLocker(stubLockFS{
		openFile: func(string, int, os.FileMode) (File, error) {
			openCalls++

			switch openCalls {
			case 1:
				return &stubLockFile{
					fd: 123,
					stat: func() (os.FileInfo, error) {
						return stubFileInfo{sys: open1}, nil
					},
				}, nil
			default:
				return &stubLockFile{
					fd: 456,
					stat: func() (os.FileInfo, error) {
						return stubFileInfo{sys: open2}, nil
					},
				}, nil
			}
		},
		stat: func(string) (os.FileInfo, error) {
			return stubFileInfo{sys: pathInfo}, nil
		},
	})
	locker.flock = func(int, int) error { return nil }

	lock, err := locker.Lock("lock")
	if err != nil {
		t.Fatalf("Lock(): %v", err)
	}
	t.Cleanup(func() { _ = lock.Close() })

	if openCalls < 2 {
		t.Fatalf("Lock(): want at least 2 open attempts, got %d", openCalls)
	}
}

func Test_Locker_Lock_Returns_Error_When_Stat_Has_Unexpected_Sys_Type(t *testing.T) {
	t.Parallel()

	locker := NewLocker(stubLockFS{
		openFile: func(string, int, os.FileMode) (File, error) {
			return &stubLockFile{
				fd: 123,
				stat: func() (os.FileInfo, error) {
					return stubFileInfo{sys: "not a stat_t"}, nil
				},
			}, nil
		},
	})
	locker.flock = func(int, int) error { return nil }

	_, err := locker.Lock("lock")
	if err == nil {
		t.Fatalf("Lock(): want error, got nil")
	}
}

type stubLockFS struct {
	openFile func(path string, flag int, perm os.FileMode) (File, error)
	mkdirAll func(path string, perm os.FileMode) error
	stat     func(path string) (os.FileInfo, error)
}

func (s stubLockFS) Open(string) (File, error)       { panic("stubLockFS.Open: not implemented") }
func (s stubLockFS) Create(string) (File, error)     { panic("stubLockFS.Create: not implemented") }
func (s stubLockFS) ReadFile(string) ([]byte, error) { panic("stubLockFS.ReadFile: not implemented") }
func (s stubLockFS) ReadDir(string) ([]os.DirEntry, error) {
	panic("stubLockFS.ReadDir: not implemented")
}
func (s stubLockFS) Exists(string) (bool, error) { panic("stubLockFS.Exists: not implemented") }
func (s stubLockFS) Remove(string) error         { panic("stubLockFS.Remove: not implemented") }
func (s stubLockFS) RemoveAll(string) error      { panic("stubLockFS.RemoveAll: not implemented") }
func (s stubLockFS) Rename(string, string) error { panic("stubLockFS.Rename: not implemented") }
func (s stubLockFS) WriteFileAtomic(string, []byte, os.FileMode) error {
	panic("stubLockFS.WriteFileAtomic: not implemented")
}
func (s stubLockFS) MkdirAll(path string, perm os.FileMode) error {
	if s.mkdirAll != nil {
		return s.mkdirAll(path, perm)
	}
	return nil
}
func (s stubLockFS) Stat(path string) (os.FileInfo, error) {
	if s.stat == nil {
		panic("stubLockFS.Stat: not implemented")
	}
	return s.stat(path)
}
func (s stubLockFS) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	if s.openFile == nil {
		panic("stubLockFS.OpenFile: not implemented")
	}
	return s.openFile(path, flag, perm)
}

type stubLockFile struct {
	fd   uintptr
	stat func() (os.FileInfo, error)
}

func (*stubLockFile) Read([]byte) (int, error)  { panic("stubLockFile.Read: not implemented") }
func (*stubLockFile) Write([]byte) (int, error) { panic("stubLockFile.Write: not implemented") }
func (*stubLockFile) Seek(int64, int) (int64, error) {
	panic("stubLockFile.Seek: not implemented")
}
func (*stubLockFile) Sync() error { panic("stubLockFile.Sync: not implemented") }

func (f *stubLockFile) Close() error { return nil }
func (f *stubLockFile) Fd() uintptr  { return f.fd }
func (f *stubLockFile) Stat() (os.FileInfo, error) {
	if f.stat == nil {
		panic("stubLockFile.Stat: not implemented")
	}
	return f.stat()
}

type stubFileInfo struct{ sys any }

func (stubFileInfo) Name() string       { return "stub" }
func (stubFileInfo) Size() int64        { return 0 }
func (stubFileInfo) Mode() os.FileMode  { return 0 }
func (stubFileInfo) ModTime() time.Time { return time.Time{} }
func (stubFileInfo) IsDir() bool        { return false }
func (fi stubFileInfo) Sys() any        { return fi.sys }

var _ FS = (*stubLockFS)(nil)
var _ File = (*stubLockFile)(nil)
