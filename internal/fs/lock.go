package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// errInodeMismatch is an internal sentinel indicating the lock file was
// replaced between open and flock. Callers retry against the new inode.
var errInodeMismatch = errors.New("inode mismatch")

// Locker hands out an exclusive, advisory lock used to serialize concurrent
// "initialize the queue file at this path" races between the producers and
// consumers that might open the same path for the first time at once. mmqf
// never needs reader/writer coordination once a queue file exists — every
// enqueue/dequeue runs lock-free against the mapped region — so Locker's
// surface is a single blocking exclusive Lock rather than a general-purpose
// shared/exclusive/timeout/try locking API.
//
// flock locks an inode, not a pathname, so Locker guards against the lock
// file being replaced out from under it between open and flock: after
// acquiring the lock it verifies (dev, ino) still matches the path and
// retries against the new inode on mismatch.
//
// Locker holds no mutable state beyond its dependencies and is safe for
// concurrent use as long as the underlying [FS] implementation is.
type Locker struct {
	fs    FS
	flock func(fd int, how int) error
}

// NewLocker creates a Locker that uses the given filesystem for file operations.
func NewLocker(fs FS) *Locker {
	return &Locker{
		fs:    fs,
		flock: unix.Flock,
	}
}

// Lock represents a held create-time lock. Call [Lock.Close] to release it.
type Lock struct {
	mu    sync.Mutex
	file  File
	flock func(fd int, how int) error
}

// Close releases the lock and closes the underlying file descriptor. It is
// idempotent: calling it more than once is safe and returns nil after the
// first call.
func (lk *Lock) Close() error {
	lk.mu.Lock()
	defer lk.mu.Unlock()

	if lk.file == nil {
		return nil
	}

	fd := int(lk.file.Fd())

	unlockErr := flockRetryEINTR(lk.flock, fd, unix.LOCK_UN)
	closeErr := lk.file.Close()
	lk.file = nil

	if unlockErr != nil {
		return fmt.Errorf("unlocking lock: %w", unlockErr)
	}

	if closeErr != nil {
		return fmt.Errorf("closing lock fd: %w", closeErr)
	}

	return nil
}

// Lock blocks until it acquires the exclusive lock guarding path, creating
// the lock file (and its parent directory) if needed. The lock is held on
// path itself, not a temporary file.
//
// Races where the lock file is replaced (renamed, deleted+recreated) while
// acquisition is in flight are handled automatically: the lock is always
// taken on whatever inode currently sits at path. See
// [Locker.inodeMatchesPath].
func (l *Locker) Lock(path string) (*Lock, error) {
	for {
		file, err := l.openLockFile(path)
		if err != nil {
			return nil, fmt.Errorf("opening lockfile: %w", err)
		}

		err = l.acquire(file, path)
		if err == nil {
			return &Lock{file: file, flock: l.flock}, nil
		}

		_ = file.Close()

		if errors.Is(err, errInodeMismatch) {
			continue
		}

		return nil, err
	}
}

// acquire flocks file exclusively and verifies the inode still matches path.
// On failure the file is unlocked (if needed) but not closed; the caller
// closes it.
func (l *Locker) acquire(file File, path string) error {
	fd := int(file.Fd())

	if err := flockRetryEINTR(l.flock, fd, unix.LOCK_EX); err != nil {
		return err
	}

	match, err := l.inodeMatchesPath(path, file)
	if err != nil {
		_ = flockRetryEINTR(l.flock, fd, unix.LOCK_UN)

		if errors.Is(err, os.ErrNotExist) {
			return errInodeMismatch
		}

		return fmt.Errorf("verifying inode match: %w", err)
	}

	if !match {
		_ = flockRetryEINTR(l.flock, fd, unix.LOCK_UN)

		return errInodeMismatch
	}

	return nil
}

const (
	lockFilePerm = 0o600
	lockDirPerm  = 0o755
)

func (l *Locker) openLockFile(path string) (File, error) {
	f, err := l.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, lockFilePerm)
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return f, err
	}

	if err := l.fs.MkdirAll(filepath.Dir(path), lockDirPerm); err != nil {
		return nil, err
	}

	return l.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, lockFilePerm)
}

// inodeMatchesPath reports whether f (the descriptor we just flocked) still
// refers to the file currently at path, guarding against path being
// replaced while the lock was being acquired.
//
// os.FileInfo.Sys() always surfaces *syscall.Stat_t — that's the type the os
// package's internal stat call fills in — regardless of which package (here
// golang.org/x/sys/unix) issued the flock itself, so the dev/ino comparison
// stays on syscall.Stat_t even though locking moved to unix.Flock.
func (l *Locker) inodeMatchesPath(path string, f File) (bool, error) {
	openInfo, err := f.Stat()
	if err != nil {
		return false, err
	}

	openSys, ok := openInfo.Sys().(*syscall.Stat_t)
	if !ok || openSys == nil {
		return false, fmt.Errorf("file.Stat Sys=%T, want *syscall.Stat_t", openInfo.Sys())
	}

	pathInfo, err := l.fs.Stat(path)
	if err != nil {
		return false, err
	}

	pathSys, ok := pathInfo.Sys().(*syscall.Stat_t)
	if !ok || pathSys == nil {
		return false, fmt.Errorf("fs.Stat Sys=%T, want *syscall.Stat_t", pathInfo.Sys())
	}

	return openSys.Dev == pathSys.Dev && openSys.Ino == pathSys.Ino, nil
}

// flockRetryEINTR wraps flock, retrying on EINTR up to a cap so a signal
// storm can't spin this forever.
func flockRetryEINTR(flock func(fd int, how int) error, fd int, how int) error {
	const maxEINTRRetries = 10000

	var err error

	for range maxEINTRRetries {
		err = flock(fd, how)
		if err == nil || !errors.Is(err, unix.EINTR) {
			return err
		}
	}

	return err
}
