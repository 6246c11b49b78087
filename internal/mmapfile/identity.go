package mmapfile

import (
	"os"
	"syscall"
)

// statIdentity extracts the device:inode pair from a FileInfo obtained via
// os.Stat/os.File.Stat, for use as a process-local coordination key when the
// same file is opened more than once.
func statIdentity(info os.FileInfo) (dev uint64, ino uint64) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0
	}

	return uint64(stat.Dev), stat.Ino
}
