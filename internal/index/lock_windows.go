//go:build windows

package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	hammyerrors "hammy/internal/errors"
)

const lockFile = "index.lock"

// Lock is an exclusive writer lock on the on-disk snapshot. On Windows it
// relies on O_EXCL creation of the lock file.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes the writer lock in dataDir. An existing lock file
// fails with INDEX_LOCKED.
func AcquireLock(dataDir string) (*Lock, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	path := filepath.Join(dataDir, lockFile)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, hammyerrors.New(hammyerrors.IndexLocked, "index is locked by another process", err)
		}
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing PID to lock file: %w", err)
	}
	return &Lock{path: path, file: file}, nil
}

// Release drops the lock and removes the lock file.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	l.file.Close()
	os.Remove(l.path)
	l.file = nil
}
