//go:build !windows

package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	hammyerrors "hammy/internal/errors"
)

const lockFile = "index.lock"

// Lock is an exclusive writer lock on the on-disk snapshot. It does not
// guard the in-memory graph.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes the writer lock in dataDir without blocking. A lock
// held by another process fails with INDEX_LOCKED.
func AcquireLock(dataDir string) (*Lock, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	path := filepath.Join(dataDir, lockFile)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		msg := "index is locked by another process"
		if content, readErr := os.ReadFile(path); readErr == nil && len(content) > 0 {
			msg = fmt.Sprintf("index is locked by another process (PID %s)", strings.TrimSpace(string(content)))
		}
		return nil, hammyerrors.New(hammyerrors.IndexLocked, msg, err)
	}

	unlock := func(cause error, what string) (*Lock, error) {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return nil, fmt.Errorf("%s lock file: %w", what, cause)
	}
	if err := file.Truncate(0); err != nil {
		return unlock(err, "truncating")
	}
	if _, err := file.Seek(0, 0); err != nil {
		return unlock(err, "seeking")
	}
	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		return unlock(err, "writing PID to")
	}

	return &Lock{path: path, file: file}, nil
}

// Release drops the lock and removes the lock file.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
	_ = os.Remove(l.path)
	l.file = nil
}
