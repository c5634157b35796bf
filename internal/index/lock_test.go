//go:build !windows

package index

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	hammyerrors "hammy/internal/errors"
)

func TestAcquireAndReleaseLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}

	lockPath := filepath.Join(dir, lockFile)
	content, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("failed to read lock file: %v", err)
	}
	pid, err := strconv.Atoi(string(content))
	if err != nil {
		t.Fatalf("lock file should contain PID: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("PID: got %d, want %d", pid, os.Getpid())
	}

	lock.Release()
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("lock file should be removed after release")
	}
	lock.Release()
}

func TestAcquireLock_AlreadyLocked(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("first AcquireLock failed: %v", err)
	}
	defer first.Release()

	second, err := AcquireLock(dir)
	if err == nil {
		second.Release()
		t.Fatal("second AcquireLock should fail when already locked")
	}
	if !hammyerrors.HasCode(err, hammyerrors.IndexLocked) {
		t.Errorf("error = %v, want INDEX_LOCKED", err)
	}
}

func TestAcquireLock_CreatesDirectory(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), ".hammy")

	lock, err := AcquireLock(dataDir)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	defer lock.Release()

	if _, err := os.Stat(dataDir); err != nil {
		t.Errorf("data dir should be created by AcquireLock: %v", err)
	}
}

func TestReleaseLock_NilSafe(t *testing.T) {
	var lock *Lock
	lock.Release()
}
