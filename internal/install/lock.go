package install

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"
)

// acquireLock takes a best-effort PID lockfile guarding concurrent installs
// to the same cache path. Stale locks (dead owner, empty or garbage
// content) are broken. The returned function releases the lock.
func acquireLock(lockPath string) (func(), error) {
	if _, err := os.Stat(lockPath); err == nil {
		if !isLockStale(lockPath) {
			return nil, fmt.Errorf(
				"another tachyon process holds the install lock %s; wait for it to finish or remove the file if it is left over",
				lockPath)
		}
		_ = os.Remove(lockPath)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("acquiring install lock %s: %w", lockPath, err)
	}
	_, writeErr := fmt.Fprintf(f, "%d", os.Getpid())
	closeErr := f.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(lockPath)
		return nil, fmt.Errorf("writing install lock %s: %w", lockPath, errors.Join(writeErr, closeErr))
	}

	return func() { _ = os.Remove(lockPath) }, nil
}

// isLockStale reports whether the lock file's owning process is gone. A
// missing file is not stale: the caller handles that case separately.
func isLockStale(lockPath string) bool {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return false
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return true
	}
	pid, err := strconv.Atoi(content)
	if err != nil || pid <= 0 {
		return true
	}
	return !isProcessRunning(pid)
}

func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	if runtime.GOOS == "windows" {
		// FindProcess already failed above for dead PIDs on Windows.
		return true
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to another user.
	return errors.Is(err, syscall.EPERM)
}
