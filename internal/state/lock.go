package state

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// fileLock is flock(2)-based advisory locking so two getrel processes never
// rewrite the same project's state concurrently.
type fileLock struct {
	file *os.File
	path string
}

func (l *fileLock) lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return fmt.Errorf("acquire lock: %w", err)
	}
	l.file = f
	return nil
}

func (l *fileLock) unlock() error {
	if l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close lock file: %w", err)
	}
	l.file = nil
	return nil
}

// withLock runs fn while holding an exclusive lock on lockPath.
func withLock(lockPath string, fn func() error) error {
	l := &fileLock{path: lockPath}
	if err := l.lock(); err != nil {
		return err
	}
	defer func() { _ = l.unlock() }()
	return fn()
}
