//go:build unix

package fs

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// maxLockRaces bounds how often a lock file replaced under us is reopened.
const maxLockRaces = 3

// ExclusiveFile is an open file holding an exclusive lock.
type ExclusiveFile struct {
	*os.File
}

// Close releases the lock and closes the file.
func (f *ExclusiveFile) Close() error {
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return f.File.Close()
}

// CloseAndRemove deletes the file and then releases the lock. Removing first
// means a waiting opener can only ever lock a fresh file.
func (f *ExclusiveFile) CloseAndRemove() error {
	removeErr := os.Remove(f.Name())
	if err := f.Close(); err != nil {
		return err
	}
	if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		return removeErr
	}
	return nil
}

func openExclusive(path string, create bool) (*ExclusiveFile, error) {
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}

	for range maxLockRaces {
		f, err := os.OpenFile(path, flags, 0o600)
		if err != nil {
			return nil, err
		}

		if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
			f.Close()
			if errors.Is(err, unix.EWOULDBLOCK) {
				return nil, ErrLocked
			}
			return nil, fmt.Errorf("locking %s: %w", path, err)
		}

		// The previous holder may have removed the file between our open and
		// our lock. Holding a lock on an unlinked inode protects nothing.
		same, err := samePath(f, path)
		if err != nil {
			f.Close()
			if !create && errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			continue
		}
		if same {
			return &ExclusiveFile{File: f}, nil
		}
		f.Close()
	}
	return nil, ErrLocked
}

func samePath(f *os.File, path string) (bool, error) {
	held, err := f.Stat()
	if err != nil {
		return false, err
	}
	current, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return os.SameFile(held, current), nil
}
