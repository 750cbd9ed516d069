//go:build windows

package fs

import (
	"errors"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// ExclusiveFile is a file opened without any sharing.
type ExclusiveFile struct {
	*os.File
}

// CloseAndRemove closes the handle and deletes the file. The file cannot be
// deleted while the non-sharing handle is open.
func (f *ExclusiveFile) CloseAndRemove() error {
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func openExclusive(path string, create bool) (*ExclusiveFile, error) {
	pathp, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}

	access := uint32(windows.GENERIC_READ | windows.GENERIC_WRITE)
	createmode := uint32(windows.OPEN_EXISTING)
	if create {
		createmode = windows.OPEN_ALWAYS
	}

	var sa windows.SecurityAttributes
	sa.Length = uint32(unsafe.Sizeof(sa))

	// Share mode 0: no other handle may open the file while we hold it.
	handle, err := windows.CreateFile(pathp, access, 0, &sa, createmode, windows.FILE_ATTRIBUTE_NORMAL, 0)
	if err != nil {
		if errors.Is(err, windows.ERROR_SHARING_VIOLATION) || errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
			return nil, ErrLocked
		}
		if errors.Is(err, windows.ERROR_FILE_NOT_FOUND) || errors.Is(err, windows.ERROR_PATH_NOT_FOUND) {
			return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
		}
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}

	return &ExclusiveFile{File: os.NewFile(uintptr(handle), path)}, nil
}
