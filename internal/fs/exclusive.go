package fs

import "errors"

// ErrLocked means another handle already holds the file exclusively.
var ErrLocked = errors.New("file is locked by another handle")

// OpenExclusive opens path for read/write so that no other OpenExclusive
// caller, in this or another process, can hold it at the same time. With
// create set the file is created if it does not exist. Contention returns
// ErrLocked and is never retried.
//
// On Windows this is a CreateFile with share mode 0 and excludes every other
// opener. Elsewhere it is a non-blocking exclusive flock, which only excludes
// other lockers.
func OpenExclusive(path string, create bool) (*ExclusiveFile, error) {
	return openExclusive(path, create)
}
