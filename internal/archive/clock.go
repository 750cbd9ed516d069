package archive

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the timestamps written into lock records, session rows and
// run durations.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// IDGenerator mints the session id that ties a log, a lock record and a
// session row together.
type IDGenerator interface {
	New() string
}

// UUIDGenerator mints random (version 4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.NewString() }
