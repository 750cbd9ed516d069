package app

import (
	"errors"
	"time"

	"archview/internal/archive"
	"archview/internal/session"
)

// Run outcomes recorded in the log and in the catalog's session log.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusBusy      = "busy"
	StatusRejected  = "rejected"
	StatusLockedOut = "locked_out"
)

// Run tracks one CLI command from start to finish.
type Run struct {
	Command   string
	SessionID string
	User      string
	Started   time.Time
	Finished  time.Time
	Status    string
}

// NewRun creates a run that has not finished yet.
func NewRun(command, sessionID string, started time.Time) *Run {
	return &Run{
		Command:   command,
		SessionID: sessionID,
		Started:   started,
	}
}

// Finish records the end of the run and classifies err.
func (r *Run) Finish(at time.Time, err error) {
	r.Finished = at
	r.Status = StatusOf(err)
}

// Done returns true once Finish has been called.
func (r *Run) Done() bool {
	return !r.Finished.IsZero()
}

// Duration is zero until the run is finished.
func (r *Run) Duration() time.Duration {
	if !r.Done() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// StatusOf maps a command error to its run status.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, session.ErrBusy):
		return StatusBusy
	case errors.Is(err, archive.ErrLockedOut):
		return StatusLockedOut
	case errors.Is(err, archive.ErrCredentialRejected):
		return StatusRejected
	default:
		return StatusError
	}
}
