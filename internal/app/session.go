package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"archview/internal/archive"
	"archview/internal/database"
	"archview/internal/session"
)

// staticID hands out one fixed id, so the lock record carries the same
// session id as the log.
type staticID string

func (s staticID) New() string { return string(s) }

// Session is an authenticated user holding the session lock.
type Session struct {
	Identity archive.Identity
	Lock     *session.Handle
	Archive  *archive.ArchiveService
	// RowID identifies the session in the catalog's session log.
	RowID    int64

	cleanup bool
	logger  archive.Logger
	closed  bool
	// finish closes the session row in the catalog with a run status.
	finish func(status string) error
}

// StartSession acquires the session lock for an authenticated identity and
// builds the archive service. It returns an error wrapping session.ErrBusy
// when another session of the same user is active.
func (a *App) StartSession(ctx context.Context, identity *archive.Identity) (*Session, error) {
	if identity == nil {
		return nil, fmt.Errorf("start session: %w", archive.ErrCredentialRejected)
	}
	if a.enc != nil && a.dec == nil {
		return nil, fmt.Errorf("start session: blob encryption is locked")
	}

	opts := session.Options{
		BasePath:          a.cfg.Session.BasePath,
		AppSubdir:         a.cfg.Session.AppSubdir,
		UserConfigName:    a.cfg.Session.UserConfigName,
		DefaultConfigPath: a.cfg.Session.DefaultConfigPath,
		Clock:             a.clock,
		IDs:               staticID(a.sessionID),
		Logger:            a.logger,
	}

	handle, ok, err := session.TryAcquire(opts, identity.Login)
	if err != nil {
		return nil, fmt.Errorf("acquiring session lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("user %s: %w", identity.Login, session.ErrBusy)
	}

	host, _ := os.Hostname()
	rec := database.SessionRecord{
		SessionID: a.sessionID,
		UserID:    identity.UserID,
		Host:      host,
		Command:   a.run.Command,
		Started:   a.clock.Now(),
	}
	rowID, err := a.catalog.StartSession(ctx, rec)
	if err != nil {
		return nil, errors.Join(err, handle.Release())
	}
	a.logger.Debug("session recorded", "user", identity.Login, "host", host, "session_row", rowID)

	if identity.PasswordChangeRequired {
		a.logger.Warn("password change required", "user", identity.Login)
	}

	return &Session{
		Identity: *identity,
		Lock:     handle,
		Archive:  archive.NewArchiveService(a.catalog, a.blobStore(), a.files, a.logger),
		cleanup:  a.cfg.Cache.CleanupOnExit,
		logger:   a.logger,
		RowID:    rowID,
		finish: func(status string) error {
			// The command context may already be cancelled at this point.
			return a.catalog.FinishSession(context.WithoutCancel(ctx), rowID, status, a.clock.Now())
		},
	}, nil
}

// Close ends a session that completed without error. See End.
func (s *Session) Close() error {
	return s.End(nil)
}

// End removes the documents cached by this session when the config asks
// for it, records the outcome of runErr in the session row and releases the
// session lock. Ending twice does nothing.
func (s *Session) End(runErr error) error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.Archive.Close(s.cleanup); err != nil {
		errs = append(errs, err)
	}
	if err := s.finish(StatusOf(runErr)); err != nil {
		s.logger.Warn("could not finish session row", "error", err)
		errs = append(errs, err)
	}
	if err := s.Lock.Release(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RunSession starts a session for identity, runs fn and closes the session,
// whatever fn returns.
func (a *App) RunSession(ctx context.Context, identity *archive.Identity, fn func(ctx context.Context, s *Session) error) (err error) {
	s, err := a.StartSession(ctx, identity)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.End(err))
	}()
	return fn(ctx, s)
}
