package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"archview/internal/archive"
	"archview/internal/blobstore"
	"archview/internal/config"
	"archview/internal/database"
	"archview/internal/encryption"
	"archview/internal/fs"
	"archview/internal/secret"
	"archview/internal/staging"
)

// MaxUploadSize caps the files accepted by PutDocument and PutImage.
const MaxUploadSize = 1 << 30

// ErrEncryptionDisabled means a key operation was requested while
// [encryption] type is "none".
var ErrEncryptionDisabled = errors.New("encryption is disabled in the config")

// Options adjusts how an App is built. The zero value logs to the log file
// only and uses the real clock and random session ids.
type Options struct {
	Stderr      io.Writer
	StderrLevel slog.Level

	Clock archive.Clock
	IDs   archive.IDGenerator

	// SkipMigrationCheck allows opening a catalog whose schema is behind,
	// for the migrate command itself.
	SkipMigrationCheck bool
}

// App is the application layer between the CLI and the archive core.
// It constructs all dependencies from config and closes them on Close.
type App struct {
	cfg     *config.Config
	catalog *database.SQLiteStore
	blobs   blobstore.Store
	enc     encryption.Encryptor
	dec     encryption.DecryptionContext
	files   *fs.OSFilesystem
	auth    *archive.Authenticator

	clock     archive.Clock
	sessionID string
	logger    archive.Logger
	logFile   *os.File
	run       *Run
}

// New creates a fully wired App from the given config. command names the CLI
// command being run. The caller must call Finish when done.
func New(ctx context.Context, cfg *config.Config, command string, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = archive.SystemClock{}
	}
	if opts.IDs == nil {
		opts.IDs = archive.UUIDGenerator{}
	}

	sessionID := opts.IDs.New()
	logger, logFile, err := newLogger(cfg.LogDir, sessionID, opts.Stderr, opts.StderrLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	catalog, err := database.NewStoreFromConfig(cfg.Catalog, cfg.Blobs.SentinelImageKey)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	closeAll := func() {
		catalog.Close()
		logFile.Close()
	}

	if !opts.SkipMigrationCheck {
		if err := catalog.CheckMigrations(); err != nil {
			closeAll()
			return nil, fmt.Errorf("catalog schema out of date: %w", err)
		}
	}

	blobs, err := blobstore.NewBlobStoreFromConfig(ctx, cfg.Blobs, catalog)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("creating blob store: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	a := &App{
		cfg:       cfg,
		catalog:   catalog,
		blobs:     blobs,
		enc:       enc,
		files:     fs.NewOSFilesystem(),
		auth:      archive.NewAuthenticator(catalog, cfg.Auth.AttemptLimit, log),
		clock:     opts.Clock,
		sessionID: sessionID,
		logger:    log,
		logFile:   logFile,
		run:       NewRun(command, sessionID, opts.Clock.Now()),
	}
	log.Debug("command started", "command", command, "catalog", cfg.Catalog.Type, "blobs", cfg.Blobs.Type, "encryption", cfg.Encryption.Type)
	return a, nil
}

// SessionID identifies this process in the log and in the session lock.
func (a *App) SessionID() string { return a.sessionID }

// Config returns the config the App was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Run returns the tracked command run.
func (a *App) Run() *Run { return a.run }

// Migrate applies pending catalog migrations.
func (a *App) Migrate() error {
	if err := a.catalog.Migrate(); err != nil {
		return fmt.Errorf("migrating catalog: %w", err)
	}
	a.logger.Info("catalog migrated", "path", a.catalog.Path())
	return nil
}

// InitKeys creates the blob encryption key pair.
func (a *App) InitKeys(passphrase string) error {
	if a.enc == nil {
		return ErrEncryptionDisabled
	}
	if a.enc.IsConfigured() {
		return fmt.Errorf("encryption keys already exist")
	}
	if err := a.enc.Setup(passphrase); err != nil {
		return fmt.Errorf("creating encryption keys: %w", err)
	}
	a.logger.Info("encryption keys created", "type", a.cfg.Encryption.Type, "protected", passphrase != "")
	return nil
}

// NeedsPassphrase reports whether Unlock needs a passphrase.
func (a *App) NeedsPassphrase() (bool, error) {
	age, ok := a.enc.(*encryption.AgeEncryptor)
	if !ok {
		return false, nil
	}
	return age.Protected()
}

// Unlock loads the decryption identity. It does nothing when encryption is
// disabled.
func (a *App) Unlock(passphrase string) error {
	if a.enc == nil || a.dec != nil {
		return nil
	}
	dec, err := a.enc.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking blob encryption: %w", err)
	}
	a.dec = dec
	return nil
}

// blobStore returns the configured store, encrypting when enabled.
func (a *App) blobStore() blobstore.Store {
	if a.enc == nil {
		return a.blobs
	}
	return blobstore.NewEncryptedBlobStore(a.blobs, a.enc, a.dec)
}

// AddUser creates an account. The secret is stored encoded.
func (a *App) AddUser(ctx context.Context, login, secretText, role, fullName string, changePassword bool) (int, error) {
	login = strings.TrimSpace(login)
	if err := archive.ValidateFileName(login); err != nil {
		return 0, fmt.Errorf("user login: %w", err)
	}
	if strings.TrimSpace(secretText) == "" {
		return 0, fmt.Errorf("secret is required")
	}
	if secret.EncodedLengthOverflows(secretText) {
		return 0, fmt.Errorf("secret longer than %d characters", secret.MaxLength)
	}
	if secret.Lossy(secretText) {
		return 0, fmt.Errorf("secret contains characters the legacy encoding cannot store")
	}

	id, err := a.catalog.AddUser(ctx, database.NewUser{
		Login:          login,
		EncodedSecret:  secret.Encode(secretText),
		Role:           role,
		FullName:       fullName,
		ChangePassword: changePassword,
	})
	if err != nil {
		return 0, err
	}
	a.logger.Info("user added", "user", login, "user_id", id, "role", role)
	return id, nil
}

// AddDocument files a document in the catalog.
func (a *App) AddDocument(ctx context.Context, doc database.NewDocument) (int, error) {
	id, err := a.catalog.AddDocument(ctx, doc)
	if err != nil {
		return 0, err
	}
	a.logger.Info("document filed", "doc_id", id, "designation", doc.Designation, "recorded_at", doc.RecordedAt)
	return id, nil
}

// PutDocument stores the contents of path as the body of docID.
func (a *App) PutDocument(ctx context.Context, docID int, path string) error {
	if _, err := a.catalog.LookupDocumentMeta(ctx, docID); err != nil {
		return err
	}

	c, err := staging.Read(path, MaxUploadSize)
	if err != nil {
		return err
	}
	if c.Size() == 0 {
		return fmt.Errorf("%s: %w", path, archive.ErrEmptyDocument)
	}

	if err := a.blobStore().PutDocument(ctx, docID, c.Data); err != nil {
		return err
	}
	a.logger.Info("document stored", "doc_id", docID, "size", c.Size(), "sha256", c.Checksum, "mime", mimetype.Detect(c.Data).String())
	return nil
}

// PutImage stores the contents of path under key. A non-empty level also
// makes it the image of every bucket on that level.
func (a *App) PutImage(ctx context.Context, key int, path string, level archive.Table) error {
	c, err := staging.Read(path, MaxUploadSize)
	if err != nil {
		return err
	}
	if mt := mimetype.Detect(c.Data); !strings.HasPrefix(mt.String(), "image/") {
		return fmt.Errorf("%s is %s, not an image", path, mt.String())
	}

	if err := a.blobStore().PutImage(ctx, key, c.Data); err != nil {
		return err
	}
	if level != "" {
		if err := a.catalog.SetLevelImage(ctx, level, key); err != nil {
			return err
		}
	}
	a.logger.Info("image stored", "key", key, "size", c.Size(), "sha256", c.Checksum, "level", string(level))
	return nil
}

// Sessions returns the most recent viewer sessions, newest first.
func (a *App) Sessions(ctx context.Context, limit int) ([]database.SessionRecord, error) {
	return a.catalog.ListSessions(ctx, limit)
}

// Login runs one authentication attempt. Attempts are counted across calls
// on the same App.
func (a *App) Login(ctx context.Context, user, secretText string, encoded bool) (*archive.AuthResult, error) {
	a.run.User = strings.TrimSpace(user)
	if encoded {
		return a.auth.AuthenticateEncoded(ctx, user, secretText)
	}
	return a.auth.Authenticate(ctx, user, secretText)
}

// Finish records how the command ended and closes all resources.
func (a *App) Finish(err error) error {
	a.run.Finish(a.clock.Now(), err)

	args := []any{"command", a.run.Command, "status", a.run.Status, "duration", a.run.Duration()}
	if a.run.User != "" {
		args = append(args, "user", a.run.User)
	}
	if err != nil {
		args = append(args, "error", err)
		a.logger.Warn("command finished", args...)
	} else {
		a.logger.Info("command finished", args...)
	}
	return a.Close()
}

// Close closes the catalog and the log file.
func (a *App) Close() error {
	var errs []error
	if err := a.catalog.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing catalog: %w", err))
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing log file: %w", err))
		}
		a.logFile = nil
	}
	return errors.Join(errs...)
}

// Compile-time check that the catalog database can also hold the blobs
var _ blobstore.Store = (*database.SQLiteStore)(nil)
