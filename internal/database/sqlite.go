package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"archview/internal/archive"
	"archview/internal/database/migrations"
	"archview/internal/database/sqlc"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DefaultSentinelImageKey is the image key of the "no document" image.
const DefaultSentinelImageKey = 216

// passwordChangeFlag in a user's cfg_data forces a password change on login.
const passwordChangeFlag = "CHANGEPWDONLOGIN=-1"

// SQLiteStore keeps the catalog, the user accounts and optionally the blobs in
// one SQLite database. It implements archive.CatalogStore,
// archive.CredentialStore and archive.BlobStore.
type SQLiteStore struct {
	db          *sql.DB
	queries     *sqlc.Queries
	path        string
	sentinelKey int
}

// NewSQLiteStore opens a store at path. path can be a file path or ":memory:".
func NewSQLiteStore(path string, sentinelKey int) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStoreFromDB(db, path, sentinelKey), nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB, path string, sentinelKey int) *SQLiteStore {
	if sentinelKey == 0 {
		sentinelKey = DefaultSentinelImageKey
	}
	return &SQLiteStore{
		db:          db,
		queries:     sqlc.New(db),
		path:        path,
		sentinelKey: sentinelKey,
	}
}

// OpenConnection opens and configures a SQLite database connection.
// path can be a file path or ":memory:" for an in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	// The driver applies DSN options to every pooled connection.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Catalog

// ListNodes derives the bucket nodes from the stored documents.
func (s *SQLiteStore) ListNodes(ctx context.Context) ([]archive.NodeRow, error) {
	docs, err := s.listDocuments(ctx)
	if err != nil {
		return nil, err
	}

	levels, err := s.queries.ListLevelImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing level images: %w", err)
	}
	levelImages := make(map[archive.Table]int, len(levels))
	for _, l := range levels {
		levelImages[archive.Table(l.Level)] = int(l.ImageID)
	}

	return deriveNodes(docs, levelImages), nil
}

func (s *SQLiteStore) LookupDocumentMeta(ctx context.Context, docID int) (*archive.DocumentMeta, error) {
	row, err := s.queries.GetDocumentMeta(ctx, int64(docID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", docID, archive.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up document %d: %w", docID, err)
	}
	return &archive.DocumentMeta{
		DocID:       int(row.ID),
		Designation: row.Designation,
		Name:        row.Name,
		Directory:   row.Directory,
		FileName:    row.FileName,
	}, nil
}

// ListDocuments returns every document, oldest first, with IsNew computed
// against the previous calendar day.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]archive.DocumentRow, error) {
	docs, err := s.listDocuments(ctx)
	if err != nil {
		return nil, err
	}
	markNew(docs)
	return docs, nil
}

func (s *SQLiteStore) listDocuments(ctx context.Context) ([]archive.DocumentRow, error) {
	rows, err := s.queries.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	docs := make([]archive.DocumentRow, 0, len(rows))
	for _, r := range rows {
		ts, err := parseTimestamp(r.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", r.ID, err)
		}
		docs = append(docs, archive.DocumentRow{
			DocID:       int(r.ID),
			Designation: r.Designation,
			Name:        r.Name,
			ImageID:     int(r.ImageID),
			Timestamp:   ts,
			Rank:        int(r.Rank),
		})
	}
	return docs, nil
}

// NewDocument describes a document to file in the catalog.
type NewDocument struct {
	Designation string
	Name        string
	ImageID     int
	RecordedAt  time.Time
	Rank        int
	Directory   string
	FileName    string
}

// AddDocument files a document, creating its directory row if needed, and
// returns the new document id.
func (s *SQLiteStore) AddDocument(ctx context.Context, doc NewDocument) (int, error) {
	if err := archive.ValidateFileName(doc.FileName); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	dir, err := qtx.GetDirectoryByPath(ctx, doc.Directory)
	if errors.Is(err, sql.ErrNoRows) {
		dir, err = qtx.InsertDirectory(ctx, doc.Directory)
	}
	if err != nil {
		return 0, fmt.Errorf("resolving directory %s: %w", doc.Directory, err)
	}

	created, err := qtx.InsertDocument(ctx, sqlc.InsertDocumentParams{
		Designation: doc.Designation,
		Name:        doc.Name,
		ImageID:     int64(doc.ImageID),
		RecordedAt:  formatTimestamp(doc.RecordedAt),
		Rank:        int64(doc.Rank),
		DirectoryID: dir.ID,
		FileName:    doc.FileName,
	})
	if err != nil {
		return 0, fmt.Errorf("inserting document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return int(created.ID), nil
}

// SetLevelImage sets the image shown for every bucket of level.
func (s *SQLiteStore) SetLevelImage(ctx context.Context, level archive.Table, imageKey int) error {
	if !level.IsBucket() {
		return fmt.Errorf("not a bucket level: %s", level)
	}
	err := s.queries.UpsertLevelImage(ctx, sqlc.UpsertLevelImageParams{Level: string(level), ImageID: int64(imageKey)})
	if err != nil {
		return fmt.Errorf("setting %s image: %w", level, err)
	}
	return nil
}

// Credentials

// Connected reports whether the database answers a ping.
func (s *SQLiteStore) Connected(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

// Validate compares encodedSecret with the stored secret of username.
// Unknown users are invalid, not an error.
func (s *SQLiteStore) Validate(ctx context.Context, username, encodedSecret string) (*archive.Validation, error) {
	user, err := s.queries.GetUserByLogin(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return &archive.Validation{Valid: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user %s: %w", username, err)
	}

	if user.ID == 0 || user.EncodedSecret != encodedSecret {
		return &archive.Validation{Valid: false}, nil
	}
	return &archive.Validation{
		Valid:                  true,
		UserID:                 int(user.ID),
		Role:                   user.Role,
		FullName:               user.FullName,
		PasswordChangeRequired: strings.Contains(user.CfgData, passwordChangeFlag),
	}, nil
}

// NewUser describes an account to create.
type NewUser struct {
	Login          string
	EncodedSecret  string
	Role           string
	FullName       string
	ChangePassword bool
}

// AddUser creates an account and returns its id.
func (s *SQLiteStore) AddUser(ctx context.Context, u NewUser) (int, error) {
	var cfg string
	if u.ChangePassword {
		cfg = passwordChangeFlag
	}
	created, err := s.queries.InsertUser(ctx, sqlc.InsertUserParams{
		Login:         u.Login,
		EncodedSecret: u.EncodedSecret,
		Role:          u.Role,
		FullName:      u.FullName,
		CfgData:       cfg,
	})
	if err != nil {
		return 0, fmt.Errorf("inserting user %s: %w", u.Login, err)
	}
	return int(created.ID), nil
}

// Sessions

// SessionStatusActive marks a session row that has not been finished.
const SessionStatusActive = "active"

// ErrSessionNotActive means FinishSession found no open row for the id.
var ErrSessionNotActive = errors.New("session is not active")

// SessionRecord is one row of the session log. ID is assigned by
// StartSession; SessionID is the id of the process log the session ran in.
type SessionRecord struct {
	ID        int64
	SessionID string
	UserID    int
	Host      string
	Command   string
	Started   time.Time
	Finished  time.Time // zero while active
	Status    string
}

// StartSession records the start of a viewer session and returns its row id.
func (s *SQLiteStore) StartSession(ctx context.Context, rec SessionRecord) (int64, error) {
	row, err := s.queries.InsertSession(ctx, sqlc.InsertSessionParams{
		SessionID: rec.SessionID,
		UserID:    int64(rec.UserID),
		Host:      rec.Host,
		Command:   rec.Command,
		StartedAt: formatTimestamp(rec.Started.UTC()),
	})
	if err != nil {
		return 0, fmt.Errorf("recording session %s: %w", rec.SessionID, err)
	}
	return row.ID, nil
}

// FinishSession closes the active session row id with status. A session
// can only be finished once.
func (s *SQLiteStore) FinishSession(ctx context.Context, id int64, status string, at time.Time) error {
	n, err := s.queries.FinishSession(ctx, sqlc.FinishSessionParams{
		FinishedAt: sql.NullString{String: formatTimestamp(at.UTC()), Valid: true},
		Status:     status,
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("finishing session %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("session %d: %w", id, ErrSessionNotActive)
	}
	return nil
}

// ListSessions returns up to limit sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	rows, err := s.queries.ListSessions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	records := make([]SessionRecord, 0, len(rows))
	for _, row := range rows {
		rec := SessionRecord{
			ID:        row.ID,
			SessionID: row.SessionID,
			UserID:    int(row.UserID),
			Host:      row.Host,
			Command:   row.Command,
			Status:    row.Status,
		}
		if rec.Started, err = parseTimestamp(row.StartedAt); err != nil {
			return nil, fmt.Errorf("session %d: %w", row.ID, err)
		}
		if row.FinishedAt.Valid {
			if rec.Finished, err = parseTimestamp(row.FinishedAt.String); err != nil {
				return nil, fmt.Errorf("session %d: %w", row.ID, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Blobs

func (s *SQLiteStore) FetchDocument(ctx context.Context, docID int) ([]byte, error) {
	body, err := s.queries.GetDocumentBody(ctx, int64(docID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %d body: %w", docID, archive.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching document %d body: %w", docID, err)
	}
	return body, nil
}

// FetchImages selects all keys in one query.
func (s *SQLiteStore) FetchImages(ctx context.Context, keys []int) (map[int][]byte, error) {
	out := make(map[int][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	ids := make([]int64, len(keys))
	for i, k := range keys {
		ids[i] = int64(k)
	}
	images, err := s.queries.ListImages(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching images: %w", err)
	}
	for _, img := range images {
		out[int(img.ImageKey)] = img.Data
	}
	return out, nil
}

func (s *SQLiteStore) FetchSentinelImage(ctx context.Context) ([]byte, error) {
	data, err := s.queries.GetImage(ctx, int64(s.sentinelKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sentinel image %d not stored", s.sentinelKey)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching sentinel image: %w", err)
	}
	return data, nil
}

// PutDocument stores the body of an existing document.
func (s *SQLiteStore) PutDocument(ctx context.Context, docID int, body []byte) error {
	err := s.queries.UpsertDocumentBody(ctx, sqlc.UpsertDocumentBodyParams{DocumentID: int64(docID), Body: body})
	if err != nil {
		return fmt.Errorf("storing document %d body: %w", docID, err)
	}
	return nil
}

// PutImage stores an image under key.
func (s *SQLiteStore) PutImage(ctx context.Context, key int, data []byte) error {
	if err := s.queries.UpsertImage(ctx, sqlc.UpsertImageParams{ImageKey: int64(key), Data: data}); err != nil {
		return fmt.Errorf("storing image %d: %w", key, err)
	}
	return nil
}

// SentinelImageKey returns the key FetchSentinelImage reads.
func (s *SQLiteStore) SentinelImageKey() int {
	return s.sentinelKey
}

// Maintenance

// Path returns the filesystem path of the database.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Migrate applies pending schema migrations.
func (s *SQLiteStore) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies that the schema is at the latest version.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time checks that SQLiteStore implements the archive store interfaces
var (
	_ archive.CatalogStore    = (*SQLiteStore)(nil)
	_ archive.CredentialStore = (*SQLiteStore)(nil)
	_ archive.BlobStore       = (*SQLiteStore)(nil)
)
