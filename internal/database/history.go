package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/schoolcrew/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "schoolcrew.db"

// HistoryDB stores crew runs.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// now returns the time recorded for new rows.
	now func() time.Time
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool

	// Clock replaces time.Now for CreatedAt. Nil uses time.Now.
	Clock func() time.Time
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
		now:    opts.Clock,
	}
	if hdb.now == nil {
		hdb.now = time.Now
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS searches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		inputs TEXT NOT NULL,
		raw TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_searches_kind ON searches(kind);
	CREATE INDEX IF NOT EXISTS idx_searches_created ON searches(created_at);
	CREATE INDEX IF NOT EXISTS idx_searches_fingerprint ON searches(fingerprint);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// Fingerprint returns the hex SHA3-256 digest of a crew output.
func Fingerprint(raw string) string {
	sum := sha3.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Save stores rec and fills in its ID, Fingerprint and CreatedAt.
// A record with an already stored RunID replaces the earlier row.
func (h *HistoryDB) Save(ctx context.Context, rec *model.SearchRecord) error {
	if rec.RunID == "" {
		return errors.New("run id is required")
	}

	inputs, err := json.Marshal(rec.Inputs)
	if err != nil {
		return fmt.Errorf("failed to serialize inputs: %w", err)
	}

	rec.Fingerprint = Fingerprint(rec.Raw)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = h.now().UTC()
	}

	query := `
	INSERT INTO searches (run_id, kind, inputs, raw, fingerprint, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		kind = excluded.kind,
		inputs = excluded.inputs,
		raw = excluded.raw,
		fingerprint = excluded.fingerprint,
		created_at = excluded.created_at
	RETURNING id
	`

	err = h.db.QueryRowContext(ctx, query,
		rec.RunID,
		rec.Kind,
		string(inputs),
		rec.Raw,
		rec.Fingerprint,
		rec.CreatedAt.UTC().Format(storedTimeFormat),
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to save search: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, run_id, kind, inputs, raw, fingerprint, created_at FROM searches`

// Latest returns up to limit records, newest first. An empty kind matches
// every kind.
func (h *HistoryDB) Latest(ctx context.Context, kind string, limit int) ([]model.SearchRecord, error) {
	query := selectColumns
	args := make([]any, 0, 2)
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query searches: %w", err)
	}
	defer rows.Close()

	var records []model.SearchRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// ByRunID returns the record with the given run id, or nil when none exists.
func (h *HistoryDB) ByRunID(ctx context.Context, runID string) (*model.SearchRecord, error) {
	rec, err := scanRecord(h.db.QueryRowContext(ctx, selectColumns+" WHERE run_id = ?", runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// CountByFingerprint returns how many runs produced the same output.
func (h *HistoryDB) CountByFingerprint(ctx context.Context, fingerprint string) (int, error) {
	var n int
	err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM searches WHERE fingerprint = ?", fingerprint).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count searches: %w", err)
	}
	return n, nil
}

// Count returns the number of stored records.
func (h *HistoryDB) Count(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM searches").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count searches: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*model.SearchRecord, error) {
	var rec model.SearchRecord
	var inputs, created string

	err := s.Scan(&rec.ID, &rec.RunID, &rec.Kind, &inputs, &rec.Raw, &rec.Fingerprint, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan search: %w", err)
	}

	if err := json.Unmarshal([]byte(inputs), &rec.Inputs); err != nil {
		return nil, fmt.Errorf("failed to parse inputs of run %s: %w", rec.RunID, err)
	}
	rec.CreatedAt = parseTimestamp(created)
	return &rec, nil
}

// storedTimeFormat is fixed-width UTC so created_at sorts as text.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimeFormat,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
