package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/heatgraph/internal/model"
)

// FileName is the database file created inside the directory given to Open.
const FileName = "heatgraph.db"

// minIDPrefix is the shortest ID prefix GetRun accepts.
const minIDPrefix = 4

// storedTimeFormat is fixed-width so that started_at sorts as text.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

var (
	// ErrRunNotFound is returned when no stored run matches an ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrAmbiguousID is returned when an ID prefix matches several runs.
	ErrAmbiguousID = errors.New("run id prefix is ambiguous")
)

// RunDB provides SQLite-based storage for run reports.
type RunDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
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

	// mode=rw refuses to create a missing file; mode=rwc allows it.
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

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

func (rdb *RunDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		started_at TEXT NOT NULL,
		elapsed_ns INTEGER NOT NULL DEFAULT 0,
		fan_out INTEGER NOT NULL DEFAULT 0,
		workers INTEGER NOT NULL DEFAULT 0,
		inserted INTEGER NOT NULL DEFAULT 0,
		duplicates INTEGER NOT NULL DEFAULT 0,
		lost_keys INTEGER NOT NULL DEFAULT 0,
		reforms INTEGER NOT NULL DEFAULT 0,
		size INTEGER NOT NULL DEFAULT 0,
		depth INTEGER NOT NULL DEFAULT 0,
		digest TEXT,
		error TEXT,
		report_json TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(digest);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	ID         string
	Kind       model.RunKind
	StartedAt  time.Time
	Elapsed    time.Duration
	FanOut     int
	Workers    int
	Inserted   int
	Duplicates int
	LostKeys   int
	Reforms    int64
	Size       int
	Depth      int
	Digest     string
	Error      string
}

// SaveRun stores a finished report.
func (rdb *RunDB) SaveRun(ctx context.Context, report *model.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO runs (
		id, kind, started_at, elapsed_ns, fan_out, workers, inserted, duplicates,
		lost_keys, reforms, size, depth, digest, error, report_json
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = rdb.db.ExecContext(ctx, query,
		report.ID,
		report.Kind.String(),
		report.StartedAt.UTC().Format(storedTimeFormat),
		int64(report.Elapsed),
		report.FanOut,
		report.Workers,
		report.Inserted,
		report.Duplicates,
		report.LostKeys,
		report.Reforms,
		report.Size,
		report.Depth,
		report.Digest,
		report.ErrorMessage,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", report.ID, err)
	}

	return nil
}

const summaryColumns = `id, kind, started_at, elapsed_ns, fan_out, workers, inserted, duplicates,
	lost_keys, reforms, size, depth, digest, error`

// ListRuns returns the newest runs first. A limit of zero or less returns all runs.
func (rdb *RunDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return rdb.querySummaries(ctx, query, args...)
}

// FindByDigest returns the runs that left their cache with the given
// traversal digest, newest first.
func (rdb *RunDB) FindByDigest(ctx context.Context, digest string) ([]RunSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM runs WHERE digest = ? ORDER BY started_at DESC`
	return rdb.querySummaries(ctx, query, digest)
}

func (rdb *RunDB) querySummaries(ctx context.Context, query string, args ...any) ([]RunSummary, error) {
	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var s RunSummary
		var kind, startedAt string
		var elapsed int64
		var digest, errMsg sql.NullString

		if err := rows.Scan(
			&s.ID, &kind, &startedAt, &elapsed, &s.FanOut, &s.Workers, &s.Inserted,
			&s.Duplicates, &s.LostKeys, &s.Reforms, &s.Size, &s.Depth, &digest, &errMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		// Unknown kinds come from newer versions; list them as dedupe
		// rather than failing the whole listing.
		s.Kind, _ = model.ParseRunKind(kind) //nolint:errcheck // zero value is the fallback
		s.StartedAt = parseTimestamp(startedAt)
		s.Elapsed = time.Duration(elapsed)
		s.Digest = digest.String
		s.Error = errMsg.String

		results = append(results, s)
	}

	return results, rows.Err()
}

// GetRun retrieves a full report by ID or by a unique ID prefix of at
// least four characters.
func (rdb *RunDB) GetRun(ctx context.Context, id string) (*model.RunReport, error) {
	var reportJSON string
	err := rdb.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		reportJSON, err = rdb.getRunByPrefix(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	if report.ErrorMessage != "" {
		report.Error = errors.New(report.ErrorMessage)
	}

	return &report, nil
}

func (rdb *RunDB) getRunByPrefix(ctx context.Context, prefix string) (string, error) {
	if len(prefix) < minIDPrefix {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	}

	rows, err := rdb.db.QueryContext(ctx,
		`SELECT report_json FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`,
		len(prefix), prefix,
	)
	if err != nil {
		return "", fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return "", fmt.Errorf("failed to scan run: %w", err)
		}
		matches = append(matches, reportJSON)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to get run: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
	}
}

// DeleteRun removes a stored run. Deleting an unknown ID is not an error.
func (rdb *RunDB) DeleteRun(ctx context.Context, id string) error {
	if _, err := rdb.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	return nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimeFormat,          // written by SaveRun
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp tries each known format and returns the zero time when
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
