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

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/a11yscan/internal/model"
)

// FileName is the database file created inside the history directory.
const FileName = "a11yscan.db"

// timeLayout is a fixed-width UTC layout so that stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// HistoryDB provides SQLite-based storage for audit runs.
type HistoryDB struct {
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
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
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	dsn := dbPath + "?mode=rw&_pragma=foreign_keys(1)"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
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
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		started_at TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		checkers TEXT,
		documents INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		high INTEGER NOT NULL DEFAULT 0,
		medium INTEGER NOT NULL DEFAULT 0,
		low INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		source TEXT NOT NULL,
		hash TEXT,
		status_code INTEGER,
		incidences INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_documents_run ON documents(run_id);
	CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(hash);

	CREATE TABLE IF NOT EXISTS incidences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		source TEXT NOT NULL,
		checker TEXT NOT NULL,
		title TEXT NOT NULL,
		category TEXT,
		severity TEXT,
		wcag TEXT,
		fingerprint TEXT NOT NULL,
		incidence_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_incidences_run ON incidences(run_id);
	CREATE INDEX IF NOT EXISTS idx_incidences_fingerprint ON incidences(fingerprint);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores run with its documents and incidences in one transaction.
// A run without an ID gets a new UUID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	checkersJSON, err := json.Marshal(run.Checkers)
	if err != nil {
		return fmt.Errorf("failed to serialize checkers: %w", err)
	}

	summary := run.Summary()

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, target, started_at, elapsed_ms, checkers, documents, failed, high, medium, low)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Target,
		run.StartedAt.UTC().Format(timeLayout),
		run.Elapsed.Milliseconds(),
		string(checkersJSON),
		summary.Documents,
		len(summary.FailedDocuments),
		summary.HighCount,
		summary.MediumCount,
		summary.LowCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, d := range run.Documents {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO documents (run_id, position, source, hash, status_code, incidences, elapsed_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, i, d.Source, d.Hash, d.StatusCode, d.Incidences, d.Elapsed.Milliseconds(), d.Error)
		if err != nil {
			return fmt.Errorf("failed to insert document %s: %w", d.Source, err)
		}
	}

	for i, inc := range run.Incidences {
		data, err := json.Marshal(inc)
		if err != nil {
			return fmt.Errorf("failed to serialize incidence: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO incidences (run_id, position, source, checker, title, category, severity, wcag, fingerprint, incidence_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, i, inc.Source, inc.Checker, inc.Title, string(inc.Category),
			inc.Severity.String(), inc.Criterion(), inc.Fingerprint(), string(data),
		)
		if err != nil {
			return fmt.Errorf("failed to insert incidence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// ListRuns returns run metadata, newest first. An empty target lists all runs.
func (hdb *HistoryDB) ListRuns(ctx context.Context, target string) ([]RunMetadata, error) {
	return hdb.listRuns(ctx, target, -1)
}

func (hdb *HistoryDB) listRuns(ctx context.Context, target string, limit int) ([]RunMetadata, error) {
	query := `
	SELECT id, target, started_at, elapsed_ms, documents, failed, high, medium, low
	FROM runs
	WHERE 1=1
	`
	args := make([]any, 0)
	if target != "" {
		query += " AND target = ?"
		args = append(args, target)
	}
	query += " ORDER BY started_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	results := make([]RunMetadata, 0)
	for rows.Next() {
		var meta RunMetadata
		var started string
		var elapsedMS int64
		if err := rows.Scan(
			&meta.ID, &meta.Target, &started, &elapsedMS, &meta.Documents,
			&meta.Failed, &meta.HighCount, &meta.MediumCount, &meta.LowCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.StartedAt = parseTimestamp(started)
		meta.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		results = append(results, meta)
	}
	return results, rows.Err()
}

// GetRun loads a run with its documents and incidences. It returns nil
// without error when no run has the id.
func (hdb *HistoryDB) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	var started, checkersJSON string
	var elapsedMS int64

	err := hdb.db.QueryRowContext(ctx, `
	SELECT id, target, started_at, elapsed_ms, COALESCE(checkers, '')
	FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Target, &started, &elapsedMS, &checkersJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	run.StartedAt = parseTimestamp(started)
	run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	if checkersJSON != "" {
		if err := json.Unmarshal([]byte(checkersJSON), &run.Checkers); err != nil {
			return nil, fmt.Errorf("failed to parse checkers: %w", err)
		}
	}

	if run.Documents, err = hdb.documents(ctx, id); err != nil {
		return nil, err
	}
	if run.Incidences, err = hdb.incidences(ctx, id); err != nil {
		return nil, err
	}
	return &run, nil
}

func (hdb *HistoryDB) documents(ctx context.Context, runID string) ([]Document, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT source, COALESCE(hash, ''), COALESCE(status_code, 0), incidences, elapsed_ms, COALESCE(error, '')
	FROM documents WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var d Document
		var elapsedMS int64
		if err := rows.Scan(&d.Source, &d.Hash, &d.StatusCode, &d.Incidences, &elapsedMS, &d.Error); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (hdb *HistoryDB) incidences(ctx context.Context, runID string) ([]model.Incidence, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT incidence_json FROM incidences WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get incidences: %w", err)
	}
	defer rows.Close()

	incidences := make([]model.Incidence, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan incidence: %w", err)
		}
		var inc model.Incidence
		if err := json.Unmarshal([]byte(data), &inc); err != nil {
			continue // Skip malformed rows
		}
		incidences = append(incidences, inc)
	}
	return incidences, rows.Err()
}

// LatestRuns loads the n most recent runs of target, newest first.
func (hdb *HistoryDB) LatestRuns(ctx context.Context, target string, n int) ([]*Run, error) {
	metas, err := hdb.listRuns(ctx, target, n)
	if err != nil {
		return nil, err
	}
	runs := make([]*Run, 0, len(metas))
	for _, m := range metas {
		run, err := hdb.GetRun(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		if run != nil {
			runs = append(runs, run)
		}
	}
	return runs, nil
}

// DeleteRun removes a run and everything recorded for it.
func (hdb *HistoryDB) DeleteRun(ctx context.Context, id string) error {
	if _, err := hdb.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
var timestampFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses s with the known formats, returning the zero time
// when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
