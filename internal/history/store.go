package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"pykit/internal/config"
)

// Statuses recorded for a run.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Record is one tool run.
type Record struct {
	ID         int64
	RunID      string
	Tool       string
	Target     string
	OutputPath string
	Status     string
	Detail     string
	CreatedAt  time.Time
}

// Store manages run-history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) applySchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT NOT NULL,
    tool        TEXT NOT NULL,
    target      TEXT NOT NULL,
    output_path TEXT,
    status      TEXT NOT NULL,
    detail      TEXT,
    created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_tool ON runs(tool);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Add inserts a new run record and returns it with its assigned IDs.
func (s *Store) Add(ctx context.Context, tool, target, outputPath, status, detail string) (*Record, error) {
	record := &Record{
		RunID:      uuid.NewString(),
		Tool:       tool,
		Target:     target,
		OutputPath: outputPath,
		Status:     status,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (run_id, tool, target, output_path, status, detail, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.Tool,
		record.Target,
		nullableString(record.OutputPath),
		record.Status,
		nullableString(record.Detail),
		record.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	record.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return record, nil
}

// List returns the most recent runs, newest first. A non-empty tool filters by
// tool name; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, tool string, limit int) ([]Record, error) {
	query := `SELECT id, run_id, tool, target, output_path, status, detail, created_at
              FROM runs`
	args := []any{}
	if tool != "" {
		query += " WHERE tool = ?"
		args = append(args, tool)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		var outputPath, detail sql.NullString
		var createdAt string
		if err := rows.Scan(&record.ID, &record.RunID, &record.Tool, &record.Target, &outputPath, &record.Status, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		record.OutputPath = outputPath.String
		record.Detail = detail.String
		if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			record.CreatedAt = parsed
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Prune deletes records older than the retention window and returns how many
// were removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
