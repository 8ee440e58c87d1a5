package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"brandkit/internal/domain"

	_ "modernc.org/sqlite"
)

// Store is the asset ledger: one row per command run and one per file the
// run wrote, so later runs can tell which assets changed on disk.
type Store struct {
	db *sql.DB
}

type Run struct {
	RunID      int64
	Command    string
	StartedAt  int64
	FinishedAt int64
	Status     string
	Error      string
	Assets     int
}

const (
	RunRunning = "running"
	RunOK      = "ok"
	RunFailed  = "failed"
)

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is required")
	}
	db, err := sql.Open("sqlite", filepath.Clean(dbPath))
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection; the ledger is used by one command at a time.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, pragma := range []string{
		`PRAGMA foreign_keys = ON;`,
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id INTEGER PRIMARY KEY AUTOINCREMENT,
	command TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'running',
	error TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS assets (
	asset_id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL,
	path TEXT NOT NULL,
	width INTEGER NOT NULL DEFAULT 0,
	height INTEGER NOT NULL DEFAULT 0,
	bytes INTEGER NOT NULL DEFAULT 0,
	sha256 TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_assets_path ON assets(path, asset_id);
CREATE INDEX IF NOT EXISTS idx_assets_run ON assets(run_id);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO settings(key, value) VALUES(?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value
`, key, value)
	return err
}

func (s *Store) GetSetting(ctx context.Context, key, defaultValue string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultValue, nil
	}
	return value, err
}

// BeginRun opens a run for command and returns its id.
func (s *Store) BeginRun(ctx context.Context, command string) (int64, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return 0, errors.New("command is required")
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO runs(command, started_at) VALUES(?, ?)`, command, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FinishRun closes a run. A nil runErr marks it ok.
func (s *Store) FinishRun(ctx context.Context, runID int64, runErr error) error {
	status, msg := RunOK, ""
	if runErr != nil {
		status, msg = RunFailed, runErr.Error()
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE runs SET finished_at = ?, status = ?, error = ?
WHERE run_id = ?
`, time.Now().Unix(), status, msg, runID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) RecordAsset(ctx context.Context, rec domain.AssetRecord) error {
	if rec.RunID <= 0 {
		return errors.New("run id is required")
	}
	if strings.TrimSpace(rec.Path) == "" {
		return errors.New("asset path is required")
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO assets(run_id, path, width, height, bytes, sha256, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?)
`, rec.RunID, filepath.ToSlash(rec.Path), rec.Width, rec.Height, rec.Bytes, rec.SHA256, rec.CreatedAt)
	return err
}

const assetColumns = `a.run_id, r.command, a.path, a.width, a.height, a.bytes, a.sha256, a.created_at`

func (s *Store) ListAssets(ctx context.Context, runID int64) ([]domain.AssetRecord, error) {
	return s.queryAssets(ctx, `
SELECT `+assetColumns+`
FROM assets a JOIN runs r ON r.run_id = a.run_id
WHERE a.run_id = ?
ORDER BY a.asset_id
`, runID)
}

// LatestAssets returns the most recent record for every path ever written.
func (s *Store) LatestAssets(ctx context.Context) ([]domain.AssetRecord, error) {
	return s.queryAssets(ctx, `
SELECT `+assetColumns+`
FROM assets a JOIN runs r ON r.run_id = a.run_id
WHERE a.asset_id = (SELECT MAX(b.asset_id) FROM assets b WHERE b.path = a.path)
ORDER BY a.path
`)
}

func (s *Store) queryAssets(ctx context.Context, query string, args ...any) ([]domain.AssetRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.AssetRecord, 0, 32)
	for rows.Next() {
		var rec domain.AssetRecord
		if err := rows.Scan(&rec.RunID, &rec.Command, &rec.Path, &rec.Width, &rec.Height, &rec.Bytes, &rec.SHA256, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListRuns returns the newest runs first with their asset counts.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT r.run_id, r.command, r.started_at, r.finished_at, r.status, r.error, COUNT(a.asset_id)
FROM runs r LEFT JOIN assets a ON a.run_id = r.run_id
GROUP BY r.run_id
ORDER BY r.run_id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.RunID, &run.Command, &run.StartedAt, &run.FinishedAt, &run.Status, &run.Error, &run.Assets); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Prune deletes runs older than the newest keep runs, with their assets.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		return 0, errors.New("keep must be at least 1")
	}
	res, err := s.db.ExecContext(ctx, `
DELETE FROM runs
WHERE run_id NOT IN (SELECT run_id FROM runs ORDER BY run_id DESC LIMIT ?)
`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Checkpoint(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE);`)
	return err
}
