package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	_ "modernc.org/sqlite"

	"MarketWorkbook/internal/model"
)

// SQLiteRecorder persists export runs to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger arbor.ILogger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger arbor.ILogger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the HTTP status reads proceed while a scheduled run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("SQLite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS export_runs (
			id           TEXT PRIMARY KEY,
			started_at   INTEGER NOT NULL,
			duration_ms  INTEGER,
			triggered_by TEXT NOT NULL,
			mode         TEXT NOT NULL,
			group_count  INTEGER,
			sheet_count  INTEGER,
			row_count    INTEGER,
			filename     TEXT,
			destination  TEXT,
			exported     INTEGER,
			error        TEXT,
			notices      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON export_runs(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun inserts run, assigning an ID when it has none.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *model.ExportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	exported := 0
	if run.Exported {
		exported = 1
	}
	notices, err := encodeNotices(run.Notices)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO export_runs
		(id, started_at, duration_ms, triggered_by, mode, group_count, sheet_count, row_count,
		 filename, destination, exported, error, notices)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.UnixMilli(), run.Duration.Milliseconds(),
		string(run.Trigger), run.Mode.String(), run.Groups, run.Sheets, run.Rows,
		run.Filename, run.Destination, exported, run.Err,
		notices,
	)
	return err
}

const selectRuns = `SELECT id, started_at, duration_ms, triggered_by, mode, group_count, sheet_count, row_count,
	filename, destination, exported, error, notices
	FROM export_runs ORDER BY started_at DESC LIMIT ?`

// LastRun returns the most recently started run.
func (r *SQLiteRecorder) LastRun(ctx context.Context) (*model.ExportRun, error) {
	runs, err := r.RecentRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return &runs[0], nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(ctx context.Context, limit int) ([]model.ExportRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, selectRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []model.ExportRun
	for rows.Next() {
		var (
			run              model.ExportRun
			startedMs, durMs int64
			trigger, mode    string
			exported         int
			errText, notices string
		)
		if err := rows.Scan(&run.ID, &startedMs, &durMs, &trigger, &mode,
			&run.Groups, &run.Sheets, &run.Rows, &run.Filename, &run.Destination,
			&exported, &errText, &notices); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		m, err := model.ParseMode(mode)
		if err != nil {
			return nil, err
		}
		run.Mode = m
		run.Trigger = model.Trigger(trigger)
		run.StartedAt = time.UnixMilli(startedMs)
		run.Duration = time.Duration(durMs) * time.Millisecond
		run.Exported = exported == 1
		run.Err = errText
		if run.Notices, err = decodeNotices(notices); err != nil {
			return nil, fmt.Errorf("run %s notices: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return runs, nil
}

// Notices are stored as a JSON array; a single notice may span lines.
func encodeNotices(notices []string) (string, error) {
	if len(notices) == 0 {
		return "", nil
	}
	b, err := json.Marshal(notices)
	if err != nil {
		return "", fmt.Errorf("encode notices: %w", err)
	}
	return string(b), nil
}

func decodeNotices(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var notices []string
	if err := json.Unmarshal([]byte(s), &notices); err != nil {
		return nil, err
	}
	return notices, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("Closing SQLite recorder")
	return r.db.Close()
}
