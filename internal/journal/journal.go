// Package journal keeps an append-only SQLite record of credential acquisition outcomes.
// Tokens are never written.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jmylchreest/lnp-scraper/internal/models"
)

// Journal is the SQLite-backed capture journal.
type Journal struct {
	db       *sql.DB
	logger   *slog.Logger
	isMemory bool
}

// Open creates or opens the journal at path (":memory:" for a process-local journal).
func Open(path string, logger *slog.Logger) (*Journal, error) {
	var connStr string
	isMemory := path == ":memory:"

	if isMemory {
		// A single pooled connection keeps the in-memory database alive
		connStr = "file::memory:?_pragma=busy_timeout(5000)"
	} else {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create directory: %w", err)
			}
		}
		connStr = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	j := &Journal{
		db:       db,
		logger:   logger,
		isMemory: isMemory,
	}

	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("capture journal initialized", "path", path, "in_memory", isMemory)
	return j, nil
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS captures (
		id TEXT PRIMARY KEY,
		partition TEXT NOT NULL,
		outcome TEXT NOT NULL,
		forced INTEGER NOT NULL DEFAULT 0,
		generation INTEGER NOT NULL DEFAULT 0,
		attempt INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		source_url TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_captures_partition_created ON captures(partition, created_at);
	CREATE INDEX IF NOT EXISTS idx_captures_created ON captures(created_at);
	`

	_, err := j.db.Exec(schema)
	return err
}

// Record appends one outcome. ID and CreatedAt are filled in when empty.
func (j *Journal) Record(ctx context.Context, rec models.CaptureRecord) error {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().UnixMilli()
	}

	_, err := j.db.ExecContext(ctx, `
	INSERT INTO captures (id, partition, outcome, forced, generation, attempt, duration_ms, source_url, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		string(rec.Partition),
		rec.Outcome,
		rec.Forced,
		rec.Generation,
		rec.Attempt,
		rec.DurationMs,
		rec.SourceURL,
		rec.Error,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record capture: %w", err)
	}

	j.logger.Debug("capture journaled", "id", rec.ID, "partition", rec.Partition, "outcome", rec.Outcome)
	return nil
}

// Recent returns up to limit records, newest first. An empty partition means all.
func (j *Journal) Recent(ctx context.Context, partition models.Partition, limit int) ([]models.CaptureRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, partition, outcome, forced, generation, attempt, duration_ms, source_url, error, created_at
	FROM captures`
	args := []any{}
	if partition != "" {
		query += ` WHERE partition = ?`
		args = append(args, string(partition))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list captures: %w", err)
	}
	defer rows.Close()

	records := make([]models.CaptureRecord, 0, limit)
	for rows.Next() {
		var rec models.CaptureRecord
		var p string
		if err := rows.Scan(
			&rec.ID,
			&p,
			&rec.Outcome,
			&rec.Forced,
			&rec.Generation,
			&rec.Attempt,
			&rec.DurationMs,
			&rec.SourceURL,
			&rec.Error,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		rec.Partition = models.Partition(p)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Prune removes records created before threshold.
// If rows were deleted, also vacuums the database to reclaim space.
func (j *Journal) Prune(ctx context.Context, threshold time.Time) (int64, error) {
	result, err := j.db.ExecContext(ctx, "DELETE FROM captures WHERE created_at < ?", threshold.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune captures: %w", err)
	}

	count, _ := result.RowsAffected()
	if count > 0 {
		j.logger.Info("pruned capture journal", "count", count)
		if _, err := j.db.ExecContext(ctx, "VACUUM"); err != nil {
			j.logger.Warn("failed to vacuum after prune", "error", err)
		}
	}
	return count, nil
}

// RunPruner prunes records older than retention every interval until ctx is done.
func (j *Journal) RunPruner(ctx context.Context, retention, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.Prune(ctx, time.Now().Add(-retention)); err != nil {
				j.logger.Warn("capture journal prune failed", "error", err)
			}
		}
	}
}

// Close closes the database, checkpointing the WAL first for file-backed journals.
func (j *Journal) Close() error {
	if !j.isMemory {
		if _, err := j.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			j.logger.Warn("failed to checkpoint WAL before close", "error", err)
		}
	}
	return j.db.Close()
}
