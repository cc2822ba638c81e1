package mail

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ThreadCache persists fetched threads keyed by thread ID. A cached row
// is only served when its history ID still matches the listing, so any
// new message in the thread forces a refetch.
type ThreadCache struct {
	db   *sql.DB
	path string
}

// OpenThreadCache initializes or connects to the cache database.
func OpenThreadCache(path string) (*ThreadCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS threads (
        id TEXT PRIMARY KEY,
        history_id TEXT NOT NULL,
        subject TEXT NOT NULL,
        date TEXT NOT NULL,
        body TEXT NOT NULL,
        message_count INTEGER NOT NULL,
        cached_at TEXT NOT NULL
    )`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create threads table: %w", err)
	}

	return &ThreadCache{db: db, path: path}, nil
}

// Get looks up a thread by ID. The second return is false on a miss or
// when the stored history ID no longer matches.
func (c *ThreadCache) Get(ctx context.Context, id, historyID string) (Thread, bool, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT history_id, subject, date, body, message_count FROM threads WHERE id = ?`, id)

	var storedHistory string
	thread := Thread{ID: id}
	err := row.Scan(&storedHistory, &thread.Subject, &thread.Date, &thread.Body, &thread.MessageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Thread{}, false, nil
	}
	if err != nil {
		return Thread{}, false, fmt.Errorf("read cached thread: %w", err)
	}
	if storedHistory != historyID {
		return Thread{}, false, nil
	}
	return thread, true, nil
}

// Put stores or refreshes a thread under its current history ID.
func (c *ThreadCache) Put(ctx context.Context, thread Thread, historyID string) error {
	if thread.ID == "" {
		return errors.New("thread ID cannot be empty")
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO threads (id, history_id, subject, date, body, message_count, cached_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             history_id = excluded.history_id,
             subject = excluded.subject,
             date = excluded.date,
             body = excluded.body,
             message_count = excluded.message_count,
             cached_at = excluded.cached_at`,
		thread.ID, historyID, thread.Subject, thread.Date, thread.Body,
		thread.MessageCount, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store cached thread: %w", err)
	}
	return nil
}

// Count returns the number of cached threads.
func (c *ThreadCache) Count(ctx context.Context) (int, error) {
	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM threads`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cached threads: %w", err)
	}
	return count, nil
}

// Close closes the underlying database connection.
func (c *ThreadCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
