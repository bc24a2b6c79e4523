package sqlitecache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// DB is a SQLite-backed HTTP response cache keyed by request URL.
type DB struct {
	sql *sql.DB
	now func() time.Time
}

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases shared across calls.
	d.SetMaxOpenConns(1)
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d, now: time.Now}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS responses (
	  key TEXT PRIMARY KEY,
	  fetched_at INTEGER NOT NULL,
	  body BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_responses_fetched ON responses(fetched_at);
	`)
	return err
}

// Get returns the body stored under key if it is younger than ttl.
// A ttl of zero or less never matches.
func (d *DB) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error) {
	if ttl <= 0 {
		return nil, false, nil
	}
	var body []byte
	var fetched int64
	err := d.sql.QueryRowContext(ctx, `SELECT body, fetched_at FROM responses WHERE key=?`, key).Scan(&body, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if d.now().Sub(time.Unix(fetched, 0)) >= ttl {
		return nil, false, nil
	}
	return body, true, nil
}

// Put stores body under key, replacing any previous entry.
func (d *DB) Put(ctx context.Context, key string, body []byte) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO responses(key, fetched_at, body) VALUES(?,?,?)
		 ON CONFLICT(key) DO UPDATE SET fetched_at=excluded.fetched_at, body=excluded.body`,
		key, d.now().Unix(), body)
	return err
}

// Purge deletes entries fetched before cutoff and returns how many were removed.
func (d *DB) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := d.sql.ExecContext(ctx, `DELETE FROM responses WHERE fetched_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of cached responses.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses`).Scan(&n)
	return n, err
}
