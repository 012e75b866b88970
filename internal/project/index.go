package project

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// sqliteIndex is a queryable projection over the saved project JSON
// files, rebuilt from disk on Open. The JSON files remain the source of
// truth — the index only exists so Store.List doesn't have to parse
// every project file on every call.
type sqliteIndex struct {
	db *sql.DB
}

func openIndex(path string) (*sqliteIndex, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite index %s: %w", path, err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			name          TEXT PRIMARY KEY,
			created       TEXT NOT NULL,
			last_modified TEXT NOT NULL,
			target_url    TEXT NOT NULL DEFAULT '',
			request_count INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_last_modified ON projects(last_modified);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating project index schema: %w", err)
	}
	return &sqliteIndex{db: db}, nil
}

// indexTimeLayout is fixed-width (RFC3339Nano trims trailing zeros), so
// the TEXT columns sort in time order for ORDER BY last_modified.
const indexTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (idx *sqliteIndex) upsert(s Summary) {
	idx.db.Exec(
		`INSERT INTO projects (name, created, last_modified, target_url, request_count)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			last_modified=excluded.last_modified,
			target_url=excluded.target_url,
			request_count=excluded.request_count`,
		s.Name, s.Created.UTC().Format(indexTimeLayout), s.LastModified.UTC().Format(indexTimeLayout),
		s.TargetURL, s.RequestCount,
	)
}

func (idx *sqliteIndex) remove(name string) {
	idx.db.Exec(`DELETE FROM projects WHERE name = ?`, name)
}

func (idx *sqliteIndex) list() ([]Summary, error) {
	rows, err := idx.db.Query(
		`SELECT name, created, last_modified, target_url, request_count
		 FROM projects ORDER BY last_modified DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying project index: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var created, modified string
		if err := rows.Scan(&s.Name, &created, &modified, &s.TargetURL, &s.RequestCount); err != nil {
			return nil, fmt.Errorf("scanning project index row: %w", err)
		}
		s.Created, _ = time.Parse(time.RFC3339Nano, created)
		s.LastModified, _ = time.Parse(time.RFC3339Nano, modified)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (idx *sqliteIndex) close() error {
	return idx.db.Close()
}
