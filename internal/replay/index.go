package replay

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/oimasterkafuu/checkmate/internal/protocol"
)

// Index lists saved replays. It is a SQLite table next to the replay files.
type Index struct {
	db *sql.DB
}

func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty index path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS replays (
			id TEXT PRIMARY KEY,
			time INTEGER NOT NULL,
			rank_json TEXT NOT NULL,
			turn INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS replays_time ON replays(time DESC);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Add records a saved replay. Saving the same content twice keeps the
// newest time.
func (ix *Index) Add(ctx context.Context, item protocol.ListItem) error {
	rank, err := json.Marshal(item.Rank)
	if err != nil {
		return err
	}
	_, err = ix.db.ExecContext(ctx,
		`INSERT INTO replays(id, time, rank_json, turn) VALUES(?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET time=excluded.time, rank_json=excluded.rank_json, turn=excluded.turn`,
		item.ID, item.Time, string(rank), item.Turn)
	return err
}

// List returns every indexed replay, newest first.
func (ix *Index) List(ctx context.Context) ([]protocol.ListItem, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT id, time, rank_json, turn FROM replays ORDER BY time DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]protocol.ListItem, 0)
	for rows.Next() {
		var (
			it   protocol.ListItem
			rank string
		)
		if err := rows.Scan(&it.ID, &it.Time, &rank, &it.Turn); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rank), &it.Rank); err != nil {
			return nil, fmt.Errorf("replay %s: rank: %w", it.ID, err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (ix *Index) Close() error {
	if ix == nil || ix.db == nil {
		return nil
	}
	return ix.db.Close()
}
