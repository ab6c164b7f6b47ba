package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at path, creating its directory
// when needed, and applies the embedded migrations.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	// a single connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	scripts, err := migrationScripts("sqlite")
	if err != nil {
		db.Close()
		return nil, err
	}
	for i, migration := range scripts {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute migration %d: %v", i+1, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) Load(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value FROM info;")
	if err != nil {
		return nil, &ErrStore{Op: "load", Err: err}
	}
	defer rows.Close()

	values := make(map[string]json.RawMessage)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, &ErrStore{Op: "load", Err: fmt.Errorf("failed to scan row: %v", err)}
		}
		if value.Valid {
			values[key] = json.RawMessage(value.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &ErrStore{Op: "load", Err: err}
	}

	return values, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, key string, value json.RawMessage) error {
	q := `
	INSERT OR REPLACE INTO info (key, value)
	VALUES (?, ?);
	`
	if _, err := r.db.ExecContext(ctx, q, key, string(normalize(value))); err != nil {
		return &ErrStore{Op: "save " + key, Err: err}
	}
	return nil
}
