package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cbodonnell/reactions/pkg/log"
	"github.com/jackc/pgx/v5"
)

// PostgresRepository stores client state in a shared database. Several
// installs can share one database, each under its own namespace.
type PostgresRepository struct {
	conn      *pgx.Conn
	namespace string
}

type NewPostgresRepositoryOptions struct {
	ConnString string
	Namespace  string
}

// NewPostgresRepository connects to the database and applies the embedded
// migrations. The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, opts NewPostgresRepositoryOptions) (*PostgresRepository, error) {
	if opts.Namespace == "" {
		opts.Namespace = "default"
	}

	conn, err := connectDb(ctx, opts.ConnString)
	if err != nil {
		return nil, err
	}

	scripts, err := migrationScripts("postgres")
	if err != nil {
		conn.Close(ctx)
		return nil, err
	}
	for i, migration := range scripts {
		if _, err := conn.Exec(ctx, migration); err != nil {
			conn.Close(ctx)
			return nil, fmt.Errorf("failed to execute migration %d: %v", i+1, err)
		}
	}

	return &PostgresRepository{
		conn:      conn,
		namespace: opts.Namespace,
	}, nil
}

func connectDb(ctx context.Context, connStr string) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	var username string
	var database string
	err = conn.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("unable to query database: %v", err)
	}

	log.Info("Connected to %s as %s", database, username)

	return conn, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) Load(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := r.conn.Query(ctx, "SELECT key, value FROM client_state WHERE namespace = $1", r.namespace)
	if err != nil {
		return nil, &ErrStore{Op: "load", Err: err}
	}
	defer rows.Close()

	values := make(map[string]json.RawMessage)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, &ErrStore{Op: "load", Err: fmt.Errorf("failed to scan row: %v", err)}
		}
		if value != nil {
			values[key] = json.RawMessage(value)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &ErrStore{Op: "load", Err: err}
	}

	return values, nil
}

func (r *PostgresRepository) Save(ctx context.Context, key string, value json.RawMessage) error {
	q := `
	INSERT INTO client_state (namespace, key, value, updated_at) VALUES ($1, $2, $3, $4)
	ON CONFLICT (namespace, key) DO UPDATE SET value = $3, updated_at = $4;
	`
	_, err := r.conn.Exec(ctx, q, r.namespace, key, string(normalize(value)), time.Now().UnixMilli())
	if err != nil {
		return &ErrStore{Op: "save " + key, Err: err}
	}
	return nil
}
