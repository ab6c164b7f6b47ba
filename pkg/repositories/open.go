package repositories

import (
	"context"
	"fmt"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type OpenOptions struct {
	Driver    string
	DSN       string
	Namespace string
}

// Open returns the repository selected by opts.Driver.
func Open(ctx context.Context, opts OpenOptions) (Repository, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		repo, err := NewSQLiteRepository(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case DriverPostgres:
		repo, err := NewPostgresRepository(ctx, NewPostgresRepositoryOptions{
			ConnString: opts.DSN,
			Namespace:  opts.Namespace,
		})
		if err != nil {
			return nil, err
		}
		return repo, nil
	case DriverMemory:
		return NewInMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", opts.Driver)
	}
}
