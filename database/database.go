package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfd/shelfd"
	"github.com/shelfd/shelfd/database/postgres"
	"github.com/shelfd/shelfd/database/sqlite"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config holds the configuration for connecting to a catalog backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string
	// DSN is the data source name (connection string)
	DSN string
	// Tables holds the catalog table names
	Tables shelfd.Tables
}

// Repos bundles the repositories a backend provides. Both interfaces are
// implemented by the same underlying store so they share one schema and one
// connection pool.
type Repos struct {
	Catalog shelfd.CatalogRepo
	Users   shelfd.UserRepo
}

// Connect establishes a connection to the configured database backend,
// runs migrations, validates the schema, and returns the repositories.
// The returned cleanup function should be called to close the connection.
func Connect(ctx context.Context, cfg Config) (Repos, func(), error) {
	if err := cfg.Tables.Validate(); err != nil {
		return Repos{}, nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		return connectSQLite(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		return connectPostgres(ctx, cfg.DSN, cfg.Tables)
	default:
		return Repos{}, nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

func connectSQLite(ctx context.Context, dsn string, tables shelfd.Tables) (Repos, func(), error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return Repos{}, nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return Repos{}, nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err = sqlite.Migrate(ctx, db, tables); err != nil {
		_ = db.Close()
		return Repos{}, nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	if err = sqlite.ValidateSchema(ctx, db, tables); err != nil {
		_ = db.Close()
		return Repos{}, nil, fmt.Errorf("validate sqlite schema: %w", err)
	}

	repo, err := sqlite.NewRepo(db, tables)
	if err != nil {
		_ = db.Close()
		return Repos{}, nil, fmt.Errorf("create sqlite repo: %w", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return Repos{Catalog: repo, Users: repo}, cleanup, nil
}

func connectPostgres(ctx context.Context, dsn string, tables shelfd.Tables) (Repos, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return Repos{}, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return Repos{}, nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err = postgres.Migrate(ctx, pool, tables); err != nil {
		pool.Close()
		return Repos{}, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	if err = postgres.ValidateSchema(ctx, pool, tables); err != nil {
		pool.Close()
		return Repos{}, nil, fmt.Errorf("validate postgres schema: %w", err)
	}

	repo, err := postgres.NewRepo(pool, tables)
	if err != nil {
		pool.Close()
		return Repos{}, nil, fmt.Errorf("create postgres repo: %w", err)
	}

	return Repos{Catalog: repo, Users: repo}, pool.Close, nil
}
