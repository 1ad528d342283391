package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfd/shelfd"
)

// quoteIdentifier safely quotes a PostgreSQL identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, pool *pgxpool.Pool) error
	Down      func(ctx context.Context, pool *pgxpool.Pool) error
}

// getTableMigrations returns all table migrations for the app.
// Order matters: authors must exist before books reference them.
func getTableMigrations(tables shelfd.Tables) []TableMigration {
	migrations := []TableMigration{}

	migrations = append(migrations, TableMigration{
		TableName: tables.Authors,
		Up:        createAuthorsTable(tables.Authors),
		Down:      dropTable(tables.Authors),
	})

	migrations = append(migrations, TableMigration{
		TableName: tables.Books,
		Up:        createBooksTable(tables.Books, tables.Authors),
		Down:      dropTable(tables.Books),
	})

	migrations = append(migrations, TableMigration{
		TableName: tables.Users,
		Up:        createUsersTable(tables.Users),
		Down:      dropTable(tables.Users),
	})

	return migrations
}

func Migrate(ctx context.Context, pool *pgxpool.Pool, tables shelfd.Tables) error {
	migrations := getTableMigrations(tables)

	for _, migration := range migrations {
		if err := migration.Up(ctx, pool); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func DropTables(ctx context.Context, pool *pgxpool.Pool, tables shelfd.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, pool); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createAuthorsTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := quoteIdentifier(tableName)
		indexName := quoteIdentifier(fmt.Sprintf("idx_%s_name", tableName))

		// No unique index on (name, nationality): concurrent find-or-create
		// may race and duplicate an author, matching the inherited behavior.
		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
				name TEXT NOT NULL,
				nationality TEXT
			)
		`, quotedTable)

		if _, err := pool.Exec(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (name, nationality)
		`, indexName, quotedTable)

		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index name: %w", err)
		}

		return nil
	}
}

func createBooksTable(tableName, authorsTable string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := quoteIdentifier(tableName)
		indexAuthorID := quoteIdentifier(fmt.Sprintf("idx_%s_author_id", tableName))
		indexType := quoteIdentifier(fmt.Sprintf("idx_%s_type", tableName))
		indexName := quoteIdentifier(fmt.Sprintf("idx_%s_name", tableName))

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
				name TEXT NOT NULL,
				isbn TEXT NOT NULL,
				type TEXT NOT NULL,
				publish TEXT NOT NULL,
				price DOUBLE PRECISION NOT NULL,
				author_id BIGINT NOT NULL REFERENCES %s (id)
			)
		`, quotedTable, quoteIdentifier(authorsTable))

		if _, err := pool.Exec(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (author_id)
		`, indexAuthorID, quotedTable)

		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index author_id: %w", err)
		}

		indexSQL = fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (type)
		`, indexType, quotedTable)

		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index type: %w", err)
		}

		indexSQL = fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (name)
		`, indexName, quotedTable)

		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index name: %w", err)
		}

		return nil
	}
}

func createUsersTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := quoteIdentifier(tableName)

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL
			)
		`, quotedTable)

		if _, err := pool.Exec(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := quoteIdentifier(tableName)
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)

		_, err := pool.Exec(ctx, dropSQL)
		return err
	}
}
