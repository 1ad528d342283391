package postgres_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/shelfd/shelfd"
	"github.com/shelfd/shelfd/database/postgres"
)

var (
	testPool     *pgxpool.Pool
	testPoolOnce sync.Once
)

// getSharedTestDatabase returns a shared database pool for all tests.
// Tests isolate themselves with unique table names, so one container is
// enough for the whole package.
func getSharedTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testPoolOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}

		cleanup := func() {
			if testPool != nil {
				testPool.Close()
			}
			if err := testcontainers.TerminateContainer(pgContainer); err != nil {
				t.Logf("failed to terminate container: %s", err)
			}
		}

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			cleanup()
			t.Fatalf("failed to get connection string: %v", err)
		}

		pool, err := pgxpool.New(ctx, connectionStr)
		if err != nil {
			cleanup()
			t.Fatalf("could not connect to database: %v", err)
		}

		testPool = pool
	})

	return testPool
}

// getRandomString generates a random string for unique test identifiers.
func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

func testTables(t *testing.T) shelfd.Tables {
	t.Helper()
	suffix := getRandomString(t)
	return shelfd.Tables{
		Authors: fmt.Sprintf("authors_%s", suffix),
		Books:   fmt.Sprintf("books_%s", suffix),
		Users:   fmt.Sprintf("users_%s", suffix),
	}
}

// setupTestRepo creates a repo with unique table names on the shared pool.
func setupTestRepo(t *testing.T) (*postgres.Repo, func()) {
	t.Helper()

	ctx := context.Background()
	pool := getSharedTestDatabase(t)
	tables := testTables(t)

	err := postgres.Migrate(ctx, pool, tables)
	require.NoError(t, err, "failed to migrate")

	repo, err := postgres.NewRepo(pool, tables)
	require.NoError(t, err, "failed to create repo")

	cleanup := func() {
		_ = postgres.DropTables(context.Background(), pool, tables)
	}

	return repo, cleanup
}

func strPtr(s string) *string {
	return &s
}

func sampleBookInput() shelfd.BookInput {
	return shelfd.BookInput{
		BookAttrs: shelfd.BookAttrs{
			Name:    "Dune",
			ISBN:    "9780441172719",
			Type:    "fiction",
			Publish: "1965-08-01",
			Price:   9.99,
		},
		Author:            "Frank Herbert",
		AuthorNationality: strPtr("American"),
	}
}
