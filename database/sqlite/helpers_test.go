package sqlite_test

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/shelfd/shelfd"
	"github.com/shelfd/shelfd/database/sqlite"
)

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

// setupTestRepo creates a repo backed by an in-memory database with unique
// table names for test isolation. The pool is pinned to a single connection
// so every statement sees the same in-memory database.
func setupTestRepo(t *testing.T) (*sqlite.Repo, func()) {
	t.Helper()

	ctx := context.Background()
	tables := testTables(t)

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "failed to open")
	db.SetMaxOpenConns(1)

	err = sqlite.Migrate(ctx, db, tables)
	require.NoError(t, err, "failed to migrate")

	repo, err := sqlite.NewRepo(db, tables)
	require.NoError(t, err, "failed to create repo")

	cleanup := func() {
		_ = db.Close()
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
