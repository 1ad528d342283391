package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfd/shelfd"
)

func TestRepo_CreateBook(t *testing.T) {
	t.Run("creates book and author together", func(t *testing.T) {
		repo, cleanup := setupTestRepo(t)
		defer cleanup()
		ctx := context.Background()

		book, err := repo.CreateBook(ctx, sampleBookInput())
		require.NoError(t, err)

		assert.NotZero(t, book.ID)
		assert.Equal(t, "Dune", book.Name)
		assert.NotZero(t, book.AuthorID)

		author, err := repo.GetAuthor(ctx, book.AuthorID)
		require.NoError(t, err)
		assert.Equal(t, "Frank Herbert", author.Name)
	})

	t.Run("reuses author on exact name and nationality match", func(t *testing.T) {
		repo, cleanup := setupTestRepo(t)
		defer cleanup()
		ctx := context.Background()

		first, err := repo.CreateBook(ctx, sampleBookInput())
		require.NoError(t, err)

		second := sampleBookInput()
		second.Name = "Dune Messiah"
		got, err := repo.CreateBook(ctx, second)
		require.NoError(t, err)

		assert.Equal(t, first.AuthorID, got.AuthorID)

		authors, err := repo.ListAuthors(ctx)
		require.NoError(t, err)
		assert.Len(t, authors, 1)
	})

	t.Run("nil nationality does not match empty string", func(t *testing.T) {
		repo, cleanup := setupTestRepo(t)
		defer cleanup()
		ctx := context.Background()

		withEmpty := sampleBookInput()
		withEmpty.AuthorNationality = strPtr("")
		first, err := repo.CreateBook(ctx, withEmpty)
		require.NoError(t, err)

		withNil := sampleBookInput()
		withNil.Name = "Dune Messiah"
		withNil.AuthorNationality = nil
		second, err := repo.CreateBook(ctx, withNil)
		require.NoError(t, err)

		assert.NotEqual(t, first.AuthorID, second.AuthorID)
	})
}

func TestRepo_ListBooks(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	fiction, err := repo.CreateBook(ctx, sampleBookInput())
	require.NoError(t, err)

	science := sampleBookInput()
	science.Name = "Cosmos"
	science.Type = "science"
	science.Author = "Carl Sagan"
	_, err = repo.CreateBook(ctx, science)
	require.NoError(t, err)

	t.Run("no filter returns everything", func(t *testing.T) {
		books, err := repo.ListBooks(ctx, shelfd.BookFilter{})
		require.NoError(t, err)
		assert.Len(t, books, 2)
	})

	t.Run("filter by type", func(t *testing.T) {
		books, err := repo.ListBooks(ctx, shelfd.BookFilter{Type: strPtr("science")})
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "Cosmos", books[0].Name)
	})

	t.Run("filters combine with AND", func(t *testing.T) {
		books, err := repo.ListBooks(ctx, shelfd.BookFilter{ID: &fiction.ID, Type: strPtr("science")})
		require.NoError(t, err)
		assert.Empty(t, books)
	})
}

func TestRepo_UpdateBook(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	created, err := repo.CreateBook(ctx, sampleBookInput())
	require.NoError(t, err)

	t.Run("updates persisted row", func(t *testing.T) {
		update := sampleBookInput()
		update.Price = 12.50
		got, err := repo.UpdateBook(ctx, created.ID, update)
		require.NoError(t, err)

		assert.Equal(t, created.ID, got.ID)
		assert.InDelta(t, 12.50, got.Price, 0.001)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.UpdateBook(ctx, 9999, sampleBookInput())
		assert.ErrorIs(t, err, shelfd.ErrNotFound)
	})
}

func TestRepo_DeleteBook(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	created, err := repo.CreateBook(ctx, sampleBookInput())
	require.NoError(t, err)

	require.NoError(t, repo.DeleteBook(ctx, created.ID))

	_, err = repo.GetBook(ctx, created.ID)
	assert.ErrorIs(t, err, shelfd.ErrNotFound)

	err = repo.DeleteBook(ctx, created.ID)
	assert.ErrorIs(t, err, shelfd.ErrNotFound)
}

func TestRepo_DeleteAuthor(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	book, err := repo.CreateBook(ctx, sampleBookInput())
	require.NoError(t, err)

	t.Run("refused while books reference the author", func(t *testing.T) {
		err := repo.DeleteAuthor(ctx, book.AuthorID)
		assert.ErrorIs(t, err, shelfd.ErrConflict)
	})

	t.Run("allowed once the books are gone", func(t *testing.T) {
		require.NoError(t, repo.DeleteBook(ctx, book.ID))
		require.NoError(t, repo.DeleteAuthor(ctx, book.AuthorID))

		_, err := repo.GetAuthor(ctx, book.AuthorID)
		assert.ErrorIs(t, err, shelfd.ErrNotFound)
	})
}

func TestRepo_GetAuthorWithBooks(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	book, err := repo.CreateBook(ctx, sampleBookInput())
	require.NoError(t, err)

	got, err := repo.GetAuthorWithBooks(ctx, book.AuthorID)
	require.NoError(t, err)
	assert.Equal(t, "Frank Herbert", got.Name)
	require.Len(t, got.Books, 1)
	assert.Equal(t, book.ID, got.Books[0].ID)

	_, err = repo.GetAuthorWithBooks(ctx, 9999)
	assert.ErrorIs(t, err, shelfd.ErrNotFound)
}

func TestRepo_AddBookForAuthor(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	author, err := repo.CreateAuthor(ctx, shelfd.AuthorInput{Name: "Frank Herbert"})
	require.NoError(t, err)

	attrs := shelfd.BookAttrs{
		Name:    "Children of Dune",
		ISBN:    "9780593098240",
		Type:    "fiction",
		Publish: "1976-04-21",
		Price:   10.99,
	}

	book, err := repo.AddBookForAuthor(ctx, author.ID, attrs)
	require.NoError(t, err)
	assert.Equal(t, author.ID, book.AuthorID)

	_, err = repo.AddBookForAuthor(ctx, 9999, attrs)
	assert.ErrorIs(t, err, shelfd.ErrNotFound)
}

func TestRepo_Users(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", "hash-value")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = repo.Create(ctx, "alice", "other-hash")
	assert.ErrorIs(t, err, shelfd.ErrConflict)
	assert.NotErrorIs(t, err, shelfd.ErrStorage)

	_, err = repo.GetByUsername(ctx, "mallory")
	assert.ErrorIs(t, err, shelfd.ErrNotFound)
}
