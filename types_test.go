package shelfd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfd/shelfd"
)

func TestIsValidTableName(t *testing.T) {
	valid := []string{"books", "lib_books", "_books", "books2"}
	for _, name := range valid {
		assert.True(t, shelfd.IsValidTableName(name), name)
	}

	invalid := []string{"", "Books", "2books", "books-2", "books;drop", "books table"}
	for _, name := range invalid {
		assert.False(t, shelfd.IsValidTableName(name), name)
	}
}

func TestTables_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		tables := shelfd.Tables{Authors: "authors", Books: "books", Users: "users"}
		require.NoError(t, tables.Validate())
	})

	t.Run("empty name", func(t *testing.T) {
		tables := shelfd.Tables{Authors: "authors", Books: "", Users: "users"}
		require.Error(t, tables.Validate())
	})

	t.Run("invalid name", func(t *testing.T) {
		tables := shelfd.Tables{Authors: "authors", Books: "Books!", Users: "users"}
		require.Error(t, tables.Validate())
	})

	t.Run("duplicate names", func(t *testing.T) {
		tables := shelfd.Tables{Authors: "catalog", Books: "catalog", Users: "users"}
		require.Error(t, tables.Validate())
	})
}

func TestBookInput_AuthorRef(t *testing.T) {
	dutch := "Dutch"
	input := shelfd.BookInput{
		BookAttrs:         shelfd.BookAttrs{Name: "Python Crash Course"},
		Author:            "Guido",
		AuthorNationality: &dutch,
	}

	ref := input.AuthorRef()
	assert.Equal(t, "Guido", ref.Name)
	require.NotNil(t, ref.Nationality)
	assert.Equal(t, "Dutch", *ref.Nationality)

	input.AuthorNationality = nil
	assert.Nil(t, input.AuthorRef().Nationality)
}
