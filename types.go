package shelfd

import (
	"errors"
	"fmt"
	"regexp"
)

// Author is a catalog author. Nationality is optional; a nil nationality is
// distinct from an empty string and compares as NULL in the backends.
type Author struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Nationality *string `json:"nationality,omitempty"`
}

// Book is a catalog book. Every book references exactly one author for its
// entire lifetime.
type Book struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	ISBN     string  `json:"isbn"`
	Type     string  `json:"type"`
	Publish  string  `json:"publish"`
	Price    float64 `json:"price"`
	AuthorID int64   `json:"author_id"`
}

// User is a stored credential record. Created only by out-of-band
// provisioning, never by the request-serving surface.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// PublicUser is the identity returned by authentication. It deliberately
// excludes the password hash.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// BookAttrs are the scalar fields of a book, shared between create and
// update payloads.
type BookAttrs struct {
	Name    string  `json:"name" validate:"required"`
	ISBN    string  `json:"isbn" validate:"required"`
	Type    string  `json:"type" validate:"required"`
	Publish string  `json:"publish" validate:"required"`
	Price   float64 `json:"price" validate:"gte=0"`
}

// BookInput is the payload for creating or updating a book. The author is
// referenced by name and resolved (or created) during the write.
type BookInput struct {
	BookAttrs
	Author            string  `json:"author" validate:"required"`
	AuthorNationality *string `json:"author_nationality,omitempty"`
}

// AuthorRef projects the author reference out of a book input.
func (b BookInput) AuthorRef() AuthorInput {
	return AuthorInput{Name: b.Author, Nationality: b.AuthorNationality}
}

// AuthorInput is the payload for creating an author.
type AuthorInput struct {
	Name        string  `json:"name" validate:"required"`
	Nationality *string `json:"nationality,omitempty"`
}

// BookFilter holds optional equality filters for listing books. When both
// are set, results must match both.
type BookFilter struct {
	ID   *int64
	Type *string
}

// AuthorWithBooks is the explicit join projection of an author and every
// book referencing it.
type AuthorWithBooks struct {
	Author
	Books []Book `json:"books"`
}

// Confirmation acknowledges a completed delete.
type Confirmation struct {
	Message string `json:"message"`
}

// Tables holds configurable table names for catalog storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	Authors string `mapstructure:"authors"`
	Books   string `mapstructure:"books"`
	Users   string `mapstructure:"users"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	names := map[string]string{
		"authors": t.Authors,
		"books":   t.Books,
		"users":   t.Users,
	}

	for role, name := range names {
		if name == "" {
			return fmt.Errorf("validate tables: %s table name cannot be empty", role)
		}

		if !IsValidTableName(name) {
			return fmt.Errorf("validate tables: invalid %s table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", role, name)
		}
	}

	if t.Authors == t.Books || t.Books == t.Users || t.Authors == t.Users {
		return errors.New("validate tables: table names must be distinct")
	}

	return nil
}
