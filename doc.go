// Package shelfd provides a book-catalog service with pluggable relational
// backends and HTTP Basic authentication.
//
// Shelfd models a small library: authors own books, books reference exactly
// one author, and users are provisioned out-of-band to gate access to
// protected operations.
//
// # Key Components
//
//   - CatalogService: validation and policy layer over the catalog repository
//   - CatalogRepo: interface for author/book persistence (PostgreSQL, SQLite)
//   - UserRepo: interface for the read-mostly user directory
//   - Authenticator: username/password verification against bcrypt hashes
//
// # Relational Rules
//
// Creating or updating a book resolves its author by exact (name,
// nationality) match, provisioning a new author only when no match exists.
// The author write and the dependent book write share one transaction, so a
// failed book write never leaves an orphaned author behind. An author that
// still owns books cannot be deleted.
//
// # Example Usage
//
//	service := shelfd.NewCatalogService(repo, shelfd.ServiceConfig{})
//
//	book, err := service.CreateBook(ctx, shelfd.BookInput{
//	    BookAttrs: shelfd.BookAttrs{Name: "Python", ISBN: "978-7-121-30000-0",
//	        Type: "programming", Publish: "2023-01-01", Price: 99.99},
//	    Author: "Guido van Rossum",
//	})
//
// See the http package for the REST binding and the database package for the
// relational backend implementations.
package shelfd
