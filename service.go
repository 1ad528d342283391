package shelfd

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// CatalogRepo defines the interface for author/book persistence.
// Implementations must run every mutating method inside a single
// transaction: the unit of work is acquired when the method starts and is
// committed or rolled back on every exit path, so partial writes are never
// observable.
//
// All methods accept a context for cancellation and timeout control.
type CatalogRepo interface {
	// CreateBook resolves the author referenced by input (exact match on
	// name and nationality, where a nil nationality compares as NULL),
	// creating the author when no match exists, then inserts the book with
	// the resolved author id. Author and book share one transaction: if the
	// book insert fails, the author insert is rolled back with it.
	//
	// Returns the stored book including its newly assigned id.
	CreateBook(ctx context.Context, input BookInput) (Book, error)

	// GetBook retrieves a book by id.
	//
	// Returns ErrNotFound if no book has that id.
	GetBook(ctx context.Context, id int64) (Book, error)

	// ListBooks returns books matching every filter that is set (logical
	// AND), in storage-defined order. An empty result is returned as an
	// empty slice; the caller decides how to classify it.
	ListBooks(ctx context.Context, filter BookFilter) ([]Book, error)

	// UpdateBook re-resolves the author from the submitted name/nationality
	// (which may create a new author), overwrites every scalar field of the
	// target book, and re-fetches the row before returning so the caller
	// observes persisted state.
	//
	// Returns ErrNotFound if no book has that id.
	UpdateBook(ctx context.Context, id int64, input BookInput) (Book, error)

	// DeleteBook removes a book by id.
	//
	// Returns ErrNotFound if no book has that id.
	DeleteBook(ctx context.Context, id int64) error

	// BookNameExists reports whether any book already has the given name.
	BookNameExists(ctx context.Context, name string) (bool, error)

	// CreateAuthor inserts a new author record.
	CreateAuthor(ctx context.Context, input AuthorInput) (Author, error)

	// GetAuthor retrieves an author by id.
	//
	// Returns ErrNotFound if no author has that id.
	GetAuthor(ctx context.Context, id int64) (Author, error)

	// ListAuthors returns all authors in storage-defined order.
	ListAuthors(ctx context.Context) ([]Author, error)

	// DeleteAuthor removes an author by id.
	//
	// Returns ErrNotFound if no author has that id, ErrConflict if any book
	// still references it.
	DeleteAuthor(ctx context.Context, id int64) error

	// GetAuthorWithBooks retrieves an author together with every book
	// referencing it. The join is explicit; nothing is lazily loaded.
	//
	// Returns ErrNotFound if no author has that id.
	GetAuthorWithBooks(ctx context.Context, id int64) (AuthorWithBooks, error)

	// AddBookForAuthor inserts a book directly under an existing author,
	// bypassing name-based resolution.
	//
	// Returns ErrNotFound if no author has that id.
	AddBookForAuthor(ctx context.Context, authorID int64, attrs BookAttrs) (Book, error)
}

// UserRepo defines the interface for the user directory. It is read-mostly:
// Create is reserved for out-of-band provisioning.
type UserRepo interface {
	// GetByUsername retrieves a credential record by exact, case-sensitive
	// username.
	//
	// Returns ErrNotFound if no such user exists.
	GetByUsername(ctx context.Context, username string) (User, error)

	// Create inserts a new credential record.
	//
	// Returns ErrConflict if the username is already taken.
	Create(ctx context.Context, username, passwordHash string) (User, error)
}

// ServiceConfig holds policy options for CatalogService.
type ServiceConfig struct {
	// AllowDuplicateNames disables the duplicate book-name rejection.
	// The default (false) rejects a create whose name matches an existing
	// book, preserving the inherited policy.
	AllowDuplicateNames bool
}

// CatalogService validates inputs and applies catalog policy before
// delegating to the repository.
type CatalogService struct {
	repo                CatalogRepo
	validate            *validator.Validate
	allowDuplicateNames bool
}

func NewCatalogService(repo CatalogRepo, cfg ServiceConfig) *CatalogService {
	return &CatalogService{
		repo:                repo,
		validate:            validator.New(),
		allowDuplicateNames: cfg.AllowDuplicateNames,
	}
}

// checkInput runs struct validation and classifies failures as
// ErrInvalidInput. Validation happens before any storage interaction.
func (s *CatalogService) checkInput(op string, input any) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%s: %w: %s", op, ErrInvalidInput, err.Error())
	}
	return nil
}

// CreateBook creates a book, resolving or creating its author as a side
// effect. A duplicate book name fails with ErrConflict before any author or
// book row is written.
func (s *CatalogService) CreateBook(ctx context.Context, input BookInput) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, fmt.Errorf("create book: %w", err)
	}

	if err := s.checkInput("create book", input); err != nil {
		return Book{}, err
	}

	if !s.allowDuplicateNames {
		exists, err := s.repo.BookNameExists(ctx, input.Name)
		if err != nil {
			return Book{}, fmt.Errorf("create book %s: %w", input.Name, err)
		}
		if exists {
			return Book{}, fmt.Errorf("create book %s: book already exists: %w", input.Name, ErrConflict)
		}
	}

	book, err := s.repo.CreateBook(ctx, input)
	if err != nil {
		return Book{}, fmt.Errorf("create book %s: %w", input.Name, err)
	}

	return book, nil
}

func (s *CatalogService) GetBook(ctx context.Context, id int64) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, fmt.Errorf("get book: %w", err)
	}

	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return Book{}, fmt.Errorf("get book %d: %w", id, err)
	}

	return book, nil
}

// ListBooks returns books matching the filter. An empty result fails with
// ErrNotFound whether or not filters were given; the two cases are
// deliberately not distinguished.
func (s *CatalogService) ListBooks(ctx context.Context, filter BookFilter) ([]Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	books, err := s.repo.ListBooks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	if len(books) == 0 {
		return nil, fmt.Errorf("list books: %w", ErrNotFound)
	}

	return books, nil
}

// UpdateBook overwrites every scalar field of the target book and
// re-resolves the author reference, possibly creating a new author.
func (s *CatalogService) UpdateBook(ctx context.Context, id int64, input BookInput) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, fmt.Errorf("update book: %w", err)
	}

	if err := s.checkInput("update book", input); err != nil {
		return Book{}, err
	}

	book, err := s.repo.UpdateBook(ctx, id, input)
	if err != nil {
		return Book{}, fmt.Errorf("update book %d: %w", id, err)
	}

	return book, nil
}

func (s *CatalogService) DeleteBook(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if err := s.repo.DeleteBook(ctx, id); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}

	return nil
}

func (s *CatalogService) CreateAuthor(ctx context.Context, input AuthorInput) (Author, error) {
	if err := ctx.Err(); err != nil {
		return Author{}, fmt.Errorf("create author: %w", err)
	}

	if err := s.checkInput("create author", input); err != nil {
		return Author{}, err
	}

	author, err := s.repo.CreateAuthor(ctx, input)
	if err != nil {
		return Author{}, fmt.Errorf("create author %s: %w", input.Name, err)
	}

	return author, nil
}

func (s *CatalogService) GetAuthor(ctx context.Context, id int64) (Author, error) {
	if err := ctx.Err(); err != nil {
		return Author{}, fmt.Errorf("get author: %w", err)
	}

	author, err := s.repo.GetAuthor(ctx, id)
	if err != nil {
		return Author{}, fmt.Errorf("get author %d: %w", id, err)
	}

	return author, nil
}

// ListAuthors returns all authors, failing with ErrNotFound when the
// directory is empty.
func (s *CatalogService) ListAuthors(ctx context.Context) ([]Author, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}

	authors, err := s.repo.ListAuthors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}

	if len(authors) == 0 {
		return nil, fmt.Errorf("list authors: %w", ErrNotFound)
	}

	return authors, nil
}

// DeleteAuthor removes an author. It fails with ErrConflict while any book
// still references the author.
func (s *CatalogService) DeleteAuthor(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete author: %w", err)
	}

	if err := s.repo.DeleteAuthor(ctx, id); err != nil {
		return fmt.Errorf("delete author %d: %w", id, err)
	}

	return nil
}

// GetAuthorWithBooks performs the author-to-books join deliberately instead
// of relying on relationship traversal.
func (s *CatalogService) GetAuthorWithBooks(ctx context.Context, id int64) (AuthorWithBooks, error) {
	if err := ctx.Err(); err != nil {
		return AuthorWithBooks{}, fmt.Errorf("get author books: %w", err)
	}

	result, err := s.repo.GetAuthorWithBooks(ctx, id)
	if err != nil {
		return AuthorWithBooks{}, fmt.Errorf("get author books %d: %w", id, err)
	}

	return result, nil
}

// AddBookForAuthor inserts a book under an existing author id without
// name-based resolution. The duplicate-name policy applies here too.
func (s *CatalogService) AddBookForAuthor(ctx context.Context, authorID int64, attrs BookAttrs) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, fmt.Errorf("add book for author: %w", err)
	}

	if err := s.checkInput("add book for author", attrs); err != nil {
		return Book{}, err
	}

	if !s.allowDuplicateNames {
		exists, err := s.repo.BookNameExists(ctx, attrs.Name)
		if err != nil {
			return Book{}, fmt.Errorf("add book for author %d: %w", authorID, err)
		}
		if exists {
			return Book{}, fmt.Errorf("add book for author %d: book already exists: %w", authorID, ErrConflict)
		}
	}

	book, err := s.repo.AddBookForAuthor(ctx, authorID, attrs)
	if err != nil {
		return Book{}, fmt.Errorf("add book for author %d: %w", authorID, err)
	}

	return book, nil
}
