// Package postgres implements the catalog and user repositories using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shelfd/shelfd"
)

// Tables is an alias for shelfd.Tables for package compatibility.
type Tables = shelfd.Tables

type Repo struct {
	pool   *pgxpool.Pool
	tables Tables
}

func NewRepo(pool *pgxpool.Pool, tables Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tables: tables}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// withTx runs fn inside a transaction. The transaction is committed only
// when fn returns nil; any error rolls back everything written so far.
func (r *Repo) withTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin: %w: %v", op, shelfd.ErrStorage, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("%s: %w (rollback failed: %v)", op, err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w: %v", op, shelfd.ErrStorage, err)
	}

	return nil
}

// resolveAuthor finds an author by exact (name, nationality) inside tx,
// inserting a new one when no match exists. A nil nationality matches only
// rows where the column IS NULL, never the empty string.
func (r *Repo) resolveAuthor(ctx context.Context, tx pgx.Tx, ref shelfd.AuthorInput) (int64, error) {
	var query string
	var args []any

	if ref.Nationality == nil {
		query = fmt.Sprintf(`SELECT id FROM %s WHERE name = $1 AND nationality IS NULL`, r.tables.Authors)
		args = []any{ref.Name}
	} else {
		query = fmt.Sprintf(`SELECT id FROM %s WHERE name = $1 AND nationality = $2`, r.tables.Authors)
		args = []any{ref.Name, *ref.Nationality}
	}

	var id int64
	err := tx.QueryRow(ctx, query, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("resolve author: %w: %v", shelfd.ErrStorage, err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (name, nationality)
		VALUES ($1, $2)
		RETURNING id
	`, r.tables.Authors)

	if err := tx.QueryRow(ctx, insertQuery, ref.Name, ref.Nationality).Scan(&id); err != nil {
		return 0, fmt.Errorf("resolve author: insert: %w: %v", shelfd.ErrStorage, err)
	}

	return id, nil
}

const bookColumns = "id, name, isbn, type, publish, price, author_id"

func scanBook(row pgx.Row) (shelfd.Book, error) {
	var b shelfd.Book
	err := row.Scan(&b.ID, &b.Name, &b.ISBN, &b.Type, &b.Publish, &b.Price, &b.AuthorID)
	return b, err
}

func (r *Repo) CreateBook(ctx context.Context, input shelfd.BookInput) (shelfd.Book, error) {
	var book shelfd.Book

	err := r.withTx(ctx, "create book", func(tx pgx.Tx) error {
		authorID, err := r.resolveAuthor(ctx, tx, input.AuthorRef())
		if err != nil {
			return err
		}

		insertQuery := fmt.Sprintf(`
			INSERT INTO %s (name, isbn, type, publish, price, author_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING %s
		`, r.tables.Books, bookColumns)

		book, err = scanBook(tx.QueryRow(ctx, insertQuery,
			input.Name, input.ISBN, input.Type, input.Publish, input.Price, authorID,
		))
		if err != nil {
			return fmt.Errorf("insert book: %w: %v", shelfd.ErrStorage, err)
		}

		return nil
	})
	if err != nil {
		return shelfd.Book{}, err
	}

	return book, nil
}

func (r *Repo) GetBook(ctx context.Context, id int64) (shelfd.Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, bookColumns, r.tables.Books)

	book, err := scanBook(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shelfd.Book{}, shelfd.ErrNotFound
		}
		return shelfd.Book{}, fmt.Errorf("get book: %w: %v", shelfd.ErrStorage, err)
	}

	return book, nil
}

func (r *Repo) ListBooks(ctx context.Context, filter shelfd.BookFilter) ([]shelfd.Book, error) {
	conditions := []string{}
	args := []any{}

	if filter.ID != nil {
		args = append(args, *filter.ID)
		conditions = append(conditions, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, bookColumns, r.tables.Books)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w: %v", shelfd.ErrStorage, err)
	}
	defer rows.Close()

	books := []shelfd.Book{}
	for rows.Next() {
		b, scanErr := scanBook(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("list books: scan: %w: %v", shelfd.ErrStorage, scanErr)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list books: rows: %w: %v", shelfd.ErrStorage, err)
	}

	return books, nil
}

func (r *Repo) UpdateBook(ctx context.Context, id int64, input shelfd.BookInput) (shelfd.Book, error) {
	var book shelfd.Book

	err := r.withTx(ctx, "update book", func(tx pgx.Tx) error {
		authorID, err := r.resolveAuthor(ctx, tx, input.AuthorRef())
		if err != nil {
			return err
		}

		updateQuery := fmt.Sprintf(`
			UPDATE %s
			SET name = $1, isbn = $2, type = $3, publish = $4, price = $5, author_id = $6
			WHERE id = $7
		`, r.tables.Books)

		result, err := tx.Exec(ctx, updateQuery,
			input.Name, input.ISBN, input.Type, input.Publish, input.Price, authorID, id,
		)
		if err != nil {
			return fmt.Errorf("update book: %w: %v", shelfd.ErrStorage, err)
		}

		if result.RowsAffected() == 0 {
			return shelfd.ErrNotFound
		}

		// Re-fetch so the caller observes the persisted row, not the input.
		fetchQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, bookColumns, r.tables.Books)
		book, err = scanBook(tx.QueryRow(ctx, fetchQuery, id))
		if err != nil {
			return fmt.Errorf("update book: refetch: %w: %v", shelfd.ErrStorage, err)
		}

		return nil
	})
	if err != nil {
		return shelfd.Book{}, err
	}

	return book, nil
}

func (r *Repo) DeleteBook(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Books)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete book: %w: %v", shelfd.ErrStorage, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete book: %w", shelfd.ErrNotFound)
	}

	return nil
}

func (r *Repo) BookNameExists(ctx context.Context, name string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE name = $1)`, r.tables.Books)

	var exists bool
	if err := r.pool.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("book name exists: %w: %v", shelfd.ErrStorage, err)
	}

	return exists, nil
}

func (r *Repo) CreateAuthor(ctx context.Context, input shelfd.AuthorInput) (shelfd.Author, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, nationality)
		VALUES ($1, $2)
		RETURNING id, name, nationality
	`, r.tables.Authors)

	var a shelfd.Author
	err := r.pool.QueryRow(ctx, query, input.Name, input.Nationality).Scan(&a.ID, &a.Name, &a.Nationality)
	if err != nil {
		return shelfd.Author{}, fmt.Errorf("create author: %w: %v", shelfd.ErrStorage, err)
	}

	return a, nil
}

func (r *Repo) GetAuthor(ctx context.Context, id int64) (shelfd.Author, error) {
	query := fmt.Sprintf(`SELECT id, name, nationality FROM %s WHERE id = $1`, r.tables.Authors)

	var a shelfd.Author
	err := r.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &a.Nationality)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shelfd.Author{}, shelfd.ErrNotFound
		}
		return shelfd.Author{}, fmt.Errorf("get author: %w: %v", shelfd.ErrStorage, err)
	}

	return a, nil
}

func (r *Repo) ListAuthors(ctx context.Context) ([]shelfd.Author, error) {
	query := fmt.Sprintf(`SELECT id, name, nationality FROM %s ORDER BY id`, r.tables.Authors)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w: %v", shelfd.ErrStorage, err)
	}
	defer rows.Close()

	authors := []shelfd.Author{}
	for rows.Next() {
		var a shelfd.Author
		if scanErr := rows.Scan(&a.ID, &a.Name, &a.Nationality); scanErr != nil {
			return nil, fmt.Errorf("list authors: scan: %w: %v", shelfd.ErrStorage, scanErr)
		}
		authors = append(authors, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list authors: rows: %w: %v", shelfd.ErrStorage, err)
	}

	return authors, nil
}

func (r *Repo) DeleteAuthor(ctx context.Context, id int64) error {
	return r.withTx(ctx, "delete author", func(tx pgx.Tx) error {
		checkQuery := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, r.tables.Authors)
		var exists bool
		if err := tx.QueryRow(ctx, checkQuery, id).Scan(&exists); err != nil {
			return fmt.Errorf("delete author: %w: %v", shelfd.ErrStorage, err)
		}
		if !exists {
			return fmt.Errorf("delete author: %w", shelfd.ErrNotFound)
		}

		booksQuery := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE author_id = $1)`, r.tables.Books)
		var hasBooks bool
		if err := tx.QueryRow(ctx, booksQuery, id).Scan(&hasBooks); err != nil {
			return fmt.Errorf("delete author: %w: %v", shelfd.ErrStorage, err)
		}
		if hasBooks {
			return fmt.Errorf("delete author: author has associated books: %w", shelfd.ErrConflict)
		}

		deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Authors)
		if _, err := tx.Exec(ctx, deleteQuery, id); err != nil {
			return fmt.Errorf("delete author: %w: %v", shelfd.ErrStorage, err)
		}

		return nil
	})
}

func (r *Repo) GetAuthorWithBooks(ctx context.Context, id int64) (shelfd.AuthorWithBooks, error) {
	author, err := r.GetAuthor(ctx, id)
	if err != nil {
		return shelfd.AuthorWithBooks{}, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE author_id = $1 ORDER BY id`, bookColumns, r.tables.Books)

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return shelfd.AuthorWithBooks{}, fmt.Errorf("get author books: %w: %v", shelfd.ErrStorage, err)
	}
	defer rows.Close()

	books := []shelfd.Book{}
	for rows.Next() {
		b, scanErr := scanBook(rows)
		if scanErr != nil {
			return shelfd.AuthorWithBooks{}, fmt.Errorf("get author books: scan: %w: %v", shelfd.ErrStorage, scanErr)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return shelfd.AuthorWithBooks{}, fmt.Errorf("get author books: rows: %w: %v", shelfd.ErrStorage, err)
	}

	return shelfd.AuthorWithBooks{Author: author, Books: books}, nil
}

func (r *Repo) AddBookForAuthor(ctx context.Context, authorID int64, attrs shelfd.BookAttrs) (shelfd.Book, error) {
	var book shelfd.Book

	err := r.withTx(ctx, "add book for author", func(tx pgx.Tx) error {
		checkQuery := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, r.tables.Authors)
		var exists bool
		if err := tx.QueryRow(ctx, checkQuery, authorID).Scan(&exists); err != nil {
			return fmt.Errorf("add book for author: %w: %v", shelfd.ErrStorage, err)
		}
		if !exists {
			return shelfd.ErrNotFound
		}

		insertQuery := fmt.Sprintf(`
			INSERT INTO %s (name, isbn, type, publish, price, author_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING %s
		`, r.tables.Books, bookColumns)

		var err error
		book, err = scanBook(tx.QueryRow(ctx, insertQuery,
			attrs.Name, attrs.ISBN, attrs.Type, attrs.Publish, attrs.Price, authorID,
		))
		if err != nil {
			return fmt.Errorf("add book for author: %w: %v", shelfd.ErrStorage, err)
		}

		return nil
	})
	if err != nil {
		return shelfd.Book{}, err
	}

	return book, nil
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (shelfd.User, error) {
	query := fmt.Sprintf(`SELECT id, username, password_hash FROM %s WHERE username = $1`, r.tables.Users)

	var u shelfd.User
	err := r.pool.QueryRow(ctx, query, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shelfd.User{}, shelfd.ErrNotFound
		}
		return shelfd.User{}, fmt.Errorf("get user: %w: %v", shelfd.ErrStorage, err)
	}

	return u, nil
}

func (r *Repo) Create(ctx context.Context, username, passwordHash string) (shelfd.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (username, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`, r.tables.Users)

	// The UNIQUE index on username is the arbiter; a pre-check would still
	// race with concurrent inserts.
	var id int64
	if err := r.pool.QueryRow(ctx, query, username, passwordHash).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return shelfd.User{}, fmt.Errorf("create user: username taken: %w", shelfd.ErrConflict)
		}
		return shelfd.User{}, fmt.Errorf("create user: %w: %v", shelfd.ErrStorage, err)
	}

	return shelfd.User{ID: id, Username: username, PasswordHash: passwordHash}, nil
}

// isUniqueViolation reports whether err is a unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
