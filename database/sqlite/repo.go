// Package sqlite implements the catalog and user repositories using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlitedrv "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/shelfd/shelfd"
)

type Repo struct {
	db     *sql.DB
	tables shelfd.Tables
}

func NewRepo(db *sql.DB, tables shelfd.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{db: db, tables: tables}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn inside a transaction. The transaction is committed only
// when fn returns nil; any error rolls back everything written so far.
func (r *Repo) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w: %v", op, shelfd.ErrStorage, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%s: %w (rollback failed: %v)", op, err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w: %v", op, shelfd.ErrStorage, err)
	}

	return nil
}

// resolveAuthor finds an author by exact (name, nationality) inside tx,
// inserting a new one when no match exists. A nil nationality matches only
// rows where the column IS NULL, never the empty string.
func (r *Repo) resolveAuthor(ctx context.Context, tx *sql.Tx, ref shelfd.AuthorInput) (int64, error) {
	var query string
	var args []any

	if ref.Nationality == nil {
		query = fmt.Sprintf(`SELECT id FROM %s WHERE name = ? AND nationality IS NULL`, r.tables.Authors) //nolint:gosec // table name is validated
		args = []any{ref.Name}
	} else {
		query = fmt.Sprintf(`SELECT id FROM %s WHERE name = ? AND nationality = ?`, r.tables.Authors) //nolint:gosec // table name is validated
		args = []any{ref.Name, *ref.Nationality}
	}

	var id int64
	err := tx.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("resolve author: %w: %v", shelfd.ErrStorage, err)
	}

	insertQuery := fmt.Sprintf(`INSERT INTO %s (name, nationality) VALUES (?, ?)`, r.tables.Authors) //nolint:gosec // table name is validated
	result, err := tx.ExecContext(ctx, insertQuery, ref.Name, ref.Nationality)
	if err != nil {
		return 0, fmt.Errorf("resolve author: insert: %w: %v", shelfd.ErrStorage, err)
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve author: last insert id: %w: %v", shelfd.ErrStorage, err)
	}

	return id, nil
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *Repo) getBookTx(ctx context.Context, q rowQuerier, id int64) (shelfd.Book, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, name, isbn, type, publish, price, author_id FROM %s WHERE id = ?`, r.tables.Books)

	var b shelfd.Book
	err := q.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.Name, &b.ISBN, &b.Type, &b.Publish, &b.Price, &b.AuthorID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shelfd.Book{}, shelfd.ErrNotFound
		}
		return shelfd.Book{}, fmt.Errorf("get book: %w: %v", shelfd.ErrStorage, err)
	}

	return b, nil
}

func (r *Repo) CreateBook(ctx context.Context, input shelfd.BookInput) (shelfd.Book, error) {
	var book shelfd.Book

	err := r.withTx(ctx, "create book", func(tx *sql.Tx) error {
		authorID, err := r.resolveAuthor(ctx, tx, input.AuthorRef())
		if err != nil {
			return err
		}

		insertQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`INSERT INTO %s (name, isbn, type, publish, price, author_id)
			VALUES (?, ?, ?, ?, ?, ?)`, r.tables.Books)

		result, err := tx.ExecContext(ctx, insertQuery,
			input.Name, input.ISBN, input.Type, input.Publish, input.Price, authorID,
		)
		if err != nil {
			return fmt.Errorf("insert book: %w: %v", shelfd.ErrStorage, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert book: last insert id: %w: %v", shelfd.ErrStorage, err)
		}

		book, err = r.getBookTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return shelfd.Book{}, err
	}

	return book, nil
}

func (r *Repo) GetBook(ctx context.Context, id int64) (shelfd.Book, error) {
	return r.getBookTx(ctx, r.db, id)
}

func (r *Repo) ListBooks(ctx context.Context, filter shelfd.BookFilter) ([]shelfd.Book, error) {
	conditions := []string{}
	args := []any{}

	if filter.ID != nil {
		conditions = append(conditions, "id = ?")
		args = append(args, *filter.ID)
	}
	if filter.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, *filter.Type)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, name, isbn, type, publish, price, author_id FROM %s`, r.tables.Books)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w: %v", shelfd.ErrStorage, err)
	}
	defer func() { _ = rows.Close() }()

	books := []shelfd.Book{}
	for rows.Next() {
		var b shelfd.Book
		if scanErr := rows.Scan(&b.ID, &b.Name, &b.ISBN, &b.Type, &b.Publish, &b.Price, &b.AuthorID); scanErr != nil {
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

	err := r.withTx(ctx, "update book", func(tx *sql.Tx) error {
		authorID, err := r.resolveAuthor(ctx, tx, input.AuthorRef())
		if err != nil {
			return err
		}

		updateQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`UPDATE %s
			SET name = ?, isbn = ?, type = ?, publish = ?, price = ?, author_id = ?
			WHERE id = ?`, r.tables.Books)

		result, err := tx.ExecContext(ctx, updateQuery,
			input.Name, input.ISBN, input.Type, input.Publish, input.Price, authorID, id,
		)
		if err != nil {
			return fmt.Errorf("update book: %w: %v", shelfd.ErrStorage, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update book: rows affected: %w: %v", shelfd.ErrStorage, err)
		}

		if rowsAffected == 0 {
			return shelfd.ErrNotFound
		}

		// Re-fetch so the caller observes the persisted row, not the input.
		book, err = r.getBookTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return shelfd.Book{}, err
	}

	return book, nil
}

func (r *Repo) DeleteBook(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.tables.Books) //nolint:gosec // table name is validated

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete book: %w: %v", shelfd.ErrStorage, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete book: rows affected: %w: %v", shelfd.ErrStorage, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete book: %w", shelfd.ErrNotFound)
	}

	return nil
}

func (r *Repo) BookNameExists(ctx context.Context, name string) (bool, error) {
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE name = ? LIMIT 1`, r.tables.Books) //nolint:gosec // table name is validated

	var one int
	err := r.db.QueryRowContext(ctx, query, name).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("book name exists: %w: %v", shelfd.ErrStorage, err)
	}

	return true, nil
}

func (r *Repo) CreateAuthor(ctx context.Context, input shelfd.AuthorInput) (shelfd.Author, error) {
	query := fmt.Sprintf(`INSERT INTO %s (name, nationality) VALUES (?, ?)`, r.tables.Authors) //nolint:gosec // table name is validated

	result, err := r.db.ExecContext(ctx, query, input.Name, input.Nationality)
	if err != nil {
		return shelfd.Author{}, fmt.Errorf("create author: %w: %v", shelfd.ErrStorage, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return shelfd.Author{}, fmt.Errorf("create author: last insert id: %w: %v", shelfd.ErrStorage, err)
	}

	return r.GetAuthor(ctx, id)
}

func (r *Repo) GetAuthor(ctx context.Context, id int64) (shelfd.Author, error) {
	query := fmt.Sprintf(`SELECT id, name, nationality FROM %s WHERE id = ?`, r.tables.Authors) //nolint:gosec // table name is validated

	var a shelfd.Author
	var nationality sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &nationality)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shelfd.Author{}, shelfd.ErrNotFound
		}
		return shelfd.Author{}, fmt.Errorf("get author: %w: %v", shelfd.ErrStorage, err)
	}

	if nationality.Valid {
		a.Nationality = &nationality.String
	}

	return a, nil
}

func (r *Repo) ListAuthors(ctx context.Context) ([]shelfd.Author, error) {
	query := fmt.Sprintf(`SELECT id, name, nationality FROM %s ORDER BY id`, r.tables.Authors) //nolint:gosec // table name is validated

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w: %v", shelfd.ErrStorage, err)
	}
	defer func() { _ = rows.Close() }()

	authors := []shelfd.Author{}
	for rows.Next() {
		var a shelfd.Author
		var nationality sql.NullString

		if scanErr := rows.Scan(&a.ID, &a.Name, &nationality); scanErr != nil {
			return nil, fmt.Errorf("list authors: scan: %w: %v", shelfd.ErrStorage, scanErr)
		}
		if nationality.Valid {
			a.Nationality = &nationality.String
		}
		authors = append(authors, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list authors: rows: %w: %v", shelfd.ErrStorage, err)
	}

	return authors, nil
}

func (r *Repo) DeleteAuthor(ctx context.Context, id int64) error {
	return r.withTx(ctx, "delete author", func(tx *sql.Tx) error {
		checkQuery := fmt.Sprintf(`SELECT 1 FROM %s WHERE id = ?`, r.tables.Authors) //nolint:gosec // table name is validated
		var one int
		if err := tx.QueryRowContext(ctx, checkQuery, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("delete author: %w", shelfd.ErrNotFound)
			}
			return fmt.Errorf("delete author: %w: %v", shelfd.ErrStorage, err)
		}

		booksQuery := fmt.Sprintf(`SELECT 1 FROM %s WHERE author_id = ? LIMIT 1`, r.tables.Books) //nolint:gosec // table name is validated
		err := tx.QueryRowContext(ctx, booksQuery, id).Scan(&one)
		if err == nil {
			return fmt.Errorf("delete author: author has associated books: %w", shelfd.ErrConflict)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("delete author: %w: %v", shelfd.ErrStorage, err)
		}

		deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.tables.Authors) //nolint:gosec // table name is validated
		if _, err := tx.ExecContext(ctx, deleteQuery, id); err != nil {
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

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, name, isbn, type, publish, price, author_id FROM %s WHERE author_id = ? ORDER BY id`, r.tables.Books)

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return shelfd.AuthorWithBooks{}, fmt.Errorf("get author books: %w: %v", shelfd.ErrStorage, err)
	}
	defer func() { _ = rows.Close() }()

	books := []shelfd.Book{}
	for rows.Next() {
		var b shelfd.Book
		if scanErr := rows.Scan(&b.ID, &b.Name, &b.ISBN, &b.Type, &b.Publish, &b.Price, &b.AuthorID); scanErr != nil {
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

	err := r.withTx(ctx, "add book for author", func(tx *sql.Tx) error {
		checkQuery := fmt.Sprintf(`SELECT 1 FROM %s WHERE id = ?`, r.tables.Authors) //nolint:gosec // table name is validated
		var one int
		if err := tx.QueryRowContext(ctx, checkQuery, authorID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return shelfd.ErrNotFound
			}
			return fmt.Errorf("add book for author: %w: %v", shelfd.ErrStorage, err)
		}

		insertQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`INSERT INTO %s (name, isbn, type, publish, price, author_id)
			VALUES (?, ?, ?, ?, ?, ?)`, r.tables.Books)

		result, err := tx.ExecContext(ctx, insertQuery,
			attrs.Name, attrs.ISBN, attrs.Type, attrs.Publish, attrs.Price, authorID,
		)
		if err != nil {
			return fmt.Errorf("add book for author: %w: %v", shelfd.ErrStorage, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("add book for author: last insert id: %w: %v", shelfd.ErrStorage, err)
		}

		book, err = r.getBookTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return shelfd.Book{}, err
	}

	return book, nil
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (shelfd.User, error) {
	query := fmt.Sprintf(`SELECT id, username, password_hash FROM %s WHERE username = ?`, r.tables.Users) //nolint:gosec // table name is validated

	var u shelfd.User
	err := r.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shelfd.User{}, shelfd.ErrNotFound
		}
		return shelfd.User{}, fmt.Errorf("get user: %w: %v", shelfd.ErrStorage, err)
	}

	return u, nil
}

func (r *Repo) Create(ctx context.Context, username, passwordHash string) (shelfd.User, error) {
	query := fmt.Sprintf(`INSERT INTO %s (username, password_hash) VALUES (?, ?)`, r.tables.Users) //nolint:gosec // table name is validated

	// The UNIQUE index on username is the arbiter; a pre-check would still
	// race with concurrent inserts.
	result, err := r.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return shelfd.User{}, fmt.Errorf("create user: username taken: %w", shelfd.ErrConflict)
		}
		return shelfd.User{}, fmt.Errorf("create user: %w: %v", shelfd.ErrStorage, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return shelfd.User{}, fmt.Errorf("create user: last insert id: %w: %v", shelfd.ErrStorage, err)
	}

	return shelfd.User{ID: id, Username: username, PasswordHash: passwordHash}, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	return errors.As(err, &se) && se.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
}
