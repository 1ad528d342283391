package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shelfd/shelfd"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client performs operations against a shelfd server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")

	c := &Client{
		config: &Config{
			Endpoint: endpoint,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// do executes a JSON request against the server. If body is non-nil it is
// marshaled as the request body; if out is non-nil the response body is
// unmarshaled into it. Basic auth credentials are attached when configured.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Username != "" || c.config.Password != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseServerError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}

	return nil
}

// ListBooksOptions holds optional equality filters for listing books.
type ListBooksOptions struct {
	ID   *int64
	Type string
}

// ListBooks lists books, optionally filtered by id and type.
func (c *Client) ListBooks(ctx context.Context, opts ListBooksOptions) ([]shelfd.Book, error) {
	query := url.Values{}
	if opts.ID != nil {
		query.Set("id", strconv.FormatInt(*opts.ID, 10))
	}
	if opts.Type != "" {
		query.Set("type", opts.Type)
	}

	path := "/api/books"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var books []shelfd.Book
	if err := c.do(ctx, http.MethodGet, path, nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// GetBook fetches a single book by id.
func (c *Client) GetBook(ctx context.Context, id int64) (shelfd.Book, error) {
	var book shelfd.Book
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/books/%d", id), nil, &book)
	return book, err
}

// CreateBook creates a book, resolving or creating the author by name.
func (c *Client) CreateBook(ctx context.Context, input shelfd.BookInput) (shelfd.Book, error) {
	var book shelfd.Book
	err := c.do(ctx, http.MethodPost, "/api/books", input, &book)
	return book, err
}

// UpdateBook replaces a book's fields, re-resolving the author reference.
func (c *Client) UpdateBook(ctx context.Context, id int64, input shelfd.BookInput) (shelfd.Book, error) {
	var book shelfd.Book
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/books/%d", id), input, &book)
	return book, err
}

// DeleteBook deletes a book by id.
func (c *Client) DeleteBook(ctx context.Context, id int64) (shelfd.Confirmation, error) {
	var conf shelfd.Confirmation
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/books/%d", id), nil, &conf)
	return conf, err
}

// ListAuthors lists all authors.
func (c *Client) ListAuthors(ctx context.Context) ([]shelfd.Author, error) {
	var authors []shelfd.Author
	if err := c.do(ctx, http.MethodGet, "/api/authors", nil, &authors); err != nil {
		return nil, err
	}
	return authors, nil
}

// GetAuthor fetches a single author by id.
func (c *Client) GetAuthor(ctx context.Context, id int64) (shelfd.Author, error) {
	var author shelfd.Author
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/authors/%d", id), nil, &author)
	return author, err
}

// CreateAuthor creates an author directly, without a book.
func (c *Client) CreateAuthor(ctx context.Context, input shelfd.AuthorInput) (shelfd.Author, error) {
	var author shelfd.Author
	err := c.do(ctx, http.MethodPost, "/api/authors", input, &author)
	return author, err
}

// DeleteAuthor deletes an author by id. The server rejects the delete with
// a conflict while any book still references the author.
func (c *Client) DeleteAuthor(ctx context.Context, id int64) (shelfd.Confirmation, error) {
	var conf shelfd.Confirmation
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/authors/%d", id), nil, &conf)
	return conf, err
}

// GetAuthorBooks fetches an author together with every book referencing it.
func (c *Client) GetAuthorBooks(ctx context.Context, id int64) (shelfd.AuthorWithBooks, error) {
	var result shelfd.AuthorWithBooks
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/authors/%d/books", id), nil, &result)
	return result, err
}

// AddBookForAuthor creates a book directly under an existing author.
func (c *Client) AddBookForAuthor(ctx context.Context, authorID int64, attrs shelfd.BookAttrs) (shelfd.Book, error) {
	var book shelfd.Book
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/authors/%d/books", authorID), attrs, &book)
	return book, err
}

// serverError mirrors the JSON error response from the server.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// parseServerError extracts the error message from a server response.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode}

	var se serverError
	if err := json.Unmarshal(body, &se); err == nil && se.Error != "" {
		apiErr.Code = se.Error
		apiErr.Message = se.Message
	} else {
		apiErr.Message = string(body)
	}

	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Message
	}
	return "server error: " + strconv.Itoa(e.StatusCode)
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested resource does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when authentication fails (401).
	// This typically means invalid or missing credentials.
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrConflict is returned when the request conflicts with existing
	// state (409), such as deleting an author that still has books.
	ErrConflict = &APIError{StatusCode: http.StatusConflict}

	// ErrBadRequest is returned when the server rejects the input (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}
)
