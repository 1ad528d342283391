package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shelfd/shelfd"
	shelfdhttp "github.com/shelfd/shelfd/http"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateBook(ctx context.Context, input shelfd.BookInput) (shelfd.Book, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(shelfd.Book), args.Error(1)
}

func (m *MockService) GetBook(ctx context.Context, id int64) (shelfd.Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(shelfd.Book), args.Error(1)
}

func (m *MockService) ListBooks(ctx context.Context, filter shelfd.BookFilter) ([]shelfd.Book, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]shelfd.Book), args.Error(1)
}

func (m *MockService) UpdateBook(ctx context.Context, id int64, input shelfd.BookInput) (shelfd.Book, error) {
	args := m.Called(ctx, id, input)
	return args.Get(0).(shelfd.Book), args.Error(1)
}

func (m *MockService) DeleteBook(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockService) CreateAuthor(ctx context.Context, input shelfd.AuthorInput) (shelfd.Author, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(shelfd.Author), args.Error(1)
}

func (m *MockService) GetAuthor(ctx context.Context, id int64) (shelfd.Author, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(shelfd.Author), args.Error(1)
}

func (m *MockService) ListAuthors(ctx context.Context) ([]shelfd.Author, error) {
	args := m.Called(ctx)
	return args.Get(0).([]shelfd.Author), args.Error(1)
}

func (m *MockService) DeleteAuthor(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockService) GetAuthorWithBooks(ctx context.Context, id int64) (shelfd.AuthorWithBooks, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(shelfd.AuthorWithBooks), args.Error(1)
}

func (m *MockService) AddBookForAuthor(ctx context.Context, authorID int64, attrs shelfd.BookAttrs) (shelfd.Book, error) {
	args := m.Called(ctx, authorID, attrs)
	return args.Get(0).(shelfd.Book), args.Error(1)
}

func publicConfig() *shelfdhttp.HandlerConfig {
	return &shelfdhttp.HandlerConfig{
		Read:  shelfdhttp.AccessPublic,
		Write: shelfdhttp.AccessPublic,
		Realm: "shelfd",
	}
}

func newTestServer(t *testing.T, service shelfdhttp.Service) *httptest.Server {
	t.Helper()
	handler := shelfdhttp.NewHandler(publicConfig(), service, nil)
	srv := httptest.NewServer(handler.Router())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func sampleBook() shelfd.Book {
	return shelfd.Book{
		ID:       1,
		Name:     "Dune",
		ISBN:     "9780441172719",
		Type:     "fiction",
		Publish:  "1965-08-01",
		Price:    9.99,
		AuthorID: 1,
	}
}

func TestHandler_ListBooks(t *testing.T) {
	t.Run("no filter", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		service.On("ListBooks", mock.Anything, shelfd.BookFilter{}).
			Return([]shelfd.Book{sampleBook()}, nil)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/books", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var books []shelfd.Book
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&books))
		require.Len(t, books, 1)
		assert.Equal(t, "Dune", books[0].Name)
	})

	t.Run("query filters forwarded", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		service.On("ListBooks", mock.Anything, mock.MatchedBy(func(f shelfd.BookFilter) bool {
			return f.ID != nil && *f.ID == 7 && f.Type != nil && *f.Type == "fiction"
		})).Return([]shelfd.Book{}, nil)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/books?id=7&type=fiction", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		service.AssertExpectations(t)
	})

	t.Run("malformed id filter", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/books?id=abc", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		service.AssertNotCalled(t, "ListBooks")
	})

	t.Run("empty catalog maps to 404", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		service.On("ListBooks", mock.Anything, shelfd.BookFilter{}).
			Return([]shelfd.Book{}, fmt.Errorf("list books: %w", shelfd.ErrNotFound))

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/books", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHandler_GetBook(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		service.On("GetBook", mock.Anything, int64(1)).Return(sampleBook(), nil)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/books/1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var book shelfd.Book
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&book))
		assert.Equal(t, sampleBook(), book)
	})

	t.Run("not found", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		service.On("GetBook", mock.Anything, int64(99)).
			Return(shelfd.Book{}, shelfd.ErrNotFound)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/books/99", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/books/abc", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		service.AssertNotCalled(t, "GetBook")
	})
}

func TestHandler_CreateBook(t *testing.T) {
	input := shelfd.BookInput{
		BookAttrs: shelfd.BookAttrs{
			Name:    "Dune",
			ISBN:    "9780441172719",
			Type:    "fiction",
			Publish: "1965-08-01",
			Price:   9.99,
		},
		Author: "Frank Herbert",
	}

	t.Run("created", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		service.On("CreateBook", mock.Anything, input).Return(sampleBook(), nil)

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/books", input)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var book shelfd.Book
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&book))
		assert.Equal(t, int64(1), book.ID)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		service.On("CreateBook", mock.Anything, input).
			Return(shelfd.Book{}, fmt.Errorf("create book: name taken: %w", shelfd.ErrConflict))

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/books", input)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("invalid input", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		service.On("CreateBook", mock.Anything, mock.Anything).
			Return(shelfd.Book{}, fmt.Errorf("create book: %w", shelfd.ErrInvalidInput))

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/books", shelfd.BookInput{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		req, err := http.NewRequestWithContext(context.Background(),
			http.MethodPost, srv.URL+"/api/books", bytes.NewReader([]byte("{not json")))
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		service.AssertNotCalled(t, "CreateBook")
	})
}

func TestHandler_UpdateBook(t *testing.T) {
	service := new(MockService)
	srv := newTestServer(t, service)

	input := shelfd.BookInput{
		BookAttrs: shelfd.BookAttrs{
			Name:    "Dune",
			ISBN:    "9780441172719",
			Type:    "fiction",
			Publish: "1965-08-01",
			Price:   12.50,
		},
		Author: "Frank Herbert",
	}

	updated := sampleBook()
	updated.Price = 12.50
	service.On("UpdateBook", mock.Anything, int64(1), input).Return(updated, nil)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/books/1", input)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var book shelfd.Book
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&book))
	assert.InDelta(t, 12.50, book.Price, 0.001)
}

func TestHandler_DeleteBook(t *testing.T) {
	service := new(MockService)
	srv := newTestServer(t, service)

	service.On("DeleteBook", mock.Anything, int64(1)).Return(nil)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/books/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var conf shelfd.Confirmation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&conf))
	assert.Equal(t, "Book with id 1 deleted successfully", conf.Message)
}

func TestHandler_Authors(t *testing.T) {
	dutch := "Dutch"
	author := shelfd.Author{ID: 1, Name: "Guido", Nationality: &dutch}

	t.Run("list", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		service.On("ListAuthors", mock.Anything).Return([]shelfd.Author{author}, nil)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/authors", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var authors []shelfd.Author
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&authors))
		require.Len(t, authors, 1)
		assert.Equal(t, "Guido", authors[0].Name)
	})

	t.Run("get", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		service.On("GetAuthor", mock.Anything, int64(1)).Return(author, nil)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/authors/1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got shelfd.Author
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		require.NotNil(t, got.Nationality)
		assert.Equal(t, "Dutch", *got.Nationality)
	})

	t.Run("create", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		input := shelfd.AuthorInput{Name: "Guido", Nationality: &dutch}
		service.On("CreateAuthor", mock.Anything, input).Return(author, nil)

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/authors", input)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("delete with books conflicts", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		service.On("DeleteAuthor", mock.Anything, int64(1)).
			Return(fmt.Errorf("delete author: author has associated books: %w", shelfd.ErrConflict))

		resp := doJSON(t, http.MethodDelete, srv.URL+"/api/authors/1", nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("delete confirmation", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		service.On("DeleteAuthor", mock.Anything, int64(1)).Return(nil)

		resp := doJSON(t, http.MethodDelete, srv.URL+"/api/authors/1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var conf shelfd.Confirmation
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&conf))
		assert.Equal(t, "Author with id 1 deleted successfully", conf.Message)
	})

	t.Run("author with books", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		service.On("GetAuthorWithBooks", mock.Anything, int64(1)).
			Return(shelfd.AuthorWithBooks{Author: author, Books: []shelfd.Book{sampleBook()}}, nil)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/authors/1/books", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got shelfd.AuthorWithBooks
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "Guido", got.Name)
		require.Len(t, got.Books, 1)
	})

	t.Run("add book for author", func(t *testing.T) {
		service := new(MockService)
		srv := newTestServer(t, service)

		attrs := shelfd.BookAttrs{
			Name:    "Children of Dune",
			ISBN:    "9780593098240",
			Type:    "fiction",
			Publish: "1976-04-21",
			Price:   10.99,
		}
		created := sampleBook()
		created.Name = attrs.Name
		service.On("AddBookForAuthor", mock.Anything, int64(1), attrs).Return(created, nil)

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/authors/1/books", attrs)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})
}

func TestHandler_ErrorBodyShape(t *testing.T) {
	service := new(MockService)
	srv := newTestServer(t, service)

	service.On("GetBook", mock.Anything, int64(99)).
		Return(shelfd.Book{}, shelfd.ErrNotFound)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/books/99", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body shelfdhttp.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "not_found", body.Error)
	assert.Equal(t, "Not found", body.Message)
}

func TestHandler_InternalErrorIsOpaque(t *testing.T) {
	service := new(MockService)
	srv := newTestServer(t, service)

	service.On("GetBook", mock.Anything, int64(1)).
		Return(shelfd.Book{}, fmt.Errorf("get book: %w: disk gone", shelfd.ErrStorage))

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/books/1", nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body shelfdhttp.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotContains(t, body.Message, "disk gone")
}
