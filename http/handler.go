package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/shelfd/shelfd"
)

// Service is the catalog surface the handlers bind to.
type Service interface {
	CreateBook(ctx context.Context, input shelfd.BookInput) (shelfd.Book, error)
	GetBook(ctx context.Context, id int64) (shelfd.Book, error)
	ListBooks(ctx context.Context, filter shelfd.BookFilter) ([]shelfd.Book, error)
	UpdateBook(ctx context.Context, id int64, input shelfd.BookInput) (shelfd.Book, error)
	DeleteBook(ctx context.Context, id int64) error
	CreateAuthor(ctx context.Context, input shelfd.AuthorInput) (shelfd.Author, error)
	GetAuthor(ctx context.Context, id int64) (shelfd.Author, error)
	ListAuthors(ctx context.Context) ([]shelfd.Author, error)
	DeleteAuthor(ctx context.Context, id int64) error
	GetAuthorWithBooks(ctx context.Context, id int64) (shelfd.AuthorWithBooks, error)
	AddBookForAuthor(ctx context.Context, authorID int64, attrs shelfd.BookAttrs) (shelfd.Book, error)
}

// Access controls whether a route group requires authentication.
type Access string

const (
	AccessPublic  Access = "public"
	AccessPrivate Access = "private"
)

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type HandlerConfig struct {
	Read  Access
	Write Access
	Realm string
	CORS  CORSConfig
}

// Handler provides HTTP handlers for catalog operations.
type Handler struct {
	config  HandlerConfig
	service Service
	gate    Gate
}

// NewHandler creates a new Handler. The gate is only consulted for route
// groups configured as private; pass nil when everything is public.
func NewHandler(config *HandlerConfig, service Service, gate Gate) *Handler {
	return &Handler{
		config:  *config,
		service: service,
		gate:    gate,
	}
}

func (h *Handler) gateFor(access Access) Gate {
	if access == AccessPrivate {
		return h.gate
	}
	return nil
}

// Router returns an http.Handler with the catalog routes. Read and write
// groups each get their own authentication gate per configuration.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(BasicAuthMiddleware(h.gateFor(h.config.Read), h.config.Realm))
			r.Get("/books", h.handleListBooks)
			r.Get("/books/{id}", h.handleGetBook)
			r.Get("/authors", h.handleListAuthors)
			r.Get("/authors/{id}", h.handleGetAuthor)
			r.Get("/authors/{id}/books", h.handleGetAuthorBooks)
		})

		r.Group(func(r chi.Router) {
			r.Use(BasicAuthMiddleware(h.gateFor(h.config.Write), h.config.Realm))
			r.Post("/books", h.handleCreateBook)
			r.Put("/books/{id}", h.handleUpdateBook)
			r.Delete("/books/{id}", h.handleDeleteBook)
			r.Post("/authors", h.handleCreateAuthor)
			r.Post("/authors/{id}/books", h.handleAddBookForAuthor)
			r.Delete("/authors/{id}", h.handleDeleteAuthor)
		})
	})

	return r
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", raw, shelfd.ErrInvalidInput)
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w: %v", shelfd.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	var filter shelfd.BookFilter

	if raw := r.URL.Query().Get("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid id filter")
			return
		}
		filter.ID = &id
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		filter.Type = &raw
	}

	books, err := h.service.ListBooks(r.Context(), filter)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, books)
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, book)
}

func (h *Handler) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var input shelfd.BookInput
	if err := decodeJSON(r, &input); err != nil {
		HandleError(w, err)
		return
	}

	book, err := h.service.CreateBook(r.Context(), input)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, book)
}

func (h *Handler) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	var input shelfd.BookInput
	if err := decodeJSON(r, &input); err != nil {
		HandleError(w, err)
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id, input)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, book)
}

func (h *Handler) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, shelfd.Confirmation{
		Message: fmt.Sprintf("Book with id %d deleted successfully", id),
	})
}

func (h *Handler) handleListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.service.ListAuthors(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, authors)
}

func (h *Handler) handleGetAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	author, err := h.service.GetAuthor(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, author)
}

func (h *Handler) handleCreateAuthor(w http.ResponseWriter, r *http.Request) {
	var input shelfd.AuthorInput
	if err := decodeJSON(r, &input); err != nil {
		HandleError(w, err)
		return
	}

	author, err := h.service.CreateAuthor(r.Context(), input)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, author)
}

func (h *Handler) handleDeleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := h.service.DeleteAuthor(r.Context(), id); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, shelfd.Confirmation{
		Message: fmt.Sprintf("Author with id %d deleted successfully", id),
	})
}

func (h *Handler) handleGetAuthorBooks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	result, err := h.service.GetAuthorWithBooks(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAddBookForAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	var attrs shelfd.BookAttrs
	if err := decodeJSON(r, &attrs); err != nil {
		HandleError(w, err)
		return
	}

	book, err := h.service.AddBookForAuthor(r.Context(), id, attrs)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, book)
}
