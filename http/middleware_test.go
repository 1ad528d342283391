package http_test

import (
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

type MockGate struct {
	mock.Mock
}

func (m *MockGate) Authenticate(ctx context.Context, creds shelfd.Credentials) (shelfd.PublicUser, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(shelfd.PublicUser), args.Error(1)
}

func TestBasicAuthMiddleware(t *testing.T) {
	alice := shelfd.PublicUser{ID: 1, Username: "alice"}

	echoUser := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := shelfdhttp.CurrentUser(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = shelfdhttp.WriteJSON(w, http.StatusOK, user)
	})

	t.Run("nil gate passes through untouched", func(t *testing.T) {
		handler := shelfdhttp.BasicAuthMiddleware(nil, "shelfd")(
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("missing credentials get a challenge", func(t *testing.T) {
		gate := new(MockGate)
		handler := shelfdhttp.BasicAuthMiddleware(gate, "shelfd")(echoUser)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, `Basic realm="shelfd"`, rec.Header().Get("WWW-Authenticate"))

		var body shelfdhttp.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Incorrect username or password", body.Message)

		gate.AssertNotCalled(t, "Authenticate")
	})

	t.Run("rejected credentials get the same challenge", func(t *testing.T) {
		gate := new(MockGate)
		handler := shelfdhttp.BasicAuthMiddleware(gate, "shelfd")(echoUser)

		gate.On("Authenticate", mock.Anything, shelfd.Credentials{Username: "alice", Password: "wrong"}).
			Return(shelfd.PublicUser{}, shelfd.ErrUnauthorized)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("alice", "wrong")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, `Basic realm="shelfd"`, rec.Header().Get("WWW-Authenticate"))

		var body shelfdhttp.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Incorrect username or password", body.Message)
	})

	t.Run("user store failure is an opaque 500, not a challenge", func(t *testing.T) {
		gate := new(MockGate)
		handler := shelfdhttp.BasicAuthMiddleware(gate, "shelfd")(echoUser)

		gate.On("Authenticate", mock.Anything, shelfd.Credentials{Username: "alice", Password: "secret"}).
			Return(shelfd.PublicUser{}, fmt.Errorf("authenticate: %w: db unreachable", shelfd.ErrStorage))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("alice", "secret")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Empty(t, rec.Header().Get("WWW-Authenticate"))

		var body shelfdhttp.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "internal_error", body.Error)
		assert.NotContains(t, body.Message, "db unreachable")
	})

	t.Run("accepted credentials reach the handler with identity", func(t *testing.T) {
		gate := new(MockGate)
		handler := shelfdhttp.BasicAuthMiddleware(gate, "shelfd")(echoUser)

		gate.On("Authenticate", mock.Anything, shelfd.Credentials{Username: "alice", Password: "secret"}).
			Return(alice, nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("alice", "secret")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var user shelfd.PublicUser
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
		assert.Equal(t, alice, user)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates id when absent", func(t *testing.T) {
		var seen string
		handler := shelfdhttp.RequestIDMiddleware(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = shelfdhttp.RequestID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))
	})

	t.Run("keeps inbound id", func(t *testing.T) {
		var seen string
		handler := shelfdhttp.RequestIDMiddleware(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = shelfdhttp.RequestID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", "req-123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
	})
}

func TestHandler_AccessSplit(t *testing.T) {
	alice := shelfd.PublicUser{ID: 1, Username: "alice"}

	newSplitServer := func(t *testing.T) (*httptest.Server, *MockService, *MockGate) {
		t.Helper()
		service := new(MockService)
		gate := new(MockGate)
		handler := shelfdhttp.NewHandler(&shelfdhttp.HandlerConfig{
			Read:  shelfdhttp.AccessPublic,
			Write: shelfdhttp.AccessPrivate,
			Realm: "shelfd",
		}, service, gate)
		srv := httptest.NewServer(handler.Router())
		t.Cleanup(srv.Close)
		return srv, service, gate
	}

	t.Run("reads stay public", func(t *testing.T) {
		srv, service, gate := newSplitServer(t)

		service.On("ListBooks", mock.Anything, shelfd.BookFilter{}).
			Return([]shelfd.Book{}, nil)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/books", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		gate.AssertNotCalled(t, "Authenticate")
	})

	t.Run("writes require credentials", func(t *testing.T) {
		srv, service, _ := newSplitServer(t)

		resp := doJSON(t, http.MethodDelete, srv.URL+"/api/books/1", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, `Basic realm="shelfd"`, resp.Header.Get("WWW-Authenticate"))
		service.AssertNotCalled(t, "DeleteBook")
	})

	t.Run("writes succeed with credentials", func(t *testing.T) {
		srv, service, gate := newSplitServer(t)

		gate.On("Authenticate", mock.Anything, shelfd.Credentials{Username: "alice", Password: "secret"}).
			Return(alice, nil)
		service.On("DeleteBook", mock.Anything, int64(1)).Return(nil)

		req, err := http.NewRequestWithContext(context.Background(),
			http.MethodDelete, srv.URL+"/api/books/1", nil)
		require.NoError(t, err)
		req.SetBasicAuth("alice", "secret")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		service.AssertExpectations(t)
	})
}
