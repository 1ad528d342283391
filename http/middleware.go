package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shelfd/shelfd"
)

// Gate verifies credentials before a protected handler runs.
type Gate interface {
	Authenticate(ctx context.Context, creds shelfd.Credentials) (shelfd.PublicUser, error)
}

type userKey struct{}

// CurrentUser returns the authenticated user stored by BasicAuthMiddleware.
func CurrentUser(ctx context.Context) (shelfd.PublicUser, bool) {
	user, ok := ctx.Value(userKey{}).(shelfd.PublicUser)
	return user, ok
}

// BasicAuthMiddleware enforces HTTP Basic authentication via the gate.
// Pass a nil gate to disable authentication (public access).
//
// On failure the request stops here with a 401 challenge; the wrapped
// handler never runs. On success the verified identity is stored in the
// request context.
func BasicAuthMiddleware(gate Gate, realm string) func(http.Handler) http.Handler {
	if gate == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				WriteChallenge(w, realm)
				return
			}

			user, err := gate.Authenticate(r.Context(), shelfd.Credentials{
				Username: username,
				Password: password,
			})
			if err != nil {
				// Only credential failures get the challenge; a failing
				// user store must not read as a wrong password.
				if errors.Is(err, shelfd.ErrUnauthorized) {
					WriteChallenge(w, realm)
					return
				}
				HandleError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type requestIDKey struct{}

// RequestID returns the request correlation id, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDMiddleware tags every request with a correlation id, exposed to
// handlers via context and to clients via the X-Request-Id header.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs one line per completed request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", RequestID(r.Context()),
		)
	})
}
