package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/messagely/messagely/internal/common"
	"github.com/messagely/messagely/internal/server/auth"
)

type ctxKey string

const usernameKey ctxKey = "username"

// authenticatedUsername returns the identity requireLogin attached to the
// request, or "" when the request never passed the guard.
func authenticatedUsername(r *http.Request) string {
	username, _ := r.Context().Value(usernameKey).(string)
	return username
}

// statusRecorder captures the status code a handler writes.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// requestLogger stamps each request with a correlation id and logs one line
// per request with method, path, status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info(r.Context(), "request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// requireLogin authenticates the bearer token and attaches the username it
// carries to the request context. Requests without a valid token get 401.
func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			s.renderError(w, r, common.ErrorUnauthenticated)
			return
		}

		username, err := auth.GetUsernameFromToken(token, s.jwtSecret)
		if err != nil {
			s.renderError(w, r, common.ErrorUnauthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireCorrectUser gates routes scoped to "my own resource": the
// authenticated username must equal the {username} path variable.
// Must run after requireLogin.
func (s *Server) requireCorrectUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authenticatedUsername(r) != mux.Vars(r)["username"] {
			s.renderError(w, r, common.ErrorForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
