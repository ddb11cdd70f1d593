// Package httpapi exposes the messaging service over HTTP. It owns the
// router, the bearer-token access guard, and the JSON envelopes of the
// external contract; nothing below this package knows about HTTP.
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/messagely/messagely/internal/logging"
	"github.com/messagely/messagely/internal/server/messages"
	"github.com/messagely/messagely/internal/server/users"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	address   string
	logger    logging.Logger
	users     *users.Service
	messages  *messages.Service
	db        *sql.DB
	jwtSecret []byte
}

func NewServer(address string, l logging.Logger, us *users.Service, ms *messages.Service, db *sql.DB, secretKey string) *Server {
	return &Server{
		address:   address,
		logger:    l.With("module", "httpapi"),
		users:     us,
		messages:  ms,
		db:        db,
		jwtSecret: []byte(secretKey),
	}
}

// Router builds the full route table. Authentication applies to everything
// except /login, /register and /health; the /users/{username}/to and /from
// listings additionally require the caller to be that user. Message-level
// ownership is enforced in the messages service, which knows the row.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestLogger)
	r.NotFoundHandler = s.requestLogger(http.HandlerFunc(s.handleNotFound))

	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requireLogin)

	authed.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	authed.HandleFunc("/users/{username}", s.handleGetUser).Methods(http.MethodGet)
	authed.Handle("/users/{username}/to", s.requireCorrectUser(http.HandlerFunc(s.handleMessagesTo))).Methods(http.MethodGet)
	authed.Handle("/users/{username}/from", s.requireCorrectUser(http.HandlerFunc(s.handleMessagesFrom))).Methods(http.MethodGet)

	authed.HandleFunc("/messages", s.handleCreateMessage).Methods(http.MethodPost)
	authed.HandleFunc("/messages/{id:[0-9]+}", s.handleGetMessage).Methods(http.MethodGet)
	authed.HandleFunc("/messages/{id:[0-9]+}/read", s.handleMarkRead).Methods(http.MethodPost)

	return r
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info(ctx, "starting HTTP server", "address", s.address)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return <-errCh
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusNotFound, errorResponse{
		Error: errorBody{Message: "no such route", Status: http.StatusNotFound},
	})
}
