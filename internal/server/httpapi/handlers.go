package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/messagely/messagely/internal/common"
	"github.com/messagely/messagely/internal/server/models"
	"github.com/messagely/messagely/internal/server/users"
)

// Request and response shapes mirror the external contract field for field.

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type createMessageRequest struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type usersResponse struct {
	Users []models.Profile `json:"users"`
}

type userDetail struct {
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	JoinAt      time.Time  `json:"join_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

type userResponse struct {
	User userDetail `json:"user"`
}

type sentMessagesResponse struct {
	Messages []models.SentMessage `json:"messages"`
}

type receivedMessagesResponse struct {
	Messages []models.ReceivedMessage `json:"messages"`
}

type messageResponse struct {
	Message any `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// POST /login {username, password} -> {token}
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.renderError(w, r, err)
		return
	}

	token, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// POST /register {username, password, first_name, last_name, phone} -> {token}
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.renderError(w, r, err)
		return
	}

	token, err := s.users.Register(r.Context(), users.RegisterParams{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

// GET /users -> {users: [{username, first_name, last_name, phone}, ...]}
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.users.All(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, usersResponse{Users: profiles})
}

// GET /users/{username} -> {user: {..., join_at, last_login_at}}
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, userResponse{User: userDetail{
		Username:    user.Username,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Phone:       user.Phone,
		JoinAt:      user.JoinAt,
		LastLoginAt: user.LastLoginAt,
	}})
}

// GET /users/{username}/to -> {messages: [{id, from_user, body, sent_at, read_at}, ...]}
func (s *Server) handleMessagesTo(w http.ResponseWriter, r *http.Request) {
	result, err := s.messages.MessagesTo(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, receivedMessagesResponse{Messages: result})
}

// GET /users/{username}/from -> {messages: [{id, to_user, body, sent_at, read_at}, ...]}
func (s *Server) handleMessagesFrom(w http.ResponseWriter, r *http.Request) {
	result, err := s.messages.MessagesFrom(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, sentMessagesResponse{Messages: result})
}

// POST /messages {to_username, body} -> {message: {id, from_username, to_username, body, sent_at}}
// The sender is the authenticated identity; a from_username in the body is
// ignored.
func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.renderError(w, r, err)
		return
	}

	msg, err := s.messages.Create(r.Context(), authenticatedUsername(r), req.ToUsername, req.Body)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, messageResponse{Message: msg})
}

// GET /messages/{id} -> {message: {id, body, sent_at, read_at, from_user, to_user}}
func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	detail, err := s.messages.Get(r.Context(), authenticatedUsername(r), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: detail})
}

// POST /messages/{id}/read -> {message: {id, read_at}}
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	receipt, err := s.messages.MarkRead(r.Context(), authenticatedUsername(r), id)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: receipt})
}

// GET /health -> {status: "ok"}; fails 500 when the database is unreachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.renderError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// messageID parses the {id} path variable. The route pattern restricts it to
// digits, so a parse failure means the value does not fit an int64.
func messageID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, common.ErrorMessageNotFound
	}
	return id, nil
}
