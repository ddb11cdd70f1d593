package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/messagely/messagely/internal/common"
)

type errorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "response encode failed", "error", err.Error())
	}
}

// renderError translates a domain error into the status code and envelope of
// the external contract. Unknown errors collapse to a generic 500 so store
// internals never leak to clients.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "error", err.Error())
	}
	s.writeJSON(w, status, errorResponse{Error: errorBody{Message: message, Status: status}})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorDuplicateUser):
		return http.StatusBadRequest, "username is already taken"
	case errors.Is(err, common.ErrorInvalidCredentials):
		return http.StatusBadRequest, "invalid username/password"
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, common.ErrorUnauthenticated), errors.Is(err, common.ErrorInvalidToken):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrorUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, common.ErrorMessageNotFound):
		return http.StatusNotFound, "message not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// decodeJSON reads a JSON request body into v; malformed bodies surface as
// common.ErrorValidation.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.ErrorValidation
	}
	return nil
}
