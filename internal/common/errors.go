// Package common defines shared constants and sentinel errors used across
// the messagely server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorDuplicateUser   = errors.New("duplicate user")
	ErrorUserNotFound    = errors.New("user not found")
	ErrorMessageNotFound = errors.New("message not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal           = errors.New("internal error")
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorValidation         = errors.New("validation error")

	// Access-guard errors.
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")

	// Auth errors (invalid or malformed token).
	ErrorInvalidToken = errors.New("invalid token")
)
