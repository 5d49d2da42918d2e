package identity

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("identity: no session")
	ErrInvalidToken    = errors.New("identity: invalid token")
	ErrRevoked         = errors.New("identity: session revoked")
	ErrInvalidRole     = errors.New("identity: invalid role")
)

// MapHTTPStatus converts identity errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidRole):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
