package docstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Backends wrap their failures with one of these so callers can
// tell recoverable conditions from fatal ones without matching messages.
var (
	ErrNotFound    = errors.New("docstore: not found")
	ErrPermission  = errors.New("docstore: permission denied")
	ErrTransient   = errors.New("docstore: transient failure")
	ErrUnsupported = errors.New("docstore: unsupported operation")
	ErrInvalid     = errors.New("docstore: invalid argument")
)

// Kind discriminates the outcome of a docstore call.
type Kind int

const (
	KindOK Kind = iota
	KindNotFound
	KindPermission
	KindTransient
	KindUnsupported
	KindInvalid
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindNotFound:
		return "not_found"
	case KindPermission:
		return "permission"
	case KindTransient:
		return "transient"
	case KindUnsupported:
		return "unsupported"
	case KindInvalid:
		return "invalid"
	}
	return "unknown"
}

// KindOf classifies err.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrPermission):
		return KindPermission
	case errors.Is(err, ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	case errors.Is(err, ErrUnsupported):
		return KindUnsupported
	case errors.Is(err, ErrInvalid):
		return KindInvalid
	}
	return KindUnknown
}

// Error records the call that failed.
type Error struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *Error) Error() string {
	ref := e.Collection
	if e.ID != "" {
		ref += "/" + e.ID
	}
	return fmt.Sprintf("docstore %s %s: %v", e.Op, ref, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MapHTTPStatus converts docstore errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindPermission:
		return http.StatusForbidden
	case KindTransient:
		return http.StatusServiceUnavailable
	case KindUnsupported, KindInvalid:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
