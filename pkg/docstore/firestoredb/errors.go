package firestoredb

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/job-board/pkg/docstore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MapError classifies a Firestore error by its gRPC status code.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, docstore.ErrNotFound) || errors.Is(err, docstore.ErrInvalid) ||
		errors.Is(err, docstore.ErrUnsupported) {
		return err
	}

	var kind error
	switch status.Code(err) {
	case codes.NotFound:
		kind = docstore.ErrNotFound
	case codes.PermissionDenied, codes.Unauthenticated:
		kind = docstore.ErrPermission
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
		kind = docstore.ErrTransient
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		kind = docstore.ErrInvalid
	case codes.Unimplemented:
		kind = docstore.ErrUnsupported
	default:
		return err
	}
	return fmt.Errorf("%w: %s", kind, status.Convert(err).Message())
}
