package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/JaimeStill/job-board/pkg/docstore"
	"github.com/JaimeStill/job-board/pkg/repository"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapError classifies a database error as a docstore error kind.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	err = repository.MapError(err, docstore.ErrNotFound, docstore.ErrInvalid)
	if errors.Is(err, docstore.ErrNotFound) || errors.Is(err, docstore.ErrInvalid) {
		return err
	}

	if errors.Is(err, driver.ErrBadConn) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", docstore.ErrTransient, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == "42501":
		return fmt.Errorf("%w: %s", docstore.ErrPermission, pgErr.Message)
	case strings.HasPrefix(pgErr.Code, "08"),
		pgErr.Code == "40001",
		pgErr.Code == "40P01",
		pgErr.Code == "57P01",
		pgErr.Code == "53300":
		return fmt.Errorf("%w: %s", docstore.ErrTransient, pgErr.Message)
	case strings.HasPrefix(pgErr.Code, "22"):
		return fmt.Errorf("%w: %s", docstore.ErrInvalid, pgErr.Message)
	}
	return err
}
