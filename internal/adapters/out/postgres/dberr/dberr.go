// Package dberr maps GORM and driver errors onto the error kinds of
// internal/pkg/errs, so handlers can tell a missing row or a bad value apart
// from a broken connection.
package dberr

import (
	"context"
	"errors"

	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// Wrap classifies err raised by operation. Domain errors and context
// cancellation pass through unchanged; duplicate keys become
// errs.ErrValueIsInvalid; anything else is reported as errs.ErrStoreUnavailable.
func Wrap(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, errs.ErrObjectNotFound),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, errs.ErrPreconditionFailed):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.NewValueIsInvalidErrorWithCause(operation, err)
	default:
		return errs.NewStoreUnavailableError(operation, err)
	}
}
