package services

import (
	"errors"
	"fmt"

	"github.com/tomdro61/shop-pilot-sub000/db"
)

var (
	// ErrNotFound is the repository sentinel, re-exported so callers need not import db.
	ErrNotFound          = db.ErrNotFound
	ErrValidation        = errors.New("invalid request")
	ErrInvalidTransition = errors.New("invalid status transition")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalidID(entity string, id int) error {
	return validationError("invalid %s ID: %d", entity, id)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
