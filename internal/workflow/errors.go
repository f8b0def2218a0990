package workflow

import (
	"errors"
	"fmt"

	"pmboard/internal/repository"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrStageLocked     = errors.New("stage is locked until all earlier stages are approved")
	ErrNotSubmittable  = errors.New("stage cannot be submitted for approval")
	ErrCommentRequired = errors.New("a comment is required to reject a stage")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
)

// validation wraps ErrValidation with the offending field.
func validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// storeError maps repository sentinels onto workflow ones.
func storeError(what string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound(what)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%s %w", what, ErrConflict)
	default:
		return err
	}
}
