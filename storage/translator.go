package storage

import (
	"errors"

	apperrors "github.com/kbukum/convoview/errors"
)

// FromStorage converts a storage error to an AppError. Missing objects map
// to NotFound; anything else is a retryable storage failure.
func FromStorage(err error, op, path string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	if errors.Is(err, ErrNotFound) {
		return apperrors.NotFound("file", path).WithCause(err)
	}
	return apperrors.StorageError(op, err)
}
