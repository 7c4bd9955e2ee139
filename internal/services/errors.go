package services

import (
	"errors"

	"github.com/blacklisthub/blacklisthub-backend/internal/apperrors"
	"github.com/blacklisthub/blacklisthub-backend/internal/repositories"
)

// maxWriteAttempts bounds optimistic retries of one logical write
const maxWriteAttempts = 3

var errTooManyConflicts = errors.New("record kept changing, giving up after retries")

// storeError translates repository sentinels into application errors
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return apperrors.NotFound("%s not found", what)
	case errors.Is(err, repositories.ErrUnavailable):
		return apperrors.StoreUnavailable(err)
	default:
		return err
	}
}

func retryable(err error) bool {
	return errors.Is(err, repositories.ErrConflict) || errors.Is(err, repositories.ErrDuplicateKey)
}
