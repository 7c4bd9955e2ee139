package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/blacklisthub/blacklisthub-backend/internal/apperrors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
)

// statusFor maps an application error kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrIllegalTransition):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"message": ...}. Unclassified errors are not echoed to the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	message := apperrors.Message(err)
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

func parseID(c *gin.Context) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return primitive.NilObjectID, apperrors.Validation("invalid id: %s", c.Param("id"))
	}
	return id, nil
}

// queryInt reads an integer query parameter, falling back to def when absent
func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validation("%s must be an integer", key)
	}
	return n, nil
}

func pagination(c *gin.Context) (page, pageSize int, err error) {
	if page, err = queryInt(c, "page", defaultPage); err != nil {
		return 0, 0, err
	}
	if pageSize, err = queryInt(c, "pageSize", defaultPageSize); err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func bindError(err error) error {
	return apperrors.Validation("invalid request body: %v", err)
}
