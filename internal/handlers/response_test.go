package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacklisthub/blacklisthub-backend/internal/apperrors"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperrors.Validation("bad"), http.StatusBadRequest},
		{"illegal transition", apperrors.IllegalTransition("published", "pending"), http.StatusBadRequest},
		{"unauthorized", apperrors.Unauthorized("no session"), http.StatusUnauthorized},
		{"invalid credentials", &apperrors.Error{Kind: apperrors.ErrInvalidCredentials, Message: "nope"}, http.StatusUnauthorized},
		{"permission", apperrors.Permission("no"), http.StatusForbidden},
		{"not found", apperrors.NotFound("gone"), http.StatusNotFound},
		{"store unavailable", apperrors.StoreUnavailable(errors.New("too many write conflicts")), http.StatusServiceUnavailable},
		{"wrapped kind", fmt.Errorf("update: %w", apperrors.NotFound("gone")), http.StatusNotFound},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRespondErrorHidesUnclassifiedErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for err, want := range map[error]string{
		errors.New("mongo: connection string leaked"): "internal server error",
		apperrors.Validation("value is required"):     "value is required",
	} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, err)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, want, body["message"])
	}
}
