package middleware

import (
	"net/http"
	"strings"

	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	actorKey = "actor"
	// TokenCookie carries the session token for browser clients
	TokenCookie = "token"
)

// TokenVerifier resolves a session token to an actor
type TokenVerifier interface {
	VerifyToken(token string) (*models.Actor, error)
}

// JWTAuthMiddleware rejects requests without a valid session token and stores the actor in the context.
// The token is read from the Authorization header first, then from the token cookie.
func JWTAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		actor, err := verifier.VerifyToken(token)
		if err != nil || actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired session"})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// CurrentActor returns the authenticated actor, or nil outside JWTAuthMiddleware
func CurrentActor(c *gin.Context) *models.Actor {
	value, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := value.(*models.Actor)
	return actor
}

func extractToken(c *gin.Context) string {
	const bearerSchema = "Bearer "
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, bearerSchema) {
		return strings.TrimSpace(header[len(bearerSchema):])
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}
