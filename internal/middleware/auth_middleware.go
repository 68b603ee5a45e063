package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tasky/internal/auth"
)

const (
	UserIDKey = "userID"
	EmailKey  = "userEmail"
)

// JWTAuthMiddleware проверяет Bearer-токен и кладёт идентичность
// пользователя в контекст запроса.
func JWTAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		identity, err := auth.ParseToken(jwtSecret, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, identity.UserID)
		c.Set(EmailKey, identity.Email)
		c.Next()
	}
}

// CurrentUser returns the authenticated identity from the request context.
func CurrentUser(c *gin.Context) (auth.Identity, bool) {
	userID, ok := c.Get(UserIDKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		return auth.Identity{}, false
	}
	email, _ := c.Get(EmailKey)
	emailStr, _ := email.(string)
	return auth.Identity{UserID: id, Email: emailStr}, true
}
