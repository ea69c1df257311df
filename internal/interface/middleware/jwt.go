package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/idstack/identity-service/pkg/helpers"
	"github.com/idstack/identity-service/pkg/response"
)

const CtxUserIDKey = "userID"

// JWTAuth reads the Authorization bearer token, validates it, and injects
// the user ID into the Gin context.
func JWTAuth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.AbortError(c, http.StatusUnauthorized, "missing access token")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			response.AbortError(c, http.StatusUnauthorized, "invalid authorization header")
			return
		}
		claims, err := jwt.ParseToken(token)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "invalid access token")
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Next()
	}
}
