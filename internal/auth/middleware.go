package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireToken returns a middleware that checks "Authorization: Bearer <token>".
// If missing or wrong, responds with 401. An empty token disables the check.
func RequireToken(token string) gin.HandlerFunc {
	want := []byte(strings.TrimSpace(token))
	return func(c *gin.Context) {
		if len(want) == 0 {
			c.Next()
			return
		}
		got := stripBearer(strings.TrimSpace(c.GetHeader("Authorization")))
		if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		c.Next()
	}
}
