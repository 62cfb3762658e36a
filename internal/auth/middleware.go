package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ram4lh0/Sleep-App/internal"
)

// Context keys set by AuthMiddleware.
const (
	UserKey    = "user"
	SessionKey = "session_id"
)

// AuthMiddleware resolves the bearer token with the local or the remote
// provider and stores the user and session id on the gin context.
func AuthMiddleware(provider Provider, remote bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
			token := strings.TrimSpace(header[7:])
			var id *Identity
			var err error
			if remote {
				id, err = provider.ValidateTokenRemote(c.Request.Context(), token)
			} else {
				id, err = provider.ValidateTokenLocal(c.Request.Context(), token)
			}
			if err == nil {
				c.Set(UserKey, id.User)
				c.Set(SessionKey, id.SessionID)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": internal.NewAppError(http.StatusUnauthorized, "Unauthorized")})
	}
}

// CurrentUser returns the user stored by AuthMiddleware.
func CurrentUser(c *gin.Context) *internal.User {
	return c.MustGet(UserKey).(*internal.User)
}
