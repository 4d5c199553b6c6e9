package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"autoplate-renamer/internal/domain/account"
	"autoplate-renamer/internal/service"
)

const identityKey = "identity"

// AuthMiddleware accepts a Bearer token, or a token query parameter for
// clients that cannot set headers (browser websockets).
func AuthMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if header := c.GetHeader("Authorization"); header != "" {
			fields := strings.Fields(header)
			if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("invalid authorization header"))
				return
			}
			token = fields[1]
		} else {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("no token provided"))
			return
		}

		id, err := auth.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("invalid token"))
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity(c)
		if !ok || !id.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse("admin access required"))
			return
		}
		c.Next()
	}
}

func identity(c *gin.Context) (account.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return account.Identity{}, false
	}
	id, ok := v.(account.Identity)
	return id, ok
}

func mustIdentity(c *gin.Context) account.Identity {
	id, _ := identity(c)
	return id
}
