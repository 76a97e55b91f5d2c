// internal/server/auth.go
package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AzlanEh/EducationPlus-sub000/internal/models"
	"github.com/AzlanEh/EducationPlus-sub000/internal/service"
)

const (
	userKey           = "user"
	sessionCookieName = "session_token"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware resolves the session from a bearer token or the session
// cookie and stores the user on the context.
func AuthMiddleware(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.Authenticate(c.Request.Context(), sessionToken(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || user.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{
				Error: "You do not have permission to perform this action",
				Code:  "FORBIDDEN",
			})
			return
		}
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if token, err := c.Cookie(sessionCookieName); err == nil {
		return token
	}
	return ""
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

var _ Authenticator = (*service.UserService)(nil)
