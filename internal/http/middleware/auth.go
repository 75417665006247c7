package middleware

import (
	"net/http"
	"strings"

	"studio/internal/domain"
	"studio/internal/domain/models"
	"studio/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	userEmailKey = "userEmail"
	userRoleKey  = "userRole"
)

// TokenParser verifies a bearer token.
type TokenParser interface {
	Parse(token string) (services.Claims, error)
}

// Auth rejects requests without a valid bearer token and stores the staff
// email and role in the context.
func Auth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		claims, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}
		c.Set(userEmailKey, claims.Email)
		c.Set(userRoleKey, string(claims.Role))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      msg,
		"code":       "unauthorized",
		"request_id": GetRequestID(c),
	})
}

// CurrentActor returns the authenticated staff member of the request.
func CurrentActor(c *gin.Context) domain.Actor {
	return domain.Actor{
		RequestID: GetRequestID(c),
		Email:     c.GetString(userEmailKey),
		Role:      models.UserRole(c.GetString(userRoleKey)),
	}
}

// SetActor stores an actor in the context, as Auth does after verifying a token.
func SetActor(c *gin.Context, email string, role models.UserRole) {
	c.Set(userEmailKey, email)
	c.Set(userRoleKey, string(role))
}
