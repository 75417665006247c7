package middleware

import (
	"context"
	"net/http"
	"strings"

	"studio/internal/domain/models"
	"studio/internal/utils"

	"github.com/gin-gonic/gin"
)

// RoleLookup reads the stored role of a staff member. An empty role means no
// store is available and the token role stands.
type RoleLookup interface {
	RoleOf(ctx context.Context, email string) (models.UserRole, error)
}

// RequireRoles lets through only requests whose role, set by Auth, is one of
// allowedRoles. With a lookup the stored role is checked as well, so a
// demoted owner loses access at once instead of when the token expires.
//
//	r.POST("/reports/repair", RequireRoles(lookup, "owner"), handler)
func RequireRoles(lookup RoleLookup, allowedRoles ...string) gin.HandlerFunc {
	allowed := roleSet(allowedRoles)
	return func(c *gin.Context) {
		if !roleAllowed(c, allowed) {
			return
		}
		if lookup == nil {
			c.Next()
			return
		}
		role, err := lookup.RoleOf(c.Request.Context(), c.GetString(userEmailKey))
		if err != nil {
			utils.LogError(GetRequestID(c), "auth", "role_lookup", c.GetString(userEmailKey), err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":      "failed to verify role",
				"code":       "internal_error",
				"request_id": GetRequestID(c),
			})
			return
		}
		if role != "" {
			c.Set(userRoleKey, string(role))
			if !roleAllowed(c, allowed) {
				return
			}
		}
		c.Next()
	}
}

func roleSet(roles []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return allowed
}

func roleAllowed(c *gin.Context, allowed map[string]struct{}) bool {
	role := strings.ToLower(strings.TrimSpace(c.GetString(userRoleKey)))
	if role == "" {
		abortUnauthorized(c, "no role on request")
		return false
	}
	if _, ok := allowed[role]; !ok {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":      "role not allowed",
			"code":       "forbidden",
			"request_id": GetRequestID(c),
		})
		return false
	}
	return true
}
