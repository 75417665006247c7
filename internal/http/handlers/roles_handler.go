package handlers

import (
	"net/http"

	"studio/internal/domain/models"
	"studio/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// GET /api/roles
func ListRoles(c *gin.Context) {
	list, err := roleService(c).List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

type roleRequest struct {
	Role models.UserRole `json:"role" binding:"required"`
}

// PUT /api/roles/:email
func SetRole(c *gin.Context) {
	var req roleRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	d, err := roleService(c).Set(c.Request.Context(), middleware.CurrentActor(c), c.Param("email"), req.Role)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// DELETE /api/roles/:email
func DeleteRole(c *gin.Context) {
	if err := roleService(c).Remove(c.Request.Context(), middleware.CurrentActor(c), c.Param("email")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
