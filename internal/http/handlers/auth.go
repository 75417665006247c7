package handlers

import (
	"net/http"

	"studio/internal/http/middleware"
	"studio/internal/services"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	session, err := authService(c).Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// GET /api/auth/me
func Me(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	role, err := roleService(c).RoleOf(c.Request.Context(), actor.Email)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": actor.Email, "role": role})
}

// POST /api/staff
func RegisterStaff(c *gin.Context) {
	var in services.RegisterInput
	if !BindJSONOrError(c, &in) {
		return
	}
	u, err := authService(c).Register(c.Request.Context(), middleware.CurrentActor(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}
