package handlers

import (
	"net/http"

	"studio/internal/domain/models"
	"studio/internal/http/middleware"
	"studio/internal/pricing"

	"github.com/gin-gonic/gin"
)

// GET /api/settings
func GetSettings(c *gin.Context) {
	s := current().Settings
	if s == nil {
		c.JSON(http.StatusOK, gin.H{"settings": pricing.DefaultPriceTable(), "source": "defaults"})
		return
	}
	table := s.Current(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"settings": table, "source": s.Source()})
}

type roomsRequest struct {
	Rooms []models.Room `json:"rooms" binding:"required"`
}

// PUT /api/settings/rooms
func UpdateRooms(c *gin.Context) {
	var req roomsRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	s := current().Settings
	if s == nil {
		respondError(c, http.StatusServiceUnavailable, "settings_unavailable", "settings store is not configured", nil)
		return
	}
	table, err := s.UpdateRooms(c.Request.Context(), middleware.CurrentActor(c), req.Rooms)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": table})
}

type equipmentRequest struct {
	Equipment []models.Equipment `json:"equipment" binding:"required"`
}

// PUT /api/settings/equipment
func UpdateEquipment(c *gin.Context) {
	var req equipmentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	s := current().Settings
	if s == nil {
		respondError(c, http.StatusServiceUnavailable, "settings_unavailable", "settings store is not configured", nil)
		return
	}
	table, err := s.UpdateEquipment(c.Request.Context(), middleware.CurrentActor(c), req.Equipment)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": table})
}
