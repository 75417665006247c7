package handlers

import (
	"net/http"

	"studio/internal/domain/models"
	"studio/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// GET /api/schedule
func GetSchedule(c *gin.Context) {
	sch, err := scheduleService(c).Get(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sch)
}

// PUT /api/schedule
func UpdateSchedule(c *gin.Context) {
	var sch models.ScheduleSettings
	if !BindJSONOrError(c, &sch) {
		return
	}
	saved, err := scheduleService(c).Update(c.Request.Context(), middleware.CurrentActor(c), sch)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// GET /api/schedule/slots?date=yyyy-MM-dd&duration=2&room=main
func ScheduleSlots(c *gin.Context) {
	date := c.Query("date")
	slots, err := scheduleService(c).Slots(c.Request.Context(), date, queryFloat(c, "duration", 0), c.Query("room"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "slots": slots})
}
