package handlers

import (
	"net/http"
	"strings"

	"studio/internal/domain"
	"studio/internal/domain/models"
	"studio/internal/http/middleware"
	"studio/internal/repositories"
	"studio/internal/services"

	"github.com/gin-gonic/gin"
)

// POST /api/quotes
func QuoteBooking(c *gin.Context) {
	var in services.BookingInput
	if !BindJSONOrError(c, &in) {
		return
	}
	c.JSON(http.StatusOK, bookingService(c).Quote(c.Request.Context(), in))
}

// GET /api/bookings?from=&to=&status=&reportStatus=&createdBy=&page=&pageSize=
func ListBookings(c *gin.Context) {
	f := repositories.BookingFilter{
		From:         strings.TrimSpace(c.Query("from")),
		To:           strings.TrimSpace(c.Query("to")),
		Status:       models.BookingStatus(c.Query("status")),
		ReportStatus: models.ReportStatus(c.Query("reportStatus")),
		CreatedBy:    models.NormalizeEmail(c.Query("createdBy")),
	}
	page := domain.Pagination{Page: queryInt(c, "page", 1), PageSize: queryInt(c, "pageSize", 0)}.Normalize()

	list, err := bookingService(c).List(c.Request.Context(), f, page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list, "page": page.Page, "pageSize": page.PageSize})
}

// POST /api/bookings
func CreateBooking(c *gin.Context) {
	var in services.BookingInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, warnings, err := bookingService(c).Create(c.Request.Context(), middleware.CurrentActor(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b, "warnings": warnings})
}

// GET /api/bookings/:id
func GetBooking(c *gin.Context) {
	b, err := bookingService(c).Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// PUT /api/bookings/:id
func UpdateBooking(c *gin.Context) {
	var in services.BookingInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, warnings, err := bookingService(c).Update(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b, "warnings": warnings})
}

type cancelRequest struct {
	Version int64 `json:"version"`
}

// POST /api/bookings/:id/cancel
func CancelBooking(c *gin.Context) {
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid_payload", "invalid payload", err.Error())
			return
		}
	}
	b, err := bookingService(c).Cancel(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), req.Version)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DELETE /api/bookings/:id
func DeleteBooking(c *gin.Context) {
	if err := bookingService(c).Delete(c.Request.Context(), middleware.CurrentActor(c), c.Param("id")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/bookings/:id/report
func AddBookingToReport(c *gin.Context) {
	entry, err := reportService(c).AddToReport(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}
