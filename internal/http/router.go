package api

import (
	"log"
	stdhttp "net/http"

	intconfig "studio/internal/config"
	h "studio/internal/http/handlers"
	"studio/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const ownerRole = "owner"

// NewRouter wires middleware and routes. Handlers read their collaborators
// from h.Configure, which must run first.
func NewRouter(env intconfig.Env) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.Metrics(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.POST("/auth/login", h.Login)

		authed := api.Group("")
		authed.Use(middleware.Auth(h.TokenParser()))
		owner := middleware.RequireRoles(h.RoleLookup(), ownerRole)

		authed.GET("/auth/me", h.Me)
		authed.GET("/routes", owner, h.Routes)
		authed.POST("/quotes", h.QuoteBooking)

		bookings := authed.Group("/bookings")
		bookings.GET("", h.ListBookings)
		bookings.POST("", h.CreateBooking)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id", h.UpdateBooking)
		bookings.DELETE("/:id", h.DeleteBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.POST("/:id/report", h.AddBookingToReport)
		bookings.GET("/:id/receipt.pdf", h.BookingReceiptPDF)

		reports := authed.Group("/reports")
		reports.GET("", h.ListReports)
		reports.POST("", h.CreateReportEntry)
		reports.DELETE("/:id", h.DeleteReportEntry)
		reports.GET("/stats", h.ReportStats)
		reports.GET("/export.csv", h.ExportReportCSV)
		reports.GET("/export.pdf", h.ExportReportPDF)
		reports.POST("/repair", owner, h.RepairReportLinks)

		settings := authed.Group("/settings")
		settings.GET("", h.GetSettings)
		settings.PUT("/rooms", owner, h.UpdateRooms)
		settings.PUT("/equipment", owner, h.UpdateEquipment)

		roles := authed.Group("/roles", owner)
		roles.GET("", h.ListRoles)
		roles.PUT("/:email", h.SetRole)
		roles.DELETE("/:email", h.DeleteRole)
		authed.POST("/staff", owner, h.RegisterStaff)

		schedule := authed.Group("/schedule")
		schedule.GET("", h.GetSchedule)
		schedule.PUT("", owner, h.UpdateSchedule)
		schedule.GET("/slots", h.ScheduleSlots)

		calendar := authed.Group("/calendar")
		calendar.POST("/import", h.ImportCalendar)
		calendar.POST("/sync", h.SyncCalendar)
		calendar.GET("/events", h.ListCalendarEvents)
	}

	h.SetRouter(r)
	return r
}
