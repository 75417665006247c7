package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"sync"
	"time"

	"studio/internal/domain/models"
	"studio/internal/events"
	"studio/internal/http/middleware"
	"studio/internal/reporting"
	"studio/internal/repositories"
	"studio/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps are the shared collaborators the handlers build their services from.
type Deps struct {
	DB        *sql.DB
	Settings  *services.SettingsService
	Prices    services.PriceSource
	Events    events.Publisher
	JWTSecret []byte
	JWTTTL    time.Duration
	Calendar  services.CalendarService
	Location  *time.Location
}

var (
	depsMu sync.RWMutex
	deps   Deps
)

// Configure installs the dependencies used by every handler.
func Configure(d Deps) {
	depsMu.Lock()
	defer depsMu.Unlock()
	deps = d
}

func current() Deps {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return deps
}

// prices prefers an explicit source over the settings service.
func (d Deps) prices() services.PriceSource {
	if d.Prices != nil {
		return d.Prices
	}
	if d.Settings != nil {
		return d.Settings
	}
	return nil
}

func (d Deps) location() *time.Location {
	if d.Location != nil {
		return d.Location
	}
	return time.UTC
}

func bookingService(c *gin.Context) services.BookingService {
	d := current()
	return services.BookingService{
		Bookings:  repositories.BookingRepository{DB: d.DB},
		Reports:   repositories.ReportRepository{DB: d.DB},
		Prices:    d.prices(),
		Events:    d.Events,
		DB:        d.DB,
		RequestID: middleware.GetRequestID(c),
	}
}

func reportService(c *gin.Context) services.ReportService {
	d := current()
	return services.ReportService{
		Bookings:  repositories.BookingRepository{DB: d.DB},
		Reports:   repositories.ReportRepository{DB: d.DB},
		Prices:    d.prices(),
		Events:    d.Events,
		DB:        d.DB,
		RequestID: middleware.GetRequestID(c),
	}
}

func roleService(c *gin.Context) services.RoleService {
	d := current()
	return services.RoleService{
		Repo:      repositories.UserRoleRepository{DB: d.DB},
		DB:        d.DB,
		RequestID: middleware.GetRequestID(c),
	}
}

func authService(c *gin.Context) services.AuthService {
	d := current()
	return services.AuthService{
		Users:     repositories.UserRepository{DB: d.DB},
		Roles:     roleService(c),
		Secret:    d.JWTSecret,
		TTL:       d.JWTTTL,
		RequestID: middleware.GetRequestID(c),
	}
}

func scheduleService(c *gin.Context) services.ScheduleService {
	d := current()
	return services.ScheduleService{
		Repo:      repositories.ScheduleRepository{DB: d.DB},
		Bookings:  repositories.BookingRepository{DB: d.DB},
		RequestID: middleware.GetRequestID(c),
	}
}

func docsService(c *gin.Context) services.DocsService {
	return services.DocsService{
		Reports:   reportService(c),
		Bookings:  bookingService(c),
		Prices:    current().prices(),
		RequestID: middleware.GetRequestID(c),
	}
}

func calendarService(c *gin.Context) services.CalendarService {
	d := current()
	svc := d.Calendar
	svc.Prices = d.prices()
	if svc.Location == nil {
		svc.Location = d.location()
	}
	svc.Store = repositories.CalendarEventRepository{DB: d.DB}
	svc.DB = d.DB
	svc.RequestID = middleware.GetRequestID(c)
	return svc
}

type tokenParser struct{}

func (tokenParser) Parse(token string) (services.Claims, error) {
	return services.AuthService{Secret: current().JWTSecret}.Parse(token)
}

// TokenParser verifies bearer tokens with the configured secret.
func TokenParser() middleware.TokenParser { return tokenParser{} }

type roleLookup struct{}

func (roleLookup) RoleOf(ctx context.Context, email string) (models.UserRole, error) {
	d := current()
	if d.DB == nil {
		return "", nil
	}
	return services.RoleService{Repo: repositories.UserRoleRepository{DB: d.DB}, DB: d.DB}.RoleOf(ctx, email)
}

// RoleLookup reads stored roles from the configured database.
func RoleLookup() middleware.RoleLookup { return roleLookup{} }

func viewer(c *gin.Context) reporting.Viewer {
	a := middleware.CurrentActor(c)
	return reporting.Viewer{Email: a.Email, Owner: a.IsOwner()}
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "empty_body", "request body is empty", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", "invalid payload", err.Error())
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return def
}

func queryFloat(c *gin.Context, key string, def float64) float64 {
	if v, err := strconv.ParseFloat(c.Query(key), 64); err == nil {
		return v
	}
	return def
}
