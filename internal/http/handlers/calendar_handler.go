package handlers

import (
	"net/http"
	"time"

	"studio/internal/services"

	"github.com/gin-gonic/gin"
)

const defaultImportDays = 7

type calendarImportRequest struct {
	services.CalendarToken
	CalendarIDs []string `json:"calendarIds"`
	From        string   `json:"from"`
	To          string   `json:"to"`
}

type calendarSyncRequest struct {
	calendarImportRequest
	Force bool `json:"force"`
}

// importWindow parses the yyyy-MM-dd bounds in the studio timezone. The end
// date is inclusive. Missing bounds default to the coming week.
func importWindow(req calendarImportRequest, loc *time.Location, now time.Time) (time.Time, time.Time, bool) {
	from := time.Date(now.In(loc).Year(), now.In(loc).Month(), now.In(loc).Day(), 0, 0, 0, 0, loc)
	if req.From != "" {
		t, err := time.ParseInLocation("2006-01-02", req.From, loc)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		from = t
	}
	to := from.AddDate(0, 0, defaultImportDays)
	if req.To != "" {
		t, err := time.ParseInLocation("2006-01-02", req.To, loc)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		to = t.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// POST /api/calendar/import returns priced drafts. Nothing is stored.
func ImportCalendar(c *gin.Context) {
	var req calendarImportRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	from, to, ok := importWindow(req, current().location(), time.Now())
	if !ok {
		respondError(c, http.StatusBadRequest, "validation_error", "from/to must be yyyy-MM-dd with from before to", nil)
		return
	}
	drafts, err := calendarService(c).Import(c.Request.Context(), req.CalendarToken, req.CalendarIDs, from, to)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": drafts})
}

// POST /api/calendar/sync replaces the stored events of the window. A window
// synced within the last hour is skipped unless force is set.
func SyncCalendar(c *gin.Context) {
	var req calendarSyncRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	from, to, ok := importWindow(req.calendarImportRequest, current().location(), time.Now())
	if !ok {
		respondError(c, http.StatusBadRequest, "validation_error", "from/to must be yyyy-MM-dd with from before to", nil)
		return
	}
	res, err := calendarService(c).Sync(c.Request.Context(), req.CalendarToken, req.CalendarIDs, from, to, req.Force)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/calendar/events?from=&to= lists stored events as priced drafts.
func ListCalendarEvents(c *gin.Context) {
	q := calendarImportRequest{From: c.Query("from"), To: c.Query("to")}
	from, to, ok := importWindow(q, current().location(), time.Now())
	if !ok {
		respondError(c, http.StatusBadRequest, "validation_error", "from/to must be yyyy-MM-dd with from before to", nil)
		return
	}
	cached, err := calendarService(c).Cached(c.Request.Context(), from, to)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, cached)
}
