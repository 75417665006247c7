package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"studio/internal/domain"
	"studio/internal/domain/models"
	"studio/internal/pricing"
	"studio/internal/repositories"
	"studio/internal/utils"

	"golang.org/x/oauth2"
)

const (
	googleCalendarAPI     = "https://www.googleapis.com/calendar/v3"
	calendarDraftIDPrefix = models.TemporaryIDPrefix + "calendar-"
	untitledEvent         = "Без назви"
)

// GoogleEndpoint is Google's OAuth2 endpoint.
var GoogleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// CalendarToken is the Google credential a staff member hands over for an import.
type CalendarToken struct {
	AccessToken  string `json:"accessToken" binding:"required"`
	RefreshToken string `json:"refreshToken"`
}

// CalendarDraft is an imported event priced as an unsaved booking.
type CalendarDraft struct {
	Event   models.CalendarEvent `json:"event"`
	Booking models.Booking       `json:"booking"`
	Quote   pricing.Quote        `json:"quote"`
}

// CalendarService reads Google Calendar events, keeps a synced copy per window
// and turns events into booking drafts.
type CalendarService struct {
	OAuth      *oauth2.Config
	BaseURL    string
	HTTPClient *http.Client
	Prices     PriceSource
	Location   *time.Location
	Store      repositories.CalendarEventRepository
	DB         *sql.DB
	RequestID  string
}

// NewOAuthConfig returns the client config used to refresh calendar tokens.
func NewOAuthConfig(clientID, clientSecret string) *oauth2.Config {
	if clientID == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     GoogleEndpoint,
		Scopes:       []string{"https://www.googleapis.com/auth/calendar.readonly"},
	}
}

func (s CalendarService) client(ctx context.Context, tok CalendarToken) *http.Client {
	if s.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.HTTPClient)
	}
	t := &oauth2.Token{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken, TokenType: "Bearer"}
	if s.OAuth != nil && tok.RefreshToken != "" {
		return oauth2.NewClient(ctx, s.OAuth.TokenSource(ctx, t))
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(t))
}

func (s CalendarService) baseURL() string {
	if s.BaseURL != "" {
		return strings.TrimRight(s.BaseURL, "/")
	}
	return googleCalendarAPI
}

func (s CalendarService) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

type googleTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

type googleEvent struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Start       googleTime `json:"start"`
	End         googleTime `json:"end"`
}

func (g googleTime) parse(loc *time.Location) (time.Time, bool) {
	if g.DateTime != "" {
		t, err := time.Parse(time.RFC3339, g.DateTime)
		return t, err == nil
	}
	if g.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", g.Date, loc)
		return t, err == nil
	}
	return time.Time{}, false
}

func (s CalendarService) getJSON(ctx context.Context, c *http.Client, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.ForbiddenError{Msg: "google token expired, sign in again"}
	case resp.StatusCode >= 300:
		return fmt.Errorf("google calendar: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// ClassifyRoom maps a calendar to a room by its id or name.
func ClassifyRoom(calendarID, calendarName string) string {
	id := strings.ToLower(calendarID)
	name := strings.ToLower(calendarName)
	switch {
	case strings.Contains(id, "main") || strings.Contains(name, "main"):
		return "main"
	case strings.Contains(id, "standart") || strings.Contains(name, "standart"):
		return "standart"
	}
	return ""
}

// Events lists single events of the given calendars between from and to,
// ordered by start. A calendar that fails to load is skipped.
func (s CalendarService) Events(ctx context.Context, tok CalendarToken, calendarIDs []string, from, to time.Time) ([]models.CalendarEvent, error) {
	if strings.TrimSpace(tok.AccessToken) == "" {
		return nil, domain.ValidationError{Field: "accessToken", Msg: "google access token is required"}
	}
	if len(calendarIDs) == 0 {
		calendarIDs = []string{"primary"}
	}
	c := s.client(ctx, tok)
	out := []models.CalendarEvent{}
	failed := 0
	var lastErr error
	for _, id := range calendarIDs {
		evs, err := s.calendarEvents(ctx, c, id, from, to)
		if err != nil {
			if domain.IsForbidden(err) {
				return nil, err
			}
			failed++
			lastErr = err
			utils.LogError(s.RequestID, "calendar", "events", "calendar skipped", err)
			continue
		}
		out = append(out, evs...)
	}
	if failed == len(calendarIDs) {
		return nil, domain.InternalError{Msg: "failed to read google calendar", Err: lastErr}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (s CalendarService) calendarEvents(ctx context.Context, c *http.Client, calendarID string, from, to time.Time) ([]models.CalendarEvent, error) {
	base := s.baseURL() + "/calendars/" + url.PathEscape(calendarID)

	var info struct {
		Summary string `json:"summary"`
	}
	if err := s.getJSON(ctx, c, base, &info); err != nil {
		info.Summary = calendarID
	}

	q := url.Values{}
	q.Set("timeMin", from.UTC().Format(time.RFC3339))
	q.Set("timeMax", to.UTC().Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	var page struct {
		Items []googleEvent `json:"items"`
	}
	if err := s.getJSON(ctx, c, base+"/events?"+q.Encode(), &page); err != nil {
		return nil, err
	}

	loc := s.location()
	out := make([]models.CalendarEvent, 0, len(page.Items))
	for _, g := range page.Items {
		if g.Status == "cancelled" {
			continue
		}
		start, ok := g.Start.parse(loc)
		if !ok {
			continue
		}
		end, ok := g.End.parse(loc)
		if !ok {
			end = start
		}
		summary := strings.TrimSpace(g.Summary)
		if summary == "" {
			summary = untitledEvent
		}
		out = append(out, models.CalendarEvent{
			ID:           g.ID,
			CalendarID:   calendarID,
			CalendarName: info.Summary,
			Summary:      summary,
			Description:  g.Description,
			Location:     g.Location,
			Start:        start,
			End:          end,
			RoomID:       ClassifyRoom(calendarID, info.Summary),
		})
	}
	return out, nil
}

// Import reads events and prices each one as a booking draft. Nothing is stored.
func (s CalendarService) Import(ctx context.Context, tok CalendarToken, calendarIDs []string, from, to time.Time) ([]CalendarDraft, error) {
	evs, err := s.Events(ctx, tok, calendarIDs, from, to)
	if err != nil {
		return nil, err
	}
	out := s.drafts(ctx, evs)
	utils.LogEvent(s.RequestID, "calendar", "import", fmt.Sprintf("calendars=%d drafts=%d", len(calendarIDs), len(out)))
	return out, nil
}

func (s CalendarService) drafts(ctx context.Context, evs []models.CalendarEvent) []CalendarDraft {
	table := pricing.DefaultPriceTable()
	if s.Prices != nil {
		table = s.Prices.Current(ctx)
	}
	out := make([]CalendarDraft, 0, len(evs))
	for _, ev := range evs {
		b, q := DraftFromEvent(table, ev, s.location())
		out = append(out, CalendarDraft{Event: ev, Booking: b, Quote: q})
	}
	return out
}

// DraftFromEvent builds a priced, unsaved booking from a calendar event.
func DraftFromEvent(table pricing.PriceTable, ev models.CalendarEvent, loc *time.Location) (models.Booking, pricing.Quote) {
	b := models.Booking{
		ID:           calendarDraftIDPrefix + ev.ID,
		BandName:     ev.Summary,
		Date:         utils.FormatDate(ev.Start, loc),
		StartTime:    utils.FormatClock(ev.Start, loc),
		EndTime:      utils.FormatClock(ev.End, loc),
		Notes:        ev.Description,
		Source:       models.SourceCalendar,
		Status:       models.BookingActive,
		ReportStatus: models.ReportPending,
		CreatedAt:    ev.Start.UTC(),
	}
	if ev.RoomID != "" {
		b.RoomBookings = []models.RoomBooking{{RoomID: ev.RoomID}}
	}
	b.Normalize()
	q := pricing.Calculate(table, pricing.RequestFromBooking(b))
	b.RoomBookings = make([]models.RoomBooking, 0, len(q.RoomLines))
	for _, l := range q.RoomLines {
		b.RoomBookings = append(b.RoomBookings, models.RoomBooking{RoomID: l.RoomID, Hours: l.Hours})
	}
	b.TotalHours = q.TotalHours
	b.TotalPrice = q.TotalPrice
	b.Normalize()
	return b, q
}
