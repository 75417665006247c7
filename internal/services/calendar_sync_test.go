package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studio/internal/domain/models"
	"studio/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestShouldSync(t *testing.T) {
	now := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	from := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	fresh := models.CalendarSyncState{LastSync: now.Add(-20 * time.Minute), From: from, To: to}

	if !ShouldSync(models.CalendarSyncState{}, false, from, to, now) {
		t.Fatalf("never synced should sync")
	}
	if ShouldSync(fresh, true, from, to, now) {
		t.Fatalf("fresh window should not sync")
	}
	if ShouldSync(fresh, true, from.AddDate(0, 0, 1), to.AddDate(0, 0, -1), now) {
		t.Fatalf("narrower window inside a fresh one should not sync")
	}
	if !ShouldSync(fresh, true, from, to.AddDate(0, 0, 1), now) {
		t.Fatalf("window past the synced one should sync")
	}
	old := fresh
	old.LastSync = now.Add(-CalendarSyncInterval)
	if !ShouldSync(old, true, from, to, now) {
		t.Fatalf("an hour old sync should sync again")
	}
}

func googleMain(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/calendars/studio-main":
			_, _ = w.Write([]byte(`{"summary":"Main room"}`))
		case "/calendars/studio-main/events":
			_, _ = w.Write([]byte(`{"items":[
				{"id":"e2","summary":"Late","start":{"dateTime":"2025-01-06T19:00:00Z"},"end":{"dateTime":"2025-01-06T21:00:00Z"}},
				{"id":"e1","summary":"Kozak System","start":{"dateTime":"2025-01-06T16:00:00Z"},"end":{"dateTime":"2025-01-06T18:00:00Z"}}
			]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCalendarSyncReplacesWindow(t *testing.T) {
	db, mock := newMock(t)
	hits := 0
	srv := googleMain(t, &hits)

	mock.ExpectQuery("SELECT body, updated_at FROM app_settings").WithArgs("calendar_sync").
		WillReturnRows(sqlmock.NewRows([]string{"body", "updated_at"}))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM calendar_events WHERE start_at >= \\? AND start_at < \\?").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO calendar_events").
		WithArgs("studio-main", "e1", "Main room", "Kozak System", nil, nil, "main", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO calendar_events").
		WithArgs("studio-main", "e2", "Main room", "Late", nil, nil, "main", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO app_settings").WithArgs("calendar_sync", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := CalendarService{
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Store:      repositories.CalendarEventRepository{DB: db},
		DB:         db,
		Location:   time.UTC,
	}
	from := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	res, err := svc.Sync(context.Background(), CalendarToken{AccessToken: "tok"}, []string{"studio-main"}, from, from.AddDate(0, 0, 1), false)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Skipped || res.Stored != 2 || res.Removed != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if hits == 0 {
		t.Fatalf("google was not read")
	}
	checkMock(t, mock)
}

func TestCalendarSyncSkipsFreshWindow(t *testing.T) {
	db, mock := newMock(t)
	hits := 0
	srv := googleMain(t, &hits)

	from := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	last := time.Now().UTC().Add(-10 * time.Minute).Format(time.RFC3339)
	body := []byte(`{"lastSync":"` + last + `","from":"2025-01-01T00:00:00Z","to":"2025-01-31T00:00:00Z","events":4}`)
	mock.ExpectQuery("SELECT body, updated_at FROM app_settings").WithArgs("calendar_sync").
		WillReturnRows(sqlmock.NewRows([]string{"body", "updated_at"}).AddRow(body, time.Now()))

	svc := CalendarService{BaseURL: srv.URL, HTTPClient: srv.Client(), Store: repositories.CalendarEventRepository{DB: db}, DB: db}
	res, err := svc.Sync(context.Background(), CalendarToken{AccessToken: "tok"}, []string{"studio-main"}, from, from.AddDate(0, 0, 7), false)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !res.Skipped || hits != 0 {
		t.Fatalf("fresh window should be skipped without reading google, got %+v hits=%d", res, hits)
	}
	checkMock(t, mock)
}

func TestCalendarCachedPricesStoredEvents(t *testing.T) {
	db, mock := newMock(t)
	start := time.Date(2025, 1, 6, 16, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM calendar_events WHERE start_at >= \\? AND start_at < \\?").
		WillReturnRows(sqlmock.NewRows([]string{"calendar_id", "event_id", "calendar_name", "summary", "description", "location", "room_id", "start_at", "end_at"}).
			AddRow("studio-main", "e1", "Main room", "Kozak System", nil, nil, "main", start, start.Add(2*time.Hour)))
	mock.ExpectQuery("SELECT body, updated_at FROM app_settings").WithArgs("calendar_sync").
		WillReturnRows(sqlmock.NewRows([]string{"body", "updated_at"}))

	svc := CalendarService{Store: repositories.CalendarEventRepository{DB: db}, DB: db, Prices: defaultPrices(), Location: time.UTC}
	from := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	got, err := svc.Cached(context.Background(), from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Cached: %v", err)
	}
	if len(got.Drafts) != 1 || got.Drafts[0].Booking.TotalPrice != 600 || got.Drafts[0].Booking.RoomID != "main" {
		t.Fatalf("unexpected drafts %+v", got.Drafts)
	}
	if !got.Stale || got.LastSync != nil {
		t.Fatalf("never synced cache should be stale, got %+v", got)
	}
	checkMock(t, mock)
}
