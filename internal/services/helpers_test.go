package services

import (
	"database/sql"
	"testing"
	"time"

	"studio/internal/domain"
	"studio/internal/domain/models"
	"studio/internal/pricing"

	"github.com/DATA-DOG/go-sqlmock"
)

var bookingCols = []string{
	"id", "band_name", "booking_date", "start_time", "end_time", "room_id",
	"room_bookings", "is_resident", "equipment", "equipment_bookings",
	"payment_type", "cash_amount", "card_amount",
	"total_hours", "equipment_hours", "total_price", "notes",
	"created_at", "created_by", "source", "status", "cancelled_at", "cancelled_by",
	"report_status", "report_id", "version",
}

// bookingRow is main 16:00-18:00 on Monday 2025-01-06 with a guitar, priced 800.
func bookingRow(id, createdBy, reportStatus, reportID string, version int64) *sqlmock.Rows {
	return sqlmock.NewRows(bookingCols).AddRow(
		id, "Kozak System", "2025-01-06", "16:00", "18:00", "main",
		[]byte(`[{"roomId":"main","hours":2}]`), false, []byte(`["guitar"]`), []byte(`[]`),
		"card", nil, nil,
		2.0, 2.0, 800.0, "",
		time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), createdBy, "manual", "active", nil, "",
		reportStatus, reportID, version,
	)
}

var reportCols = []string{
	"id", "booking_id", "band_name", "report_date", "room_id", "room_name", "room_lines",
	"start_time", "end_time", "total_hours", "room_price", "equipment_price", "total_price",
	"payment_type", "cash_amount", "card_amount", "is_resident", "equipment", "equipment_hours",
	"equipment_bookings", "created_by", "created_at", "updated_at", "source", "notes", "version",
}

func reportRow(id, bookingID, createdBy string) *sqlmock.Rows {
	return sqlmock.NewRows(reportCols).AddRow(
		id, bookingID, "Kozak System", "2025-01-06", "main", "Main", []byte(`[{"roomId":"main","roomName":"Main","hours":2,"price":600}]`),
		"16:00", "18:00", 2.0, 600.0, 200.0, 800.0,
		"card", nil, nil, false, []byte(`["guitar"]`), 2.0,
		[]byte(`[]`), createdBy, time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC), nil, "manual", "", int64(1),
	)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func checkMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func defaultPrices() StaticPrices {
	return StaticPrices(pricing.DefaultPriceTable())
}

var (
	owner  = domain.Actor{Email: "owner@studio.ua", Role: models.RoleOwner}
	anna   = domain.Actor{Email: "anna@studio.ua", Role: models.RoleAdmin}
	bohdan = domain.Actor{Email: "bohdan@studio.ua", Role: models.RoleAdmin}
)

// mondayMain is main 16:00-18:00 on a Monday: one day hour and one evening hour.
func mondayMain() BookingInput {
	return BookingInput{
		BandName:     "Kozak System",
		Date:         "2025-01-06",
		StartTime:    "16:00",
		EndTime:      "18:00",
		RoomBookings: []models.RoomBooking{{RoomID: "main"}},
		Payment:      models.Card(),
	}
}
