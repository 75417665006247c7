package repositories

import (
	"context"
	"testing"
	"time"

	"studio/internal/domain"
	"studio/internal/domain/models"

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

func bookingRows(id, reportStatus, reportID string) *sqlmock.Rows {
	return sqlmock.NewRows(bookingCols).AddRow(
		id, "Kozak System", "2025-01-06", "16:00", "18:00", "main",
		[]byte(`[{"roomId":"main","hours":2}]`), false, []byte(`["guitar"]`), []byte(`[]`),
		"mixed", 300.0, 500.0,
		2.0, 2.0, 800.0, "",
		time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), "anna@studio.ua", "manual", "active", nil, "",
		reportStatus, reportID, int64(3),
	)
}

func TestBookingGetByIDDecodesColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM bookings WHERE id=").WithArgs("b1").
		WillReturnRows(bookingRows("b1", "reported", "r1"))

	b, err := BookingRepository{DB: db}.GetByID(context.Background(), "b1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if b.RoomID != "main" || len(b.RoomBookings) != 1 || b.RoomBookings[0].Hours != 2 {
		t.Fatalf("rooms not decoded: %+v", b.RoomBookings)
	}
	parts, ok := b.Payment.MixedParts()
	if !ok || parts.CashAmount != 300 || parts.CardAmount != 500 {
		t.Fatalf("mixed payment not decoded: %+v", b.Payment)
	}
	if b.ReportStatus != models.ReportReported || b.ReportID != "r1" || b.Version != 3 {
		t.Fatalf("link not decoded: %+v", b)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingGetByIDMissingAndTemporary(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM bookings WHERE id=").WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(bookingCols))

	repo := BookingRepository{DB: db}
	if _, err := repo.GetByID(context.Background(), "nope"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "temp-google-event"); !domain.IsNotFound(err) {
		t.Fatalf("temporary ids are never stored, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingCreateStoresNormalizedShape(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	created := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(
			"b1", "Okean", "2025-01-06", "10:00", "12:00", "standart",
			[]byte(`[{"roomId":"standart","hours":2}]`), true, []byte(`[]`), []byte(`[]`),
			"card", nil, nil,
			2.0, 0.0, 380.0, nil,
			created, "anna@studio.ua", "manual", "active", "pending", nil,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = BookingRepository{DB: db}.Create(context.Background(), nil, models.Booking{
		ID: "b1", BandName: " Okean ", Date: "2025-01-06", StartTime: "10:00", EndTime: "12:00",
		RoomBookings: []models.RoomBooking{{RoomID: "standart", Hours: 2}},
		IsResident:   true, Payment: models.Card(), TotalHours: 2, TotalPrice: 380,
		CreatedAt: created, CreatedBy: "anna@studio.ua",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingUpdateStaleVersionIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE bookings SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM bookings").WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(5)))

	_, err = BookingRepository{DB: db}.Update(context.Background(), nil, models.Booking{
		ID: "b1", BandName: "Okean", RoomID: "main", Version: 4,
	})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookingUpdateBumpsVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE bookings SET").WillReturnResult(sqlmock.NewResult(0, 1))

	v, err := BookingRepository{DB: db}.Update(context.Background(), nil, models.Booking{ID: "b1", BandName: "Okean", RoomID: "main", Version: 4})
	if err != nil || v != 5 {
		t.Fatalf("expected version 5, got %d %v", v, err)
	}
}

func TestClearReportLinkToleratesMissingBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE bookings SET report_status=\\?, report_id=NULL").
		WithArgs("pending", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := BookingRepository{DB: db}.ClearReportLink(context.Background(), nil, "gone")
	if err != nil || changed {
		t.Fatalf("expected silent no-op, got %v %v", changed, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestClearReportLinkForMatchesReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("report_id=NULL.*WHERE id=\\? AND report_id=\\?").
		WithArgs("pending", "b1", "r1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := BookingRepository{DB: db}.ClearReportLinkFor(context.Background(), nil, "b1", "r1")
	if err != nil || changed {
		t.Fatalf("expected no change for a booking linked elsewhere, got %v %v", changed, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
