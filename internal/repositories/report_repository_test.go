package repositories

import (
	"context"
	"testing"
	"time"

	"studio/internal/domain"
	"studio/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

var reportCols = []string{
	"id", "booking_id", "band_name", "report_date", "room_id", "room_name", "room_lines",
	"start_time", "end_time", "total_hours", "room_price", "equipment_price", "total_price",
	"payment_type", "cash_amount", "card_amount", "is_resident", "equipment", "equipment_hours",
	"equipment_bookings", "created_by", "created_at", "updated_at", "source", "notes", "version",
}

func reportRow(rows *sqlmock.Rows, id, bookingID, date string, total float64) *sqlmock.Rows {
	return rows.AddRow(
		id, bookingID, "Okean", date, "main", "Main", []byte(`[{"roomId":"main","roomName":"Main","hours":2,"price":600}]`),
		"16:00", "18:00", 2.0, 600.0, 0.0, total,
		"card", nil, nil, false, []byte(`[]`), 0.0,
		[]byte(`[]`), "anna@studio.ua", time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC), nil, "manual", "", int64(1),
	)
}

func TestReportListBuildsFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows(reportCols)
	reportRow(rows, "r2", "b2", "2025-01-20", 600)
	reportRow(rows, "r1", "", "2025-01-06", 600)
	mock.ExpectQuery("FROM report_entries WHERE 1=1 AND report_date >= \\? AND report_date <= \\? AND created_by = \\?").
		WithArgs("2025-01-01", "2025-01-31", "anna@studio.ua").
		WillReturnRows(rows)

	list, err := ReportRepository{DB: db}.List(context.Background(), ReportQuery{From: "2025-01-01", To: "2025-01-31", CreatedBy: "Anna@Studio.ua"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != "r2" || list[1].BookingID != "" {
		t.Fatalf("unexpected list %+v", list)
	}
	if len(list[0].RoomLines) != 1 || list[0].RoomLines[0].Price != 600 {
		t.Fatalf("room lines not decoded: %+v", list[0].RoomLines)
	}
	if list[0].Payment.Type != models.PaymentCard {
		t.Fatalf("payment not decoded: %+v", list[0].Payment)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReportCreateDuplicateBookingIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO report_entries").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'b1' for key 'uniq_report_booking'"})

	err = ReportRepository{DB: db}.Create(context.Background(), nil, models.ReportEntry{ID: "r1", BookingID: "b1", Payment: models.Cash()})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestReportDeleteMissingIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM report_entries").WithArgs("r9").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := (ReportRepository{DB: db}).Delete(context.Background(), nil, "r9"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
