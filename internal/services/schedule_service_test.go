package services

import (
	"context"
	"testing"

	"studio/internal/domain"
	"studio/internal/domain/models"
	"studio/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGenerateSlotsMarksOverlaps(t *testing.T) {
	wh := models.WorkingHours{DayOfWeek: 1, OpenTime: "10:00", CloseTime: "23:00", IsOpen: true}
	slots := GenerateSlots(wh, 2, []busy{{from: 16 * 60, to: 18 * 60}}, 0)
	if len(slots) != 12 {
		t.Fatalf("expected 12 slots 10:00..21:00, got %d", len(slots))
	}
	want := map[string]bool{"14:00": true, "15:00": false, "16:00": false, "17:00": false, "18:00": true}
	for _, s := range slots {
		if avail, ok := want[s.Time]; ok && avail != s.Available {
			t.Fatalf("slot %s available=%v, want %v", s.Time, s.Available, avail)
		}
	}
	if slots[len(slots)-1].Time != "21:00" {
		t.Fatalf("last slot must end by closing time, got %s", slots[len(slots)-1].Time)
	}
}

func TestGenerateSlotsHonoursBuffer(t *testing.T) {
	wh := models.WorkingHours{OpenTime: "10:00", CloseTime: "20:00", IsOpen: true}
	slots := GenerateSlots(wh, 1, []busy{{from: 12 * 60, to: 13 * 60}}, 30)
	for _, s := range slots {
		if (s.Time == "11:00" || s.Time == "13:00") && s.Available {
			t.Fatalf("slot %s should be blocked by the buffer", s.Time)
		}
	}
}

func TestScheduleSlotsUsesDefaultScheduleAndBookings(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT body, updated_at FROM app_settings").WithArgs("schedule").
		WillReturnRows(sqlmock.NewRows([]string{"body", "updated_at"}))
	mock.ExpectQuery("FROM bookings WHERE 1=1 AND booking_date >= \\? AND booking_date <= \\? AND status = \\?").
		WithArgs("2025-01-06", "2025-01-06", "active", 500, 0).
		WillReturnRows(bookingRow("b1", "anna@studio.ua", "pending", "", 1))

	svc := ScheduleService{Repo: repositories.ScheduleRepository{DB: db}, Bookings: repositories.BookingRepository{DB: db}}
	slots, err := svc.Slots(context.Background(), "2025-01-06", 0, "standart")
	if err != nil {
		t.Fatalf("Slots: %v", err)
	}
	for _, s := range slots {
		if !s.Available {
			t.Fatalf("other room's booking must not block %s", s.Time)
		}
	}
	checkMock(t, mock)

	if _, err := svc.Slots(context.Background(), "06/01/2025", 2, ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestScheduleUpdateValidates(t *testing.T) {
	svc := ScheduleService{}
	sch := models.DefaultSchedule()
	if _, err := svc.Update(context.Background(), anna, sch); !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	sch.WorkingHours[0].CloseTime = "09:00"
	if _, err := svc.Update(context.Background(), owner, sch); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
