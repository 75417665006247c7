package services

import (
	"context"
	"fmt"
	"math"

	"studio/internal/domain"
	"studio/internal/domain/models"
	"studio/internal/pricing"
	"studio/internal/repositories"
	"studio/internal/utils"
)

const slotStepMinutes = 60

type ScheduleService struct {
	Repo      repositories.ScheduleRepository
	Bookings  repositories.BookingRepository
	RequestID string
}

// Get returns the stored schedule, or the default one when none is saved.
func (s ScheduleService) Get(ctx context.Context) (models.ScheduleSettings, error) {
	sch, err := s.Repo.Load(ctx)
	if domain.IsNotFound(err) {
		return models.DefaultSchedule(), nil
	}
	if err != nil {
		utils.LogError(s.RequestID, "schedule", "load", "using default schedule", err)
		return models.DefaultSchedule(), nil
	}
	return sch, nil
}

func (s ScheduleService) Update(ctx context.Context, actor domain.Actor, sch models.ScheduleSettings) (models.ScheduleSettings, error) {
	if !actor.IsOwner() {
		return models.ScheduleSettings{}, domain.ForbiddenError{Msg: "only the owner can change the schedule"}
	}
	if err := validateSchedule(sch); err != nil {
		return models.ScheduleSettings{}, err
	}
	if err := s.Repo.Save(ctx, sch); err != nil {
		return models.ScheduleSettings{}, domain.InternalError{Msg: "failed to save schedule", Err: err}
	}
	utils.LogEvent(s.RequestID, "schedule", "update", fmt.Sprintf("days=%d", len(sch.WorkingHours)))
	return sch, nil
}

func validateSchedule(sch models.ScheduleSettings) error {
	seen := map[int]bool{}
	for _, wh := range sch.WorkingHours {
		if wh.DayOfWeek < 0 || wh.DayOfWeek > 6 {
			return domain.ValidationError{Field: "workingHours", Msg: "dayOfWeek must be 0..6"}
		}
		if seen[wh.DayOfWeek] {
			return domain.ValidationError{Field: "workingHours", Msg: "duplicate day"}
		}
		seen[wh.DayOfWeek] = true
		if !wh.IsOpen {
			continue
		}
		open, ok1 := pricing.ParseClock(wh.OpenTime)
		closeAt, ok2 := pricing.ParseClock(wh.CloseTime)
		if !ok1 || !ok2 || closeAt <= open {
			return domain.ValidationError{Field: "workingHours", Msg: "open and close must be HH:mm with close after open"}
		}
	}
	if sch.DefaultDuration < 1 || sch.DefaultDuration > 24 {
		return domain.ValidationError{Field: "defaultDuration", Msg: "default duration must be 1..24 hours"}
	}
	if sch.BufferMinutes < 0 {
		return domain.ValidationError{Field: "bufferMinutes", Msg: "buffer cannot be negative"}
	}
	return nil
}

// busy is an occupied interval in minutes from midnight.
type busy struct{ from, to int }

// GenerateSlots lays out candidate start times one hour apart inside the
// working window. A slot is unavailable when it overlaps any busy interval
// widened by buffer minutes.
func GenerateSlots(wh models.WorkingHours, durationHours float64, occupied []busy, buffer int) []models.TimeSlot {
	slots := []models.TimeSlot{}
	open, ok1 := pricing.ParseClock(wh.OpenTime)
	closeAt, ok2 := pricing.ParseClock(wh.CloseTime)
	if !ok1 || !ok2 || durationHours <= 0 {
		return slots
	}
	dur := int(math.Round(durationHours * 60))
	for m := open; m+dur <= closeAt; m += slotStepMinutes {
		available := true
		for _, b := range occupied {
			if m < b.to+buffer && m+dur > b.from-buffer {
				available = false
				break
			}
		}
		slots = append(slots, models.TimeSlot{Time: fmt.Sprintf("%02d:%02d", m/60, m%60), Available: available})
	}
	return slots
}

// Slots returns the slot grid of date for a rehearsal of durationHours.
// With roomID set only bookings of that room occupy time.
func (s ScheduleService) Slots(ctx context.Context, date string, durationHours float64, roomID string) ([]models.TimeSlot, error) {
	day, ok := pricing.ParseDate(date)
	if !ok {
		return nil, domain.ValidationError{Field: "date", Msg: "date must be yyyy-MM-dd"}
	}
	sch, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if durationHours <= 0 {
		durationHours = float64(sch.DefaultDuration)
	}
	wh, open := sch.ForDay(int(day.Weekday()))
	if !open {
		return []models.TimeSlot{}, nil
	}

	list, err := s.Bookings.List(ctx, repositories.BookingFilter{From: date, To: date, Status: models.BookingActive}, domain.Pagination{PageSize: 500})
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to load bookings", Err: err}
	}
	occupied := make([]busy, 0, len(list))
	for _, b := range list {
		if roomID != "" && !bookingUsesRoom(b, roomID) {
			continue
		}
		from, ok1 := pricing.ParseClock(b.StartTime)
		to, ok2 := pricing.ParseClock(b.EndTime)
		if !ok1 || !ok2 {
			continue
		}
		if to <= from {
			to += 24 * 60
		}
		occupied = append(occupied, busy{from: from, to: to})
	}
	return GenerateSlots(wh, durationHours, occupied, sch.BufferMinutes), nil
}

func bookingUsesRoom(b models.Booking, roomID string) bool {
	if b.RoomID == roomID {
		return true
	}
	for _, rb := range b.RoomBookings {
		if rb.RoomID == roomID {
			return true
		}
	}
	return false
}
