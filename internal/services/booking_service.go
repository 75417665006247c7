package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	intconfig "studio/internal/config"
	intdb "studio/internal/db"
	"studio/internal/domain"
	"studio/internal/domain/models"
	"studio/internal/events"
	"studio/internal/metrics"
	"studio/internal/pricing"
	"studio/internal/repositories"
	"studio/internal/utils"

	"github.com/google/uuid"
)

const maxRoomHours = 24

// BookingInput is the editable part of a booking.
type BookingInput struct {
	BandName               string                    `json:"bandName"`
	Date                   string                    `json:"date"`
	StartTime              string                    `json:"startTime"`
	EndTime                string                    `json:"endTime"`
	RoomID                 string                    `json:"roomId"`
	RoomBookings           []models.RoomBooking      `json:"roomBookings"`
	IsResident             bool                      `json:"isResident"`
	Equipment              []string                  `json:"equipment"`
	EquipmentBookings      []models.EquipmentBooking `json:"equipmentBookings"`
	SeparateEquipmentHours bool                      `json:"separateEquipmentHours"`
	Payment                models.Payment            `json:"payment"`
	Notes                  string                    `json:"notes"`
	Source                 models.Source             `json:"source"`
	Version                int64                     `json:"version"`
}

// QuoteRequest converts the input into a pricing request. A legacy single
// roomId becomes one room booked for the whole interval.
func (in BookingInput) QuoteRequest() pricing.QuoteRequest {
	rooms := make([]models.RoomBooking, 0, len(in.RoomBookings))
	for _, rb := range in.RoomBookings {
		if id := strings.TrimSpace(rb.RoomID); id != "" {
			rooms = append(rooms, models.RoomBooking{RoomID: id, Hours: rb.Hours})
		}
	}
	if len(rooms) == 0 && strings.TrimSpace(in.RoomID) != "" {
		rooms = append(rooms, models.RoomBooking{RoomID: strings.TrimSpace(in.RoomID)})
	}
	return pricing.QuoteRequest{
		Date:                   strings.TrimSpace(in.Date),
		StartTime:              strings.TrimSpace(in.StartTime),
		EndTime:                strings.TrimSpace(in.EndTime),
		IsResident:             in.IsResident,
		Rooms:                  rooms,
		Equipment:              in.Equipment,
		EquipmentBookings:      in.EquipmentBookings,
		SeparateEquipmentHours: in.SeparateEquipmentHours,
	}
}

// QuoteResult is a price preview with non-blocking warnings.
type QuoteResult struct {
	Quote    pricing.Quote `json:"quote"`
	Warnings []string      `json:"warnings"`
}

type BookingService struct {
	Bookings  repositories.BookingRepository
	Reports   repositories.ReportRepository
	Prices    PriceSource
	Events    events.Publisher
	DB        *sql.DB
	RequestID string
}

func (s BookingService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s BookingService) bookings() repositories.BookingRepository {
	if s.Bookings.DB != nil {
		return s.Bookings
	}
	return repositories.BookingRepository{DB: s.db()}
}

func (s BookingService) reports() repositories.ReportRepository {
	if s.Reports.DB != nil {
		return s.Reports
	}
	return repositories.ReportRepository{DB: s.db()}
}

func (s BookingService) prices(ctx context.Context) pricing.PriceTable {
	if s.Prices == nil {
		return pricing.DefaultPriceTable()
	}
	return s.Prices.Current(ctx)
}

func (s BookingService) publisher() events.Publisher {
	if s.Events == nil {
		return events.NopPublisher{}
	}
	return s.Events
}

// Quote prices the input without validating or storing it.
func (s BookingService) Quote(ctx context.Context, in BookingInput) QuoteResult {
	table := s.prices(ctx)
	req := in.QuoteRequest()
	q := pricing.Calculate(table, req)
	warnings := pricing.Warnings(q, in.Payment.Normalize())
	if len(req.Rooms) == 0 {
		warnings = append(warnings, "select at least one room")
	}
	if warnings == nil {
		warnings = []string{}
	}
	return QuoteResult{Quote: q, Warnings: warnings}
}

// ValidateInput enforces what must hold before a booking is stored.
func ValidateInput(in BookingInput, table pricing.PriceTable) error {
	if strings.TrimSpace(in.BandName) == "" {
		return domain.ValidationError{Field: "bandName", Msg: "band name is required"}
	}
	if _, ok := pricing.ParseDate(in.Date); !ok {
		return domain.ValidationError{Field: "date", Msg: "date must be yyyy-MM-dd"}
	}
	if _, ok := pricing.ParseClock(in.StartTime); !ok {
		return domain.ValidationError{Field: "startTime", Msg: "start time must be HH:mm"}
	}
	if _, ok := pricing.ParseClock(in.EndTime); !ok {
		return domain.ValidationError{Field: "endTime", Msg: "end time must be HH:mm"}
	}
	req := in.QuoteRequest()
	if len(req.Rooms) == 0 {
		return domain.ValidationError{Field: "roomBookings", Msg: "select at least one room"}
	}
	seen := map[string]bool{}
	for _, rb := range req.Rooms {
		if _, ok := table.Room(rb.RoomID); !ok {
			return domain.ValidationError{Field: "roomBookings", Msg: "unknown room " + rb.RoomID}
		}
		if seen[rb.RoomID] {
			return domain.ValidationError{Field: "roomBookings", Msg: "room selected twice: " + rb.RoomID}
		}
		seen[rb.RoomID] = true
		if rb.Hours < 0 || rb.Hours > maxRoomHours {
			return domain.ValidationError{Field: "roomBookings", Msg: fmt.Sprintf("hours must be between 0 and %d", maxRoomHours)}
		}
	}
	for _, id := range in.Equipment {
		if _, ok := table.EquipmentItem(id); !ok {
			return domain.ValidationError{Field: "equipment", Msg: "unknown equipment " + id}
		}
	}
	for _, eb := range in.EquipmentBookings {
		if _, ok := table.EquipmentItem(eb.EquipmentID); !ok {
			return domain.ValidationError{Field: "equipmentBookings", Msg: "unknown equipment " + eb.EquipmentID}
		}
		if eb.Hours < 0 || eb.Hours > maxRoomHours {
			return domain.ValidationError{Field: "equipmentBookings", Msg: fmt.Sprintf("hours must be between 0 and %d", maxRoomHours)}
		}
	}
	if !in.Payment.Type.Valid() && in.Payment.Type != "" {
		return domain.ValidationError{Field: "payment", Msg: "unknown payment type"}
	}
	return nil
}

// applyInput copies the input and its priced totals onto b.
func applyInput(b *models.Booking, in BookingInput, q pricing.Quote) {
	b.BandName = utils.NormalizeSpace(in.BandName)
	b.Date = in.Date
	b.StartTime = in.StartTime
	b.EndTime = in.EndTime
	b.RoomBookings = make([]models.RoomBooking, 0, len(q.RoomLines))
	for _, l := range q.RoomLines {
		b.RoomBookings = append(b.RoomBookings, models.RoomBooking{RoomID: l.RoomID, Hours: l.Hours})
	}
	b.RoomID = ""
	b.IsResident = in.IsResident
	b.Equipment = in.Equipment
	b.EquipmentBookings = nil
	if in.SeparateEquipmentHours {
		b.EquipmentBookings = in.EquipmentBookings
	}
	b.Payment = in.Payment
	b.Notes = in.Notes
	b.TotalHours = q.TotalHours
	b.EquipmentHours = q.EquipmentHours
	b.TotalPrice = q.TotalPrice
	b.Normalize()
}

func (s BookingService) prepare(ctx context.Context, in BookingInput) (pricing.PriceTable, pricing.Quote, []string, error) {
	table := s.prices(ctx)
	if err := ValidateInput(in, table); err != nil {
		return table, pricing.Quote{}, nil, err
	}
	q := pricing.Calculate(table, in.QuoteRequest())
	warnings := pricing.Warnings(q, in.Payment.Normalize())
	if warnings == nil {
		warnings = []string{}
	}
	return table, q, warnings, nil
}

func newBooking(actor domain.Actor, in BookingInput, q pricing.Quote) models.Booking {
	b := models.Booking{
		ID:           uuid.NewString(),
		CreatedAt:    utils.NowUTC(),
		CreatedBy:    models.NormalizeEmail(actor.Email),
		Source:       in.Source,
		Status:       models.BookingActive,
		ReportStatus: models.ReportPending,
		Version:      1,
	}
	applyInput(&b, in, q)
	return b
}

// Create validates, prices and stores a new booking.
func (s BookingService) Create(ctx context.Context, actor domain.Actor, in BookingInput) (models.Booking, []string, error) {
	_, q, warnings, err := s.prepare(ctx, in)
	if err != nil {
		return models.Booking{}, nil, err
	}
	b := newBooking(actor, in, q)
	if err := s.bookings().Create(ctx, nil, b); err != nil {
		return models.Booking{}, nil, domain.InternalError{Msg: "failed to save booking", Err: err}
	}
	s.afterCreate(ctx, actor, b)
	return b, warnings, nil
}

func (s BookingService) afterCreate(ctx context.Context, actor domain.Actor, b models.Booking) {
	metrics.BookingsCreated.WithLabelValues(string(b.Source)).Inc()
	utils.LogEvent(s.RequestID, "booking", "create", fmt.Sprintf("booking_id=%s rooms=%d", b.ID, len(b.RoomBookings)))
	publish(ctx, s.publisher(), s.RequestID, events.Event{
		Type:       events.BookingCreated,
		BookingID:  b.ID,
		Date:       b.Date,
		RoomID:     b.RoomID,
		TotalPrice: b.TotalPrice,
		Actor:      actor.Email,
		OccurredAt: b.CreatedAt,
	})
}

// Update reprices and rewrites a booking. When the booking is in the report
// its report entry is rewritten in the same transaction.
func (s BookingService) Update(ctx context.Context, actor domain.Actor, id string, in BookingInput) (models.Booking, []string, error) {
	table, q, warnings, err := s.prepare(ctx, in)
	if err != nil {
		return models.Booking{}, nil, err
	}

	var out models.Booking
	err = intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		b, err := s.bookings().GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if in.Version != 0 && in.Version != b.Version {
			return domain.ConflictError{Resource: "booking", Msg: "booking was modified by someone else, reload and retry"}
		}
		if b.Status == models.BookingCancelled {
			return domain.ConflictError{Resource: "booking", Msg: "cancelled bookings cannot be edited"}
		}
		applyInput(&b, in, q)
		if b.Version, err = s.bookings().Update(ctx, tx, b); err != nil {
			return err
		}

		if b.ReportStatus == models.ReportReported && b.ReportID != "" {
			entry, err := s.reports().GetByID(ctx, tx, b.ReportID)
			switch {
			case domain.IsNotFound(err):
				if _, err := s.bookings().ClearReportLink(ctx, tx, b.ID); err != nil {
					return err
				}
				b.ReportStatus, b.ReportID = models.ReportPending, ""
				b.Version++
			case err != nil:
				return err
			default:
				next := snapshotEntry(b, table, entry.CreatedBy, entry.CreatedAt)
				next.ID, next.Version, next.Source = entry.ID, entry.Version, entry.Source
				if _, err := s.reports().Update(ctx, tx, next); err != nil {
					return err
				}
			}
		}
		out = b
		return nil
	})
	if err != nil {
		return models.Booking{}, nil, wrapInternal(err, "failed to update booking")
	}
	utils.LogEvent(s.RequestID, "booking", "update", fmt.Sprintf("booking_id=%s version=%d", out.ID, out.Version))
	return out, warnings, nil
}

// Cancel marks a booking cancelled. Reported bookings must be removed from
// the report first.
func (s BookingService) Cancel(ctx context.Context, actor domain.Actor, id string, version int64) (models.Booking, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	if b.Status == models.BookingCancelled {
		return b, nil
	}
	if b.ReportStatus == models.ReportReported {
		return models.Booking{}, domain.ConflictError{Resource: "booking", Msg: "remove the booking from the report before cancelling"}
	}
	if version == 0 {
		version = b.Version
	}
	now := utils.NowUTC()
	if err := s.bookings().Cancel(ctx, id, version, actor.Email, now); err != nil {
		return models.Booking{}, wrapInternal(err, "failed to cancel booking")
	}
	b.Status = models.BookingCancelled
	b.CancelledAt = &now
	b.CancelledBy = models.NormalizeEmail(actor.Email)
	b.Version = version + 1
	utils.LogEvent(s.RequestID, "booking", "cancel", "booking_id="+id)
	return b, nil
}

// Delete removes a booking. Admins may delete only their own bookings.
func (s BookingService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsOwner() && models.NormalizeEmail(actor.Email) != b.CreatedBy {
		return domain.ForbiddenError{Msg: "only the owner or the creator can delete a booking"}
	}
	if b.ReportStatus == models.ReportReported {
		return domain.ConflictError{Resource: "booking", Msg: "remove the booking from the report before deleting"}
	}
	if err := s.bookings().Delete(ctx, id); err != nil {
		return wrapInternal(err, "failed to delete booking")
	}
	utils.LogEvent(s.RequestID, "booking", "delete", "booking_id="+id)
	return nil
}

// Get loads a booking. A booking marked reported whose report entry no
// longer exists is returned, and stored, as pending.
func (s BookingService) Get(ctx context.Context, id string) (models.Booking, error) {
	b, err := s.bookings().GetByID(ctx, id)
	if err != nil {
		return models.Booking{}, wrapInternal(err, "failed to load booking")
	}
	if b.ReportStatus != models.ReportReported {
		return b, nil
	}
	exists := false
	if b.ReportID != "" {
		if exists, err = s.reports().Exists(ctx, nil, b.ReportID); err != nil {
			return b, nil
		}
	}
	if exists {
		return b, nil
	}
	if changed, err := s.bookings().ClearReportLink(ctx, nil, b.ID); err != nil {
		utils.LogError(s.RequestID, "booking", "repair_link", "booking_id="+b.ID, err)
	} else if changed {
		b.Version++
		metrics.ReportLinksRepaired.Inc()
	}
	b.ReportStatus, b.ReportID = models.ReportPending, ""
	return b, nil
}

// List returns stored bookings.
func (s BookingService) List(ctx context.Context, f repositories.BookingFilter, page domain.Pagination) ([]models.Booking, error) {
	list, err := s.bookings().List(ctx, f, page)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to list bookings", Err: err}
	}
	return list, nil
}

// DraftFromCalendarEvent turns an imported calendar event into an unsaved,
// priced booking with a temporary id.
func (s BookingService) DraftFromCalendarEvent(ctx context.Context, ev models.CalendarEvent, loc *time.Location) (models.Booking, pricing.Quote) {
	return DraftFromEvent(s.prices(ctx), ev, loc)
}

func wrapInternal(err error, msg string) error {
	if domain.IsNotFound(err) || domain.IsValidation(err) || domain.IsConflict(err) || domain.IsForbidden(err) || domain.IsInternal(err) {
		return err
	}
	return domain.InternalError{Msg: msg, Err: err}
}

func publish(ctx context.Context, p events.Publisher, requestID string, ev events.Event) {
	if err := p.Publish(ctx, ev); err != nil {
		utils.LogError(requestID, "events", "publish", ev.Type, err)
	}
}
