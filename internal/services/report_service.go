package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	intconfig "studio/internal/config"
	intdb "studio/internal/db"
	"studio/internal/domain"
	"studio/internal/domain/models"
	"studio/internal/events"
	"studio/internal/metrics"
	"studio/internal/pricing"
	"studio/internal/reporting"
	"studio/internal/repositories"
	"studio/internal/utils"

	"github.com/google/uuid"
)

type ReportService struct {
	Bookings  repositories.BookingRepository
	Reports   repositories.ReportRepository
	Prices    PriceSource
	Events    events.Publisher
	DB        *sql.DB
	RequestID string
}

func (s ReportService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s ReportService) bookingService() BookingService {
	return BookingService{Bookings: s.Bookings, Reports: s.Reports, Prices: s.Prices, Events: s.Events, DB: s.DB, RequestID: s.RequestID}
}

func (s ReportService) bookings() repositories.BookingRepository {
	return s.bookingService().bookings()
}

func (s ReportService) reports() repositories.ReportRepository {
	return s.bookingService().reports()
}

// snapshotEntry freezes a booking into a report entry. The stored booking
// total is kept; equipment is repriced from table and the rest is room revenue
// spread over the room lines.
func snapshotEntry(b models.Booking, table pricing.PriceTable, createdBy string, createdAt time.Time) models.ReportEntry {
	b.Normalize()
	q := pricing.Calculate(table, pricing.RequestFromBooking(b))

	total := utils.RoundMoney(b.TotalPrice)
	equipment := utils.RoundMoney(q.EquipmentPrice)
	if equipment > total {
		equipment = total
	}
	roomPrice := utils.RoundMoney(total - equipment)
	if roomPrice < 0 {
		roomPrice = 0
	}

	lines := q.ModelLines()
	var sum float64
	for _, l := range lines {
		sum += l.Price
	}
	if sum > 0 && utils.RoundMoney(sum) != roomPrice {
		for i := range lines {
			lines[i].Price = utils.RoundMoney(lines[i].Price * roomPrice / sum)
		}
	}

	return models.ReportEntry{
		BookingID:         b.ID,
		BandName:          b.BandName,
		Date:              b.Date,
		RoomID:            b.PrimaryRoomID(),
		RoomName:          table.RoomName(b.PrimaryRoomID()),
		RoomLines:         lines,
		StartTime:         b.StartTime,
		EndTime:           b.EndTime,
		TotalHours:        b.TotalHours,
		RoomPrice:         roomPrice,
		EquipmentPrice:    equipment,
		TotalPrice:        total,
		Payment:           b.Payment,
		IsResident:        b.IsResident,
		Equipment:         b.Equipment,
		EquipmentHours:    b.EquipmentHours,
		EquipmentBookings: b.EquipmentBookings,
		CreatedBy:         models.NormalizeEmail(createdBy),
		CreatedAt:         createdAt,
		Source:            b.Source,
		Notes:             b.Notes,
		Version:           1,
	}
}

// AddToReport snapshots a stored booking into the report and links both
// records in one transaction.
func (s ReportService) AddToReport(ctx context.Context, actor domain.Actor, bookingID string) (models.ReportEntry, error) {
	if models.IsTemporaryID(bookingID) {
		return models.ReportEntry{}, domain.ValidationError{Field: "bookingId", Msg: "save the booking before adding it to the report"}
	}
	table := s.bookingService().prices(ctx)

	var entry models.ReportEntry
	err := intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		b, err := s.bookings().GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.Status == models.BookingCancelled {
			return domain.ConflictError{Resource: "booking", Msg: "cancelled bookings cannot be reported"}
		}
		if b.ReportStatus == models.ReportReported && b.ReportID != "" {
			ok, err := s.reports().Exists(ctx, tx, b.ReportID)
			if err != nil {
				return err
			}
			if ok {
				return domain.ConflictError{Resource: "report entry", Msg: "booking is already in the report"}
			}
		}

		entry = snapshotEntry(b, table, actor.Email, utils.NowUTC())
		entry.ID = uuid.NewString()
		if err := s.reports().Create(ctx, tx, entry); err != nil {
			return err
		}
		return s.bookings().SetReportLink(ctx, tx, b.ID, entry.ID)
	})
	if err != nil {
		return models.ReportEntry{}, wrapInternal(err, "failed to add booking to report")
	}
	s.changed(ctx, actor, events.ReportAdded, entry)
	return entry, nil
}

// CreateAndReport stores a new booking and its report entry together.
func (s ReportService) CreateAndReport(ctx context.Context, actor domain.Actor, in BookingInput) (models.Booking, models.ReportEntry, []string, error) {
	bs := s.bookingService()
	table, q, warnings, err := bs.prepare(ctx, in)
	if err != nil {
		return models.Booking{}, models.ReportEntry{}, nil, err
	}
	b := newBooking(actor, in, q)
	entry := snapshotEntry(b, table, actor.Email, b.CreatedAt)
	entry.ID = uuid.NewString()
	b.ReportStatus, b.ReportID = models.ReportReported, entry.ID

	err = intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		if err := s.bookings().Create(ctx, tx, b); err != nil {
			return err
		}
		return s.reports().Create(ctx, tx, entry)
	})
	if err != nil {
		return models.Booking{}, models.ReportEntry{}, nil, wrapInternal(err, "failed to save report entry")
	}
	bs.afterCreate(ctx, actor, b)
	s.changed(ctx, actor, events.ReportAdded, entry)
	return b, entry, warnings, nil
}

// RemoveFromReport deletes a report entry and returns its booking to pending.
// Admins may remove only entries they created.
func (s ReportService) RemoveFromReport(ctx context.Context, actor domain.Actor, reportID string) (models.ReportEntry, error) {
	var entry models.ReportEntry
	err := intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		var err error
		entry, err = s.reports().GetByID(ctx, tx, reportID)
		if err != nil {
			return err
		}
		if !actor.IsOwner() && models.NormalizeEmail(entry.CreatedBy) != models.NormalizeEmail(actor.Email) {
			return domain.ForbiddenError{Msg: "admins can remove only their own report entries"}
		}
		if err := s.reports().Delete(ctx, tx, entry.ID); err != nil {
			return err
		}
		if entry.BookingID == "" {
			return nil
		}
		_, err = s.bookings().ClearReportLinkFor(ctx, tx, entry.BookingID, entry.ID)
		return err
	})
	if err != nil {
		return models.ReportEntry{}, wrapInternal(err, "failed to remove report entry")
	}
	s.changed(ctx, actor, events.ReportRemoved, entry)
	return entry, nil
}

func (s ReportService) changed(ctx context.Context, actor domain.Actor, kind string, e models.ReportEntry) {
	action := "add"
	if kind == events.ReportRemoved {
		action = "remove"
	}
	metrics.ReportChanges.WithLabelValues(action).Inc()
	utils.LogEvent(s.RequestID, "report", action, fmt.Sprintf("report_id=%s booking_id=%s", e.ID, e.BookingID))
	publish(ctx, s.bookingService().publisher(), s.RequestID, events.Event{
		Type:       kind,
		BookingID:  e.BookingID,
		ReportID:   e.ID,
		Date:       e.Date,
		RoomID:     e.RoomID,
		TotalPrice: e.TotalPrice,
		Actor:      actor.Email,
		OccurredAt: utils.NowUTC(),
	})
}

// List returns the entries visible to viewer that pass f, newest first.
func (s ReportService) List(ctx context.Context, viewer reporting.Viewer, f reporting.Filter) ([]models.ReportEntry, error) {
	rq := repositories.ReportQuery{}
	if f.Month != "" {
		from, to, err := utils.MonthRange(f.Month)
		if err != nil {
			return nil, domain.ValidationError{Field: "month", Msg: "month must be yyyy-MM", Err: err}
		}
		rq.From, rq.To = from, to
	}
	if !viewer.Owner {
		rq.CreatedBy = viewer.Email
	}
	entries, err := s.reports().List(ctx, rq)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to load report", Err: err}
	}
	return reporting.Apply(reporting.Visible(entries, viewer), f), nil
}

// Statistics aggregates the filtered report for viewer.
func (s ReportService) Statistics(ctx context.Context, viewer reporting.Viewer, f reporting.Filter) (reporting.Stats, error) {
	entries, err := s.List(ctx, viewer, f)
	if err != nil {
		return reporting.Stats{}, err
	}
	table := s.bookingService().prices(ctx)
	return reporting.Statistics(entries, table.Rooms, viewer), nil
}

// ExportCSV writes the filtered report as CSV. The total column is only
// included for owners.
func (s ReportService) ExportCSV(ctx context.Context, w io.Writer, viewer reporting.Viewer, f reporting.Filter) error {
	entries, err := s.List(ctx, viewer, f)
	if err != nil {
		return err
	}
	table := s.bookingService().prices(ctx)
	if err := reporting.ExportCSV(w, entries, table, viewer.Owner); err != nil {
		return domain.InternalError{Msg: "failed to write csv", Err: err}
	}
	return nil
}

// RepairResult counts bookings whose link was fixed.
type RepairResult struct {
	Relinked int `json:"relinked"`
	Unlinked int `json:"unlinked"`
}

// RepairLinks makes booking report flags agree with the report table. Every
// entry's booking is marked reported; bookings marked reported without a
// matching entry go back to pending.
func (s ReportService) RepairLinks(ctx context.Context) (RepairResult, error) {
	var res RepairResult
	entries, err := s.reports().ListLinks(ctx)
	if err != nil {
		return res, wrapInternal(err, "failed to load report links")
	}
	reported, err := s.bookings().ListReported(ctx)
	if err != nil {
		return res, wrapInternal(err, "failed to load reported bookings")
	}

	byBooking := make(map[string]string, len(entries))
	for _, l := range entries {
		byBooking[l.BookingID] = l.ReportID
	}
	current := make(map[string]string, len(reported))
	for _, l := range reported {
		current[l.BookingID] = l.ReportID
	}

	for _, l := range reported {
		if _, ok := byBooking[l.BookingID]; ok {
			continue
		}
		changed, err := s.bookings().ClearReportLink(ctx, nil, l.BookingID)
		if err != nil {
			return res, wrapInternal(err, "failed to unlink booking")
		}
		if changed {
			res.Unlinked++
		}
	}
	for _, l := range entries {
		if current[l.BookingID] == l.ReportID {
			continue
		}
		err := s.bookings().SetReportLink(ctx, nil, l.BookingID, l.ReportID)
		if domain.IsNotFound(err) {
			continue
		}
		if err != nil {
			return res, wrapInternal(err, "failed to relink booking")
		}
		res.Relinked++
	}

	metrics.ReportLinksRepaired.Add(float64(res.Relinked + res.Unlinked))
	utils.LogEvent(s.RequestID, "report", "repair_links", fmt.Sprintf("relinked=%d unlinked=%d", res.Relinked, res.Unlinked))
	return res, nil
}
