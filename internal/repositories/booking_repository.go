package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intconfig "studio/internal/config"
	intdb "studio/internal/db"
	"studio/internal/domain"
	"studio/internal/domain/models"
)

const bookingColumns = `
	id, band_name, booking_date, start_time, end_time, room_id,
	room_bookings, is_resident, equipment, equipment_bookings,
	payment_type, cash_amount, card_amount,
	total_hours, equipment_hours, total_price, COALESCE(notes,''),
	created_at, created_by, source, status, cancelled_at, COALESCE(cancelled_by,''),
	report_status, COALESCE(report_id,''), version`

// BookingFilter narrows List. Dates are inclusive yyyy-MM-dd bounds.
type BookingFilter struct {
	From         string
	To           string
	Status       models.BookingStatus
	ReportStatus models.ReportStatus
	CreatedBy    string
}

type BookingRepository struct {
	DB *sql.DB
}

func (r BookingRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r BookingRepository) exec(q intdb.DBTX) intdb.DBTX {
	if q != nil {
		return q
	}
	return r.db()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func paymentColumns(p models.Payment) (string, any, any) {
	p = p.Normalize()
	if parts, ok := p.MixedParts(); ok {
		return string(p.Type), parts.CashAmount, parts.CardAmount
	}
	return string(p.Type), nil, nil
}

func paymentFromColumns(kind string, cash, card sql.NullFloat64) models.Payment {
	switch models.PaymentType(kind) {
	case models.PaymentMixed:
		return models.Mixed(cash.Float64, card.Float64)
	case models.PaymentCard:
		return models.Card()
	default:
		return models.Cash()
	}
}

func scanBooking(s rowScanner) (models.Booking, error) {
	var (
		b                       models.Booking
		roomsRaw, eqRaw, eqbRaw []byte
		payType, source, status string
		reportStatus            string
		cash, card              sql.NullFloat64
		cancelledAt             sql.NullTime
	)
	if err := s.Scan(
		&b.ID, &b.BandName, &b.Date, &b.StartTime, &b.EndTime, &b.RoomID,
		&roomsRaw, &b.IsResident, &eqRaw, &eqbRaw,
		&payType, &cash, &card,
		&b.TotalHours, &b.EquipmentHours, &b.TotalPrice, &b.Notes,
		&b.CreatedAt, &b.CreatedBy, &source, &status, &cancelledAt, &b.CancelledBy,
		&reportStatus, &b.ReportID, &b.Version,
	); err != nil {
		return models.Booking{}, err
	}
	if err := intdb.ScanJSON(roomsRaw, &b.RoomBookings); err != nil {
		return models.Booking{}, fmt.Errorf("booking %s room_bookings: %w", b.ID, err)
	}
	if err := intdb.ScanJSON(eqRaw, &b.Equipment); err != nil {
		return models.Booking{}, fmt.Errorf("booking %s equipment: %w", b.ID, err)
	}
	if err := intdb.ScanJSON(eqbRaw, &b.EquipmentBookings); err != nil {
		return models.Booking{}, fmt.Errorf("booking %s equipment_bookings: %w", b.ID, err)
	}
	b.Payment = paymentFromColumns(payType, cash, card)
	b.Source = models.Source(source)
	b.Status = models.BookingStatus(status)
	b.ReportStatus = models.ReportStatus(reportStatus)
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancelledAt = &t
	}
	b.Normalize()
	return b, nil
}

func bookingJSON(b models.Booking) (rooms, eq, eqb []byte, err error) {
	if rooms, err = intdb.JSONColumn(b.RoomBookings); err != nil {
		return
	}
	if eq, err = intdb.JSONColumn(b.Equipment); err != nil {
		return
	}
	eqb, err = intdb.JSONColumn(b.EquipmentBookings)
	return
}

// Create inserts a normalized booking at version 1.
func (r BookingRepository) Create(ctx context.Context, q intdb.DBTX, b models.Booking) error {
	b.Normalize()
	rooms, eq, eqb, err := bookingJSON(b)
	if err != nil {
		return err
	}
	payType, cash, card := paymentColumns(b.Payment)
	_, err = r.exec(q).ExecContext(ctx, `
		INSERT INTO bookings (
			id, band_name, booking_date, start_time, end_time, room_id,
			room_bookings, is_resident, equipment, equipment_bookings,
			payment_type, cash_amount, card_amount,
			total_hours, equipment_hours, total_price, notes,
			created_at, created_by, source, status, report_status, report_id, version
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,1)`,
		b.ID, b.BandName, b.Date, b.StartTime, b.EndTime, b.RoomID,
		rooms, b.IsResident, eq, eqb,
		payType, cash, card,
		b.TotalHours, b.EquipmentHours, b.TotalPrice, intdb.NullIfEmpty(b.Notes),
		b.CreatedAt, b.CreatedBy, string(b.Source), string(b.Status), string(b.ReportStatus), intdb.NullIfEmpty(b.ReportID),
	)
	if isDuplicate(err) {
		return domain.ConflictError{Resource: "booking", Msg: "booking id already exists", Err: err}
	}
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetByID loads one booking.
func (r BookingRepository) GetByID(ctx context.Context, id string) (models.Booking, error) {
	return r.get(ctx, nil, id, false)
}

// GetForUpdate loads and row-locks a booking inside tx.
func (r BookingRepository) GetForUpdate(ctx context.Context, tx intdb.DBTX, id string) (models.Booking, error) {
	return r.get(ctx, tx, id, true)
}

func (r BookingRepository) get(ctx context.Context, q intdb.DBTX, id string, lock bool) (models.Booking, error) {
	id = strings.TrimSpace(id)
	if models.IsTemporaryID(id) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id=? LIMIT 1`
	if lock {
		query += ` FOR UPDATE`
	}
	b, err := scanBooking(r.exec(q).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return models.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// List returns bookings ordered by date and start time.
func (r BookingRepository) List(ctx context.Context, f BookingFilter, page domain.Pagination) ([]models.Booking, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.From != "" {
		where = append(where, "booking_date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		where = append(where, "booking_date <= ?")
		args = append(args, f.To)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.ReportStatus != "" {
		where = append(where, "report_status = ?")
		args = append(args, string(f.ReportStatus))
	}
	if f.CreatedBy != "" {
		where = append(where, "created_by = ?")
		args = append(args, models.NormalizeEmail(f.CreatedBy))
	}
	page = page.Normalize()
	args = append(args, page.PageSize, page.Offset())

	rows, err := r.db().QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE `+
		strings.Join(where, " AND ")+` ORDER BY booking_date ASC, start_time ASC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update rewrites the editable fields of b when b.Version is still current and
// returns the new version.
func (r BookingRepository) Update(ctx context.Context, q intdb.DBTX, b models.Booking) (int64, error) {
	b.Normalize()
	rooms, eq, eqb, err := bookingJSON(b)
	if err != nil {
		return 0, err
	}
	payType, cash, card := paymentColumns(b.Payment)
	res, err := r.exec(q).ExecContext(ctx, `
		UPDATE bookings SET
			band_name=?, booking_date=?, start_time=?, end_time=?, room_id=?,
			room_bookings=?, is_resident=?, equipment=?, equipment_bookings=?,
			payment_type=?, cash_amount=?, card_amount=?,
			total_hours=?, equipment_hours=?, total_price=?, notes=?,
			version=version+1, updated_at=NOW()
		WHERE id=? AND version=?`,
		b.BandName, b.Date, b.StartTime, b.EndTime, b.RoomID,
		rooms, b.IsResident, eq, eqb,
		payType, cash, card,
		b.TotalHours, b.EquipmentHours, b.TotalPrice, intdb.NullIfEmpty(b.Notes),
		b.ID, b.Version,
	)
	if err != nil {
		return 0, fmt.Errorf("update booking: %w", err)
	}
	if err := r.checkVersioned(ctx, q, res, b.ID); err != nil {
		return 0, err
	}
	return b.Version + 1, nil
}

// Cancel marks a booking cancelled when version is still current.
func (r BookingRepository) Cancel(ctx context.Context, id string, version int64, by string, at time.Time) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE bookings SET status=?, cancelled_at=?, cancelled_by=?, version=version+1, updated_at=NOW()
		WHERE id=? AND version=?`,
		string(models.BookingCancelled), at, models.NormalizeEmail(by), id, version)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	return r.checkVersioned(ctx, nil, res, id)
}

// checkVersioned turns a zero-row conditional update into NotFound or Conflict.
func (r BookingRepository) checkVersioned(ctx context.Context, q intdb.DBTX, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var current int64
	err = r.exec(q).QueryRowContext(ctx, `SELECT version FROM bookings WHERE id=?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: "booking", Err: err}
	}
	if err != nil {
		return err
	}
	return domain.ConflictError{Resource: "booking", Msg: "booking was modified by someone else, reload and retry"}
}

// SetReportLink marks a booking reported with a back-reference to reportID.
func (r BookingRepository) SetReportLink(ctx context.Context, q intdb.DBTX, id, reportID string) error {
	res, err := r.exec(q).ExecContext(ctx, `
		UPDATE bookings SET report_status=?, report_id=?, version=version+1, updated_at=NOW()
		WHERE id=?`, string(models.ReportReported), reportID, id)
	if err != nil {
		return fmt.Errorf("link booking to report: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundError{Resource: "booking"}
	}
	return nil
}

// ClearReportLink returns a booking to pending. A missing booking is not an
// error; the returned flag tells whether a row changed.
func (r BookingRepository) ClearReportLink(ctx context.Context, q intdb.DBTX, id string) (bool, error) {
	return r.clearReportLink(ctx, q, `WHERE id=?`, id)
}

// ClearReportLinkFor unlinks a booking only while it still points at
// reportID, so a booking since linked to another entry keeps that link.
func (r BookingRepository) ClearReportLinkFor(ctx context.Context, q intdb.DBTX, id, reportID string) (bool, error) {
	return r.clearReportLink(ctx, q, `WHERE id=? AND report_id=?`, id, reportID)
}

func (r BookingRepository) clearReportLink(ctx context.Context, q intdb.DBTX, where, id string, extra ...any) (bool, error) {
	if models.IsTemporaryID(id) {
		return false, nil
	}
	args := append([]any{string(models.ReportPending), id}, extra...)
	res, err := r.exec(q).ExecContext(ctx, `
		UPDATE bookings SET report_status=?, report_id=NULL, version=version+1, updated_at=NOW()
		`+where, args...)
	if err != nil {
		return false, fmt.Errorf("unlink booking: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete hard-deletes a booking.
func (r BookingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM bookings WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundError{Resource: "booking"}
	}
	return nil
}

// ReportLink is the booking side of a booking/report link.
type ReportLink struct {
	BookingID string
	ReportID  string
}

// ListReported returns every booking currently marked reported.
func (r BookingRepository) ListReported(ctx context.Context) ([]ReportLink, error) {
	rows, err := r.db().QueryContext(ctx, `SELECT id, COALESCE(report_id,'') FROM bookings WHERE report_status=?`, string(models.ReportReported))
	if err != nil {
		return nil, fmt.Errorf("list reported bookings: %w", err)
	}
	defer rows.Close()
	out := []ReportLink{}
	for rows.Next() {
		var l ReportLink
		if err := rows.Scan(&l.BookingID, &l.ReportID); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
