package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	intconfig "studio/internal/config"
	intdb "studio/internal/db"
	"studio/internal/domain"
	"studio/internal/domain/models"
)

const reportColumns = `
	id, COALESCE(booking_id,''), band_name, report_date, room_id, room_name, room_lines,
	start_time, end_time, total_hours, room_price, equipment_price, total_price,
	payment_type, cash_amount, card_amount, is_resident, equipment, equipment_hours,
	equipment_bookings, created_by, created_at, updated_at, source, COALESCE(notes,''), version`

// ReportQuery narrows List. Dates are inclusive yyyy-MM-dd bounds.
type ReportQuery struct {
	From      string
	To        string
	CreatedBy string
}

type ReportRepository struct {
	DB *sql.DB
}

func (r ReportRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r ReportRepository) exec(q intdb.DBTX) intdb.DBTX {
	if q != nil {
		return q
	}
	return r.db()
}

func scanReport(s rowScanner) (models.ReportEntry, error) {
	var (
		e                       models.ReportEntry
		linesRaw, eqRaw, eqbRaw []byte
		payType, source         string
		cash, card              sql.NullFloat64
		updatedAt               sql.NullTime
	)
	if err := s.Scan(
		&e.ID, &e.BookingID, &e.BandName, &e.Date, &e.RoomID, &e.RoomName, &linesRaw,
		&e.StartTime, &e.EndTime, &e.TotalHours, &e.RoomPrice, &e.EquipmentPrice, &e.TotalPrice,
		&payType, &cash, &card, &e.IsResident, &eqRaw, &e.EquipmentHours,
		&eqbRaw, &e.CreatedBy, &e.CreatedAt, &updatedAt, &source, &e.Notes, &e.Version,
	); err != nil {
		return models.ReportEntry{}, err
	}
	e.RoomLines = []models.RoomLine{}
	e.Equipment = []string{}
	e.EquipmentBookings = []models.EquipmentBooking{}
	if err := intdb.ScanJSON(linesRaw, &e.RoomLines); err != nil {
		return models.ReportEntry{}, fmt.Errorf("report %s room_lines: %w", e.ID, err)
	}
	if err := intdb.ScanJSON(eqRaw, &e.Equipment); err != nil {
		return models.ReportEntry{}, fmt.Errorf("report %s equipment: %w", e.ID, err)
	}
	if err := intdb.ScanJSON(eqbRaw, &e.EquipmentBookings); err != nil {
		return models.ReportEntry{}, fmt.Errorf("report %s equipment_bookings: %w", e.ID, err)
	}
	e.Payment = paymentFromColumns(payType, cash, card)
	e.Source = models.Source(source)
	if updatedAt.Valid {
		t := updatedAt.Time
		e.UpdatedAt = &t
	}
	return e, nil
}

func reportJSON(e models.ReportEntry) (lines, eq, eqb []byte, err error) {
	if lines, err = intdb.JSONColumn(e.RoomLines); err != nil {
		return
	}
	if eq, err = intdb.JSONColumn(e.Equipment); err != nil {
		return
	}
	eqb, err = intdb.JSONColumn(e.EquipmentBookings)
	return
}

// Create inserts a report entry at version 1, inside tx when given.
func (r ReportRepository) Create(ctx context.Context, q intdb.DBTX, e models.ReportEntry) error {
	lines, eq, eqb, err := reportJSON(e)
	if err != nil {
		return err
	}
	payType, cash, card := paymentColumns(e.Payment)
	_, err = r.exec(q).ExecContext(ctx, `
		INSERT INTO report_entries (
			id, booking_id, band_name, report_date, room_id, room_name, room_lines,
			start_time, end_time, total_hours, room_price, equipment_price, total_price,
			payment_type, cash_amount, card_amount, is_resident, equipment, equipment_hours,
			equipment_bookings, created_by, created_at, source, notes, version
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,1)`,
		e.ID, intdb.NullIfEmpty(e.BookingID), e.BandName, e.Date, e.RoomID, e.RoomName, lines,
		e.StartTime, e.EndTime, e.TotalHours, e.RoomPrice, e.EquipmentPrice, e.TotalPrice,
		payType, cash, card, e.IsResident, eq, e.EquipmentHours,
		eqb, models.NormalizeEmail(e.CreatedBy), e.CreatedAt, string(e.Source), intdb.NullIfEmpty(e.Notes),
	)
	if err != nil {
		if isDuplicate(err) {
			return domain.ConflictError{Resource: "report entry", Msg: "booking is already in the report", Err: err}
		}
		return fmt.Errorf("insert report entry: %w", err)
	}
	return nil
}

// GetByID loads one report entry.
func (r ReportRepository) GetByID(ctx context.Context, q intdb.DBTX, id string) (models.ReportEntry, error) {
	e, err := scanReport(r.exec(q).QueryRowContext(ctx, `SELECT `+reportColumns+` FROM report_entries WHERE id=? LIMIT 1`, strings.TrimSpace(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReportEntry{}, domain.NotFoundError{Resource: "report entry", Err: err}
	}
	if err != nil {
		return models.ReportEntry{}, fmt.Errorf("get report entry: %w", err)
	}
	return e, nil
}

// GetByBookingID finds the entry created from bookingID.
func (r ReportRepository) GetByBookingID(ctx context.Context, q intdb.DBTX, bookingID string) (models.ReportEntry, error) {
	e, err := scanReport(r.exec(q).QueryRowContext(ctx, `SELECT `+reportColumns+` FROM report_entries WHERE booking_id=? LIMIT 1`, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReportEntry{}, domain.NotFoundError{Resource: "report entry", Err: err}
	}
	if err != nil {
		return models.ReportEntry{}, fmt.Errorf("get report entry by booking: %w", err)
	}
	return e, nil
}

// List returns report entries, newest date first.
func (r ReportRepository) List(ctx context.Context, rq ReportQuery) ([]models.ReportEntry, error) {
	where := []string{"1=1"}
	args := []any{}
	if rq.From != "" {
		where = append(where, "report_date >= ?")
		args = append(args, rq.From)
	}
	if rq.To != "" {
		where = append(where, "report_date <= ?")
		args = append(args, rq.To)
	}
	if rq.CreatedBy != "" {
		where = append(where, "created_by = ?")
		args = append(args, models.NormalizeEmail(rq.CreatedBy))
	}
	rows, err := r.db().QueryContext(ctx, `SELECT `+reportColumns+` FROM report_entries WHERE `+
		strings.Join(where, " AND ")+` ORDER BY report_date DESC, created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list report entries: %w", err)
	}
	defer rows.Close()

	out := []models.ReportEntry{}
	for rows.Next() {
		e, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update rewrites the snapshot fields of e when e.Version is still current.
func (r ReportRepository) Update(ctx context.Context, q intdb.DBTX, e models.ReportEntry) (int64, error) {
	lines, eq, eqb, err := reportJSON(e)
	if err != nil {
		return 0, err
	}
	payType, cash, card := paymentColumns(e.Payment)
	res, err := r.exec(q).ExecContext(ctx, `
		UPDATE report_entries SET
			band_name=?, report_date=?, room_id=?, room_name=?, room_lines=?,
			start_time=?, end_time=?, total_hours=?, room_price=?, equipment_price=?, total_price=?,
			payment_type=?, cash_amount=?, card_amount=?, is_resident=?, equipment=?, equipment_hours=?,
			equipment_bookings=?, notes=?, version=version+1, updated_at=NOW()
		WHERE id=? AND version=?`,
		e.BandName, e.Date, e.RoomID, e.RoomName, lines,
		e.StartTime, e.EndTime, e.TotalHours, e.RoomPrice, e.EquipmentPrice, e.TotalPrice,
		payType, cash, card, e.IsResident, eq, e.EquipmentHours,
		eqb, intdb.NullIfEmpty(e.Notes), e.ID, e.Version,
	)
	if err != nil {
		return 0, fmt.Errorf("update report entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, domain.ConflictError{Resource: "report entry", Msg: "report entry was modified or removed, reload and retry"}
	}
	return e.Version + 1, nil
}

// Delete removes a report entry.
func (r ReportRepository) Delete(ctx context.Context, q intdb.DBTX, id string) error {
	res, err := r.exec(q).ExecContext(ctx, `DELETE FROM report_entries WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete report entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundError{Resource: "report entry"}
	}
	return nil
}

// ListLinks returns the booking reference of every entry that has one.
func (r ReportRepository) ListLinks(ctx context.Context) ([]ReportLink, error) {
	rows, err := r.db().QueryContext(ctx, `SELECT booking_id, id FROM report_entries WHERE booking_id IS NOT NULL AND booking_id <> ''`)
	if err != nil {
		return nil, fmt.Errorf("list report links: %w", err)
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

// Exists reports whether a report entry with id exists.
func (r ReportRepository) Exists(ctx context.Context, q intdb.DBTX, id string) (bool, error) {
	var one int
	err := r.exec(q).QueryRowContext(ctx, `SELECT 1 FROM report_entries WHERE id=? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
