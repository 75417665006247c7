package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	intconfig "studio/internal/config"
	intdb "studio/internal/db"
	"studio/internal/domain"
	"studio/internal/domain/models"
)

// CalendarEventRepository caches synced calendar events by window.
type CalendarEventRepository struct {
	DB *sql.DB
}

func (r CalendarEventRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r CalendarEventRepository) exec(q intdb.DBTX) intdb.DBTX {
	if q != nil {
		return q
	}
	return r.db()
}

// ReplaceWindow drops every cached event starting in [from, to) and stores
// events in their place. It returns the number of rows dropped.
func (r CalendarEventRepository) ReplaceWindow(ctx context.Context, q intdb.DBTX, from, to time.Time, events []models.CalendarEvent, syncedAt time.Time) (int64, error) {
	res, err := r.exec(q).ExecContext(ctx, `DELETE FROM calendar_events WHERE start_at >= ? AND start_at < ?`, from.UTC(), to.UTC())
	if err != nil {
		return 0, fmt.Errorf("clear calendar window: %w", err)
	}
	removed, _ := res.RowsAffected()
	for _, ev := range events {
		_, err := r.exec(q).ExecContext(ctx, `
			INSERT INTO calendar_events
				(calendar_id, event_id, calendar_name, summary, description, location, room_id, start_at, end_at, synced_at)
			VALUES (?,?,?,?,?,?,?,?,?,?)
			ON DUPLICATE KEY UPDATE calendar_name=VALUES(calendar_name), summary=VALUES(summary),
				description=VALUES(description), location=VALUES(location), room_id=VALUES(room_id),
				start_at=VALUES(start_at), end_at=VALUES(end_at), synced_at=VALUES(synced_at)`,
			ev.CalendarID, ev.ID, ev.CalendarName, ev.Summary,
			intdb.NullIfEmpty(ev.Description), intdb.NullIfEmpty(ev.Location), ev.RoomID,
			ev.Start.UTC(), ev.End.UTC(), syncedAt.UTC())
		if err != nil {
			return removed, fmt.Errorf("store calendar event %s: %w", ev.ID, err)
		}
	}
	return removed, nil
}

// List returns cached events starting in [from, to), ordered by start.
func (r CalendarEventRepository) List(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT calendar_id, event_id, calendar_name, summary, description, location, room_id, start_at, end_at
		FROM calendar_events WHERE start_at >= ? AND start_at < ?
		ORDER BY start_at, calendar_id, event_id`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()

	out := []models.CalendarEvent{}
	for rows.Next() {
		var (
			ev          models.CalendarEvent
			desc, where sql.NullString
		)
		if err := rows.Scan(&ev.CalendarID, &ev.ID, &ev.CalendarName, &ev.Summary, &desc, &where, &ev.RoomID, &ev.Start, &ev.End); err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		ev.Description = desc.String
		ev.Location = where.String
		out = append(out, ev)
	}
	return out, rows.Err()
}

// SaveSyncState records the latest sync in app_settings.
func (r CalendarEventRepository) SaveSyncState(ctx context.Context, st models.CalendarSyncState) error {
	return documents{DB: r.DB}.save(ctx, docCalendarSync, st, st.LastSync)
}

// SyncState returns the latest recorded sync. ok is false when nothing was
// ever synced.
func (r CalendarEventRepository) SyncState(ctx context.Context) (st models.CalendarSyncState, ok bool, err error) {
	_, err = documents{DB: r.DB}.load(ctx, docCalendarSync, &st)
	if domain.IsNotFound(err) {
		return models.CalendarSyncState{}, false, nil
	}
	if err != nil {
		return models.CalendarSyncState{}, false, err
	}
	return st, true, nil
}
