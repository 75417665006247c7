package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	intconfig "studio/internal/config"
	intdb "studio/internal/db"
	"studio/internal/domain/models"
	"studio/internal/metrics"
	"studio/internal/utils"
)

// CalendarSyncInterval is how long a synced window stays fresh.
const CalendarSyncInterval = time.Hour

// CalendarSyncResult reports one sync run.
type CalendarSyncResult struct {
	Skipped  bool      `json:"skipped"`
	Stored   int       `json:"stored"`
	Removed  int64     `json:"removed"`
	LastSync time.Time `json:"lastSync"`
}

// CachedCalendar is the synced copy of a window priced as drafts.
type CachedCalendar struct {
	Drafts   []CalendarDraft `json:"drafts"`
	LastSync *time.Time      `json:"lastSync"`
	Stale    bool            `json:"stale"`
}

// ShouldSync reports whether Google must be read again for from..to: never
// synced, synced more than CalendarSyncInterval ago, or the window reaches
// past the one synced last.
func ShouldSync(st models.CalendarSyncState, ok bool, from, to, now time.Time) bool {
	if !ok || now.Sub(st.LastSync) >= CalendarSyncInterval {
		return true
	}
	return from.Before(st.From) || to.After(st.To)
}

func (s CalendarService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

// Sync reads events of from..to and replaces the stored copy of that window
// in one transaction. Unless force is set, a fresh window is left alone.
func (s CalendarService) Sync(ctx context.Context, tok CalendarToken, calendarIDs []string, from, to time.Time, force bool) (CalendarSyncResult, error) {
	now := utils.NowUTC()
	if !force {
		st, ok, err := s.Store.SyncState(ctx)
		if err != nil {
			return CalendarSyncResult{}, wrapInternal(err, "failed to read calendar sync state")
		}
		if !ShouldSync(st, ok, from, to, now) {
			return CalendarSyncResult{Skipped: true, LastSync: st.LastSync}, nil
		}
	}

	evs, err := s.Events(ctx, tok, calendarIDs, from, to)
	if err != nil {
		return CalendarSyncResult{}, err
	}
	var removed int64
	err = intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		var err error
		removed, err = s.Store.ReplaceWindow(ctx, tx, from, to, evs, now)
		return err
	})
	if err != nil {
		return CalendarSyncResult{}, wrapInternal(err, "failed to store calendar events")
	}

	st := models.CalendarSyncState{LastSync: now, From: from.UTC(), To: to.UTC(), Events: len(evs)}
	if err := s.Store.SaveSyncState(ctx, st); err != nil {
		utils.LogError(s.RequestID, "calendar", "sync_state", "save failed", err)
	}
	metrics.CalendarEventsSynced.Add(float64(len(evs)))
	utils.LogEvent(s.RequestID, "calendar", "sync", fmt.Sprintf("calendars=%d stored=%d removed=%d", len(calendarIDs), len(evs), removed))
	return CalendarSyncResult{Stored: len(evs), Removed: removed, LastSync: now}, nil
}

// Cached returns the stored events of from..to priced as drafts.
func (s CalendarService) Cached(ctx context.Context, from, to time.Time) (CachedCalendar, error) {
	evs, err := s.Store.List(ctx, from, to)
	if err != nil {
		return CachedCalendar{}, wrapInternal(err, "failed to load synced events")
	}
	st, ok, err := s.Store.SyncState(ctx)
	if err != nil {
		return CachedCalendar{}, wrapInternal(err, "failed to read calendar sync state")
	}
	out := CachedCalendar{Drafts: s.drafts(ctx, evs), Stale: ShouldSync(st, ok, from, to, utils.NowUTC())}
	if ok {
		last := st.LastSync
		out.LastSync = &last
	}
	return out, nil
}
