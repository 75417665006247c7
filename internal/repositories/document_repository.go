package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	intconfig "studio/internal/config"
	"studio/internal/domain"
	"studio/internal/domain/models"
)

const (
	docPricing      = "pricing"
	docSchedule     = "schedule"
	docCalendarSync = "calendar_sync"
)

// documents stores whole JSON documents in app_settings keyed by name.
type documents struct {
	DB *sql.DB
}

func (d documents) db() *sql.DB {
	if d.DB != nil {
		return d.DB
	}
	return intconfig.DB
}

func (d documents) load(ctx context.Context, name string, dst any) (time.Time, error) {
	var (
		body      []byte
		updatedAt time.Time
	)
	err := d.db().QueryRowContext(ctx, `SELECT body, updated_at FROM app_settings WHERE name=? LIMIT 1`, name).Scan(&body, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, domain.NotFoundError{Resource: name + " settings", Err: err}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("load %s settings: %w", name, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return time.Time{}, fmt.Errorf("decode %s settings: %w", name, err)
	}
	return updatedAt, nil
}

func (d documents) save(ctx context.Context, name string, v any, at time.Time) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = d.db().ExecContext(ctx, `
		INSERT INTO app_settings (name, body, updated_at) VALUES (?,?,?)
		ON DUPLICATE KEY UPDATE body=VALUES(body), updated_at=VALUES(updated_at)`,
		name, body, at)
	if err != nil {
		return fmt.Errorf("save %s settings: %w", name, err)
	}
	return nil
}

// SettingsRepository persists the room and equipment price table.
type SettingsRepository struct {
	DB *sql.DB
}

func (r SettingsRepository) Load(ctx context.Context) (models.Settings, error) {
	var s models.Settings
	at, err := documents{DB: r.DB}.load(ctx, docPricing, &s)
	if err != nil {
		return models.Settings{}, err
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = at
	}
	return s, nil
}

func (r SettingsRepository) Save(ctx context.Context, s models.Settings) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	return documents{DB: r.DB}.save(ctx, docPricing, s, s.UpdatedAt)
}

// ScheduleRepository persists the studio working schedule.
type ScheduleRepository struct {
	DB *sql.DB
}

func (r ScheduleRepository) Load(ctx context.Context) (models.ScheduleSettings, error) {
	var s models.ScheduleSettings
	if _, err := (documents{DB: r.DB}).load(ctx, docSchedule, &s); err != nil {
		return models.ScheduleSettings{}, err
	}
	return s, nil
}

func (r ScheduleRepository) Save(ctx context.Context, s models.ScheduleSettings) error {
	return documents{DB: r.DB}.save(ctx, docSchedule, s, time.Now().UTC())
}
