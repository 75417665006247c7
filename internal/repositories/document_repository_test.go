package repositories

import (
	"context"
	"testing"
	"time"

	"studio/internal/domain"
	"studio/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSettingsLoadAndMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	stored := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT body, updated_at FROM app_settings").WithArgs("pricing").
		WillReturnRows(sqlmock.NewRows([]string{"body", "updated_at"}).
			AddRow([]byte(`{"rooms":[{"id":"main","name":"Main","tariffs":{"weekdayDayPrice":300}}],"equipment":[]}`), stored))
	mock.ExpectQuery("SELECT body, updated_at FROM app_settings").WithArgs("pricing").
		WillReturnRows(sqlmock.NewRows([]string{"body", "updated_at"}))

	repo := SettingsRepository{DB: db}
	s, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Rooms) != 1 || s.Rooms[0].Tariffs.WeekdayDayPrice != 300 || !s.UpdatedAt.Equal(stored) {
		t.Fatalf("unexpected settings %+v", s)
	}
	if _, err := repo.Load(context.Background()); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestScheduleSaveUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO app_settings").
		WithArgs("schedule", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := (ScheduleRepository{DB: db}).Save(context.Background(), models.DefaultSchedule()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
