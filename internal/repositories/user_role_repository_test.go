package repositories

import (
	"context"
	"testing"
	"time"

	"studio/internal/domain"
	"studio/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUserRoleGetNormalizesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM user_roles WHERE email=").WithArgs("owner@studio.ua").
		WillReturnRows(sqlmock.NewRows([]string{"email", "role", "created_at", "created_by"}).
			AddRow("owner@studio.ua", "owner", time.Now(), nil))
	mock.ExpectQuery("FROM user_roles WHERE email=").WithArgs("new@studio.ua").
		WillReturnRows(sqlmock.NewRows([]string{"email", "role", "created_at", "created_by"}))

	repo := UserRoleRepository{DB: db}
	d, err := repo.Get(context.Background(), nil, "  Owner@Studio.UA ")
	if err != nil || d.Role != models.RoleOwner {
		t.Fatalf("unexpected %+v %v", d, err)
	}
	if _, err := repo.Get(context.Background(), nil, "new@studio.ua"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserRoleCountOwnersLocksInsideTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM user_roles WHERE role=\\? FOR UPDATE").WithArgs("owner").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectCommit()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	n, err := UserRoleRepository{DB: db}.CountOwners(context.Background(), tx)
	if err != nil || n != 0 {
		t.Fatalf("unexpected %d %v", n, err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
