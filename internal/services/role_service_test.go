package services

import (
	"context"
	"testing"
	"time"

	"studio/internal/domain"
	"studio/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

var roleCols = []string{"email", "role", "created_at", "created_by"}

func TestRoleInitializeFirstUserBecomesOwner(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM user_roles WHERE email=").WithArgs("first@studio.ua").WillReturnRows(sqlmock.NewRows(roleCols))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM user_roles WHERE role=\\? FOR UPDATE").WithArgs("owner").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec("INSERT INTO user_roles").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	role, err := RoleService{DB: db}.Initialize(context.Background(), " First@Studio.ua ")
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if role != models.RoleOwner {
		t.Fatalf("expected owner, got %s", role)
	}
	checkMock(t, mock)
}

func TestRoleInitializeLaterUsersBecomeAdmins(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM user_roles WHERE email=").WithArgs("next@studio.ua").WillReturnRows(sqlmock.NewRows(roleCols))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM user_roles").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectExec("INSERT INTO user_roles").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	role, err := RoleService{DB: db}.Initialize(context.Background(), "next@studio.ua")
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if role != models.RoleAdmin {
		t.Fatalf("expected admin, got %s", role)
	}
	checkMock(t, mock)
}

func TestRoleInitializeKeepsExistingRole(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM user_roles WHERE email=").WithArgs("owner@studio.ua").
		WillReturnRows(sqlmock.NewRows(roleCols).AddRow("owner@studio.ua", "owner", time.Now(), nil))
	mock.ExpectCommit()

	role, err := RoleService{DB: db}.Initialize(context.Background(), "owner@studio.ua")
	if err != nil || role != models.RoleOwner {
		t.Fatalf("expected stored owner role, got %s %v", role, err)
	}
	checkMock(t, mock)
}

func TestRoleOfDefaultsToAdmin(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM user_roles WHERE email=").WithArgs("ghost@studio.ua").WillReturnRows(sqlmock.NewRows(roleCols))

	role, err := RoleService{DB: db}.RoleOf(context.Background(), "ghost@studio.ua")
	if err != nil || role != models.RoleAdmin {
		t.Fatalf("expected admin, got %s %v", role, err)
	}
	if role, _ := (RoleService{DB: db}).RoleOf(context.Background(), ""); role != models.RoleAdmin {
		t.Fatalf("empty email should be admin, got %s", role)
	}
	checkMock(t, mock)
}

func TestRoleSetProtectsLastOwner(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM user_roles WHERE email=").WithArgs("owner@studio.ua").
		WillReturnRows(sqlmock.NewRows(roleCols).AddRow("owner@studio.ua", "owner", time.Now(), nil))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM user_roles").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectRollback()

	_, err := RoleService{DB: db}.Set(context.Background(), owner, "owner@studio.ua", models.RoleAdmin)
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	checkMock(t, mock)
}

func TestRoleSetRequiresOwner(t *testing.T) {
	if _, err := (RoleService{}).Set(context.Background(), anna, "bohdan@studio.ua", models.RoleOwner); !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := (RoleService{}).Remove(context.Background(), anna, "bohdan@studio.ua"); !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := (RoleService{}).Set(context.Background(), owner, "bohdan@studio.ua", "superuser"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRoleSetupOwner(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO user_roles").
		WithArgs("boss@studio.ua", "owner", sqlmock.AnyArg(), SetupCreator).
		WillReturnResult(sqlmock.NewResult(0, 1))

	d, err := RoleService{DB: db}.SetupOwner(context.Background(), "Boss@Studio.ua")
	if err != nil {
		t.Fatalf("SetupOwner: %v", err)
	}
	if d.Email != "boss@studio.ua" || d.Role != models.RoleOwner {
		t.Fatalf("unexpected role %+v", d)
	}
	if _, err := (RoleService{DB: db}).SetupOwner(context.Background(), "not-an-email"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	checkMock(t, mock)
}
