package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"studio/internal/domain"
	"studio/internal/domain/models"
	"studio/internal/repositories"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthIssueAndParse(t *testing.T) {
	svc := AuthService{Secret: []byte("test-secret"), TTL: time.Hour}
	token, exp, err := svc.Issue("Anna@Studio.ua", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("token already expired: %v", exp)
	}
	claims, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Email != "anna@studio.ua" || claims.Role != models.RoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}

	other := AuthService{Secret: []byte("other-secret")}
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Parse("garbage"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestAuthParseRejectsExpiredToken(t *testing.T) {
	svc := AuthService{Secret: []byte("test-secret")}
	claims := Claims{
		Email: "anna@studio.ua",
		Role:  models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.Secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Parse(token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestAuthLogin(t *testing.T) {
	db, mock := newMock(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("rehearse-loud"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	userCols := []string{"id", "email", "name", "password_hash", "created_at"}
	mock.ExpectQuery("FROM staff_users WHERE email=").WithArgs("anna@studio.ua").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(7), "anna@studio.ua", "Anna", string(hash), time.Now()))
	mock.ExpectBegin()
	mock.ExpectQuery("FROM user_roles WHERE email=").WithArgs("anna@studio.ua").
		WillReturnRows(sqlmock.NewRows(roleCols).AddRow("anna@studio.ua", "admin", time.Now(), nil))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM staff_users WHERE email=").WithArgs("anna@studio.ua").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(7), "anna@studio.ua", "Anna", string(hash), time.Now()))

	svc := AuthService{
		Users:  repositories.UserRepository{DB: db},
		Roles:  RoleService{DB: db},
		Secret: []byte("test-secret"),
	}
	sess, err := svc.Login(context.Background(), "Anna@Studio.ua", "rehearse-loud")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token == "" || sess.Role != models.RoleAdmin || sess.User.ID != 7 {
		t.Fatalf("unexpected session %+v", sess)
	}
	if _, err := svc.Login(context.Background(), "anna@studio.ua", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	checkMock(t, mock)
}

func TestAuthRegisterRules(t *testing.T) {
	svc := AuthService{}
	if _, err := svc.Register(context.Background(), anna, RegisterInput{Email: "new@studio.ua", Password: "long-enough"}); !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.Register(context.Background(), owner, RegisterInput{Email: "new@studio.ua", Password: "short"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO staff_users").
		WithArgs("new@studio.ua", "New Admin", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(12, 1))
	svc = AuthService{Users: repositories.UserRepository{DB: db}}
	u, err := svc.Register(context.Background(), owner, RegisterInput{Email: "New@Studio.ua", Name: "New Admin", Password: "long-enough"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID != 12 || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("long-enough")) != nil {
		t.Fatalf("unexpected user %+v", u)
	}
	checkMock(t, mock)
}
