package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"studio/internal/domain"
	"studio/internal/domain/models"
	"studio/internal/repositories"
	"studio/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid email or password")

const minPasswordLength = 8

// Claims is the JWT payload of a staff session.
type Claims struct {
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	Users     repositories.UserRepository
	Roles     RoleService
	Secret    []byte
	TTL       time.Duration
	RequestID string
}

// Session is a successful login.
type Session struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      models.StaffUser `json:"user"`
	Role      models.UserRole  `json:"role"`
}

func (s AuthService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return 24 * time.Hour
}

// Login checks the password and issues a token carrying the user's role.
// The first staff member to log in becomes the owner.
func (s AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if domain.IsNotFound(err) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, domain.InternalError{Msg: "failed to load user", Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		utils.LogEvent(s.RequestID, "auth", "login_failed", "")
		return Session{}, ErrInvalidCredentials
	}
	role, err := s.Roles.Initialize(ctx, u.Email)
	if err != nil {
		return Session{}, err
	}
	token, exp, err := s.Issue(u.Email, role)
	if err != nil {
		return Session{}, err
	}
	utils.LogEvent(s.RequestID, "auth", "login", "role="+string(role))
	return Session{Token: token, ExpiresAt: exp, User: u, Role: role}, nil
}

// Issue signs an HS256 token for email and role.
func (s AuthService) Issue(email string, role models.UserRole) (string, time.Time, error) {
	if len(s.Secret) == 0 {
		return "", time.Time{}, domain.InternalError{Msg: "jwt secret is not configured"}
	}
	now := utils.NowUTC()
	exp := now.Add(s.ttl())
	claims := Claims{
		Email: models.NormalizeEmail(email),
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   models.NormalizeEmail(email),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, domain.InternalError{Msg: "failed to sign token", Err: err}
	}
	return signed, exp, nil
}

// Parse verifies a token and returns its claims.
func (s AuthService) Parse(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidCredentials
	}
	if claims.Email == "" {
		return Claims{}, ErrInvalidCredentials
	}
	return claims, nil
}

// RegisterInput is a new staff account.
type RegisterInput struct {
	Email    string          `json:"email" binding:"required,email"`
	Name     string          `json:"name"`
	Password string          `json:"password" binding:"required"`
	Role     models.UserRole `json:"role"`
}

// Register creates a staff login. Only owners may provision staff.
func (s AuthService) Register(ctx context.Context, actor domain.Actor, in RegisterInput) (models.StaffUser, error) {
	if !actor.IsOwner() {
		return models.StaffUser{}, domain.ForbiddenError{Msg: "only the owner can add staff"}
	}
	u, err := s.Provision(ctx, in.Email, in.Name, in.Password)
	if err != nil {
		return models.StaffUser{}, err
	}
	if in.Role != "" {
		if _, err := s.Roles.Set(ctx, actor, u.Email, in.Role); err != nil {
			return u, err
		}
	}
	utils.LogEvent(s.RequestID, "auth", "register", "")
	return u, nil
}

// Provision creates a staff login without any role check.
func (s AuthService) Provision(ctx context.Context, email, name, password string) (models.StaffUser, error) {
	email = models.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return models.StaffUser{}, domain.ValidationError{Field: "email", Msg: "a valid email is required"}
	}
	if len(password) < minPasswordLength {
		return models.StaffUser{}, domain.ValidationError{Field: "password", Msg: "password must be at least 8 characters"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.StaffUser{}, domain.InternalError{Msg: "failed to hash password", Err: err}
	}
	u := models.StaffUser{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    utils.NowUTC(),
	}
	if u.ID, err = s.Users.Create(ctx, u); err != nil {
		return models.StaffUser{}, wrapInternal(err, "failed to save user")
	}
	return u, nil
}
