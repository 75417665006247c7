package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	intconfig "studio/internal/config"
	"studio/internal/domain"
	"studio/internal/domain/models"
)

// UserRepository stores staff login accounts.
type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (models.StaffUser, error) {
	var u models.StaffUser
	err := r.db().QueryRowContext(ctx, `SELECT id, email, name, password_hash, created_at FROM staff_users WHERE email=? LIMIT 1`,
		models.NormalizeEmail(email)).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StaffUser{}, domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return models.StaffUser{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Create inserts a user whose PasswordHash is already bcrypt-hashed.
func (r UserRepository) Create(ctx context.Context, u models.StaffUser) (int64, error) {
	res, err := r.db().ExecContext(ctx, `INSERT INTO staff_users (email, name, password_hash, created_at) VALUES (?,?,?,?)`,
		models.NormalizeEmail(u.Email), strings.TrimSpace(u.Name), u.PasswordHash, u.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return 0, domain.ConflictError{Resource: "user", Msg: "email already registered", Err: err}
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}
