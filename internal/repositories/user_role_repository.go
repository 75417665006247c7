package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intconfig "studio/internal/config"
	intdb "studio/internal/db"
	"studio/internal/domain"
	"studio/internal/domain/models"
)

type UserRoleRepository struct {
	DB *sql.DB
}

func (r UserRoleRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r UserRoleRepository) exec(q intdb.DBTX) intdb.DBTX {
	if q != nil {
		return q
	}
	return r.db()
}

// Get returns the stored role of email.
func (r UserRoleRepository) Get(ctx context.Context, q intdb.DBTX, email string) (models.UserRoleData, error) {
	var (
		d    models.UserRoleData
		role string
		by   sql.NullString
	)
	err := r.exec(q).QueryRowContext(ctx, `SELECT email, role, created_at, created_by FROM user_roles WHERE email=? LIMIT 1`,
		models.NormalizeEmail(email)).Scan(&d.Email, &role, &d.CreatedAt, &by)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserRoleData{}, domain.NotFoundError{Resource: "user role", Err: err}
	}
	if err != nil {
		return models.UserRoleData{}, fmt.Errorf("get user role: %w", err)
	}
	d.Role = models.UserRole(role)
	d.CreatedBy = by.String
	return d, nil
}

// Set upserts a role assignment.
func (r UserRoleRepository) Set(ctx context.Context, q intdb.DBTX, d models.UserRoleData) error {
	_, err := r.exec(q).ExecContext(ctx, `
		INSERT INTO user_roles (email, role, created_at, created_by) VALUES (?,?,?,?)
		ON DUPLICATE KEY UPDATE role=VALUES(role), created_at=VALUES(created_at), created_by=VALUES(created_by)`,
		models.NormalizeEmail(d.Email), string(d.Role), d.CreatedAt, intdb.NullIfEmpty(d.CreatedBy))
	if err != nil {
		return fmt.Errorf("set user role: %w", err)
	}
	return nil
}

func (r UserRoleRepository) Remove(ctx context.Context, email string) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM user_roles WHERE email=?`, models.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("remove user role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundError{Resource: "user role"}
	}
	return nil
}

func (r UserRoleRepository) List(ctx context.Context) ([]models.UserRoleData, error) {
	rows, err := r.db().QueryContext(ctx, `SELECT email, role, created_at, created_by FROM user_roles ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list user roles: %w", err)
	}
	defer rows.Close()
	out := []models.UserRoleData{}
	for rows.Next() {
		var (
			d    models.UserRoleData
			role string
			by   sql.NullString
		)
		if err := rows.Scan(&d.Email, &role, &d.CreatedAt, &by); err != nil {
			return nil, err
		}
		d.Role = models.UserRole(role)
		d.CreatedBy = by.String
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountOwners counts owner assignments. Inside a transaction the owner rows
// are locked so two first logins cannot both become owner.
func (r UserRoleRepository) CountOwners(ctx context.Context, q intdb.DBTX) (int, error) {
	query := `SELECT COUNT(*) FROM user_roles WHERE role=?`
	if q != nil {
		query += ` FOR UPDATE`
	}
	var n int
	if err := r.exec(q).QueryRowContext(ctx, query, string(models.RoleOwner)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count owners: %w", err)
	}
	return n, nil
}
