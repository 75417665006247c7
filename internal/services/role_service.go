package services

import (
	"context"
	"database/sql"
	"strings"

	intconfig "studio/internal/config"
	intdb "studio/internal/db"
	"studio/internal/domain"
	"studio/internal/domain/models"
	"studio/internal/repositories"
	"studio/internal/utils"
)

// SetupCreator marks roles granted from the command line.
const SetupCreator = "manual-setup"

type RoleService struct {
	Repo      repositories.UserRoleRepository
	DB        *sql.DB
	RequestID string
}

func (s RoleService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s RoleService) repo() repositories.UserRoleRepository {
	if s.Repo.DB != nil {
		return s.Repo
	}
	return repositories.UserRoleRepository{DB: s.db()}
}

// RoleOf returns the stored role of email, admin when none is stored.
func (s RoleService) RoleOf(ctx context.Context, email string) (models.UserRole, error) {
	if strings.TrimSpace(email) == "" {
		return models.RoleAdmin, nil
	}
	d, err := s.repo().Get(ctx, nil, email)
	if domain.IsNotFound(err) {
		return models.RoleAdmin, nil
	}
	if err != nil {
		return models.RoleAdmin, domain.InternalError{Msg: "failed to load role", Err: err}
	}
	return d.Role, nil
}

// Initialize assigns a role on first login: owner when nobody owns the
// studio yet, admin otherwise. Existing assignments are returned unchanged.
func (s RoleService) Initialize(ctx context.Context, email string) (models.UserRole, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return "", domain.ValidationError{Field: "email", Msg: "email is required"}
	}
	var role models.UserRole
	err := intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		d, err := s.repo().Get(ctx, tx, email)
		if err == nil {
			role = d.Role
			return nil
		}
		if !domain.IsNotFound(err) {
			return err
		}
		owners, err := s.repo().CountOwners(ctx, tx)
		if err != nil {
			return err
		}
		role = models.RoleAdmin
		if owners == 0 {
			role = models.RoleOwner
		}
		return s.repo().Set(ctx, tx, models.UserRoleData{Email: email, Role: role, CreatedAt: utils.NowUTC(), CreatedBy: email})
	})
	if err != nil {
		return "", wrapInternal(err, "failed to initialize role")
	}
	utils.LogEvent(s.RequestID, "roles", "initialize", "role="+string(role))
	return role, nil
}

// Set grants role to email. Only owners may change roles, and the last
// owner cannot demote themselves.
func (s RoleService) Set(ctx context.Context, actor domain.Actor, email string, role models.UserRole) (models.UserRoleData, error) {
	if !actor.IsOwner() {
		return models.UserRoleData{}, domain.ForbiddenError{Msg: "only the owner can manage roles"}
	}
	email = models.NormalizeEmail(email)
	if email == "" {
		return models.UserRoleData{}, domain.ValidationError{Field: "email", Msg: "email is required"}
	}
	if !role.Valid() {
		return models.UserRoleData{}, domain.ValidationError{Field: "role", Msg: "role must be owner or admin"}
	}
	d := models.UserRoleData{Email: email, Role: role, CreatedAt: utils.NowUTC(), CreatedBy: models.NormalizeEmail(actor.Email)}
	err := intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		if role != models.RoleOwner {
			if err := s.keepOneOwner(ctx, tx, email); err != nil {
				return err
			}
		}
		return s.repo().Set(ctx, tx, d)
	})
	if err != nil {
		return models.UserRoleData{}, wrapInternal(err, "failed to save role")
	}
	utils.LogEvent(s.RequestID, "roles", "set", "role="+string(role))
	return d, nil
}

// Remove deletes a role assignment; the user falls back to admin.
func (s RoleService) Remove(ctx context.Context, actor domain.Actor, email string) error {
	if !actor.IsOwner() {
		return domain.ForbiddenError{Msg: "only the owner can manage roles"}
	}
	email = models.NormalizeEmail(email)
	err := intdb.WithTx(ctx, s.db(), func(tx *sql.Tx) error {
		return s.keepOneOwner(ctx, tx, email)
	})
	if err != nil {
		return wrapInternal(err, "failed to remove role")
	}
	if err := s.repo().Remove(ctx, email); err != nil {
		return wrapInternal(err, "failed to remove role")
	}
	utils.LogEvent(s.RequestID, "roles", "remove", "")
	return nil
}

// keepOneOwner refuses to take the owner role away from the only owner.
func (s RoleService) keepOneOwner(ctx context.Context, tx *sql.Tx, email string) error {
	d, err := s.repo().Get(ctx, tx, email)
	if domain.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if d.Role != models.RoleOwner {
		return nil
	}
	owners, err := s.repo().CountOwners(ctx, tx)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return domain.ConflictError{Resource: "user role", Msg: "the studio must keep at least one owner"}
	}
	return nil
}

func (s RoleService) List(ctx context.Context) ([]models.UserRoleData, error) {
	list, err := s.repo().List(ctx)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to list roles", Err: err}
	}
	return list, nil
}

// SetupOwner grants owner without an acting user, for bootstrapping.
func (s RoleService) SetupOwner(ctx context.Context, email string) (models.UserRoleData, error) {
	email = models.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return models.UserRoleData{}, domain.ValidationError{Field: "email", Msg: "a valid email is required"}
	}
	d := models.UserRoleData{Email: email, Role: models.RoleOwner, CreatedAt: utils.NowUTC(), CreatedBy: SetupCreator}
	if err := s.repo().Set(ctx, nil, d); err != nil {
		return models.UserRoleData{}, domain.InternalError{Msg: "failed to save role", Err: err}
	}
	utils.LogEvent(s.RequestID, "roles", "setup_owner", "")
	return d, nil
}
