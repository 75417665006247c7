package domain

import "studio/internal/domain/models"

// Pagination carries paging params and totals.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total,omitempty"`
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Normalize clamps page and size to sane bounds.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

// Offset is the row offset of the page.
func (p Pagination) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PageSize
}

// Actor is the authenticated staff member behind a request.
type Actor struct {
	RequestID string          `json:"-"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
}

func (a Actor) IsOwner() bool { return a.Role == models.RoleOwner }
