// Package reporting aggregates report entries into statistics, salaries and
// exports. It performs no I/O beyond writing to the supplied io.Writer.
package reporting

import (
	"sort"
	"strings"

	"studio/internal/domain/models"
	"studio/internal/utils"
)

// Filter narrows a set of report entries. Zero fields match everything.
type Filter struct {
	Month       string             `form:"month" json:"month"`
	RoomID      string             `form:"room" json:"roomId"`
	PaymentType models.PaymentType `form:"paymentType" json:"paymentType"`
	Search      string             `form:"search" json:"search"`
	CreatedBy   string             `form:"createdBy" json:"createdBy"`
}

// Viewer is the staff member looking at the report.
type Viewer struct {
	Email string
	Owner bool
}

// Visible applies role visibility: owners see everything, admins only their own entries.
func Visible(entries []models.ReportEntry, v Viewer) []models.ReportEntry {
	if v.Owner {
		return entries
	}
	email := models.NormalizeEmail(v.Email)
	out := make([]models.ReportEntry, 0, len(entries))
	for _, e := range entries {
		if models.NormalizeEmail(e.CreatedBy) == email {
			out = append(out, e)
		}
	}
	return out
}

// Matches reports whether a single entry passes f.
func (f Filter) Matches(e models.ReportEntry) bool {
	if m := strings.TrimSpace(f.Month); m != "" && e.Month() != m {
		return false
	}
	if room := strings.TrimSpace(f.RoomID); room != "" && room != "all" && !usesRoom(e, room) {
		return false
	}
	if pt := strings.TrimSpace(string(f.PaymentType)); pt != "" && pt != "all" && string(e.Payment.Type) != pt {
		return false
	}
	if s := strings.TrimSpace(f.Search); s != "" && !utils.ContainsFold(e.BandName, s) {
		return false
	}
	if by := strings.TrimSpace(f.CreatedBy); by != "" && models.NormalizeEmail(e.CreatedBy) != models.NormalizeEmail(by) {
		return false
	}
	return true
}

func usesRoom(e models.ReportEntry, roomID string) bool {
	if e.RoomID == roomID {
		return true
	}
	for _, l := range e.RoomLines {
		if l.RoomID == roomID {
			return true
		}
	}
	return false
}

// Apply returns the entries matching f, newest date first and, within a date,
// most recently created first. The input slice is not modified.
func Apply(entries []models.ReportEntry, f Filter) []models.ReportEntry {
	out := make([]models.ReportEntry, 0, len(entries))
	for _, e := range entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
