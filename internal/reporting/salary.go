package reporting

import (
	"sort"

	"studio/internal/domain/models"
)

const (
	CommissionRate = 0.10
	// BaseSalary is paid per half-month tranche with at least one booking.
	BaseSalary = 6000.0

	unknownStaff = "unknown"
)

// Tranche is one half-month of salary.
type Tranche struct {
	Bookings   int     `json:"bookings"`
	Revenue    float64 `json:"revenue"`
	Commission float64 `json:"commission"`
	BaseSalary float64 `json:"baseSalary"`
	Total      float64 `json:"total"`
}

// SalaryBreakdown covers days 1-15 and 16-end of a month.
type SalaryBreakdown struct {
	FirstHalf  Tranche `json:"firstHalf"`
	SecondHalf Tranche `json:"secondHalf"`
	Total      float64 `json:"total"`
}

// StaffSalary is the salary of one staff member.
type StaffSalary struct {
	AdminID       string `json:"adminId"`
	BookingsCount int    `json:"bookingsCount"`
	SalaryBreakdown
}

// Salary splits entries by the day component of their date and computes
// commission plus base for each half. Entries with an unreadable day count
// toward neither half.
func Salary(entries []models.ReportEntry) SalaryBreakdown {
	var first, second []models.ReportEntry
	for _, e := range entries {
		switch d := e.Day(); {
		case d >= 1 && d <= 15:
			first = append(first, e)
		case d >= 16:
			second = append(second, e)
		}
	}
	s := SalaryBreakdown{FirstHalf: tranche(first), SecondHalf: tranche(second)}
	s.Total = s.FirstHalf.Total + s.SecondHalf.Total
	return s
}

func tranche(entries []models.ReportEntry) Tranche {
	t := Tranche{Bookings: len(entries)}
	for _, e := range entries {
		t.Revenue += e.TotalPrice
	}
	t.Commission = t.Revenue * CommissionRate
	if t.Bookings > 0 {
		t.BaseSalary = BaseSalary
	}
	t.Total = t.Commission + t.BaseSalary
	return t
}

// SalaryByStaff runs Salary independently for every distinct creator,
// ordered by staff id.
func SalaryByStaff(entries []models.ReportEntry) []StaffSalary {
	grouped := map[string][]models.ReportEntry{}
	for _, e := range entries {
		id := models.NormalizeEmail(e.CreatedBy)
		if id == "" {
			id = unknownStaff
		}
		grouped[id] = append(grouped[id], e)
	}
	out := make([]StaffSalary, 0, len(grouped))
	for id, list := range grouped {
		out = append(out, StaffSalary{AdminID: id, BookingsCount: len(list), SalaryBreakdown: Salary(list)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdminID < out[j].AdminID })
	return out
}
