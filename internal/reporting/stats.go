package reporting

import (
	"studio/internal/domain/models"
)

// RoomRevenue is revenue attributed to a room.
type RoomRevenue struct {
	RoomID   string  `json:"roomId"`
	RoomName string  `json:"roomName"`
	Revenue  float64 `json:"revenue"`
	Hours    float64 `json:"hours"`
}

// PaymentRevenue is revenue grouped by payment type.
type PaymentRevenue struct {
	Type    models.PaymentType `json:"type"`
	Label   string             `json:"label"`
	Revenue float64            `json:"revenue"`
	Count   int                `json:"count"`
}

// Stats is the statistics block shown above the report.
//
// RevenueByRoom attributes each entry to its primary room only. RoomShares
// distributes room revenue by each room line's own price instead, with any
// equipment revenue kept on the primary room.
type Stats struct {
	TotalRevenue         float64          `json:"totalRevenue"`
	TotalHours           float64          `json:"totalHours"`
	TotalBookings        int              `json:"totalBookings"`
	ResidentBookings     int              `json:"residentBookings"`
	RevenueByRoom        []RoomRevenue    `json:"revenueByRoom"`
	RoomShares           []RoomRevenue    `json:"roomShares"`
	RevenueByPaymentType []PaymentRevenue `json:"revenueByPaymentType"`
	Salary               SalaryBreakdown  `json:"salary"`
	SalaryByAdmin        []StaffSalary    `json:"salaryByAdmin"`
}

// Statistics aggregates entries already filtered for the viewer. For an
// admin the salary covers only their own entries and SalaryByAdmin is empty.
func Statistics(entries []models.ReportEntry, rooms []models.Room, v Viewer) Stats {
	st := Stats{
		RevenueByRoom: make([]RoomRevenue, 0, len(rooms)),
		RoomShares:    make([]RoomRevenue, 0, len(rooms)),
		SalaryByAdmin: []StaffSalary{},
	}
	for _, e := range entries {
		st.TotalRevenue += e.TotalPrice
		st.TotalHours += e.TotalHours
		st.TotalBookings++
		if e.IsResident {
			st.ResidentBookings++
		}
	}

	for _, r := range rooms {
		primary := RoomRevenue{RoomID: r.ID, RoomName: r.Name}
		share := RoomRevenue{RoomID: r.ID, RoomName: r.Name}
		for _, e := range entries {
			if e.RoomID == r.ID {
				primary.Revenue += e.TotalPrice
				primary.Hours += e.TotalHours
			}
			rev, hours := roomShare(e, r.ID)
			share.Revenue += rev
			share.Hours += hours
		}
		st.RevenueByRoom = append(st.RevenueByRoom, primary)
		st.RoomShares = append(st.RoomShares, share)
	}

	for _, pt := range []models.PaymentType{models.PaymentCash, models.PaymentCard, models.PaymentMixed} {
		pr := PaymentRevenue{Type: pt, Label: PaymentLabel(pt)}
		for _, e := range entries {
			if e.Payment.Type == pt {
				pr.Revenue += e.TotalPrice
				pr.Count++
			}
		}
		st.RevenueByPaymentType = append(st.RevenueByPaymentType, pr)
	}

	if v.Owner {
		st.Salary = Salary(entries)
		st.SalaryByAdmin = SalaryByStaff(entries)
	} else {
		st.Salary = Salary(Visible(entries, v))
	}
	return st
}

// roomShare returns the revenue and hours of entry e that belong to roomID.
func roomShare(e models.ReportEntry, roomID string) (float64, float64) {
	if len(e.RoomLines) == 0 {
		if e.RoomID == roomID {
			return e.TotalPrice, e.TotalHours
		}
		return 0, 0
	}
	var rev, hours float64
	for _, l := range e.RoomLines {
		if l.RoomID == roomID {
			rev += l.Price
			hours += l.Hours
		}
	}
	if e.RoomID == roomID {
		rev += e.TotalPrice - sumLinePrices(e.RoomLines)
	}
	return rev, hours
}

func sumLinePrices(lines []models.RoomLine) float64 {
	total := 0.0
	for _, l := range lines {
		total += l.Price
	}
	return total
}
