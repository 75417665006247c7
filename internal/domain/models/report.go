package models

import "time"

// RoomLine is one room of a report entry with the price computed for it.
type RoomLine struct {
	RoomID   string  `json:"roomId"`
	RoomName string  `json:"roomName"`
	Hours    float64 `json:"hours"`
	Price    float64 `json:"price"`
}

// ReportEntry is the snapshot of a booking taken when it was accepted into the
// financial report. TotalPrice equals RoomPrice + EquipmentPrice at creation.
type ReportEntry struct {
	ID                string             `json:"id"`
	BookingID         string             `json:"bookingId,omitempty"`
	BandName          string             `json:"bandName"`
	Date              string             `json:"date"`
	RoomID            string             `json:"roomId"`
	RoomName          string             `json:"roomName"`
	RoomLines         []RoomLine         `json:"roomBookings"`
	StartTime         string             `json:"startTime"`
	EndTime           string             `json:"endTime"`
	TotalHours        float64            `json:"totalHours"`
	RoomPrice         float64            `json:"roomPrice"`
	EquipmentPrice    float64            `json:"equipmentPrice"`
	TotalPrice        float64            `json:"totalPrice"`
	Payment           Payment            `json:"payment"`
	IsResident        bool               `json:"isResident"`
	Equipment         []string           `json:"equipment"`
	EquipmentHours    float64            `json:"equipmentHours"`
	EquipmentBookings []EquipmentBooking `json:"equipmentBookings"`
	CreatedBy         string             `json:"createdBy"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         *time.Time         `json:"updatedAt,omitempty"`
	Source            Source             `json:"source"`
	Notes             string             `json:"notes,omitempty"`
	Version           int64              `json:"version"`
}

// Day returns the day-of-month component of the entry date, or 0 when it cannot be read.
// Only the textual yyyy-MM-dd value is used; no timezone conversion happens.
func (e ReportEntry) Day() int {
	if len(e.Date) < 10 {
		return 0
	}
	d := 0
	for _, c := range e.Date[8:10] {
		if c < '0' || c > '9' {
			return 0
		}
		d = d*10 + int(c-'0')
	}
	return d
}

// Month returns the yyyy-MM prefix of the entry date.
func (e ReportEntry) Month() string {
	if len(e.Date) < 7 {
		return ""
	}
	return e.Date[:7]
}
