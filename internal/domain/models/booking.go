package models

import (
	"strings"
	"time"
)

// TemporaryIDPrefix marks bookings that only exist in an editor and were never stored.
const TemporaryIDPrefix = "temp-"

// IsTemporaryID reports whether id is empty or a transient temp-* marker.
func IsTemporaryID(id string) bool {
	id = strings.TrimSpace(id)
	return id == "" || strings.HasPrefix(id, TemporaryIDPrefix)
}

type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportReported ReportStatus = "reported"
	ReportRejected ReportStatus = "rejected"
)

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCancelled BookingStatus = "cancelled"
)

// Source records where a booking came from.
type Source string

const (
	SourceManual   Source = "manual"
	SourceCalendar Source = "calendar"
	SourceTelegram Source = "telegram"
)

// RoomBooking is one room of a (possibly multi-room) booking with its own hour count.
type RoomBooking struct {
	RoomID string  `json:"roomId"`
	Hours  float64 `json:"hours"`
}

// EquipmentBooking bills one equipment item for an explicit number of hours.
type EquipmentBooking struct {
	EquipmentID string  `json:"equipmentId"`
	Hours       float64 `json:"hours"`
}

// Booking is the mutable unit of work edited by staff.
type Booking struct {
	ID                string             `json:"id"`
	BandName          string             `json:"bandName"`
	Date              string             `json:"date"`
	StartTime         string             `json:"startTime"`
	EndTime           string             `json:"endTime"`
	RoomID            string             `json:"roomId"`
	RoomBookings      []RoomBooking      `json:"roomBookings"`
	IsResident        bool               `json:"isResident"`
	Equipment         []string           `json:"equipment"`
	EquipmentBookings []EquipmentBooking `json:"equipmentBookings,omitempty"`
	Payment           Payment            `json:"payment"`
	TotalHours        float64            `json:"totalHours"`
	EquipmentHours    float64            `json:"equipmentHours,omitempty"`
	TotalPrice        float64            `json:"totalPrice"`
	Notes             string             `json:"notes"`
	CreatedAt         time.Time          `json:"createdAt"`
	CreatedBy         string             `json:"createdBy"`
	Source            Source             `json:"source"`
	Status            BookingStatus      `json:"status"`
	CancelledAt       *time.Time         `json:"cancelledAt,omitempty"`
	CancelledBy       string             `json:"cancelledBy,omitempty"`
	ReportStatus      ReportStatus       `json:"reportStatus"`
	ReportID          string             `json:"reportId,omitempty"`
	Version           int64              `json:"version"`
}

// Normalize brings a booking into its storable shape: trimmed strings, the legacy
// roomId mirror of the first room, non-nil slices and defaulted enums.
func (b *Booking) Normalize() {
	b.BandName = strings.TrimSpace(b.BandName)
	b.Date = strings.TrimSpace(b.Date)
	b.StartTime = strings.TrimSpace(b.StartTime)
	b.EndTime = strings.TrimSpace(b.EndTime)
	b.Notes = strings.TrimSpace(b.Notes)

	rooms := make([]RoomBooking, 0, len(b.RoomBookings))
	for _, rb := range b.RoomBookings {
		id := strings.TrimSpace(rb.RoomID)
		if id == "" {
			continue
		}
		rooms = append(rooms, RoomBooking{RoomID: id, Hours: rb.Hours})
	}
	if len(rooms) == 0 && strings.TrimSpace(b.RoomID) != "" {
		rooms = append(rooms, RoomBooking{RoomID: strings.TrimSpace(b.RoomID), Hours: b.TotalHours})
	}
	b.RoomBookings = rooms
	if len(rooms) > 0 {
		b.RoomID = rooms[0].RoomID
	} else {
		b.RoomID = ""
	}

	if b.Equipment == nil {
		b.Equipment = []string{}
	}
	if b.EquipmentBookings == nil {
		b.EquipmentBookings = []EquipmentBooking{}
	}
	b.Payment = b.Payment.Normalize()
	if b.Source == "" {
		b.Source = SourceManual
	}
	if b.Status == "" {
		b.Status = BookingActive
	}
	if b.ReportStatus == "" {
		b.ReportStatus = ReportPending
	}
	if b.ReportStatus != ReportReported {
		b.ReportID = ""
	}
}

// PrimaryRoomID returns the first selected room, falling back to the legacy field.
func (b Booking) PrimaryRoomID() string {
	if len(b.RoomBookings) > 0 {
		return b.RoomBookings[0].RoomID
	}
	return b.RoomID
}
