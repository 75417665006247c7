package models

import "time"

// CalendarEvent is an event read from an external calendar. Synced copies are
// kept per window for display only; staff turn an event into a Booking draft
// before anything is booked.
type CalendarEvent struct {
	ID           string    `json:"id"`
	CalendarID   string    `json:"calendarId"`
	CalendarName string    `json:"calendarName"`
	Summary      string    `json:"summary"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	RoomID       string    `json:"roomId"`
}

// CalendarSyncState describes the latest calendar sync.
type CalendarSyncState struct {
	LastSync time.Time `json:"lastSync"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Events   int       `json:"events"`
}
