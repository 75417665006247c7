package models

import "time"

// RoomTariff holds the four hourly rates of a room.
// Day rates apply on weekdays before 17:00; evening rates apply after 17:00
// and for the whole day on weekends.
type RoomTariff struct {
	WeekdayDayPrice             float64 `json:"weekdayDayPrice"`
	WeekdayDayResidentPrice     float64 `json:"weekdayDayResidentPrice"`
	WeekdayEveningPrice         float64 `json:"weekdayEveningPrice"`
	WeekdayEveningResidentPrice float64 `json:"weekdayEveningResidentPrice"`
}

// Room is a rehearsal room with its tariff.
type Room struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Tariffs RoomTariff `json:"tariffs"`
}

// Equipment is rentable gear billed per hour. Resident discounts never apply.
type Equipment struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	PricePerHour float64 `json:"pricePerHour"`
}

// Settings is the persisted price table document.
// SeededEquipment lists built-in equipment ids already offered once; the owner
// may delete those items and they stay deleted.
type Settings struct {
	Rooms           []Room      `json:"rooms"`
	Equipment       []Equipment `json:"equipment"`
	SeededEquipment []string    `json:"seededEquipment,omitempty"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}
