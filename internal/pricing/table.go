// Package pricing computes rehearsal prices from a room/equipment price table.
// Every function is pure: callers pass the current PriceTable explicitly.
package pricing

import (
	"strings"
	"time"

	"studio/internal/domain/models"
)

// PriceTable is a snapshot of room tariffs and equipment prices.
type PriceTable struct {
	Rooms           []models.Room      `json:"rooms"`
	Equipment       []models.Equipment `json:"equipment"`
	SeededEquipment []string           `json:"seededEquipment,omitempty"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// FromSettings wraps a stored settings document.
func FromSettings(s models.Settings) PriceTable {
	return PriceTable{Rooms: s.Rooms, Equipment: s.Equipment, SeededEquipment: s.SeededEquipment, UpdatedAt: s.UpdatedAt}
}

// Settings converts the table back into its stored document shape.
func (t PriceTable) Settings() models.Settings {
	return models.Settings{Rooms: t.Rooms, Equipment: t.Equipment, SeededEquipment: t.SeededEquipment, UpdatedAt: t.UpdatedAt}
}

// Room looks a room up by id.
func (t PriceTable) Room(id string) (models.Room, bool) {
	id = strings.TrimSpace(id)
	for _, r := range t.Rooms {
		if r.ID == id {
			return r, true
		}
	}
	return models.Room{}, false
}

// RoomName returns the display name of a room, or the id itself when unknown.
func (t PriceTable) RoomName(id string) string {
	if r, ok := t.Room(id); ok {
		return r.Name
	}
	return id
}

// EquipmentItem looks an equipment item up by id.
func (t PriceTable) EquipmentItem(id string) (models.Equipment, bool) {
	id = strings.TrimSpace(id)
	for _, e := range t.Equipment {
		if e.ID == id {
			return e, true
		}
	}
	return models.Equipment{}, false
}

// EquipmentNames maps ids to display names, skipping unknown ids.
func (t PriceTable) EquipmentNames(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if e, ok := t.EquipmentItem(id); ok {
			out = append(out, e.Name)
		}
	}
	return out
}

// DefaultRooms are the built-in tariffs used until settings are stored.
func DefaultRooms() []models.Room {
	return []models.Room{
		{
			ID:   "standart",
			Name: "Standart",
			Tariffs: models.RoomTariff{
				WeekdayDayPrice:             230,
				WeekdayDayResidentPrice:     190,
				WeekdayEveningPrice:         280,
				WeekdayEveningResidentPrice: 230,
			},
		},
		{
			ID:   "main",
			Name: "Main",
			Tariffs: models.RoomTariff{
				WeekdayDayPrice:             270,
				WeekdayDayResidentPrice:     220,
				WeekdayEveningPrice:         330,
				WeekdayEveningResidentPrice: 270,
			},
		},
	}
}

// DefaultEquipment is the built-in equipment list.
func DefaultEquipment() []models.Equipment {
	return []models.Equipment{
		{ID: "guitar", Name: "Електро-гітара", PricePerHour: 100},
		{ID: "bass", Name: "Бас-гітара", PricePerHour: 100},
		{ID: "cymbals", Name: "Тарілки", PricePerHour: 100},
		{ID: "cymbal-one", Name: "Тарілка одна", PricePerHour: 50},
	}
}

// DefaultPriceTable returns the built-in price table.
func DefaultPriceTable() PriceTable {
	eq := DefaultEquipment()
	return PriceTable{Rooms: DefaultRooms(), Equipment: eq, SeededEquipment: equipmentIDs(eq)}
}

func equipmentIDs(items []models.Equipment) []string {
	out := make([]string, 0, len(items))
	for _, e := range items {
		out = append(out, e.ID)
	}
	return out
}

// MergeEquipment adds every default item missing from stored that was never
// seeded before, keeping stored prices and order. It returns the merged list,
// the updated seeded ids and whether either changed. A default whose id is in
// seeded was offered earlier and stays out once deleted.
func MergeEquipment(stored, defaults []models.Equipment, seeded []string) ([]models.Equipment, []string, bool) {
	seen := make(map[string]struct{}, len(stored))
	out := make([]models.Equipment, 0, len(stored)+len(defaults))
	for _, e := range stored {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	was := make(map[string]struct{}, len(seeded))
	ids := make([]string, 0, len(seeded)+len(defaults))
	for _, id := range seeded {
		if _, dup := was[id]; dup {
			continue
		}
		was[id] = struct{}{}
		ids = append(ids, id)
	}
	changed := false
	for _, e := range defaults {
		if _, ok := was[e.ID]; ok {
			continue
		}
		was[e.ID] = struct{}{}
		ids = append(ids, e.ID)
		changed = true
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out, ids, changed
}
