package pricing

import (
	"math"
	"strings"

	"studio/internal/domain/models"
)

// QuoteRequest is everything needed to price a booking.
//
// Equipment is billed in shared-hours mode unless SeparateEquipmentHours is
// set and EquipmentBookings is non-empty, in which case each item carries its
// own hour count.
type QuoteRequest struct {
	Date                   string                    `json:"date"`
	StartTime              string                    `json:"startTime"`
	EndTime                string                    `json:"endTime"`
	IsResident             bool                      `json:"isResident"`
	Rooms                  []models.RoomBooking      `json:"roomBookings"`
	Equipment              []string                  `json:"equipment"`
	EquipmentBookings      []models.EquipmentBooking `json:"equipmentBookings"`
	SeparateEquipmentHours bool                      `json:"separateEquipmentHours"`
}

// RoomLine is the priced share of one room in a booking.
type RoomLine struct {
	RoomID    string          `json:"roomId"`
	RoomName  string          `json:"roomName"`
	Hours     float64         `json:"hours"`
	Price     float64         `json:"price"`
	Breakdown TariffBreakdown `json:"breakdown"`
}

// Model drops the tariff breakdown for persistence.
func (l RoomLine) Model() models.RoomLine {
	return models.RoomLine{RoomID: l.RoomID, RoomName: l.RoomName, Hours: l.Hours, Price: l.Price}
}

// Quote is the price breakdown of a booking.
type Quote struct {
	RoomLines      []RoomLine `json:"roomLines"`
	RoomPrice      float64    `json:"roomPrice"`
	EquipmentPrice float64    `json:"equipmentPrice"`
	TotalPrice     float64    `json:"totalPrice"`
	TotalHours     float64    `json:"totalHours"`
	EquipmentHours float64    `json:"equipmentHours"`
	IntervalHours  float64    `json:"intervalHours"`
	HourlyRate     float64    `json:"hourlyRate"`
	StartRate      float64    `json:"startRate"`
	IsEveningRate  bool       `json:"isEveningRate"`
	IsWeekend      bool       `json:"isWeekend"`
	TariffLabel    string     `json:"tariffLabel"`
}

// ModelLines converts the room lines for persistence.
func (q Quote) ModelLines() []models.RoomLine {
	out := make([]models.RoomLine, 0, len(q.RoomLines))
	for _, l := range q.RoomLines {
		out = append(out, l.Model())
	}
	return out
}

// RequestFromBooking builds a quote request from a stored booking.
func RequestFromBooking(b models.Booking) QuoteRequest {
	rooms := b.RoomBookings
	if len(rooms) == 0 && strings.TrimSpace(b.RoomID) != "" {
		rooms = []models.RoomBooking{{RoomID: b.RoomID, Hours: CeilHours(b.StartTime, b.EndTime)}}
	}
	return QuoteRequest{
		Date:                   b.Date,
		StartTime:              b.StartTime,
		EndTime:                b.EndTime,
		IsResident:             b.IsResident,
		Rooms:                  rooms,
		Equipment:              b.Equipment,
		EquipmentBookings:      b.EquipmentBookings,
		SeparateEquipmentHours: len(b.EquipmentBookings) > 0,
	}
}

// Calculate prices a booking against table. It never fails: a request whose
// date or times cannot be read yields a zero Quote.
func Calculate(table PriceTable, req QuoteRequest) Quote {
	startMin, ok1 := ParseClock(req.StartTime)
	endMin, ok2 := ParseClock(req.EndTime)
	if _, ok := ParseDate(req.Date); !ok || !ok1 || !ok2 {
		return Quote{RoomLines: []RoomLine{}}
	}

	exact := float64(IntervalMinutes(startMin, endMin)) / 60
	interval := math.Ceil(exact)
	weekend := IsWeekend(req.Date)
	q := Quote{
		RoomLines:     make([]RoomLine, 0, len(req.Rooms)),
		IntervalHours: interval,
		IsWeekend:     weekend,
	}

	maxRoomHours := 0.0
	for _, rb := range req.Rooms {
		hours := rb.Hours
		if hours <= 0 {
			hours = interval
		}
		line := RoomLine{RoomID: rb.RoomID, RoomName: rb.RoomID, Hours: hours}
		if room, ok := table.Room(rb.RoomID); ok {
			line.RoomName = room.Name
			// Hours left at the displayed interval bill the real minutes.
			if hours == interval && exact != interval {
				line.Breakdown = Resolve(&room, req.Date, req.StartTime, req.EndTime, req.IsResident)
			} else {
				line.Breakdown = ResolveHours(&room, req.Date, req.StartTime, hours, req.IsResident)
			}
			line.Price = line.Breakdown.Total
			if q.StartRate == 0 {
				q.StartRate = HourlyRate(room, req.Date, req.StartTime, req.IsResident)
			}
		}
		if line.Breakdown.EveningHours > 0 {
			q.IsEveningRate = true
		}
		q.RoomLines = append(q.RoomLines, line)
		q.RoomPrice += line.Price
		q.TotalHours += hours
		if hours > maxRoomHours {
			maxRoomHours = hours
		}
	}

	if req.SeparateEquipmentHours && len(req.EquipmentBookings) > 0 {
		for _, eb := range req.EquipmentBookings {
			if eb.Hours <= 0 {
				continue
			}
			q.EquipmentHours += eb.Hours
			if item, ok := table.EquipmentItem(eb.EquipmentID); ok {
				q.EquipmentPrice += item.PricePerHour * eb.Hours
			}
		}
	} else if len(req.Equipment) > 0 {
		governing := maxRoomHours
		if len(req.Rooms) == 0 {
			governing = interval
		}
		perHour := 0.0
		seen := make(map[string]struct{}, len(req.Equipment))
		for _, id := range req.Equipment {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if item, ok := table.EquipmentItem(id); ok {
				perHour += item.PricePerHour
			}
		}
		q.EquipmentHours = governing
		q.EquipmentPrice = perHour * governing
	}

	q.TotalPrice = q.RoomPrice + q.EquipmentPrice
	if q.TotalHours > 0 {
		q.HourlyRate = q.RoomPrice / q.TotalHours
	}
	if weekend || startMin >= EveningStartMinutes {
		q.IsEveningRate = true
	}
	q.TariffLabel = TariffLabel(q.IsEveningRate, req.IsResident, weekend)
	return q
}

// Warnings lists non-blocking problems with a priced booking.
func Warnings(q Quote, payment models.Payment) []string {
	var out []string
	if payment.Type == models.PaymentMixed && !payment.Balanced(q.TotalPrice) {
		out = append(out, "mixed payment amounts do not add up to the total price")
	}
	return out
}
