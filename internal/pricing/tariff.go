package pricing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"studio/internal/domain/models"
)

const (
	// EveningStartMinutes is 17:00, the weekday day/evening boundary.
	EveningStartMinutes = 17 * 60
	minutesPerDay       = 24 * 60
	dateLayout          = "2006-01-02"
)

// TariffBreakdown splits a priced interval into day and evening parts.
// Hours are fractional and never rounded.
type TariffBreakdown struct {
	DayHours     float64 `json:"dayHours"`
	EveningHours float64 `json:"eveningHours"`
	DayRate      float64 `json:"dayRate"`
	EveningRate  float64 `json:"eveningRate"`
	Total        float64 `json:"total"`
}

// ParseClock reads "HH:mm" (seconds are ignored) into minutes after midnight.
// "24:00" is accepted as end of day.
func ParseClock(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || (h == 24 && m > 0) {
		return 0, false
	}
	return h*60 + m, true
}

// ParseDate reads an ISO yyyy-MM-dd date.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IntervalMinutes returns end-start in minutes, wrapping past midnight once.
func IntervalMinutes(startMin, endMin int) int {
	diff := endMin - startMin
	if diff < 0 {
		diff += minutesPerDay
	}
	return diff
}

// CeilHours is the whole-hour duration shown to staff: ceil((end-start)/60).
// It returns 0 when either time cannot be parsed.
func CeilHours(start, end string) float64 {
	s, ok1 := ParseClock(start)
	e, ok2 := ParseClock(end)
	if !ok1 || !ok2 {
		return 0
	}
	return math.Ceil(float64(IntervalMinutes(s, e)) / 60)
}

// IsWeekend reports whether an ISO date falls on Saturday or Sunday.
func IsWeekend(date string) bool {
	t, ok := ParseDate(date)
	if !ok {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsEveningTariff reports whether a rehearsal starting at start on date is
// billed at the evening rate from its first minute.
func IsEveningTariff(date, start string) bool {
	if IsWeekend(date) {
		return true
	}
	m, ok := ParseClock(start)
	return ok && m >= EveningStartMinutes
}

func dayRate(room models.Room, resident bool) float64 {
	if resident {
		return room.Tariffs.WeekdayDayResidentPrice
	}
	return room.Tariffs.WeekdayDayPrice
}

func eveningRate(room models.Room, resident bool) float64 {
	if resident {
		return room.Tariffs.WeekdayEveningResidentPrice
	}
	return room.Tariffs.WeekdayEveningPrice
}

// HourlyRate is the single rate in force at the start of the rehearsal.
func HourlyRate(room models.Room, date, start string, resident bool) float64 {
	if IsEveningTariff(date, start) {
		return eveningRate(room, resident)
	}
	return dayRate(room, resident)
}

// Resolve prices the interval start..end on date for room.
// A nil room or an unreadable date or time yields a zero breakdown.
func Resolve(room *models.Room, date, start, end string, resident bool) TariffBreakdown {
	s, ok1 := ParseClock(start)
	e, ok2 := ParseClock(end)
	if room == nil || !ok1 || !ok2 {
		return TariffBreakdown{}
	}
	return resolveMinutes(*room, date, float64(s), float64(IntervalMinutes(s, e)), resident)
}

// ResolveHours prices hours of room time laid out from start on date.
// Multi-room bookings use it so that each room is billed for its own hour count.
func ResolveHours(room *models.Room, date, start string, hours float64, resident bool) TariffBreakdown {
	s, ok := ParseClock(start)
	if room == nil || !ok || hours <= 0 {
		return TariffBreakdown{}
	}
	return resolveMinutes(*room, date, float64(s), hours*60, resident)
}

func resolveMinutes(room models.Room, date string, startMin, durMin float64, resident bool) TariffBreakdown {
	t, ok := ParseDate(date)
	if !ok || durMin <= 0 {
		return TariffBreakdown{}
	}

	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		rate := eveningRate(room, resident)
		hours := durMin / 60
		return TariffBreakdown{EveningHours: hours, EveningRate: rate, Total: hours * rate}
	}

	endMin := startMin + durMin
	var dayMin, eveningMin float64
	switch {
	case startMin >= EveningStartMinutes:
		eveningMin = durMin
	case endMin <= EveningStartMinutes:
		dayMin = durMin
	default:
		dayMin = EveningStartMinutes - startMin
		eveningMin = endMin - EveningStartMinutes
	}

	b := TariffBreakdown{
		DayHours:     dayMin / 60,
		EveningHours: eveningMin / 60,
		DayRate:      dayRate(room, resident),
		EveningRate:  eveningRate(room, resident),
	}
	b.Total = b.DayHours*b.DayRate + b.EveningHours*b.EveningRate
	return b
}

// TariffLabel is the staff-facing name of the tariff in force.
func TariffLabel(isEvening, resident, weekend bool) string {
	var label string
	switch {
	case weekend:
		label = "Вихідний/свято"
	case isEvening:
		label = "Вечірній тариф"
	default:
		label = "Денний тариф"
	}
	if resident {
		label += " (резидент)"
	}
	return label
}
