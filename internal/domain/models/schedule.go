package models

// WorkingHours is the opening window of one weekday (0 = Sunday).
type WorkingHours struct {
	DayOfWeek int    `json:"dayOfWeek"`
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
	IsOpen    bool   `json:"isOpen"`
}

// ScheduleSettings is the studio working schedule.
type ScheduleSettings struct {
	WorkingHours    []WorkingHours `json:"workingHours"`
	DefaultDuration int            `json:"defaultDuration"`
	BufferMinutes   int            `json:"bufferMinutes"`
}

// TimeSlot is a candidate start time on the slot grid.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// DefaultSchedule opens every day 10:00-23:00 with two-hour rehearsals.
func DefaultSchedule() ScheduleSettings {
	days := []int{1, 2, 3, 4, 5, 6, 0}
	hours := make([]WorkingHours, 0, len(days))
	for _, d := range days {
		hours = append(hours, WorkingHours{DayOfWeek: d, OpenTime: "10:00", CloseTime: "23:00", IsOpen: true})
	}
	return ScheduleSettings{WorkingHours: hours, DefaultDuration: 2}
}

// ForDay returns the opening window of a weekday, or false when closed.
func (s ScheduleSettings) ForDay(dayOfWeek int) (WorkingHours, bool) {
	for _, wh := range s.WorkingHours {
		if wh.DayOfWeek == dayOfWeek {
			return wh, wh.IsOpen
		}
	}
	return WorkingHours{}, false
}
