package utils

import "time"

// StartOfDay returns midnight of the calendar day t falls on in location.
func StartOfDay(t time.Time, location *time.Location) time.Time {
	day := t.In(location)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, location)
}

// EndOfDay returns the last representable instant of the calendar day t falls on in location.
func EndOfDay(t time.Time, location *time.Location) time.Time {
	day := t.In(location)
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 999999999, location)
}

// StartOfHour truncates t to the beginning of its hour in location.
// Truncate is not used because it works on absolute time and breaks for half-hour offset zones.
// The sub-hour part is subtracted instead of rebuilding the wall clock, which is ambiguous
// in the repeated hour when clocks fall back.
func StartOfHour(t time.Time, location *time.Location) time.Time {
	local := t.In(location)
	sinceHour := time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second +
		time.Duration(local.Nanosecond())
	return local.Add(-sinceHour)
}

// MinuteOfDay returns the number of minutes since local midnight.
func MinuteOfDay(t time.Time, location *time.Location) int {
	local := t.In(location)
	return local.Hour()*60 + local.Minute()
}

// LoadLocation resolves an IANA zone name, falling back to UTC for an empty name.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(timezone)
}
