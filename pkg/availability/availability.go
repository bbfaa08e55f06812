package availability

import (
	"errors"
	"fmt"
	"time"
)

const (
	MinutesPerDay = 24 * 60
	SlotMinutes   = 60
)

var (
	ErrRuleNotFound = errors.New("availability rule not found")
	ErrInvalidRules = errors.New("invalid availability rules")
)

// Rule is a weekly recurring window in which a user can be booked.
// Minutes are counted from local midnight in the user's timezone.
type Rule struct {
	Id          int
	WeekDay     time.Weekday
	StartMinute int
	EndMinute   int
}

// Hours returns every whole hour whose full slot lies inside the window, in ascending order.
func (r Rule) Hours() []int {
	first := (r.StartMinute + SlotMinutes - 1) / SlotMinutes
	hours := make([]int, 0, max(0, (r.EndMinute-r.StartMinute)/SlotMinutes))
	for h := first; h*SlotMinutes+SlotMinutes <= r.EndMinute; h++ {
		hours = append(hours, h)
	}
	return hours
}

// SlotStart returns the instant hour:00 begins on the calendar date of day in location.
// ok is false when that wall clock time is skipped because clocks spring forward.
func SlotStart(day time.Time, hour int, location *time.Location) (start time.Time, ok bool) {
	local := day.In(location)
	start = time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, location)
	return start, start.In(location).Hour() == hour
}

// SlotsOn returns the hours of the window that exist on the calendar date of day in location.
func (r Rule) SlotsOn(day time.Time, location *time.Location) []int {
	hours := make([]int, 0)
	for _, hour := range r.Hours() {
		if _, ok := SlotStart(day, hour, location); ok {
			hours = append(hours, hour)
		}
	}
	return hours
}

// Admits reports whether a slot starting at minuteOfDay fits entirely inside the window.
func (r Rule) Admits(minuteOfDay int) bool {
	return minuteOfDay >= r.StartMinute && minuteOfDay+SlotMinutes <= r.EndMinute
}

func (r Rule) Validate() error {
	if r.WeekDay < time.Sunday || r.WeekDay > time.Saturday {
		return fmt.Errorf("%w: week day %d out of range", ErrInvalidRules, r.WeekDay)
	}
	if r.StartMinute < 0 || r.StartMinute >= MinutesPerDay {
		return fmt.Errorf("%w: start minute %d out of range", ErrInvalidRules, r.StartMinute)
	}
	if r.EndMinute <= 0 || r.EndMinute > MinutesPerDay {
		return fmt.Errorf("%w: end minute %d out of range", ErrInvalidRules, r.EndMinute)
	}
	if r.EndMinute-r.StartMinute < SlotMinutes {
		return fmt.Errorf("%w: %s window must be at least one hour long", ErrInvalidRules, r.WeekDay)
	}
	return nil
}

// ValidateRules checks a full weekly schedule submitted for replacement.
func ValidateRules(rules []Rule) error {
	if len(rules) == 0 || len(rules) > 7 {
		return fmt.Errorf("%w: between 1 and 7 intervals are required", ErrInvalidRules)
	}
	seen := make(map[time.Weekday]bool, len(rules))
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return err
		}
		if seen[rule.WeekDay] {
			return fmt.Errorf("%w: %s defined more than once", ErrInvalidRules, rule.WeekDay)
		}
		seen[rule.WeekDay] = true
	}
	return nil
}

type Slot struct {
	Hour    int
	Blocked bool
}

// DayAvailability is the ordered slot set of one calendar date.
type DayAvailability struct {
	Date  time.Time
	Slots []Slot
}

func (d DayAvailability) PossibleHours() []int {
	hours := make([]int, 0, len(d.Slots))
	for _, slot := range d.Slots {
		hours = append(hours, slot.Hour)
	}
	return hours
}

func (d DayAvailability) AvailableHours() []int {
	hours := make([]int, 0, len(d.Slots))
	for _, slot := range d.Slots {
		if !slot.Blocked {
			hours = append(hours, slot.Hour)
		}
	}
	return hours
}

func (d DayAvailability) BlockedHours() []int {
	hours := make([]int, 0)
	for _, slot := range d.Slots {
		if slot.Blocked {
			hours = append(hours, slot.Hour)
		}
	}
	return hours
}

// MonthBlocked lists what can not be booked at all in a month.
type MonthBlocked struct {
	Year  int
	Month time.Month
	// BlockedWeekDays are week days without any rule.
	BlockedWeekDays []int
	// BlockedDates are days of the month on which every slot is taken.
	BlockedDates []int
}

// DailyBookingCount is the number of bookings starting on a local calendar date.
type DailyBookingCount struct {
	Date  time.Time
	Count int
}
