package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schedulr/schedulr/internal/utils"
	"github.com/schedulr/schedulr/pkg/user"
	log "github.com/sirupsen/logrus"
)

// BookingReader is the read side of bookings needed to decide which slots are taken.
type BookingReader interface {
	// GetBookedStartTimes returns start times of bookings with from <= start <= to.
	GetBookedStartTimes(ctx context.Context, userId int, from, to time.Time) ([]time.Time, error)
	// CountBookingsPerDate groups bookings with from <= start < to by their local date in timezone.
	CountBookingsPerDate(ctx context.Context, userId int, from, to time.Time, timezone string) ([]DailyBookingCount, error)
}

type Service interface {
	GetRules(ctx context.Context) ([]Rule, error)
	// SetRules replaces the whole weekly schedule of the current user.
	SetRules(ctx context.Context, rules []Rule) ([]Rule, error)
	// GetDayAvailability resolves the slots of one calendar date of the owner. Only the year, month
	// and day of date are used; they are interpreted in the owner's timezone.
	GetDayAvailability(ctx context.Context, username string, date time.Time) (DayAvailability, error)
	GetBlockedDates(ctx context.Context, username string, year int, month time.Month) (MonthBlocked, error)
}

type ServiceImpl struct {
	repo     Repository
	bookings BookingReader
	users    user.Provider
	clock    utils.Clock
}

func NewService(repo Repository, bookings BookingReader, users user.Provider, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{
		repo:     repo,
		bookings: bookings,
		users:    users,
		clock:    clock,
	}
}

func (s *ServiceImpl) GetRules(ctx context.Context) ([]Rule, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetRules(ctx, userId)
}

func (s *ServiceImpl) SetRules(ctx context.Context, rules []Rule) ([]Rule, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}

	var stored []Rule
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		deleted, err := repo.DeleteRules(ctx, userId)
		if err != nil {
			return fmt.Errorf("failed to delete availability rules: %w", err)
		}
		log.Debugf("replacing %d availability rules of user %d with %d", deleted, userId, len(rules))
		stored, err = repo.StoreRules(ctx, userId, rules)
		if err != nil {
			return fmt.Errorf("failed to store availability rules: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *ServiceImpl) GetDayAvailability(ctx context.Context, username string, date time.Time) (DayAvailability, error) {
	owner, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return DayAvailability{}, err
	}
	location, err := owner.Location()
	if err != nil {
		return DayAvailability{}, fmt.Errorf("failed to load timezone of %s: %w", owner.Username, err)
	}
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, location)
	dayEnd := utils.EndOfDay(dayStart, location)
	result := DayAvailability{Date: dayStart, Slots: []Slot{}}

	now := s.clock.Now()
	if dayEnd.Before(now) {
		return result, nil
	}

	rule, err := s.repo.GetRule(ctx, owner.Id, dayStart.Weekday())
	if errors.Is(err, ErrRuleNotFound) {
		return result, nil
	} else if err != nil {
		return DayAvailability{}, err
	}

	bookedTimes, err := s.bookings.GetBookedStartTimes(ctx, owner.Id, dayStart, dayEnd)
	if err != nil {
		return DayAvailability{}, fmt.Errorf("failed to get booked times: %w", err)
	}
	booked := make(map[int64]bool, len(bookedTimes))
	for _, startTime := range bookedTimes {
		booked[startTime.Unix()] = true
	}

	for _, hour := range rule.SlotsOn(dayStart, location) {
		slotStart, _ := SlotStart(dayStart, hour, location)
		result.Slots = append(result.Slots, Slot{
			Hour:    hour,
			Blocked: booked[slotStart.Unix()] || slotStart.Before(now),
		})
	}
	return result, nil
}

func (s *ServiceImpl) GetBlockedDates(ctx context.Context, username string, year int, month time.Month) (MonthBlocked, error) {
	owner, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return MonthBlocked{}, err
	}
	location, err := owner.Location()
	if err != nil {
		return MonthBlocked{}, fmt.Errorf("failed to load timezone of %s: %w", owner.Username, err)
	}

	rules, err := s.repo.GetRules(ctx, owner.Id)
	if err != nil {
		return MonthBlocked{}, err
	}
	rulesByDay := make(map[time.Weekday]Rule, len(rules))
	for _, rule := range rules {
		rulesByDay[rule.WeekDay] = rule
	}

	result := MonthBlocked{
		Year:            year,
		Month:           month,
		BlockedWeekDays: []int{},
		BlockedDates:    []int{},
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		if _, ok := rulesByDay[day]; !ok {
			result.BlockedWeekDays = append(result.BlockedWeekDays, int(day))
		}
	}
	if len(rules) == 0 {
		return result, nil
	}

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, location)
	nextMonthStart := monthStart.AddDate(0, 1, 0)
	counts, err := s.bookings.CountBookingsPerDate(ctx, owner.Id, monthStart, nextMonthStart, location.String())
	if err != nil {
		return MonthBlocked{}, fmt.Errorf("failed to count bookings: %w", err)
	}
	countByDay := make(map[int]int, len(counts))
	for _, count := range counts {
		if count.Date.Year() == year && count.Date.Month() == month {
			countByDay[count.Date.Day()] = count.Count
		}
	}

	for date := monthStart; date.Before(nextMonthStart); date = date.AddDate(0, 0, 1) {
		rule, ok := rulesByDay[date.Weekday()]
		if !ok {
			continue
		}
		if countByDay[date.Day()] >= len(rule.SlotsOn(date, location)) {
			result.BlockedDates = append(result.BlockedDates, date.Day())
		}
	}
	log.Tracef("blocked dates of %s in %d-%02d: %v", owner.Username, year, month, result.BlockedDates)
	return result, nil
}
