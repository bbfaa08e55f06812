package booking

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/schedulr/schedulr/pkg/availability"
)

type RepositoryStub struct {
	mu       sync.Mutex
	bookings []Booking
	nextId   int
	// StaleReads makes ExistsAt miss every booking, as if another request inserted it in between.
	StaleReads bool
	FailWith   error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{}
}

// txRepositoryStub remembers what a transaction inserted so only that is undone on rollback.
type txRepositoryStub struct {
	*RepositoryStub
	created []int
}

func (t *txRepositoryStub) Create(ctx context.Context, booking Booking) (Booking, error) {
	created, err := t.RepositoryStub.Create(ctx, booking)
	if err == nil {
		t.created = append(t.created, created.Id)
	}
	return created, err
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx := &txRepositoryStub{RepositoryStub: r}
	if err := fn(tx); err != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		kept := r.bookings[:0]
		for _, existing := range r.bookings {
			if !slices.Contains(tx.created, existing.Id) {
				kept = append(kept, existing)
			}
		}
		r.bookings = kept
		return err
	}
	return nil
}

func (r *RepositoryStub) Create(ctx context.Context, booking Booking) (Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return Booking{}, r.FailWith
	}
	for _, existing := range r.bookings {
		if existing.UserId == booking.UserId && existing.StartTime.Equal(booking.StartTime) {
			return Booking{}, ErrSlotConflict
		}
	}
	r.nextId++
	booking.Id = r.nextId
	booking.CreatedAt = time.Now()
	r.bookings = append(r.bookings, booking)
	return booking, nil
}

func (r *RepositoryStub) ExistsAt(ctx context.Context, userId int, startTime time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return false, r.FailWith
	}
	if r.StaleReads {
		return false, nil
	}
	for _, existing := range r.bookings {
		if existing.UserId == userId && existing.StartTime.Equal(startTime) {
			return true, nil
		}
	}
	return false, nil
}

func (r *RepositoryStub) GetBookingByUid(ctx context.Context, uid string) (Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.bookings {
		if existing.Uid == uid {
			return existing, nil
		}
	}
	return Booking{}, ErrBookingNotFound
}

func (r *RepositoryStub) GetBookings(ctx context.Context, userId int, from, to time.Time) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	result := make([]Booking, 0)
	for _, existing := range r.bookings {
		if existing.UserId == userId && !existing.StartTime.Before(from) && existing.StartTime.Before(to) {
			result = append(result, existing)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (r *RepositoryStub) GetBookedStartTimes(ctx context.Context, userId int, from, to time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	result := make([]time.Time, 0)
	for _, existing := range r.bookings {
		if existing.UserId == userId && !existing.StartTime.Before(from) && !existing.StartTime.After(to) {
			result = append(result, existing.StartTime)
		}
	}
	return result, nil
}

func (r *RepositoryStub) CountBookingsPerDate(ctx context.Context, userId int, from, to time.Time, timezone string) ([]availability.DailyBookingCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	counts := make(map[time.Time]int)
	for _, existing := range r.bookings {
		if existing.UserId != userId || existing.StartTime.Before(from) || !existing.StartTime.Before(to) {
			continue
		}
		local := existing.StartTime.In(location)
		counts[time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)]++
	}
	result := make([]availability.DailyBookingCount, 0, len(counts))
	for date, count := range counts {
		result = append(result, availability.DailyBookingCount{Date: date, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}
