package booking

import (
	"errors"
	"time"
)

var (
	ErrInvalidData     = errors.New("invalid booking data")
	ErrDateInPast      = errors.New("date is in the past")
	ErrNotAvailable    = errors.New("user is not available at this time")
	ErrSlotConflict    = errors.New("slot is already booked")
	ErrBookingNotFound = errors.New("booking not found")
)

// Booking is an immutable reservation of one hour slot of a user.
type Booking struct {
	Id     int
	Uid    string
	UserId int
	// Date is the calendar date of StartTime in the owner's timezone at the moment of booking.
	Date         time.Time
	StartTime    time.Time
	GuestName    string
	GuestEmail   string
	Observations string
	CreatedAt    time.Time
}

// Request is a guest's proposal of a slot.
type Request struct {
	Name         string
	Email        string
	Observations string
	Date         time.Time
}
