package event_bus

import "time"

const BookingCreatedEvent EventType = "booking.created"

// BookingCreated is published after a booking row has been committed.
type BookingCreated struct {
	BookingUid   string
	UserId       int
	StartTime    time.Time
	GuestName    string
	GuestEmail   string
	Observations string
}
