package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schedulr/schedulr/internal/config"
	"github.com/schedulr/schedulr/internal/event_bus"
	"github.com/schedulr/schedulr/pkg/user"
	log "github.com/sirupsen/logrus"
)

type ownerGetter interface {
	GetUser(ctx context.Context, id int) (user.User, error)
}

// Mirror copies new bookings into the owner's Google Calendar.
type Mirror struct {
	calendars       Service
	users           ownerGetter
	meetingDuration time.Duration
}

func NewMirror(calendars Service, users ownerGetter, cfg config.Booking) *Mirror {
	return &Mirror{
		calendars:       calendars,
		users:           users,
		meetingDuration: cfg.MeetingDuration,
	}
}

func (m *Mirror) Subscribe(bus *event_bus.EventBus) (unsubscribe func()) {
	return event_bus.SubscribeTyped(bus, event_bus.BookingCreatedEvent, m.onBookingCreated)
}

func (m *Mirror) onBookingCreated(e event_bus.EventT[event_bus.BookingCreated]) error {
	ctx := e.Context()
	owner, err := m.users.GetUser(ctx, e.Data.UserId)
	if err != nil {
		return fmt.Errorf("failed to get owner of booking %s: %w", e.Data.BookingUid, err)
	}
	location, err := owner.Location()
	if err != nil {
		return fmt.Errorf("failed to load timezone of %s: %w", owner.Username, err)
	}

	calendarId := owner.Settings.GoogleCalendar.CalendarId
	if calendarId == "" {
		calendarId = user.DefaultCalendarId
	}
	cal, err := m.calendars.GetCalendar(ctx, owner.Id, calendarId)
	if errors.Is(err, ErrUnathenticated) {
		log.Debugf("user %d has not connected Google Calendar, booking %s is not mirrored", owner.Id, e.Data.BookingUid)
		return nil
	} else if err != nil {
		return err
	}

	created, err := cal.InsertEvent(ctx, bookingEvent(e.Data, m.meetingDuration, location))
	if err != nil {
		return err
	}
	log.Debugf("booking %s mirrored as Google event %s", e.Data.BookingUid, created.Id)
	return nil
}
