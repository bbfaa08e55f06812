package google

import (
	"context"
	"fmt"
	"time"

	"github.com/schedulr/schedulr/internal/event_bus"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

var ErrUnathenticated = fmt.Errorf("user is unauthenticated, authentication is required")

const meetConferenceType = "hangoutsMeet"

// EventInserter adds events to one Google calendar.
type EventInserter interface {
	InsertEvent(ctx context.Context, event *gcal.Event) (*gcal.Event, error)
}

type Calendar struct {
	service    *gcal.Service
	userId     int
	calendarId string
}

func newGoogleCalendar(service *gcal.Service, userId int, calendarId string) *Calendar {
	return &Calendar{
		service:    service,
		userId:     userId,
		calendarId: calendarId,
	}
}

func (c *Calendar) InsertEvent(ctx context.Context, event *gcal.Event) (*gcal.Event, error) {
	log.Debugf("Adding event %q to calendar %s of user %d", event.Summary, c.calendarId, c.userId)
	result, err := c.service.Events.Insert(c.calendarId, event).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		err := fmt.Errorf("unable to insert event in Google Calendar: %v", err)
		log.Error(err)
		return nil, err
	}
	return result, nil
}

// bookingEvent describes a booking as a calendar event with the guest invited to a Meet call.
func bookingEvent(booking event_bus.BookingCreated, duration time.Duration, location *time.Location) *gcal.Event {
	start := booking.StartTime.In(location)
	end := start.Add(duration)
	return &gcal.Event{
		Summary:     "Call: " + booking.GuestName,
		Description: booking.Observations,
		Start: &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: location.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: location.String(),
		},
		Attendees: []*gcal.EventAttendee{
			{Email: booking.GuestEmail, DisplayName: booking.GuestName},
		},
		ConferenceData: &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             booking.BookingUid,
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: meetConferenceType},
			},
		},
	}
}
