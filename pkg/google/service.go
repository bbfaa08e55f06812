package google

import (
	"context"
	"fmt"
	"net/http"

	"github.com/schedulr/schedulr/pkg/user"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Only calendars the owner can write to are able to receive mirrored bookings.
const writableAccessRole = "writer"

type CalendarItem struct {
	ID      string
	Summary string
}

type Service interface {
	// GetCalendar returns ErrUnathenticated when the user has not connected Google Calendar.
	GetCalendar(ctx context.Context, userId int, calendarId string) (EventInserter, error)
	ListCalendars(ctx context.Context) ([]CalendarItem, error)
}

type httpClientSource interface {
	getClient(ctx context.Context, userId int) (*http.Client, error)
}

type ServiceImpl struct {
	clients httpClientSource
	options []option.ClientOption
}

// NewService builds calendar clients authorized with the tokens kept by auth. Extra options are
// appended to every client, e.g. a different API endpoint.
func NewService(auth *GoogleAuth, options ...option.ClientOption) *ServiceImpl {
	return &ServiceImpl{clients: auth, options: options}
}

func (s *ServiceImpl) GetCalendar(ctx context.Context, userId int, calendarId string) (EventInserter, error) {
	service, err := s.calendarService(ctx, userId)
	if err != nil {
		return nil, err
	}
	return newGoogleCalendar(service, userId, calendarId), nil
}

// ListCalendars returns every writable calendar of the current user, following all result pages.
func (s *ServiceImpl) ListCalendars(ctx context.Context) ([]CalendarItem, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	service, err := s.calendarService(ctx, userId)
	if err != nil {
		return nil, err
	}

	items := make([]CalendarItem, 0)
	err = service.CalendarList.List().MinAccessRole(writableAccessRole).Pages(ctx, func(page *calendar.CalendarList) error {
		for _, entry := range page.Items {
			items = append(items, CalendarItem{ID: entry.Id, Summary: entry.Summary})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars of user %d: %w", userId, err)
	}
	log.Debugf("user %d has %d writable calendars", userId, len(items))
	return items, nil
}

func (s *ServiceImpl) calendarService(ctx context.Context, userId int) (*calendar.Service, error) {
	client, err := s.clients.getClient(ctx, userId)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrUnathenticated
	}
	options := append([]option.ClientOption{option.WithHTTPClient(client)}, s.options...)
	service, err := calendar.NewService(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	return service, nil
}
