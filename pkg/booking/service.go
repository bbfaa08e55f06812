package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/schedulr/schedulr/internal/event_bus"
	"github.com/schedulr/schedulr/internal/utils"
	"github.com/schedulr/schedulr/internal/validation"
	"github.com/schedulr/schedulr/pkg/availability"
	"github.com/schedulr/schedulr/pkg/user"
	log "github.com/sirupsen/logrus"
)

const (
	minGuestNameLength = 3
	// publishTimeout bounds the work subscribers do after a booking is committed.
	publishTimeout = 10 * time.Second
)

// RuleReader resolves the weekly availability rule of a user.
type RuleReader interface {
	GetRule(ctx context.Context, userId int, weekDay time.Weekday) (availability.Rule, error)
}

type Service interface {
	// Book reserves the slot of the owner identified by username. The proposed date is normalized
	// to the start of its hour in the owner's timezone.
	Book(ctx context.Context, username string, request Request) (Booking, error)
	// GetBookings lists bookings of the current user starting in [from, to).
	GetBookings(ctx context.Context, from, to time.Time) ([]Booking, error)
}

type ServiceImpl struct {
	repo     Repository
	rules    RuleReader
	users    user.Provider
	clock    utils.Clock
	eventBus *event_bus.EventBus
}

func NewService(repo Repository, rules RuleReader, users user.Provider, clock utils.Clock, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{
		repo:     repo,
		rules:    rules,
		users:    users,
		clock:    clock,
		eventBus: eventBus,
	}
}

func (s *ServiceImpl) Book(ctx context.Context, username string, request Request) (Booking, error) {
	request, err := normalizeRequest(request)
	if err != nil {
		return Booking{}, err
	}

	owner, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return Booking{}, err
	}
	location, err := owner.Location()
	if err != nil {
		return Booking{}, fmt.Errorf("failed to load timezone of %s: %w", owner.Username, err)
	}

	slot := utils.StartOfHour(request.Date, location)
	if slot.Before(s.clock.Now()) {
		return Booking{}, ErrDateInPast
	}

	rule, err := s.rules.GetRule(ctx, owner.Id, slot.Weekday())
	if errors.Is(err, availability.ErrRuleNotFound) {
		return Booking{}, ErrNotAvailable
	} else if err != nil {
		return Booking{}, fmt.Errorf("failed to get availability rule: %w", err)
	}
	if !rule.Admits(utils.MinuteOfDay(slot, location)) {
		return Booking{}, ErrNotAvailable
	}

	booking := Booking{
		Uid:          uuid.NewString(),
		UserId:       owner.Id,
		Date:         utils.StartOfDay(slot, location),
		StartTime:    slot,
		GuestName:    request.Name,
		GuestEmail:   request.Email,
		Observations: request.Observations,
	}
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		exists, err := repo.ExistsAt(ctx, owner.Id, slot)
		if err != nil {
			return err
		}
		if exists {
			return ErrSlotConflict
		}
		booking, err = repo.Create(ctx, booking)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrSlotConflict) {
			log.Debugf("slot %s of %s is already booked", slot, owner.Username)
		}
		return Booking{}, err
	}
	log.Infof("booking %s created for %s at %s", booking.Uid, owner.Username, slot.Format(time.RFC3339))

	s.publishCreated(ctx, booking)
	return booking, nil
}

// publishCreated runs after commit, so it is detached from the request cancellation.
func (s *ServiceImpl) publishCreated(ctx context.Context, booking Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	event := event_bus.NewEventAt(ctx, event_bus.BookingCreatedEvent, event_bus.BookingCreated{
		BookingUid:   booking.Uid,
		UserId:       booking.UserId,
		StartTime:    booking.StartTime,
		GuestName:    booking.GuestName,
		GuestEmail:   booking.GuestEmail,
		Observations: booking.Observations,
	}, s.clock.Now())
	if err := s.eventBus.Publish(event); err != nil {
		log.Errorf("failed to process %s for booking %s: %v", event.Type, booking.Uid, err)
	}
}

func (s *ServiceImpl) GetBookings(ctx context.Context, from, to time.Time) ([]Booking, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: 'from' must be before 'to'", ErrInvalidData)
	}
	return s.repo.GetBookings(ctx, userId, from, to)
}

func normalizeRequest(request Request) (Request, error) {
	request.Name = strings.TrimSpace(request.Name)
	request.Email = strings.TrimSpace(request.Email)
	request.Observations = strings.TrimSpace(request.Observations)

	if utf8.RuneCountInString(request.Name) < minGuestNameLength {
		return Request{}, fmt.Errorf("%w: name must be at least %d characters long", ErrInvalidData, minGuestNameLength)
	}
	if err := validation.Validator().Var(request.Email, "required,email"); err != nil {
		return Request{}, fmt.Errorf("%w: email must be a valid email address", ErrInvalidData)
	}
	if request.Date.IsZero() {
		return Request{}, fmt.Errorf("%w: date is required", ErrInvalidData)
	}
	return request, nil
}
