package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/schedulr/schedulr/internal/config"
	"github.com/schedulr/schedulr/internal/event_bus"
	"github.com/schedulr/schedulr/internal/utils"
	"github.com/schedulr/schedulr/pkg/availability"
	"github.com/schedulr/schedulr/pkg/booking"
	"github.com/schedulr/schedulr/pkg/google"
	"github.com/schedulr/schedulr/pkg/user"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	UserService user.Service
	UserHandler *user.Handler

	AvailabilityRepo    availability.Repository
	AvailabilityService *availability.ServiceImpl
	AvailabilityHandler *availability.Handler

	BookingRepo        booking.Repository
	BookingService     *booking.ServiceImpl
	BookingCsvRenderer *booking.CsvRendererImpl
	BookingHandler     *booking.Handler

	GoogleAuth    *google.GoogleAuth
	GoogleService google.Service
	GoogleHandler *google.Handler
	GoogleMirror  *google.Mirror

	PublicRateLimiter *RateLimiter
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.AvailabilityRepo = availability.NewRepo(db)
	deps.BookingRepo = booking.NewRepo(db)

	deps.AvailabilityService = availability.NewService(deps.AvailabilityRepo, deps.BookingRepo, deps.UserService, deps.Clock)
	deps.AvailabilityHandler = availability.NewHandler(deps.AvailabilityService)

	deps.BookingService = booking.NewService(deps.BookingRepo, deps.AvailabilityRepo, deps.UserService, deps.Clock, deps.EventBus)
	deps.BookingCsvRenderer = booking.NewCsvRenderer(cfg.Booking.MeetingDuration)
	deps.BookingHandler = booking.NewHandler(deps.BookingService, deps.BookingCsvRenderer)

	deps.GoogleAuth = google.NewGoogleAuth(google.NewTokenRepository(db), deps.UserService, cfg)
	deps.GoogleService = google.NewService(deps.GoogleAuth)
	deps.GoogleHandler = google.NewHandler(deps.GoogleService)
	deps.GoogleMirror = google.NewMirror(deps.GoogleService, deps.UserService, cfg.Booking)
	if cfg.Booking.MirrorEnabled {
		deps.GoogleMirror.Subscribe(deps.EventBus)
	} else {
		log.Info("Mirroring bookings to Google Calendar is disabled")
	}

	deps.PublicRateLimiter = NewRateLimiter(cfg.RateLimit)

	return deps
}
