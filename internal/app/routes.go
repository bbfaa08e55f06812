package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/schedulr/schedulr/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {
	limited := func(h http.HandlerFunc) http.Handler {
		return deps.PublicRateLimiter.Limit(h)
	}

	// User management
	r.Handle("/api/user", limited(deps.UserHandler.CreateUser)).Methods("POST")
	r.HandleFunc("/api/user/name-availability", deps.UserHandler.IsUsernameAvailable).Methods("GET").Queries("username", "{username}")
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", deps.UserHandler.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user/current", deps.UserHandler.DeleteCurrentUser).Methods("DELETE")

	// Public booking page
	r.HandleFunc("/api/user/{username}/profile", deps.UserHandler.GetPublicProfile).Methods("GET")
	r.HandleFunc("/api/user/{username}/availability", deps.AvailabilityHandler.GetDayAvailability).Methods("GET")
	r.HandleFunc("/api/user/{username}/blocked-dates", deps.AvailabilityHandler.GetBlockedDates).Methods("GET")
	r.Handle("/api/user/{username}/booking", limited(deps.BookingHandler.CreateBooking)).Methods("POST")

	// Weekly availability
	r.HandleFunc("/api/availability/intervals", deps.AvailabilityHandler.GetIntervals).Methods("GET")
	r.HandleFunc("/api/availability/intervals", deps.AvailabilityHandler.SetIntervals).Methods("PUT")

	// Bookings of the owner
	r.HandleFunc("/api/booking", deps.BookingHandler.GetBookings).Methods("GET")
	r.HandleFunc("/api/booking/export", deps.BookingHandler.ExportBookings).Methods("GET")

	// Google integration
	r.HandleFunc("/api/integrations/google/auth/login", deps.GoogleAuth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/integrations/google/auth/logout", deps.GoogleAuth.OAuthLogout).Methods("DELETE")
	r.HandleFunc("/api/integrations/google/auth/callback", deps.GoogleAuth.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/integrations/google/calendars", deps.GoogleHandler.ListCalendars).Methods("GET")
}
