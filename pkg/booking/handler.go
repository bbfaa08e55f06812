package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/schedulr/schedulr/internal/rest"
	"github.com/schedulr/schedulr/internal/validation"
	"github.com/schedulr/schedulr/pkg/user"
	log "github.com/sirupsen/logrus"
)

type RequestDTO struct {
	Name         string `json:"name" validate:"required,min=3,max=255"`
	Email        string `json:"email" validate:"required,email,max=255"`
	Observations string `json:"observations" validate:"max=2000"`
	Date         string `json:"date" validate:"required"`
}

type CreatedDTO struct {
	Uid       string    `json:"uid"`
	StartTime time.Time `json:"startTime"`
}

type BookingDTO struct {
	Uid          string    `json:"uid"`
	Date         string    `json:"date"`
	StartTime    time.Time `json:"startTime"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Observations string    `json:"observations,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Handler struct {
	service  Service
	renderer Renderer
}

func NewHandler(service Service, renderer Renderer) *Handler {
	return &Handler{
		service:  service,
		renderer: renderer,
	}
}

// CreateBooking godoc
// @Summary Book a slot
// @Description Reserve one hour with the user. The date is normalized to the start of its hour in the user's timezone.
// @Tags Booking
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param booking body RequestDTO true "Guest details and RFC3339 date"
// @Success 201 {object} CreatedDTO
// @Failure 400 {object} rest.ErrorResponse "INVALID_DATA, DATE_IN_PAST or USER_NOT_AVAILABLE"
// @Failure 404 {object} rest.ErrorResponse "USER_DOES_NOT_EXIST"
// @Failure 409 {object} rest.ErrorResponse "SLOT_CONFLICT"
// @Failure 429 {string} string "Too many requests"
// @Router /api/user/{username}/booking [post]
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	log.Debugf("Creating booking for %s", username)

	var dto RequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:  rest.CodeInvalidData,
			Error: "Invalid request body format",
		})
		return
	}
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Email = strings.TrimSpace(dto.Email)
	dto.Observations = strings.TrimSpace(dto.Observations)
	if err := validation.Struct(dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:    rest.CodeInvalidData,
			Error:   "Validation error",
			Details: err.Error(),
		})
		return
	}
	date, err := time.Parse(time.RFC3339, dto.Date)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:    rest.CodeInvalidData,
			Error:   "Invalid date format",
			Details: "'date' must be in RFC3339 format",
		})
		return
	}

	booking, err := h.service.Book(r.Context(), username, Request{
		Name:         dto.Name,
		Email:        dto.Email,
		Observations: dto.Observations,
		Date:         date,
	})
	if err != nil {
		writeBookingError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, CreatedDTO{Uid: booking.Uid, StartTime: booking.StartTime})
}

func writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidData):
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:    rest.CodeInvalidData,
			Error:   "Validation error",
			Details: err.Error(),
		})
	case errors.Is(err, user.ErrUserNotFound):
		rest.WriteError(w, http.StatusNotFound, rest.ErrorResponse{
			Code:  rest.CodeUserDoesNotExist,
			Error: "User does not exist",
		})
	case errors.Is(err, ErrDateInPast):
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:  rest.CodeDateInPast,
			Error: "The selected date is in the past",
		})
	case errors.Is(err, ErrNotAvailable):
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:  rest.CodeUserNotAvailable,
			Error: "The user is not available at the selected time",
		})
	case errors.Is(err, ErrSlotConflict):
		rest.WriteError(w, http.StatusConflict, rest.ErrorResponse{
			Code:    rest.CodeSlotConflict,
			Error:   "The selected slot is already booked",
			Details: "Reload the availability and choose another slot",
		})
	default:
		log.Errorf("failed to create booking: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetBookings godoc
// @Summary List bookings
// @Description Bookings of the current user starting in the given range
// @Tags Booking
// @Produce json
// @Param from query string true "Start of the range (RFC3339)"
// @Param to query string true "End of the range, exclusive (RFC3339)"
// @Success 200 {array} BookingDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid range"
// @Router /api/booking [get]
// @Security XUserId
func (h *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting bookings")

	bookings, ok := h.listBookings(w, r)
	if !ok {
		return
	}
	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	location, err := currentUser.Location()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]BookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		dtos = append(dtos, bookingToDTO(booking, location))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// ExportBookings godoc
// @Summary Export bookings
// @Description Bookings of the current user starting in the given range as CSV
// @Tags Booking
// @Produce text/csv
// @Param from query string true "Start of the range (RFC3339)"
// @Param to query string true "End of the range, exclusive (RFC3339)"
// @Success 200 {string} string "CSV document"
// @Failure 400 {object} rest.ErrorResponse "Invalid range"
// @Router /api/booking/export [get]
// @Security XUserId
func (h *Handler) ExportBookings(w http.ResponseWriter, r *http.Request) {
	log.Debug("Exporting bookings")

	bookings, ok := h.listBookings(w, r)
	if !ok {
		return
	}
	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	location, err := currentUser.Location()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	csv, err := h.renderer.RenderBookings(bookings, location)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csv)); err != nil {
		log.Errorf("failed to write csv: %v", err)
	}
}

func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) ([]Booking, bool) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:    rest.CodeInvalidData,
			Error:   "Invalid from (date) format",
			Details: "'from' must be in RFC3339 format",
		})
		return nil, false
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:    rest.CodeInvalidData,
			Error:   "Invalid to (date) format",
			Details: "'to' must be in RFC3339 format",
		})
		return nil, false
	}

	bookings, err := h.service.GetBookings(r.Context(), from, to)
	if err != nil {
		if errors.Is(err, ErrInvalidData) {
			rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
				Code:    rest.CodeInvalidData,
				Error:   "Invalid range",
				Details: err.Error(),
			})
			return nil, false
		}
		if errors.Is(err, user.ErrNoUser) {
			w.WriteHeader(http.StatusUnauthorized)
			return nil, false
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return bookings, true
}

func bookingToDTO(booking Booking, location *time.Location) BookingDTO {
	return BookingDTO{
		Uid:          booking.Uid,
		Date:         booking.Date.Format(time.DateOnly),
		StartTime:    booking.StartTime.In(location),
		Name:         booking.GuestName,
		Email:        booking.GuestEmail,
		Observations: booking.Observations,
		CreatedAt:    booking.CreatedAt,
	}
}
