package google

import (
	"errors"
	"net/http"

	"github.com/schedulr/schedulr/internal/rest"
	log "github.com/sirupsen/logrus"
)

type CalendarItemDto struct {
	Id      string `json:"id"`
	Summary string `json:"summary"`
}

type Handler struct {
	service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{s}
}

// ListCalendars godoc
// @Summary List Google calendars
// @Description Calendars the current user can mirror bookings into
// @Tags Google
// @Produce json
// @Success 200 {array} CalendarItemDto
// @Failure 403 {string} string "Google Calendar not connected"
// @Router /api/integrations/google/calendars [get]
// @Security XUserId
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	calendars, err := h.service.ListCalendars(r.Context())
	if err != nil {
		if errors.Is(err, ErrUnathenticated) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		log.Errorf("failed to list Google calendars: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	calendarItems := make([]CalendarItemDto, 0, len(calendars))
	for _, c := range calendars {
		calendarItems = append(calendarItems, toCalendarItemDto(c))
	}
	rest.WriteJSON(w, http.StatusOK, calendarItems)
}

func toCalendarItemDto(ci CalendarItem) CalendarItemDto {
	return CalendarItemDto{
		Id:      ci.ID,
		Summary: ci.Summary,
	}
}
