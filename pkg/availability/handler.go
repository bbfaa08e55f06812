package availability

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/schedulr/schedulr/internal/rest"
	"github.com/schedulr/schedulr/internal/validation"
	"github.com/schedulr/schedulr/pkg/user"
	log "github.com/sirupsen/logrus"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type IntervalDTO struct {
	WeekDay            int `json:"weekDay" validate:"min=0,max=6"`
	StartTimeInMinutes int `json:"startTimeInMinutes" validate:"min=0,max=1439"`
	EndTimeInMinutes   int `json:"endTimeInMinutes" validate:"min=1,max=1440"`
}

type IntervalsDTO struct {
	Intervals []IntervalDTO `json:"intervals" validate:"required,min=1,max=7,dive"`
}

type DayAvailabilityDTO struct {
	PossibleHours  []int `json:"possibleHours"`
	AvailableHours []int `json:"availableHours"`
	BlockedHours   []int `json:"blockedHours"`
}

type BlockedDatesDTO struct {
	BlockedWeekDays []int `json:"blockedWeekDays"`
	BlockedDates    []int `json:"blockedDates"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetIntervals godoc
// @Summary Get weekly availability
// @Description List the weekly availability intervals of the current user
// @Tags Availability
// @Produce json
// @Success 200 {object} IntervalsDTO
// @Router /api/availability/intervals [get]
// @Security XUserId
func (h *Handler) GetIntervals(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting availability intervals")

	rules, err := h.service.GetRules(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, rulesToDTO(rules))
}

// SetIntervals godoc
// @Summary Replace weekly availability
// @Description Replace all weekly availability intervals of the current user
// @Tags Availability
// @Accept json
// @Produce json
// @Param intervals body IntervalsDTO true "Intervals, at most one per week day"
// @Success 200 {object} IntervalsDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid intervals"
// @Router /api/availability/intervals [put]
// @Security XUserId
func (h *Handler) SetIntervals(w http.ResponseWriter, r *http.Request) {
	log.Debug("Replacing availability intervals")

	var dto IntervalsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:  rest.CodeInvalidData,
			Error: "Invalid request body format",
		})
		return
	}
	if err := validation.Struct(dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:    rest.CodeInvalidData,
			Error:   "Validation error",
			Details: err.Error(),
		})
		return
	}

	stored, err := h.service.SetRules(r.Context(), dtoToRules(dto))
	if err != nil {
		if errors.Is(err, ErrInvalidRules) {
			rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
				Code:    rest.CodeInvalidData,
				Error:   "Invalid availability intervals",
				Details: err.Error(),
			})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, rulesToDTO(stored))
}

// GetDayAvailability godoc
// @Summary Get availability of a day
// @Description Hours of the given date that can be booked with the user
// @Tags Availability
// @Produce json
// @Param username path string true "Username"
// @Param date query string true "Date in YYYY-MM-DD format"
// @Success 200 {object} DayAvailabilityDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid date"
// @Failure 404 {object} rest.ErrorResponse "User does not exist"
// @Router /api/user/{username}/availability [get]
func (h *Handler) GetDayAvailability(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	dateString := r.URL.Query().Get("date")
	log.Tracef("Getting availability of %s on %s", username, dateString)

	if !datePattern.MatchString(dateString) {
		writeInvalidQuery(w, "Invalid date format", "'date' must be in YYYY-MM-DD format")
		return
	}
	date, err := time.Parse(time.DateOnly, dateString)
	if err != nil {
		writeInvalidQuery(w, "Invalid date", err.Error())
		return
	}

	day, err := h.service.GetDayAvailability(r.Context(), username, date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, DayAvailabilityDTO{
		PossibleHours:  day.PossibleHours(),
		AvailableHours: day.AvailableHours(),
		BlockedHours:   day.BlockedHours(),
	})
}

// GetBlockedDates godoc
// @Summary Get blocked dates of a month
// @Description Week days without availability and dates on which every slot is booked
// @Tags Availability
// @Produce json
// @Param username path string true "Username"
// @Param year query int true "Year, four digits"
// @Param month query int true "Month, 1-12"
// @Success 200 {object} BlockedDatesDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid year or month"
// @Failure 404 {object} rest.ErrorResponse "User does not exist"
// @Router /api/user/{username}/blocked-dates [get]
func (h *Handler) GetBlockedDates(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	yearString := r.URL.Query().Get("year")
	monthString := r.URL.Query().Get("month")
	log.Tracef("Getting blocked dates of %s in %s-%s", username, yearString, monthString)

	year, err := strconv.Atoi(yearString)
	if err != nil || len(yearString) != 4 {
		writeInvalidQuery(w, "Invalid year", "'year' must have four digits")
		return
	}
	month, err := strconv.Atoi(monthString)
	if err != nil || month < 1 || month > 12 {
		writeInvalidQuery(w, "Invalid month", "'month' must be a number between 1 and 12")
		return
	}

	blocked, err := h.service.GetBlockedDates(r.Context(), username, year, time.Month(month))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, BlockedDatesDTO{
		BlockedWeekDays: blocked.BlockedWeekDays,
		BlockedDates:    blocked.BlockedDates,
	})
}

func writeInvalidQuery(w http.ResponseWriter, message string, details string) {
	rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
		Code:    rest.CodeInvalidData,
		Error:   message,
		Details: details,
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, user.ErrUserNotFound) {
		rest.WriteError(w, http.StatusNotFound, rest.ErrorResponse{
			Code:  rest.CodeUserDoesNotExist,
			Error: "User does not exist",
		})
		return
	}
	log.Errorf("failed to resolve availability: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func rulesToDTO(rules []Rule) IntervalsDTO {
	dto := IntervalsDTO{Intervals: make([]IntervalDTO, 0, len(rules))}
	for _, rule := range rules {
		dto.Intervals = append(dto.Intervals, IntervalDTO{
			WeekDay:            int(rule.WeekDay),
			StartTimeInMinutes: rule.StartMinute,
			EndTimeInMinutes:   rule.EndMinute,
		})
	}
	return dto
}

func dtoToRules(dto IntervalsDTO) []Rule {
	rules := make([]Rule, 0, len(dto.Intervals))
	for _, interval := range dto.Intervals {
		rules = append(rules, Rule{
			WeekDay:     time.Weekday(interval.WeekDay),
			StartMinute: interval.StartTimeInMinutes,
			EndMinute:   interval.EndTimeInMinutes,
		})
	}
	return rules
}
