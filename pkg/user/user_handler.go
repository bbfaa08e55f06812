package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/schedulr/schedulr/internal/rest"
	"github.com/schedulr/schedulr/internal/validation"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Uid      string      `json:"uid"`
	Username string      `json:"username"`
	Name     string      `json:"name" validate:"min=3"`
	Bio      string      `json:"bio"`
	Settings SettingsDTO `json:"settings"`
}

type SettingsDTO struct {
	Timezone       string                    `json:"timezone" validate:"omitempty,timezone"`
	GoogleCalendar GoogleCalendarSettingsDTO `json:"googleCalendar"`
}

type GoogleCalendarSettingsDTO struct {
	CalendarId string `json:"calendarId"`
}

type ClaimUsernameDTO struct {
	Name     string `json:"name" validate:"min=3"`
	Username string `json:"username" validate:"required,min=3,username"`
}

type PublicProfileDTO struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{
		userService: userService,
	}
}

// CreateUser godoc
// @Summary Claim a username
// @Description Register a new booking page owner under a unique username
// @Tags User
// @Accept json
// @Produce json
// @Param user body ClaimUsernameDTO true "Name and username"
// @Success 201 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "Username already taken"
// @Router /api/user [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	log.Debug("Claiming username")

	var claim ClaimUsernameDTO
	if err := json.NewDecoder(r.Body).Decode(&claim); err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:  rest.CodeInvalidData,
			Error: "Invalid request body format",
		})
		return
	}
	claim.Name = strings.TrimSpace(claim.Name)
	claim.Username = strings.TrimSpace(claim.Username)
	if err := validation.Struct(claim); err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:    rest.CodeInvalidData,
			Error:   "Validation error",
			Details: err.Error(),
		})
		return
	}

	createdUser, err := h.userService.ClaimUsername(r.Context(), claim.Name, claim.Username)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			rest.WriteError(w, http.StatusConflict, rest.ErrorResponse{
				Code:  rest.CodeUsernameAlreadyTaken,
				Error: "Username is already taken",
			})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Tracef("Created user: %+v", createdUser)

	rest.WriteJSON(w, http.StatusCreated, userToDTO(&createdUser))
}

// CurrentUser godoc
// @Summary Get current user
// @Description Retrieve the currently authenticated user's information
// @Tags User
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 404 {string} string "User Not Found"
// @Router /api/user/current [get]
// @Security XUserId
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting current user")

	currentUser, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrNoUser) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rest.WriteJSON(w, http.StatusOK, userToDTO(&currentUser))
}

// UpdateUser godoc
// @Summary Update current user
// @Description Update name, bio, timezone and calendar of the current user. The username can not be changed.
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 200 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/user/current [put]
// @Security XUserId
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Updating user")

	var userDTO UserDTO
	if err := json.NewDecoder(r.Body).Decode(&userDTO); err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:  rest.CodeInvalidData,
			Error: "Invalid request body format",
		})
		return
	}
	userDTO.Name = strings.TrimSpace(userDTO.Name)
	if err := validation.Struct(userDTO); err != nil {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:    rest.CodeInvalidData,
			Error:   "Validation error",
			Details: err.Error(),
		})
		return
	}
	log.Debug("Updating user: ", userDTO)

	updatedUser, err := h.userService.UpdateUser(r.Context(), dtoToUser(userDTO))
	if err != nil {
		if errors.Is(err, ErrUserDataInvalid) {
			rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
				Code:    rest.CodeInvalidData,
				Error:   "Invalid user data",
				Details: err.Error(),
			})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Debug("Updated user: ", updatedUser)

	rest.WriteJSON(w, http.StatusOK, userToDTO(&updatedUser))
}

// DeleteCurrentUser godoc
// @Summary Delete current user
// @Description Delete the current user together with availability and bookings
// @Tags User
// @Success 204 "No Content"
// @Router /api/user/current [delete]
// @Security XUserId
func (h *Handler) DeleteCurrentUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Deleting current user")

	err := h.userService.DeleteCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IsUsernameAvailable godoc
// @Summary Check username availability
// @Description Check if a username is available for registration
// @Tags User
// @Produce json
// @Param username query string true "Username to check"
// @Success 200 {object} object{available=bool}
// @Failure 400 {object} rest.ErrorResponse "Username is required"
// @Router /api/user/name-availability [get]
func (h *Handler) IsUsernameAvailable(w http.ResponseWriter, r *http.Request) {
	log.Trace("Checking if username is available")

	username := r.URL.Query().Get("username")
	log.Debug("Checking availability of username: ", username)
	if len(strings.TrimSpace(username)) == 0 {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:  rest.CodeInvalidData,
			Error: "Username is required",
		})
		return
	}

	isAvailable, err := h.userService.IsUsernameAvailable(r.Context(), username)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusOK, map[string]bool{"available": isAvailable})
}

// GetPublicProfile godoc
// @Summary Public profile
// @Description Name and bio shown on the public booking page
// @Tags User
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} PublicProfileDTO
// @Failure 404 {object} rest.ErrorResponse "User does not exist"
// @Router /api/user/{username}/profile [get]
func (h *Handler) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	u, err := h.userService.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			rest.WriteError(w, http.StatusNotFound, rest.ErrorResponse{
				Code:  rest.CodeUserDoesNotExist,
				Error: "User does not exist",
			})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rest.WriteJSON(w, http.StatusOK, PublicProfileDTO{Username: u.Username, Name: u.Name, Bio: u.Bio})
}

func userToDTO(user *User) UserDTO {
	return UserDTO{
		Uid:      user.Uid,
		Username: user.Username,
		Name:     user.Name,
		Bio:      user.Bio,
		Settings: settingsToDTO(user.Settings),
	}
}

func settingsToDTO(settings Settings) SettingsDTO {
	return SettingsDTO{
		Timezone: settings.Timezone,
		GoogleCalendar: GoogleCalendarSettingsDTO{
			CalendarId: settings.GoogleCalendar.CalendarId,
		},
	}
}

func dtoToUser(userDTO UserDTO) User {
	return User{
		Uid:      userDTO.Uid,
		Username: userDTO.Username,
		Name:     userDTO.Name,
		Bio:      userDTO.Bio,
		Settings: Settings{
			Timezone: userDTO.Settings.Timezone,
			GoogleCalendar: GoogleCalendarSettings{
				CalendarId: userDTO.Settings.GoogleCalendar.CalendarId,
			},
		},
	}
}
