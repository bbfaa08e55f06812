package user

import (
	"errors"
	"time"

	"github.com/schedulr/schedulr/internal/utils"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserDataInvalid = errors.New("invalid user data")
	ErrUsernameTaken   = errors.New("username is already taken")
)

const DefaultCalendarId = "primary"

type User struct {
	Id       int
	Uid      string
	Username string
	Name     string
	Bio      string
	Settings Settings
}

type Settings struct {
	Timezone       string
	GoogleCalendar GoogleCalendarSettings
}

type GoogleCalendarSettings struct {
	CalendarId string
}

// Location resolves the user's timezone. All calendar dates of the user are interpreted in it.
func (u User) Location() (*time.Location, error) {
	return utils.LoadLocation(u.Settings.Timezone)
}
