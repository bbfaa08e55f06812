package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/schedulr/schedulr/internal/utils"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	// ClaimUsername registers a new booking page owner under a unique lowercase username.
	ClaimUsername(ctx context.Context, name string, username string) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteCurrentUser(ctx context.Context) error
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

// Provider is the read side used by packages that resolve the owner of a public booking page.
type Provider interface {
	GetCurrentUser(ctx context.Context) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.GetUser(ctx, userId)
}

func (u *UserServiceImpl) ClaimUsername(ctx context.Context, name string, username string) (User, error) {
	user := User{
		Uid:      uuid.NewString(),
		Username: NormalizeUsername(username),
		Name:     strings.TrimSpace(name),
		Settings: Settings{
			Timezone:       "UTC",
			GoogleCalendar: GoogleCalendarSettings{CalendarId: DefaultCalendarId},
		},
	}
	userId, err := u.repo.CreateUser(ctx, user)
	if err != nil {
		return User{}, err
	}
	user.Id = userId
	log.Debugf("username %s claimed by user %d", user.Username, user.Id)
	return user, nil
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.repo.GetUserByUid(ctx, uid)
}

func (u *UserServiceImpl) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return u.repo.GetUserByUsername(ctx, NormalizeUsername(username))
}

func (u *UserServiceImpl) UpdateUser(ctx context.Context, user User) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if _, err := utils.LoadLocation(user.Settings.Timezone); err != nil {
		return User{}, fmt.Errorf("%w: unknown timezone %q", ErrUserDataInvalid, user.Settings.Timezone)
	}
	if user.Settings.Timezone == "" {
		user.Settings.Timezone = "UTC"
	}
	if user.Settings.GoogleCalendar.CalendarId == "" {
		user.Settings.GoogleCalendar.CalendarId = DefaultCalendarId
	}
	user.Name = strings.TrimSpace(user.Name)
	user.Bio = strings.TrimSpace(user.Bio)
	return u.repo.UpdateUser(ctx, userId, user)
}

func (u *UserServiceImpl) DeleteCurrentUser(ctx context.Context) error {
	userId, err := CurrentId(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return u.repo.DeleteUser(ctx, userId)
}

func (u *UserServiceImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	return u.repo.IsUsernameAvailable(ctx, NormalizeUsername(username))
}

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
