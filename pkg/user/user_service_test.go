package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService() (*UserServiceImpl, *StubUserRepository) {
	repo := NewStubUserRepository()
	return NewUserService(repo), repo
}

func TestUserServiceImpl_ClaimUsername(t *testing.T) {
	t.Run("should store lowercased username with defaults", func(t *testing.T) {
		// given
		service, _ := setupService()

		// when
		created, err := service.ClaimUsername(context.Background(), "  Jane Doe ", "Jane-Doe")

		// then
		require.NoError(t, err)
		assert.NotZero(t, created.Id)
		assert.NotEmpty(t, created.Uid)
		assert.Equal(t, "jane-doe", created.Username)
		assert.Equal(t, "Jane Doe", created.Name)
		assert.Equal(t, "UTC", created.Settings.Timezone)
		assert.Equal(t, DefaultCalendarId, created.Settings.GoogleCalendar.CalendarId)
	})

	t.Run("should reject already claimed username regardless of case", func(t *testing.T) {
		// given
		service, _ := setupService()
		_, err := service.ClaimUsername(context.Background(), "Jane Doe", "jane-doe")
		require.NoError(t, err)

		// when
		_, err = service.ClaimUsername(context.Background(), "Other Jane", "JANE-DOE")

		// then
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})
}

func TestUserServiceImpl_UpdateUser(t *testing.T) {
	t.Run("should update profile of the user in context", func(t *testing.T) {
		// given
		service, _ := setupService()
		created, err := service.ClaimUsername(context.Background(), "Jane Doe", "jane-doe")
		require.NoError(t, err)
		ctx := WithUser(context.Background(), created)

		// when
		updated, err := service.UpdateUser(ctx, User{
			Name:     "Jane D.",
			Bio:      " Consultant ",
			Settings: Settings{Timezone: "Europe/Warsaw"},
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "jane-doe", updated.Username)
		assert.Equal(t, "Jane D.", updated.Name)
		assert.Equal(t, "Consultant", updated.Bio)
		assert.Equal(t, "Europe/Warsaw", updated.Settings.Timezone)
		assert.Equal(t, DefaultCalendarId, updated.Settings.GoogleCalendar.CalendarId)
	})

	t.Run("should reject unknown timezone", func(t *testing.T) {
		// given
		service, _ := setupService()
		created, err := service.ClaimUsername(context.Background(), "Jane Doe", "jane-doe")
		require.NoError(t, err)
		ctx := WithUser(context.Background(), created)

		// when
		_, err = service.UpdateUser(ctx, User{Name: "Jane", Settings: Settings{Timezone: "Mars/Base"}})

		// then
		assert.ErrorIs(t, err, ErrUserDataInvalid)
	})

	t.Run("should fail without user in context", func(t *testing.T) {
		service, _ := setupService()

		_, err := service.UpdateUser(context.Background(), User{Name: "Jane"})

		assert.ErrorIs(t, err, ErrNoUser)
	})
}

func TestUserServiceImpl_IsUsernameAvailable(t *testing.T) {
	service, _ := setupService()
	_, err := service.ClaimUsername(context.Background(), "Jane Doe", "jane-doe")
	require.NoError(t, err)

	available, err := service.IsUsernameAvailable(context.Background(), " Jane-Doe ")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = service.IsUsernameAvailable(context.Background(), "john-doe")
	require.NoError(t, err)
	assert.True(t, available)
}
