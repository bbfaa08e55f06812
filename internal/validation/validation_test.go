package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guest struct {
	Name     string `json:"name" validate:"min=3"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"omitempty,username"`
}

func TestStruct(t *testing.T) {
	t.Run("should accept valid input", func(t *testing.T) {
		err := Struct(guest{Name: "Ann", Email: "ann@example.com", Username: "ann-marie"})
		require.NoError(t, err)
	})

	t.Run("should describe every failing field by its json name", func(t *testing.T) {
		err := Struct(guest{Name: "Al", Email: "not-an-email", Username: "-bad"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "name must be at least 3 characters long")
		assert.Contains(t, err.Error(), "email must be a valid email address")
		assert.Contains(t, err.Error(), "username may contain only letters and hyphens")
	})

	t.Run("username check is case insensitive", func(t *testing.T) {
		require.NoError(t, Struct(guest{Name: "Ann", Email: "a@b.co", Username: "JohnDoe"}))
	})

	t.Run("username needs at least three characters", func(t *testing.T) {
		require.Error(t, Struct(guest{Name: "Ann", Email: "a@b.co", Username: "ab"}))
	})
}

func TestValidator(t *testing.T) {
	t.Run("should register the username tag once", func(t *testing.T) {
		var first, second any
		require.NotPanics(t, func() {
			first = Validator()
			second = Validator()
		})

		assert.Same(t, first, second)
		assert.NoError(t, Validator().Var("jane-doe", "username"))
		assert.Error(t, Validator().Var("j4ne", "username"))
	})
}
