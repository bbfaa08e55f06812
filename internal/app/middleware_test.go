package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/schedulr/schedulr/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserContextMiddleware(t *testing.T) {
	users := user.NewUserService(user.NewStubUserRepository())
	owner, err := users.ClaimUsername(context.Background(), "Jane Doe", "jane-doe")
	require.NoError(t, err)

	r := mux.NewRouter()
	r.Use(userContextMiddleware(users))
	r.HandleFunc("/api/user/current", func(w http.ResponseWriter, req *http.Request) {
		current, err := user.CurrentUser(req.Context())
		if err != nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(current.Username))
	})

	t.Run("should put user from header into context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/user/current", nil)
		req.Header.Set("X-User-Id", owner.Uid)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "jane-doe", w.Body.String())
	})

	t.Run("should pass anonymous requests", func(t *testing.T) {
		w := httptest.NewRecorder()

		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/user/current", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("should reject unknown user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/user/current", nil)
		req.Header.Set("X-User-Id", "unknown-uid")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
