package google

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/schedulr/schedulr/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ListCalendars(t *testing.T) {
	owner := user.User{Id: 1, Username: "jane-doe"}
	request := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/integrations/google/calendars", nil)
		return req.WithContext(user.WithUser(req.Context(), owner))
	}

	t.Run("should return 403 when Google Calendar is not connected", func(t *testing.T) {
		handler := NewHandler(newServiceStub())
		w := httptest.NewRecorder()

		handler.ListCalendars(w, request())

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("should list calendars", func(t *testing.T) {
		service := newServiceStub()
		service.connected[owner.Id] = true
		service.calendars["primary"] = &calendarStub{calendarId: "primary"}
		handler := NewHandler(service)
		w := httptest.NewRecorder()

		handler.ListCalendars(w, request())

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"id":"primary","summary":"Calendar primary"}]`, w.Body.String())
	})
}
