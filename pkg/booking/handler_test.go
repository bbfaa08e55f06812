package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/schedulr/schedulr/internal/rest"
	"github.com/schedulr/schedulr/pkg/availability"
	"github.com/schedulr/schedulr/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandler(t *testing.T) (*Handler, serviceFixture) {
	f := setupService(t, "UTC")
	f.withRules(t, availability.Rule{WeekDay: time.Tuesday, StartMinute: 480, EndMinute: 1080})
	return NewHandler(f.service, NewCsvRenderer(time.Hour)), f
}

func postBooking(t *testing.T, handler *Handler, username string, body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/user/"+username+"/booking", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req = mux.SetURLVars(req, map[string]string{"username": username})
	w := httptest.NewRecorder()
	handler.CreateBooking(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var errResp rest.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
	return errResp.Code
}

func TestHandler_CreateBooking(t *testing.T) {
	t.Run("should create booking and return its uid", func(t *testing.T) {
		// given
		handler, f := setupHandler(t)

		// when
		w := postBooking(t, handler, "jane-doe", RequestDTO{
			Name:  "John Smith",
			Email: "john@example.com",
			Date:  "2026-10-20T09:00:00Z",
		})

		// then
		require.Equal(t, http.StatusCreated, w.Code)
		var created CreatedDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
		assert.NotEmpty(t, created.Uid)
		_, err := f.repo.GetBookingByUid(context.Background(), created.Uid)
		assert.NoError(t, err)
	})

	tests := []struct {
		name     string
		username string
		body     RequestDTO
		status   int
		code     string
	}{
		{"short name", "jane-doe", RequestDTO{Name: "Jo", Email: "john@example.com", Date: "2026-10-20T09:00:00Z"}, http.StatusBadRequest, rest.CodeInvalidData},
		{"invalid email", "jane-doe", RequestDTO{Name: "John Smith", Email: "john", Date: "2026-10-20T09:00:00Z"}, http.StatusBadRequest, rest.CodeInvalidData},
		{"date not in RFC3339", "jane-doe", RequestDTO{Name: "John Smith", Email: "john@example.com", Date: "2026-10-20 09:00"}, http.StatusBadRequest, rest.CodeInvalidData},
		{"unknown user", "nobody", RequestDTO{Name: "John Smith", Email: "john@example.com", Date: "2026-10-20T09:00:00Z"}, http.StatusNotFound, rest.CodeUserDoesNotExist},
		{"date in past", "jane-doe", RequestDTO{Name: "John Smith", Email: "john@example.com", Date: "2026-10-13T09:00:00Z"}, http.StatusBadRequest, rest.CodeDateInPast},
		{"outside of availability", "jane-doe", RequestDTO{Name: "John Smith", Email: "john@example.com", Date: "2026-10-20T19:00:00Z"}, http.StatusBadRequest, rest.CodeUserNotAvailable},
	}
	for _, tt := range tests {
		t.Run("should return "+tt.code+" for "+tt.name, func(t *testing.T) {
			handler, _ := setupHandler(t)

			w := postBooking(t, handler, tt.username, tt.body)

			require.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}

	t.Run("should return SLOT_CONFLICT for an already booked slot", func(t *testing.T) {
		// given
		handler, _ := setupHandler(t)
		body := RequestDTO{Name: "John Smith", Email: "john@example.com", Date: "2026-10-20T11:00:00Z"}
		require.Equal(t, http.StatusCreated, postBooking(t, handler, "jane-doe", body).Code)

		// when
		w := postBooking(t, handler, "jane-doe", body)

		// then
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, rest.CodeSlotConflict, errorCode(t, w))
	})

	t.Run("should return INVALID_DATA for malformed body", func(t *testing.T) {
		handler, _ := setupHandler(t)
		req := httptest.NewRequest(http.MethodPost, "/api/user/jane-doe/booking", strings.NewReader("{"))
		req = mux.SetURLVars(req, map[string]string{"username": "jane-doe"})
		w := httptest.NewRecorder()

		handler.CreateBooking(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, rest.CodeInvalidData, errorCode(t, w))
	})
}

func TestHandler_GetBookings(t *testing.T) {
	book := func(t *testing.T, f serviceFixture, hour int, observations string) {
		request := guest(time.Date(2026, time.October, 20, hour, 0, 0, 0, time.UTC))
		request.Observations = observations
		_, err := f.service.Book(context.Background(), "jane-doe", request)
		require.NoError(t, err)
	}
	ownerRequest := func(f serviceFixture, target string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		return req.WithContext(user.WithUser(req.Context(), f.owner))
	}

	t.Run("should list bookings in range", func(t *testing.T) {
		// given
		handler, f := setupHandler(t)
		book(t, f, 9, "")
		book(t, f, 10, "Quarterly review")
		w := httptest.NewRecorder()

		// when
		handler.GetBookings(w, ownerRequest(f, "/api/booking?from=2026-10-19T00:00:00Z&to=2026-10-26T00:00:00Z"))

		// then
		require.Equal(t, http.StatusOK, w.Code)
		var dtos []BookingDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dtos))
		require.Len(t, dtos, 2)
		assert.Equal(t, "2026-10-20", dtos[0].Date)
		assert.Equal(t, "John Smith", dtos[0].Name)
		assert.Equal(t, "Quarterly review", dtos[1].Observations)
	})

	t.Run("should reject invalid range", func(t *testing.T) {
		handler, f := setupHandler(t)
		w := httptest.NewRecorder()

		handler.GetBookings(w, ownerRequest(f, "/api/booking?from=yesterday&to=2026-10-26T00:00:00Z"))

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, rest.CodeInvalidData, errorCode(t, w))
	})

	t.Run("should export bookings as csv", func(t *testing.T) {
		// given
		handler, f := setupHandler(t)
		book(t, f, 9, "Contract, draft")
		w := httptest.NewRecorder()

		// when
		handler.ExportBookings(w, ownerRequest(f, "/api/booking/export?from=2026-10-19T00:00:00Z&to=2026-10-26T00:00:00Z"))

		// then
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t,
			"Date,Start,End,Name,Email,Observations\n"+
				"20/10/2026,09:00,10:00,John Smith,john@example.com,\"Contract, draft\"\n",
			w.Body.String())
	})
}
