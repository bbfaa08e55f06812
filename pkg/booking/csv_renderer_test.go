package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCsvRendererImpl_RenderBookings(t *testing.T) {
	t.Run("should render header only without bookings", func(t *testing.T) {
		renderer := NewCsvRenderer(time.Hour)

		csv, err := renderer.RenderBookings(nil, time.UTC)

		require.NoError(t, err)
		assert.Equal(t, "Date,Start,End,Name,Email,Observations\n", csv)
	})

	t.Run("should render times in the given location with meeting duration", func(t *testing.T) {
		// given
		renderer := NewCsvRenderer(45 * time.Minute)
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(t, err)
		bookings := []Booking{{
			StartTime:  time.Date(2026, time.October, 20, 23, 0, 0, 0, time.UTC),
			GuestName:  "John Smith",
			GuestEmail: "john@example.com",
		}}

		// when
		csv, err := renderer.RenderBookings(bookings, tokyo)

		// then
		require.NoError(t, err)
		assert.Equal(t,
			"Date,Start,End,Name,Email,Observations\n"+
				"21/10/2026,08:00,08:45,John Smith,john@example.com,\n",
			csv)
	})
}
