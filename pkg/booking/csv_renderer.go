package booking

import (
	"bytes"
	"encoding/csv"
	"time"

	log "github.com/sirupsen/logrus"
)

type Renderer interface {
	RenderBookings(bookings []Booking, location *time.Location) (string, error)
}

type CsvRendererImpl struct {
	meetingDuration time.Duration
}

func NewCsvRenderer(meetingDuration time.Duration) *CsvRendererImpl {
	return &CsvRendererImpl{meetingDuration: meetingDuration}
}

func (c *CsvRendererImpl) RenderBookings(bookings []Booking, location *time.Location) (string, error) {
	data := make([][]string, 0, len(bookings)+1)
	data = append(data, []string{"Date", "Start", "End", "Name", "Email", "Observations"})
	for _, booking := range bookings {
		start := booking.StartTime.In(location)
		end := start.Add(c.meetingDuration)
		data = append(data, []string{
			start.Format("02/01/2006"),
			start.Format("15:04"),
			end.Format("15:04"),
			booking.GuestName,
			booking.GuestEmail,
			booking.Observations,
		})
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}
	return b.String(), nil
}
