package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/schedulr/schedulr/internal/database"
	"github.com/schedulr/schedulr/pkg/availability"
	log "github.com/sirupsen/logrus"
)

const userStartTimeIndex = "booking_user_start_uidx"

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	// Create stores a booking. ErrSlotConflict is returned when the user already has a booking
	// starting at the same moment.
	Create(ctx context.Context, booking Booking) (Booking, error)
	ExistsAt(ctx context.Context, userId int, startTime time.Time) (bool, error)
	GetBookingByUid(ctx context.Context, uid string) (Booking, error)
	// GetBookings returns bookings with from <= start < to ordered by start time.
	GetBookings(ctx context.Context, userId int, from, to time.Time) ([]Booking, error)
	GetBookedStartTimes(ctx context.Context, userId int, from, to time.Time) ([]time.Time, error)
	CountBookingsPerDate(ctx context.Context, userId int, from, to time.Time, timezone string) ([]availability.DailyBookingCount, error)
}

type repositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepo(db *pgxpool.Pool) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&repositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if database.IsUniqueViolation(err, userStartTimeIndex) {
			return ErrSlotConflict
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *repositoryImpl) Create(ctx context.Context, booking Booking) (Booking, error) {
	query := `INSERT INTO booking (uid, user_id, booking_date, start_time, guest_name, guest_email, observations)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id, created_at`
	var observations *string
	if booking.Observations != "" {
		observations = &booking.Observations
	}
	date := time.Date(booking.Date.Year(), booking.Date.Month(), booking.Date.Day(), 0, 0, 0, 0, time.UTC)
	err := r.getQueryer().QueryRow(ctx, query,
		booking.Uid,
		booking.UserId,
		date,
		booking.StartTime,
		booking.GuestName,
		booking.GuestEmail,
		observations,
	).Scan(&booking.Id, &booking.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, userStartTimeIndex) {
			return Booking{}, ErrSlotConflict
		}
		log.Errorf("failed to create booking: %v", err)
		return Booking{}, err
	}
	return booking, nil
}

func (r *repositoryImpl) ExistsAt(ctx context.Context, userId int, startTime time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM booking WHERE user_id = $1 AND start_time = $2)`
	var exists bool
	if err := r.getQueryer().QueryRow(ctx, query, userId, startTime).Scan(&exists); err != nil {
		log.Errorf("failed to check booking existence: %v", err)
		return false, err
	}
	return exists, nil
}

const bookingColumns = `id, uid, user_id, booking_date, start_time, guest_name, guest_email, observations, created_at`

func scanBooking(row pgx.Row) (Booking, error) {
	var booking Booking
	var observations *string
	err := row.Scan(
		&booking.Id,
		&booking.Uid,
		&booking.UserId,
		&booking.Date,
		&booking.StartTime,
		&booking.GuestName,
		&booking.GuestEmail,
		&observations,
		&booking.CreatedAt,
	)
	if err != nil {
		return Booking{}, err
	}
	if observations != nil {
		booking.Observations = *observations
	}
	return booking, nil
}

func (r *repositoryImpl) GetBookingByUid(ctx context.Context, uid string) (Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM booking WHERE uid = $1`
	booking, err := scanBooking(r.getQueryer().QueryRow(ctx, query, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrBookingNotFound
	} else if err != nil {
		log.Errorf("failed to get booking: %v", err)
		return Booking{}, err
	}
	return booking, nil
}

func (r *repositoryImpl) GetBookings(ctx context.Context, userId int, from, to time.Time) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + `
			  FROM booking
			  WHERE user_id = $1 AND start_time >= $2 AND start_time < $3
			  ORDER BY start_time`
	rows, err := r.getQueryer().Query(ctx, query, userId, from, to)
	if err != nil {
		log.Errorf("failed to query bookings: %v", err)
		return nil, err
	}
	defer rows.Close()

	bookings := make([]Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over rows: %v", err)
		return nil, err
	}
	return bookings, nil
}

func (r *repositoryImpl) GetBookedStartTimes(ctx context.Context, userId int, from, to time.Time) ([]time.Time, error) {
	query := `SELECT start_time
			  FROM booking
			  WHERE user_id = $1 AND start_time >= $2 AND start_time <= $3
			  ORDER BY start_time`
	rows, err := r.getQueryer().Query(ctx, query, userId, from, to)
	if err != nil {
		log.Errorf("failed to query booked start times: %v", err)
		return nil, err
	}
	startTimes, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		log.Errorf("failed to collect booked start times: %v", err)
		return nil, err
	}
	return startTimes, nil
}

func (r *repositoryImpl) CountBookingsPerDate(ctx context.Context, userId int, from, to time.Time, timezone string) ([]availability.DailyBookingCount, error) {
	query := `SELECT (start_time AT TIME ZONE $4)::date AS local_date, count(*)
			  FROM booking
			  WHERE user_id = $1 AND start_time >= $2 AND start_time < $3
			  GROUP BY local_date
			  ORDER BY local_date`
	rows, err := r.getQueryer().Query(ctx, query, userId, from, to, timezone)
	if err != nil {
		log.Errorf("failed to count bookings per date: %v", err)
		return nil, err
	}
	defer rows.Close()

	counts := make([]availability.DailyBookingCount, 0)
	for rows.Next() {
		var count availability.DailyBookingCount
		if err := rows.Scan(&count.Date, &count.Count); err != nil {
			return nil, err
		}
		counts = append(counts, count)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over rows: %v", err)
		return nil, err
	}
	return counts, nil
}
