package database

import (
	"context"
	"fmt"
	"time"

	"github.com/kidshuttle/shuttle-backend/internal/domain"
	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// BookingRepository handles booking database operations
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, student_id, route_id, stop_id, service_date, time_slot, status, created_at, cancelled_at`

const countPoolQuery = `
	SELECT COUNT(*)
	FROM bookings
	WHERE route_id = $1 AND stop_id = $2 AND service_date = $3 AND time_slot = $4
	  AND status = 'confirmed'
`

// CountConfirmed counts the confirmed bookings of one seat pool
func (r *BookingRepository) CountConfirmed(ctx context.Context, key models.CapacityKey) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, countPoolQuery, key.RouteID, key.StopID, key.Date, key.TimeSlot); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return n, nil
}

// CountConfirmedByStop counts confirmed bookings per stop for a route, slot and date
func (r *BookingRepository) CountConfirmedByStop(ctx context.Context, routeID string, slot models.TimeSlot, date models.Date) (map[string]int, error) {
	var rows []struct {
		StopID string `db:"stop_id"`
		Count  int    `db:"count"`
	}
	query := `
		SELECT stop_id, COUNT(*) AS count
		FROM bookings
		WHERE route_id = $1 AND time_slot = $2 AND service_date = $3 AND status = 'confirmed'
		GROUP BY stop_id
	`
	if err := r.db.SelectContext(ctx, &rows, query, routeID, slot, date); err != nil {
		return nil, fmt.Errorf("failed to count bookings by stop: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.StopID] = row.Count
	}
	return counts, nil
}

// InsertIfAvailable inserts a confirmed booking when its seat pool has room.
// The pool is serialized by a transaction-scoped advisory lock, and the
// capacity trigger rejects anything that slips past the count.
func (r *BookingRepository) InsertIfAvailable(ctx context.Context, booking *models.Booking, capacity int) error {
	key := booking.CapacityKey()
	full := domain.CapacityExceededError{
		RouteID:  key.RouteID,
		StopID:   key.StopID,
		Date:     key.Date.String(),
		TimeSlot: string(key.TimeSlot),
		Capacity: capacity,
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key.String()); err != nil {
		return fmt.Errorf("failed to lock seat pool: %w", err)
	}

	var taken int
	if err := tx.GetContext(ctx, &taken, countPoolQuery, key.RouteID, key.StopID, key.Date, key.TimeSlot); err != nil {
		return fmt.Errorf("failed to count bookings: %w", err)
	}
	if taken >= capacity {
		return full
	}

	query := `
		INSERT INTO bookings (id, student_id, route_id, stop_id, service_date, time_slot, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, query,
		booking.ID, booking.StudentID, booking.RouteID, booking.StopID,
		booking.Date, booking.TimeSlot, booking.Status, booking.CreatedAt,
	)
	if err != nil {
		err = translateError(err)
		if domain.IsCapacityExceeded(err) {
			return full
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		err = translateError(err)
		if domain.IsCapacityExceeded(err) {
			return full
		}
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, notFound(err, "booking", id)
	}
	return &booking, nil
}

// CancelIfConfirmed cancels a booking only while it is still confirmed
func (r *BookingRepository) CancelIfConfirmed(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled',
		    cancelled_at = $1
		WHERE id = $2 AND status = 'confirmed'
	`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	// Distinguish "not confirmed" from "no such booking"
	if _, err := r.GetBooking(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// ListBookingsByParent returns a parent's bookings with display names, newest first
func (r *BookingRepository) ListBookingsByParent(ctx context.Context, parentID string) ([]models.BookingDetails, error) {
	details := []models.BookingDetails{}
	query := `
		SELECT b.id, b.student_id, b.route_id, b.stop_id, b.service_date, b.time_slot,
		       b.status, b.created_at, b.cancelled_at,
		       s.name AS student_name,
		       r.name AS route_name,
		       st.name AS stop_name,
		       st.address AS stop_address
		FROM bookings b
		JOIN students s ON s.id = b.student_id
		JOIN routes r ON r.id = b.route_id
		JOIN stops st ON st.id = b.stop_id
		WHERE s.parent_id = $1
		ORDER BY b.created_at DESC, b.id
	`
	if err := r.db.SelectContext(ctx, &details, query, parentID); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return details, nil
}

// ListConfirmed returns confirmed bookings for a route, slot and date in insertion order
func (r *BookingRepository) ListConfirmed(ctx context.Context, routeID string, slot models.TimeSlot, date models.Date) ([]models.Booking, error) {
	bookings := []models.Booking{}
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE route_id = $1 AND time_slot = $2 AND service_date = $3 AND status = 'confirmed'
		ORDER BY created_at, id
	`
	if err := r.db.SelectContext(ctx, &bookings, query, routeID, slot, date); err != nil {
		return nil, fmt.Errorf("failed to list confirmed bookings: %w", err)
	}
	return bookings, nil
}

func (r *BookingRepository) HasConfirmedForStudent(ctx context.Context, studentID string, slot models.TimeSlot, date models.Date) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE student_id = $1 AND time_slot = $2 AND service_date = $3 AND status = 'confirmed'
		)
	`
	if err := r.db.GetContext(ctx, &exists, query, studentID, slot, date); err != nil {
		return false, fmt.Errorf("failed to check student booking: %w", err)
	}
	return exists, nil
}

// CountUpcomingForStop counts confirmed bookings at a stop on or after from
func (r *BookingRepository) CountUpcomingForStop(ctx context.Context, stopID string, from models.Date) (int, error) {
	var n int
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE stop_id = $1 AND service_date >= $2 AND status = 'confirmed'
	`
	if err := r.db.GetContext(ctx, &n, query, stopID, from); err != nil {
		return 0, fmt.Errorf("failed to count upcoming bookings: %w", err)
	}
	return n, nil
}
