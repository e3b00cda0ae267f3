package database

import (
	"context"
	"fmt"

	"github.com/kidshuttle/shuttle-backend/internal/domain"
	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// StopRepository handles stop database operations.
// Per-route order uniqueness is enforced by partial unique indexes.
type StopRepository struct {
	db DB
}

// NewStopRepository creates a new stop repository
func NewStopRepository(db DB) *StopRepository {
	return &StopRepository{db: db}
}

const stopColumns = `
	id, route_id, name, address, morning_order, afternoon_order,
	morning_pickup_time, afternoon_dropoff_time,
	friday_morning_pickup_time, friday_afternoon_dropoff_time,
	early_release_morning_pickup_time, early_release_afternoon_dropoff_time,
	created_at, updated_at`

// ListStopsByRoute returns the stops of a route in storage order; callers sort per slot
func (r *StopRepository) ListStopsByRoute(ctx context.Context, routeID string) ([]models.Stop, error) {
	stops := []models.Stop{}
	query := `SELECT ` + stopColumns + ` FROM stops WHERE route_id = $1 ORDER BY morning_order NULLS LAST, name, id`
	if err := r.db.SelectContext(ctx, &stops, query, routeID); err != nil {
		return nil, fmt.Errorf("failed to list stops: %w", err)
	}
	return stops, nil
}

func (r *StopRepository) GetStop(ctx context.Context, id string) (*models.Stop, error) {
	var stop models.Stop
	query := `SELECT ` + stopColumns + ` FROM stops WHERE id = $1`
	if err := r.db.GetContext(ctx, &stop, query, id); err != nil {
		return nil, notFound(err, "stop", id)
	}
	return &stop, nil
}

func (r *StopRepository) CreateStop(ctx context.Context, stop *models.Stop) error {
	query := `
		INSERT INTO stops (
			id, route_id, name, address, morning_order, afternoon_order,
			morning_pickup_time, afternoon_dropoff_time,
			friday_morning_pickup_time, friday_afternoon_dropoff_time,
			early_release_morning_pickup_time, early_release_afternoon_dropoff_time,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		stop.ID, stop.RouteID, stop.Name, stop.Address, stop.MorningOrder, stop.AfternoonOrder,
		stop.MorningPickupTime, stop.AfternoonDropoffTime,
		stop.FridayMorningPickupTime, stop.FridayAfternoonDropoffTime,
		stop.EarlyReleaseMorningPickupTime, stop.EarlyReleaseAfternoonDropoffTime,
		stop.CreatedAt, stop.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create stop: %w", translateError(err))
	}
	return nil
}

func (r *StopRepository) UpdateStop(ctx context.Context, stop *models.Stop) error {
	query := `
		UPDATE stops
		SET name = $2,
		    address = $3,
		    morning_order = $4,
		    afternoon_order = $5,
		    morning_pickup_time = $6,
		    afternoon_dropoff_time = $7,
		    friday_morning_pickup_time = $8,
		    friday_afternoon_dropoff_time = $9,
		    early_release_morning_pickup_time = $10,
		    early_release_afternoon_dropoff_time = $11,
		    updated_at = $12
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		stop.ID, stop.Name, stop.Address, stop.MorningOrder, stop.AfternoonOrder,
		stop.MorningPickupTime, stop.AfternoonDropoffTime,
		stop.FridayMorningPickupTime, stop.FridayAfternoonDropoffTime,
		stop.EarlyReleaseMorningPickupTime, stop.EarlyReleaseAfternoonDropoffTime,
		stop.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update stop: %w", translateError(err))
	}
	return requireRow(result, "stop", stop.ID)
}

func (r *StopRepository) DeleteStop(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stops WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete stop: %w", translateError(err))
	}
	return requireRow(result, "stop", id)
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireRow(result rowsAffecter, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return domain.NotFoundError{Resource: resource, ID: id}
	}
	return nil
}
