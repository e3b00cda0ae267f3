package database

import (
	"context"
	"fmt"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// AssignmentRepository handles driver-to-route assignments
type AssignmentRepository struct {
	db DB
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// AddAssignment binds a driver to a route
func (r *AssignmentRepository) AddAssignment(ctx context.Context, a *models.DriverAssignment) error {
	query := `
		INSERT INTO driver_assignments (id, driver_id, route_id, time_slot, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.DriverID, a.RouteID, a.TimeSlot, a.IsActive, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create driver assignment: %w", translateError(err))
	}
	return nil
}

func (r *AssignmentRepository) ListAssignments(ctx context.Context, driverID string) ([]models.DriverAssignment, error) {
	assignments := []models.DriverAssignment{}
	query := `
		SELECT id, driver_id, route_id, time_slot, is_active, created_at
		FROM driver_assignments
		WHERE driver_id = $1
		ORDER BY created_at, id
	`
	if err := r.db.SelectContext(ctx, &assignments, query, driverID); err != nil {
		return nil, fmt.Errorf("failed to list driver assignments: %w", err)
	}
	return assignments, nil
}

// AssignedRouteID returns the route of the driver's first active assignment
func (r *AssignmentRepository) AssignedRouteID(ctx context.Context, driverID string) (string, error) {
	var routeID string
	query := `
		SELECT route_id
		FROM driver_assignments
		WHERE driver_id = $1 AND is_active = TRUE
		ORDER BY created_at, id
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &routeID, query, driverID); err != nil {
		return "", notFound(err, "route assignment", driverID)
	}
	return routeID, nil
}
