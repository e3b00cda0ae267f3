package database

import (
	"context"
	"fmt"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// RouteRepository handles route database operations
type RouteRepository struct {
	db DB
}

// NewRouteRepository creates a new route repository
func NewRouteRepository(db DB) *RouteRepository {
	return &RouteRepository{db: db}
}

const routeColumns = `id, name, area, capacity, created_at, updated_at`

// CreateRoute inserts a route
func (r *RouteRepository) CreateRoute(ctx context.Context, route *models.Route) error {
	query := `
		INSERT INTO routes (id, name, area, capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		route.ID, route.Name, route.Area, route.Capacity, route.CreatedAt, route.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create route: %w", translateError(err))
	}
	return nil
}

// ListRoutes returns every route by name
func (r *RouteRepository) ListRoutes(ctx context.Context) ([]models.Route, error) {
	routes := []models.Route{}
	query := `SELECT ` + routeColumns + ` FROM routes ORDER BY name, id`
	if err := r.db.SelectContext(ctx, &routes, query); err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return routes, nil
}

// GetRoute returns a route by id
func (r *RouteRepository) GetRoute(ctx context.Context, id string) (*models.Route, error) {
	var route models.Route
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1`
	if err := r.db.GetContext(ctx, &route, query, id); err != nil {
		return nil, notFound(err, "route", id)
	}
	return &route, nil
}
