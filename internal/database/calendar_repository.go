package database

import (
	"context"
	"fmt"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// CalendarRepository stores early-release days
type CalendarRepository struct {
	db DB
}

// NewCalendarRepository creates a new calendar repository
func NewCalendarRepository(db DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// AddEarlyReleaseDay marks a date as an early-release day
func (r *CalendarRepository) AddEarlyReleaseDay(ctx context.Context, date models.Date) error {
	query := `INSERT INTO early_release_days (service_date) VALUES ($1) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, date); err != nil {
		return fmt.Errorf("failed to add early release day: %w", err)
	}
	return nil
}

func (r *CalendarRepository) IsEarlyRelease(ctx context.Context, date models.Date) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM early_release_days WHERE service_date = $1)`
	if err := r.db.GetContext(ctx, &exists, query, date); err != nil {
		return false, fmt.Errorf("failed to check early release day: %w", err)
	}
	return exists, nil
}
