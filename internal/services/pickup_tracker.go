package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/domain"
	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/internal/pickupstore"
)

// PickupStore persists the transient pickup flags of a session
type PickupStore interface {
	Reset(ctx context.Context, key string, studentIDs []string) error
	Toggle(ctx context.Context, key, studentID string) (bool, error)
	State(ctx context.Context, key string) (map[string]bool, bool, error)
	PruneIdle(ctx context.Context, maxIdle time.Duration) (int, error)
}

// PickupTracker owns the per-driver pickup sessions
type PickupTracker struct {
	store   PickupStore
	metrics Metrics
	logger  logrus.FieldLogger
}

// NewPickupTracker creates a new PickupTracker. metrics may be nil.
func NewPickupTracker(store PickupStore, metrics Metrics, logger logrus.FieldLogger) *PickupTracker {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &PickupTracker{store: store, metrics: metrics, logger: logger}
}

// Start opens a fresh session with every student not picked up
func (t *PickupTracker) Start(ctx context.Context, key models.PickupSessionKey, studentIDs []string) error {
	if err := t.store.Reset(ctx, key.String(), studentIDs); err != nil {
		return fmt.Errorf("failed to start pickup session: %w", err)
	}
	t.logger.WithFields(logrus.Fields{
		"driver_id": key.DriverID,
		"route_id":  key.RouteID,
		"date":      key.Date.String(),
		"time_slot": key.TimeSlot,
		"students":  len(studentIDs),
	}).Debug("Pickup session started")
	return nil
}

// Toggle flips a student's picked-up flag and returns the new value
func (t *PickupTracker) Toggle(ctx context.Context, key models.PickupSessionKey, studentID string) (bool, error) {
	picked, err := t.store.Toggle(ctx, key.String(), studentID)
	switch {
	case errors.Is(err, pickupstore.ErrNoSession):
		return false, domain.InvalidStateError{Resource: "pickup session", Msg: "open the manifest before marking pickups"}
	case errors.Is(err, pickupstore.ErrUnknownStudent):
		return false, domain.NotFoundError{Resource: "manifest student", ID: studentID, Err: err}
	case err != nil:
		return false, err
	}
	t.metrics.PickupToggled(picked)
	return picked, nil
}

// State returns the session's flags, or false when no session is open
func (t *PickupTracker) State(ctx context.Context, key models.PickupSessionKey) (map[string]bool, bool, error) {
	return t.store.State(ctx, key.String())
}

// PruneIdle drops sessions idle for longer than maxIdle
func (t *PickupTracker) PruneIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	return t.store.PruneIdle(ctx, maxIdle)
}
