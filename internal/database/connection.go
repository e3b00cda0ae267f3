package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/kidshuttle/shuttle-backend/internal/config"
)

// DB is the subset of *sqlx.DB the repositories use
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	PingContext(ctx context.Context) error
	Close() error
}

// NewConnection creates a new database connection
func NewConnection(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sqlx.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxLifetime / 2)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Repositories bundles every repository over one connection. It satisfies
// all store interfaces of the services package and the seed target.
type Repositories struct {
	*RouteRepository
	*StopRepository
	*StudentRepository
	*BookingRepository
	*UserRepository
	*AssignmentRepository
	*CalendarRepository
	*RefreshTokenRepository
}

// NewRepositories wires all repositories to db
func NewRepositories(db DB) *Repositories {
	return &Repositories{
		RouteRepository:        NewRouteRepository(db),
		StopRepository:         NewStopRepository(db),
		StudentRepository:      NewStudentRepository(db),
		BookingRepository:      NewBookingRepository(db),
		UserRepository:         NewUserRepository(db),
		AssignmentRepository:   NewAssignmentRepository(db),
		CalendarRepository:     NewCalendarRepository(db),
		RefreshTokenRepository: NewRefreshTokenRepository(db),
	}
}
