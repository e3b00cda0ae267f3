package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// migrations are applied in order; each statement is idempotent
var migrations = []struct {
	name string
	ddl  string
}{
	{"users", `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	name          TEXT NOT NULL,
	phone         TEXT,
	role          TEXT NOT NULL CHECK (role IN ('parent', 'driver')),
	status        TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT users_email_key UNIQUE (email)
);
CREATE INDEX IF NOT EXISTS idx_users_role_status ON users (role, status);`},

	{"refresh_tokens", `
CREATE TABLE IF NOT EXISTS refresh_tokens (
	id           UUID PRIMARY KEY,
	user_id      UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	token_hash   TEXT NOT NULL UNIQUE,
	device_type  TEXT,
	ip_address   TEXT,
	user_agent   TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at   TIMESTAMPTZ NOT NULL,
	last_used_at TIMESTAMPTZ,
	revoked      BOOLEAN NOT NULL DEFAULT FALSE,
	revoked_at   TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens (user_id);
CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires ON refresh_tokens (expires_at);`},

	{"routes", `
CREATE TABLE IF NOT EXISTS routes (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	area       TEXT NOT NULL,
	capacity   INT NOT NULL DEFAULT 14 CHECK (capacity > 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`},

	{"stops", `
CREATE TABLE IF NOT EXISTS stops (
	id                                   UUID PRIMARY KEY,
	route_id                             UUID NOT NULL REFERENCES routes (id) ON DELETE CASCADE,
	name                                 TEXT NOT NULL,
	address                              TEXT NOT NULL,
	morning_order                        INT CHECK (morning_order >= 1),
	afternoon_order                      INT CHECK (afternoon_order >= 1),
	morning_pickup_time                  VARCHAR(5),
	afternoon_dropoff_time               VARCHAR(5),
	friday_morning_pickup_time           VARCHAR(5),
	friday_afternoon_dropoff_time        VARCHAR(5),
	early_release_morning_pickup_time    VARCHAR(5),
	early_release_afternoon_dropoff_time VARCHAR(5),
	created_at                           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at                           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_stops_route_morning_order
	ON stops (route_id, morning_order) WHERE morning_order IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_stops_route_afternoon_order
	ON stops (route_id, afternoon_order) WHERE afternoon_order IS NOT NULL;`},

	{"students", `
CREATE TABLE IF NOT EXISTS students (
	id         UUID PRIMARY KEY,
	parent_id  UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	grade      TEXT NOT NULL CHECK (grade IN ('3rd', '4th', '5th', '6th', '7th')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_students_parent ON students (parent_id);`},

	{"driver_assignments", `
CREATE TABLE IF NOT EXISTS driver_assignments (
	id         UUID PRIMARY KEY,
	driver_id  UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	route_id   UUID NOT NULL REFERENCES routes (id) ON DELETE CASCADE,
	time_slot  TEXT NOT NULL CHECK (time_slot IN ('morning', 'afternoon')),
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_driver_assignments_driver ON driver_assignments (driver_id);`},

	{"early_release_days", `
CREATE TABLE IF NOT EXISTS early_release_days (
	service_date DATE PRIMARY KEY,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`},

	{"bookings", `
CREATE TABLE IF NOT EXISTS bookings (
	id           UUID PRIMARY KEY,
	student_id   UUID NOT NULL REFERENCES students (id) ON DELETE CASCADE,
	route_id     UUID NOT NULL REFERENCES routes (id) ON DELETE CASCADE,
	stop_id      UUID NOT NULL REFERENCES stops (id) ON DELETE CASCADE,
	service_date DATE NOT NULL,
	time_slot    TEXT NOT NULL CHECK (time_slot IN ('morning', 'afternoon')),
	status       TEXT NOT NULL DEFAULT 'confirmed' CHECK (status IN ('confirmed', 'cancelled')),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	cancelled_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_bookings_pool
	ON bookings (route_id, service_date, time_slot, stop_id) WHERE status = 'confirmed';
CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_student_slot
	ON bookings (student_id, service_date, time_slot) WHERE status = 'confirmed';`},

	{"bookings_capacity_trigger", `
CREATE OR REPLACE FUNCTION enforce_booking_capacity() RETURNS trigger AS $$
DECLARE
	cap   INT;
	taken INT;
BEGIN
	IF NEW.status <> 'confirmed' THEN
		RETURN NEW;
	END IF;
	SELECT capacity INTO cap FROM routes WHERE id = NEW.route_id;
	SELECT COUNT(*) INTO taken FROM bookings
	 WHERE route_id = NEW.route_id
	   AND stop_id = NEW.stop_id
	   AND service_date = NEW.service_date
	   AND time_slot = NEW.time_slot
	   AND status = 'confirmed';
	IF taken >= cap THEN
		RAISE EXCEPTION 'stop is fully booked'
			USING ERRCODE = 'check_violation', CONSTRAINT = 'bookings_capacity';
	END IF;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;
DROP TRIGGER IF EXISTS bookings_capacity_check ON bookings;
CREATE TRIGGER bookings_capacity_check
	BEFORE INSERT ON bookings
	FOR EACH ROW EXECUTE FUNCTION enforce_booking_capacity();`},
}

// Migrate creates or updates the schema
func Migrate(ctx context.Context, db DB, logger logrus.FieldLogger) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m.ddl); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
		logger.WithField("migration", m.name).Debug("Migration applied")
	}
	logger.WithField("count", len(migrations)).Info("Database schema is up to date")
	return nil
}
