package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/kidshuttle/shuttle-backend/internal/domain"
)

// PostgreSQL error codes the repositories translate
const (
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqCheckViolation       = "23514"
	pqSerializationFailure = "40001"
	pqInvalidText          = "22P02"
)

// Constraint names declared in schema.go
const (
	constraintCapacity       = "bookings_capacity"
	constraintStudentSlot    = "idx_bookings_student_slot"
	constraintMorningOrder   = "idx_stops_route_morning_order"
	constraintAfternoonOrder = "idx_stops_route_afternoon_order"
	constraintUsersEmail     = "users_email_key"
)

func pqCode(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// translateError turns driver errors into domain errors where a caller can act on them
func translateError(err error) error {
	if err == nil {
		return nil
	}
	pqErr, ok := pqCode(err)
	if !ok {
		return err
	}

	switch string(pqErr.Code) {
	case pqCheckViolation:
		if pqErr.Constraint == constraintCapacity {
			return domain.CapacityExceededError{Err: err}
		}
		return domain.ValidationError{Msg: pqErr.Message, Err: err}
	case pqSerializationFailure:
		return domain.CapacityExceededError{Err: err}
	case pqUniqueViolation:
		switch pqErr.Constraint {
		case constraintMorningOrder:
			return domain.ValidationError{Field: "morning_order", Msg: "order is already used on this route", Err: err}
		case constraintAfternoonOrder:
			return domain.ValidationError{Field: "afternoon_order", Msg: "order is already used on this route", Err: err}
		case constraintUsersEmail:
			return domain.ValidationError{Field: "email", Msg: "an account with this email already exists", Err: err}
		case constraintStudentSlot:
			return domain.InvalidStateError{Resource: "booking", Msg: "student already has a booking for this date and time slot"}
		}
		return domain.ValidationError{Msg: "duplicate value", Err: err}
	case pqForeignKeyViolation:
		return domain.NotFoundError{Resource: pqErr.Table, Err: err}
	case pqInvalidText:
		// A malformed uuid names no row
		return domain.NotFoundError{Err: err}
	}
	return err
}

// notFound maps a missing row, or an id Postgres cannot parse as a uuid, to NotFoundError
func notFound(err error, resource, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: resource, ID: id}
	}
	if pqErr, ok := pqCode(err); ok && string(pqErr.Code) == pqInvalidText {
		return domain.NotFoundError{Resource: resource, ID: id, Err: err}
	}
	return err
}
