package domain

import (
	"errors"
	"fmt"
)

// NotFoundError reports a referenced entity that does not exist
type NotFoundError struct {
	Resource string
	ID       string
	Err      error
}

func (e NotFoundError) Error() string {
	switch {
	case e.Resource == "":
		return "not found"
	case e.ID == "":
		return fmt.Sprintf("%s not found", e.Resource)
	default:
		return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
	}
}

func (e NotFoundError) Unwrap() error { return e.Err }

// OwnershipError reports an attempt to act on a resource owned by someone else
type OwnershipError struct {
	Resource string
	ID       string
}

func (e OwnershipError) Error() string {
	if e.Resource == "" {
		return "resource does not belong to you"
	}
	return fmt.Sprintf("%s does not belong to you", e.Resource)
}

// CapacityExceededError reports a stop/slot with no seats left
type CapacityExceededError struct {
	RouteID  string
	StopID   string
	Date     string
	TimeSlot string
	Capacity int
	Err      error
}

func (e CapacityExceededError) Error() string {
	if e.StopID == "" {
		return "stop is fully booked"
	}
	return fmt.Sprintf("stop %s is fully booked for %s %s (capacity %d)", e.StopID, e.Date, e.TimeSlot, e.Capacity)
}

func (e CapacityExceededError) Unwrap() error { return e.Err }

// InvalidStateError reports an illegal status transition
type InvalidStateError struct {
	Resource string
	Msg      string
}

func (e InvalidStateError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("invalid %s state", e.Resource)
	default:
		return "invalid state"
	}
}

// ValidationError reports malformed input
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// Validation wraps err as a ValidationError
func Validation(err error) error {
	if err == nil {
		return nil
	}
	return ValidationError{Err: err}
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsOwnership(err error) bool {
	var target OwnershipError
	return errors.As(err, &target)
}

func IsCapacityExceeded(err error) bool {
	var target CapacityExceededError
	return errors.As(err, &target)
}

func IsInvalidState(err error) bool {
	var target InvalidStateError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}
