// Package pickupstore keeps the transient pickup checklist of a driver's
// manifest session. Nothing here is ever written back to bookings.
package pickupstore

import (
	"errors"
	"time"
)

var (
	// ErrNoSession is returned when no session is open under the key
	ErrNoSession = errors.New("no pickup session is open")
	// ErrUnknownStudent is returned when the student is not on the session's manifest
	ErrUnknownStudent = errors.New("student is not on this manifest")
)

// DefaultTTL bounds how long an idle session survives
const DefaultTTL = 18 * time.Hour
