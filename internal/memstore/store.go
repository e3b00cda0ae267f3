// Package memstore is a process-local implementation of every store the
// services consume. One mutex guards all state, so a capacity check and
// the insert it guards are always atomic.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kidshuttle/shuttle-backend/internal/domain"
	"github.com/kidshuttle/shuttle-backend/internal/models"
)

// Store holds all entities in memory
type Store struct {
	mu sync.RWMutex

	routes      map[string]models.Route
	stops       map[string]models.Stop
	students    map[string]models.Student
	bookings    []models.Booking
	users       map[string]models.User
	assignments []models.DriverAssignment
	earlyDays   map[string]bool
	tokens      map[string]models.RefreshToken
}

// New creates an empty store
func New() *Store {
	return &Store{
		routes:    make(map[string]models.Route),
		stops:     make(map[string]models.Stop),
		students:  make(map[string]models.Student),
		users:     make(map[string]models.User),
		earlyDays: make(map[string]bool),
		tokens:    make(map[string]models.RefreshToken),
	}
}

// Routes

// CreateRoute adds a route
func (s *Store) CreateRoute(ctx context.Context, route *models.Route) error {
	if err := route.Validate(); err != nil {
		return domain.Validation(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[route.ID] = *route
	return nil
}

func (s *Store) ListRoutes(ctx context.Context) ([]models.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	routes := make([]models.Route, 0, len(s.routes))
	for _, r := range s.routes {
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Name < routes[j].Name })
	return routes, nil
}

func (s *Store) GetRoute(ctx context.Context, id string) (*models.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.routes[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "route", ID: id}
	}
	return &r, nil
}

// Stops

func (s *Store) ListStopsByRoute(ctx context.Context, routeID string) ([]models.Stop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stops []models.Stop
	for _, st := range s.stops {
		if st.RouteID == routeID {
			stops = append(stops, st)
		}
	}
	return stops, nil
}

func (s *Store) GetStop(ctx context.Context, id string) (*models.Stop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stops[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "stop", ID: id}
	}
	return &st, nil
}

func (s *Store) CreateStop(ctx context.Context, stop *models.Stop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.routes[stop.RouteID]; !ok {
		return domain.NotFoundError{Resource: "route", ID: stop.RouteID}
	}
	if err := s.checkOrdersLocked(stop); err != nil {
		return err
	}
	s.stops[stop.ID] = *stop
	return nil
}

func (s *Store) UpdateStop(ctx context.Context, stop *models.Stop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stops[stop.ID]; !ok {
		return domain.NotFoundError{Resource: "stop", ID: stop.ID}
	}
	if err := s.checkOrdersLocked(stop); err != nil {
		return err
	}
	s.stops[stop.ID] = *stop
	return nil
}

func (s *Store) DeleteStop(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stops[id]; !ok {
		return domain.NotFoundError{Resource: "stop", ID: id}
	}
	delete(s.stops, id)
	return nil
}

// checkOrdersLocked mirrors the per-route unique order indexes
func (s *Store) checkOrdersLocked(stop *models.Stop) error {
	for _, other := range s.stops {
		if other.ID == stop.ID || other.RouteID != stop.RouteID {
			continue
		}
		if stop.MorningOrder != nil && other.MorningOrder != nil && *stop.MorningOrder == *other.MorningOrder {
			return domain.ValidationError{Field: "morning_order", Msg: "order is already used on this route"}
		}
		if stop.AfternoonOrder != nil && other.AfternoonOrder != nil && *stop.AfternoonOrder == *other.AfternoonOrder {
			return domain.ValidationError{Field: "afternoon_order", Msg: "order is already used on this route"}
		}
	}
	return nil
}

// Students

func (s *Store) ListStudentsByParent(ctx context.Context, parentID string) ([]models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var students []models.Student
	for _, st := range s.students {
		if st.ParentID == parentID {
			students = append(students, st)
		}
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].Name != students[j].Name {
			return students[i].Name < students[j].Name
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.students[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "student", ID: id}
	}
	return &st, nil
}

func (s *Store) GetStudentsByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := make([]models.Student, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if st, ok := s.students[id]; ok {
			students = append(students, st)
		}
	}
	return students, nil
}

func (s *Store) CreateStudent(ctx context.Context, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[student.ID] = *student
	return nil
}

// Bookings

func (s *Store) CountConfirmed(ctx context.Context, key models.CapacityKey) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countConfirmedLocked(key), nil
}

func (s *Store) countConfirmedLocked(key models.CapacityKey) int {
	n := 0
	for _, b := range s.bookings {
		if b.IsConfirmed() && b.CapacityKey() == key {
			n++
		}
	}
	return n
}

func (s *Store) CountConfirmedByStop(ctx context.Context, routeID string, slot models.TimeSlot, date models.Date) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, b := range s.bookings {
		if b.IsConfirmed() && b.RouteID == routeID && b.TimeSlot == slot && b.Date.Equal(date) {
			counts[b.StopID]++
		}
	}
	return counts, nil
}

// InsertIfAvailable checks the student's slot and the stop's capacity and
// inserts under one write lock, matching the unique index and capacity
// trigger of the Postgres schema.
func (s *Store) InsertIfAvailable(ctx context.Context, booking *models.Booking, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bookings {
		if b.IsConfirmed() && b.StudentID == booking.StudentID && b.TimeSlot == booking.TimeSlot && b.Date.Equal(booking.Date) {
			return domain.InvalidStateError{Resource: "booking", Msg: "student already has a booking for this date and time slot"}
		}
	}

	key := booking.CapacityKey()
	if s.countConfirmedLocked(key) >= capacity {
		return domain.CapacityExceededError{
			RouteID:  key.RouteID,
			StopID:   key.StopID,
			Date:     key.Date.String(),
			TimeSlot: string(key.TimeSlot),
			Capacity: capacity,
		}
	}
	s.bookings = append(s.bookings, *booking)
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.bookings {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, domain.NotFoundError{Resource: "booking", ID: id}
}

func (s *Store) CancelIfConfirmed(ctx context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.bookings {
		if s.bookings[i].ID != id {
			continue
		}
		if !s.bookings[i].IsConfirmed() {
			return false, nil
		}
		s.bookings[i].Status = models.BookingStatusCancelled
		cancelledAt := at
		s.bookings[i].CancelledAt = &cancelledAt
		return true, nil
	}
	return false, domain.NotFoundError{Resource: "booking", ID: id}
}

func (s *Store) ListBookingsByParent(ctx context.Context, parentID string) ([]models.BookingDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.BookingDetails
	for i := len(s.bookings) - 1; i >= 0; i-- {
		b := s.bookings[i]
		st, ok := s.students[b.StudentID]
		if !ok || st.ParentID != parentID {
			continue
		}
		d := models.BookingDetails{Booking: b, StudentName: st.Name}
		if r, ok := s.routes[b.RouteID]; ok {
			d.RouteName = r.Name
		}
		if stop, ok := s.stops[b.StopID]; ok {
			d.StopName = stop.Name
			d.StopAddress = stop.Address
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListConfirmed returns confirmed bookings in insertion order
func (s *Store) ListConfirmed(ctx context.Context, routeID string, slot models.TimeSlot, date models.Date) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Booking
	for _, b := range s.bookings {
		if b.IsConfirmed() && b.RouteID == routeID && b.TimeSlot == slot && b.Date.Equal(date) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) HasConfirmedForStudent(ctx context.Context, studentID string, slot models.TimeSlot, date models.Date) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.bookings {
		if b.IsConfirmed() && b.StudentID == studentID && b.TimeSlot == slot && b.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CountUpcomingForStop(ctx context.Context, stopID string, from models.Date) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, b := range s.bookings {
		if b.IsConfirmed() && b.StopID == stopID && !b.Date.Before(from) {
			n++
		}
	}
	return n, nil
}

// Assignments and calendar

// AddAssignment binds a driver to a route
func (s *Store) AddAssignment(ctx context.Context, a *models.DriverAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = append(s.assignments, *a)
	return nil
}

func (s *Store) ListAssignments(ctx context.Context, driverID string) ([]models.DriverAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.DriverAssignment
	for _, a := range s.assignments {
		if a.DriverID == driverID {
			out = append(out, a)
		}
	}
	return out, nil
}

// AssignedRouteID returns the route of the driver's first active assignment
func (s *Store) AssignedRouteID(ctx context.Context, driverID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.assignments {
		if a.DriverID == driverID && a.IsActive {
			return a.RouteID, nil
		}
	}
	return "", domain.NotFoundError{Resource: "route assignment", ID: driverID}
}

// AddEarlyReleaseDay marks a date as an early-release day
func (s *Store) AddEarlyReleaseDay(ctx context.Context, date models.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.earlyDays[date.String()] = true
	return nil
}

func (s *Store) IsEarlyRelease(ctx context.Context, date models.Date) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.earlyDays[date.String()], nil
}

// Users

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "user", ID: id}
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.NotFoundError{Resource: "user"}
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return domain.ValidationError{Field: "email", Msg: "an account with this email already exists"}
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Store) ListUsersByStatus(ctx context.Context, role models.UserRole, status models.AccountStatus) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.User
	for _, u := range s.users {
		if u.Role == role && u.Status == status {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateUserStatus(ctx context.Context, id string, status models.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return domain.NotFoundError{Resource: "user", ID: id}
	}
	u.Status = status
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}

// Refresh tokens

func (s *Store) StoreRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.TokenHash] = *token
	return nil
}

func (s *Store) GetRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[tokenHash]
	if !ok {
		return nil, domain.NotFoundError{Resource: "refresh token"}
	}
	return &t, nil
}

func (s *Store) TouchRefreshToken(ctx context.Context, tokenHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[tokenHash]
	if !ok {
		return domain.NotFoundError{Resource: "refresh token"}
	}
	t.LastUsedAt = &at
	s.tokens[tokenHash] = t
	return nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, tokenHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[tokenHash]
	if !ok {
		return domain.NotFoundError{Resource: "refresh token"}
	}
	t.Revoked = true
	t.RevokedAt = &at
	s.tokens[tokenHash] = t
	return nil
}

func (s *Store) RevokeUserTokens(ctx context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for hash, t := range s.tokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			t.RevokedAt = &at
			s.tokens[hash] = t
		}
	}
	return nil
}

func (s *Store) PurgeExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, t := range s.tokens {
		if t.ExpiresAt.Before(before) {
			delete(s.tokens, hash)
			n++
		}
	}
	return n, nil
}
