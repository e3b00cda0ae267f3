// Package seed loads the demo routes, stops, accounts and bookings
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/internal/services"
)

// DemoPassword is the password of both demo accounts
const DemoPassword = "password123"

// Target is anything the demo data can be written into
type Target interface {
	CreateRoute(ctx context.Context, route *models.Route) error
	CreateStop(ctx context.Context, stop *models.Stop) error
	CreateUser(ctx context.Context, user *models.User) error
	CreateStudent(ctx context.Context, student *models.Student) error
	AddAssignment(ctx context.Context, a *models.DriverAssignment) error
	InsertIfAvailable(ctx context.Context, booking *models.Booking, capacity int) error
}

// Result lists the ids a caller may want to print or assert on
type Result struct {
	ParentID      string
	DriverID      string
	FriscoRouteID string
	DallasRouteID string
	StudentIDs    []string
	StopIDs       []string
}

type stopSeed struct {
	name, address                string
	morningOrder, afternoonOrder int
	times                        [6]string
}

// Load writes the demo data set. today is the date of the demo bookings.
func Load(ctx context.Context, target Target, bcryptCost int, today models.Date, logger logrus.FieldLogger) (*Result, error) {
	now := time.Now()
	res := &Result{}

	hash, err := services.HashPassword(DemoPassword, bcryptCost)
	if err != nil {
		return nil, err
	}

	parent := demoUser("parent@demo.com", "Sarah Johnson", "+12145550123", models.RoleParent, hash, now)
	driver := demoUser("driver@demo.com", "Mike Rodriguez", "+12145550456", models.RoleDriver, hash, now)
	for _, u := range []*models.User{parent, driver} {
		if err := target.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", u.Email, err)
		}
	}
	res.ParentID, res.DriverID = parent.ID, driver.ID
	logger.Info("Demo users created: parent@demo.com / driver@demo.com")

	var students []*models.Student
	for _, s := range []struct{ name, grade string }{{"Alex Johnson", "4th"}, {"Emma Davis", "6th"}} {
		st := &models.Student{ID: uuid.NewString(), ParentID: parent.ID, Name: s.name, Grade: s.grade, CreatedAt: now}
		if err := target.CreateStudent(ctx, st); err != nil {
			return nil, fmt.Errorf("failed to create student: %w", err)
		}
		students = append(students, st)
		res.StudentIDs = append(res.StudentIDs, st.ID)
	}

	frisco := &models.Route{ID: uuid.NewString(), Name: "Frisco Route", Area: "frisco", Capacity: models.DefaultRouteCapacity, CreatedAt: now, UpdatedAt: now}
	dallas := &models.Route{ID: uuid.NewString(), Name: "Dallas Route", Area: "dallas", Capacity: models.DefaultRouteCapacity, CreatedAt: now, UpdatedAt: now}
	for _, r := range []*models.Route{frisco, dallas} {
		if err := target.CreateRoute(ctx, r); err != nil {
			return nil, fmt.Errorf("failed to create route %s: %w", r.Name, err)
		}
	}
	res.FriscoRouteID, res.DallasRouteID = frisco.ID, dallas.ID

	friscoStops, err := createStops(ctx, target, frisco.ID, now, []stopSeed{
		{"Main Street Plaza", "123 Main St, Frisco, TX 75034", 1, 3, [6]string{"07:30", "15:45", "07:30", "14:45", "07:30", "13:45"}},
		{"Community Center", "456 Oak Ave, Frisco, TX 75035", 2, 2, [6]string{"07:45", "16:00", "07:45", "15:00", "07:45", "14:00"}},
		{"Soccer Academy", "789 Sports Dr, Frisco, TX 75033", 3, 1, [6]string{"08:00", "16:15", "08:00", "15:15", "08:00", "14:15"}},
	})
	if err != nil {
		return nil, err
	}
	if _, err := createStops(ctx, target, dallas.ID, now, []stopSeed{
		{"Downtown Station", "100 Commerce St, Dallas, TX 75202", 1, 3, [6]string{"07:15", "15:30", "07:15", "14:30", "07:15", "13:30"}},
		{"Park Plaza", "200 Elm St, Dallas, TX 75201", 2, 2, [6]string{"07:30", "15:45", "07:30", "14:45", "07:30", "13:45"}},
		{"Sports Complex", "300 Victory Ave, Dallas, TX 75219", 3, 1, [6]string{"07:45", "16:00", "07:45", "15:00", "07:45", "14:00"}},
	}); err != nil {
		return nil, err
	}
	for _, st := range friscoStops {
		res.StopIDs = append(res.StopIDs, st.ID)
	}
	logger.Info("Demo routes and stops created")

	if err := target.AddAssignment(ctx, &models.DriverAssignment{
		ID:        uuid.NewString(),
		DriverID:  driver.ID,
		RouteID:   frisco.ID,
		TimeSlot:  models.TimeSlotMorning,
		IsActive:  true,
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("failed to create driver assignment: %w", err)
	}

	demoBookings := []struct {
		student *models.Student
		stop    *models.Stop
		slot    models.TimeSlot
	}{
		{students[0], friscoStops[0], models.TimeSlotMorning},
		{students[1], friscoStops[1], models.TimeSlotMorning},
		{students[0], friscoStops[2], models.TimeSlotAfternoon},
	}
	for i, b := range demoBookings {
		booking := &models.Booking{
			ID:        uuid.NewString(),
			StudentID: b.student.ID,
			RouteID:   frisco.ID,
			StopID:    b.stop.ID,
			Date:      today,
			TimeSlot:  b.slot,
			Status:    models.BookingStatusConfirmed,
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		}
		if err := target.InsertIfAvailable(ctx, booking, frisco.Capacity); err != nil {
			return nil, fmt.Errorf("failed to create demo booking: %w", err)
		}
	}
	logger.WithField("date", today.String()).Info("Demo bookings created")

	return res, nil
}

func demoUser(email, name, phone string, role models.UserRole, hash string, now time.Time) *models.User {
	return &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Phone:        &phone,
		Role:         role,
		Status:       models.AccountStatusApproved,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func createStops(ctx context.Context, target Target, routeID string, now time.Time, seeds []stopSeed) ([]*models.Stop, error) {
	stops := make([]*models.Stop, 0, len(seeds))
	for _, s := range seeds {
		morning, afternoon := s.morningOrder, s.afternoonOrder
		t := s.times
		stop := &models.Stop{
			ID:                               uuid.NewString(),
			RouteID:                          routeID,
			Name:                             s.name,
			Address:                          s.address,
			MorningOrder:                     &morning,
			AfternoonOrder:                   &afternoon,
			MorningPickupTime:                &t[0],
			AfternoonDropoffTime:             &t[1],
			FridayMorningPickupTime:          &t[2],
			FridayAfternoonDropoffTime:       &t[3],
			EarlyReleaseMorningPickupTime:    &t[4],
			EarlyReleaseAfternoonDropoffTime: &t[5],
			CreatedAt:                        now,
			UpdatedAt:                        now,
		}
		if err := target.CreateStop(ctx, stop); err != nil {
			return nil, fmt.Errorf("failed to create stop %s: %w", s.name, err)
		}
		stops = append(stops, stop)
	}
	return stops, nil
}
