package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kidshuttle/shuttle-backend/internal/memstore"
	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/internal/pickupstore"
	"github.com/kidshuttle/shuttle-backend/internal/report"
	"github.com/kidshuttle/shuttle-backend/internal/seed"
	"github.com/kidshuttle/shuttle-backend/internal/services"
	"github.com/kidshuttle/shuttle-backend/pkg/jwt"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time     { return c.now }
func (c fixedClock) Today() models.Date { return models.DateOf(c.now) }

type testServer struct {
	router      *gin.Engine
	store       *memstore.Store
	seed        *seed.Result
	jwt         *jwt.Service
	today       models.Date
	parentToken string
	driverToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	ctx := context.Background()

	// Tuesday
	clock := fixedClock{now: time.Date(2026, time.March, 10, 6, 30, 0, 0, time.UTC)}
	store := memstore.New()
	res, err := seed.Load(ctx, store, bcrypt.MinCost, clock.Today(), logger)
	require.NoError(t, err)

	jwtService := jwt.NewService("test-secret", "test-refresh-secret", time.Hour, 24*time.Hour)

	directory := services.NewStopDirectory(store, store)
	ledger := services.NewCapacityLedger(store, store, directory)
	tracker := services.NewPickupTracker(pickupstore.NewMemoryStore(), nil, logger)
	authService := services.NewAuthService(store, store, jwtService, bcrypt.MinCost, 24*time.Hour, clock, logger)

	h := Handlers{
		Auth:      NewAuthHandler(authService, logger),
		Routes:    NewRouteHandler(store, directory, ledger, clock, logger),
		Students:  NewStudentHandler(services.NewStudentService(store, clock, logger), logger),
		Bookings:  NewBookingHandler(services.NewBookingService(store, store, store, store, ledger, nil, nil, clock, logger), logger),
		Manifests: NewManifestHandler(services.NewManifestService(store, store, store, store, directory, tracker, report.NewManifestPDF(), logger), clock, logger),
		Stops:     NewStopHandler(services.NewStopAdminService(store, store, store, directory, clock, logger), logger),
		Admin:     NewAdminHandler(authService, store, logger),
	}

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), h, jwtService, store)

	s := &testServer{router: router, store: store, seed: res, jwt: jwtService, today: clock.Today()}
	s.parentToken = s.token(t, res.ParentID, "parent@demo.com", models.RoleParent)
	s.driverToken = s.token(t, res.DriverID, "driver@demo.com", models.RoleDriver)
	return s
}

func (s *testServer) token(t *testing.T, userID, email string, role models.UserRole) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken(userID, email, string(role))
	require.NoError(t, err)
	return token
}

// addParent creates a parent account with the given status and returns its token
func (s *testServer) addParent(t *testing.T, id string, status models.AccountStatus) string {
	t.Helper()
	hash, err := services.HashPassword("password123", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, s.store.CreateUser(context.Background(), &models.User{
		ID: id, Email: id + "@example.com", PasswordHash: hash, Name: id,
		Role: models.RoleParent, Status: status, IsActive: true, CreatedAt: time.Now(),
	}))
	return s.token(t, id, id+"@example.com", models.RoleParent)
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decode(t, w, &resp)
	return resp.Code
}
