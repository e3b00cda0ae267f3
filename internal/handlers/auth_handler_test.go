package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidshuttle/shuttle-backend/internal/models"
)

func TestSignupLoginApprovalFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{
		"email": "new@example.com", "password": "secret123", "name": "New Parent", "phone": "2145550199",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var signup struct {
		User models.User `json:"user"`
	}
	decode(t, w, &signup)
	assert.Equal(t, models.AccountStatusPending, signup.User.Status)
	assert.NotContains(t, w.Body.String(), "password_hash")

	// Duplicate email
	w = s.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"email": "new@example.com", "password": "secret123", "name": "Again"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Pending parents cannot log in yet
	login := gin.H{"email": "new@example.com", "password": "secret123"}
	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", login)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCOUNT_PENDING", errorCode(t, w))

	// Driver sees and approves the request
	w = s.do(t, http.MethodGet, "/api/v1/driver/parents/pending", s.driverToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending struct {
		Parents []models.User `json:"parents"`
		Total   int           `json:"total"`
	}
	decode(t, w, &pending)
	require.Equal(t, 1, pending.Total)

	w = s.do(t, http.MethodPost, "/api/v1/driver/parents/"+signup.User.ID+"/approve", s.driverToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/driver/parents/"+signup.User.ID+"/approve", s.driverToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", login)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pair models.TokenPair
	decode(t, w, &pair)
	assert.NotEmpty(t, pair.AccessToken)

	w = s.do(t, http.MethodGet, "/api/v1/auth/me", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	decode(t, w, &me)
	assert.Equal(t, "new@example.com", me.Email)

	w = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": pair.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/logout", "", gin.H{"refresh_token": pair.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", errorCode(t, w))
}

func TestLogin_BadRequests(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "parent@demo.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "parent@demo.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "parent@demo.com", "password": "password123"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRejectedParentLosesAccess(t *testing.T) {
	s := newTestServer(t)
	token := s.addParent(t, "late", models.AccountStatusPending)

	// A token minted before review is refused while pending
	w := s.do(t, http.MethodGet, "/api/v1/students", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/driver/parents/late/reject", s.driverToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/students", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ACCOUNT_NOT_APPROVED")
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/bookings", s.driverToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/driver/manifest", s.parentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
