package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/kidshuttle/shuttle-backend/internal/middleware"
	"github.com/kidshuttle/shuttle-backend/pkg/jwt"
)

// Handlers bundles every API handler
type Handlers struct {
	Auth      *AuthHandler
	Routes    *RouteHandler
	Students  *StudentHandler
	Bookings  *BookingHandler
	Manifests *ManifestHandler
	Stops     *StopHandler
	Admin     *AdminHandler
}

// RegisterRoutes mounts the API under v1
func RegisterRoutes(v1 *gin.RouterGroup, h Handlers, jwtService *jwt.Service, users middleware.UserLookup) {
	authenticated := middleware.AuthMiddleware(jwtService)
	approved := middleware.RequireApprovedAccount(users)

	// Authentication routes (public)
	auth := v1.Group("/auth")
	{
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", authenticated, h.Auth.GetProfile)
	}

	// Route catalogue (public)
	routes := v1.Group("/routes")
	{
		routes.GET("", h.Routes.ListRoutes)
		routes.GET("/:id", h.Routes.GetRoute)
		routes.GET("/:id/availability", h.Routes.GetAvailability)
	}

	// Parent routes
	parent := v1.Group("")
	parent.Use(authenticated, middleware.RequireParent(), approved)
	{
		parent.GET("/students", h.Students.ListStudents)
		parent.POST("/students", h.Students.CreateStudent)

		parent.GET("/bookings", h.Bookings.ListBookings)
		parent.POST("/bookings", h.Bookings.CreateBooking)
		parent.POST("/bookings/:id/cancel", h.Bookings.CancelBooking)
	}

	// Driver routes
	driver := v1.Group("/driver")
	driver.Use(authenticated, middleware.RequireDriver(), approved)
	{
		driver.GET("/assignments", h.Admin.GetAssignments)

		driver.POST("/manifest/open", h.Manifests.OpenManifest)
		driver.GET("/manifest", h.Manifests.GetManifest)
		driver.GET("/manifest.pdf", h.Manifests.GetManifestPDF)
		driver.POST("/manifest/pickups/:student_id/toggle", h.Manifests.TogglePickup)

		driver.GET("/stops", h.Stops.ListStops)
		driver.POST("/stops", h.Stops.CreateStop)
		driver.PUT("/stops/:id", h.Stops.UpdateStop)
		driver.DELETE("/stops/:id", h.Stops.DeleteStop)

		driver.GET("/parents/pending", h.Admin.GetPendingParents)
		driver.POST("/parents/:id/approve", h.Admin.ApproveParent)
		driver.POST("/parents/:id/reject", h.Admin.RejectParent)
	}
}
