package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/config"
	"github.com/kidshuttle/shuttle-backend/internal/database"
	"github.com/kidshuttle/shuttle-backend/internal/events"
	"github.com/kidshuttle/shuttle-backend/internal/handlers"
	"github.com/kidshuttle/shuttle-backend/internal/memstore"
	"github.com/kidshuttle/shuttle-backend/internal/metrics"
	"github.com/kidshuttle/shuttle-backend/internal/middleware"
	"github.com/kidshuttle/shuttle-backend/internal/pickupstore"
	"github.com/kidshuttle/shuttle-backend/internal/report"
	"github.com/kidshuttle/shuttle-backend/internal/seed"
	"github.com/kidshuttle/shuttle-backend/internal/services"
	"github.com/kidshuttle/shuttle-backend/internal/utils"
	"github.com/kidshuttle/shuttle-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

// store is everything the services need from a persistence backend
type store interface {
	services.RouteStore
	services.StopStore
	services.StudentStore
	services.BookingStore
	services.AssignmentStore
	services.CalendarStore
	services.UserStore
	services.RefreshTokenStore
	seed.Target
}

// pinger reports backend health
type pinger interface {
	PingContext(ctx context.Context) error
}

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Kid Shuttle booking backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	ctx := context.Background()
	clock := services.SystemClock{Location: cfg.Location()}

	// Initialize persistence
	var (
		st     store
		health pinger
	)
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		mem := memstore.New()
		if cfg.Storage.SeedDemo {
			res, err := seed.Load(ctx, mem, cfg.Security.BcryptCost, clock.Today(), logger)
			if err != nil {
				logger.Fatalf("Failed to load demo data: %v", err)
			}
			logger.WithFields(logrus.Fields{
				"frisco_route_id": res.FriscoRouteID,
				"dallas_route_id": res.DallasRouteID,
			}).Info("Demo data loaded")
		}
		st = mem
		logger.Warn("Using in-memory storage; data is lost on restart")
	default:
		logger.Info("Connecting to database...")
		db, err := database.NewConnection(ctx, cfg.Database)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		logger.Info("Database connection established")

		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, db, logger); err != nil {
				logger.Fatalf("Failed to migrate database: %v", err)
			}
		}
		st = database.NewRepositories(db)
		health = db
	}

	// Metrics
	var collector *metrics.Collector
	var serviceMetrics services.Metrics
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		serviceMetrics = collector
	}

	// Pickup session store
	var pickups services.PickupStore
	switch cfg.Pickup.Store {
	case config.PickupStoreRedis:
		client, err := pickupstore.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		pickups = pickupstore.NewRedisStore(client, cfg.Pickup.SessionTTL)
		logger.Info("Pickup sessions stored in Redis")
	default:
		pickups = pickupstore.NewMemoryStore()
		logger.Info("Pickup sessions stored in memory")
	}

	// Booking events
	var publisher services.EventPublisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		var publisherMetrics events.PublisherMetrics
		if collector != nil {
			publisherMetrics = collector
		}
		natsPublisher, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, publisherMetrics, logger)
		if err != nil {
			logger.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		logger.Infof("Publishing booking events to %s", cfg.NATS.URL)
	} else {
		logger.Info("NATS_URL not set, booking events disabled")
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	directory := services.NewStopDirectory(st, st)
	ledger := services.NewCapacityLedger(st, st, directory)
	tracker := services.NewPickupTracker(pickups, serviceMetrics, logger)
	authService := services.NewAuthService(st, st, jwtService, cfg.Security.BcryptCost, cfg.JWT.RefreshTokenExpiry, clock, logger)
	studentService := services.NewStudentService(st, clock, logger)
	bookingService := services.NewBookingService(st, st, st, st, ledger, publisher, serviceMetrics, clock, logger)
	manifestService := services.NewManifestService(st, st, st, st, directory, tracker, report.NewManifestPDF(), logger)
	stopAdminService := services.NewStopAdminService(st, st, st, directory, clock, logger)

	cronService := services.NewCronService(tracker, st, cfg.Pickup.SessionTTL, clock, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("Cron service started")

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}
	if collector != nil {
		router.Use(collector.GinMiddleware())
	}

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(cfg.Storage.Driver, health))
	if collector != nil {
		router.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	v1 := router.Group("/api/v1")
	handlers.RegisterRoutes(v1, handlers.Handlers{
		Auth:      handlers.NewAuthHandler(authService, logger),
		Routes:    handlers.NewRouteHandler(st, directory, ledger, clock, logger),
		Students:  handlers.NewStudentHandler(studentService, logger),
		Bookings:  handlers.NewBookingHandler(bookingService, logger),
		Manifests: handlers.NewManifestHandler(manifestService, clock, logger),
		Stops:     handlers.NewStopHandler(stopAdminService, logger),
		Admin:     handlers.NewAdminHandler(authService, st, logger),
	}, jwtService, st)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	logger.Info("Stopping cron service...")
	cronService.Stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		client := utils.ClientFromRequest(c)
		fields := logrus.Fields{
			"status":      c.Writer.Status(),
			"method":      c.Request.Method,
			"path":        path,
			"query":       query,
			"ip":          client.IP,
			"device_type": client.DeviceType,
			"os":          client.OS,
			"latency_ms":  time.Since(start).Milliseconds(),
			"has_auth":    c.GetHeader("Authorization") != "",
		}
		if client.IsBot {
			fields["bot"] = true
		}

		// Add user context if available
		if user, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = user.UserID
			fields["role"] = user.Role
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint. db is nil for the memory store.
func healthCheckHandler(driver string, db pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "unhealthy",
					"storage":  driver,
					"database": "unhealthy",
					"error":    err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"storage":   driver,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
