package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/kidshuttle/shuttle-backend/internal/config"
	"github.com/kidshuttle/shuttle-backend/internal/database"
	"github.com/kidshuttle/shuttle-backend/internal/models"
	"github.com/kidshuttle/shuttle-backend/internal/seed"
	"github.com/kidshuttle/shuttle-backend/internal/services"
)

// tables in dependency order
var tables = []string{
	"bookings",
	"early_release_days",
	"driver_assignments",
	"students",
	"stops",
	"routes",
	"refresh_tokens",
	"users",
}

func main() {
	var (
		dbURLFlag   string
		clear       bool
		bcryptCost  int
		earlyRelease string
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&clear, "clear", false, "truncate every table before seeding")
	flag.IntVar(&bcryptCost, "bcrypt-cost", 10, "bcrypt cost for the demo passwords")
	flag.StringVar(&earlyRelease, "early-release", "", "comma separated YYYY-MM-DD early release days to add")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx := context.Background()
	db, err := database.NewConnection(ctx, config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, logger); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	if clear {
		fmt.Println("Truncating tables...")
		truncateSQL := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
		if _, err := db.ExecContext(ctx, truncateSQL); err != nil {
			log.Fatalf("failed to truncate tables: %v", err)
		}
	}

	cfg := config.FromEnv()
	clock := services.SystemClock{Location: cfg.Location()}
	repos := database.NewRepositories(db)

	res, err := seed.Load(ctx, repos, bcryptCost, clock.Today(), logger)
	if err != nil {
		log.Fatalf("failed to seed demo data: %v", err)
	}

	for _, raw := range strings.Split(earlyRelease, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		day, err := models.ParseDate(raw)
		if err != nil {
			log.Fatalf("invalid early release day %q: %v", raw, err)
		}
		if err := repos.AddEarlyReleaseDay(ctx, day); err != nil {
			log.Fatalf("failed to add early release day: %v", err)
		}
		fmt.Printf("Early release day added: %s\n", day)
	}

	fmt.Println("Demo data loaded:")
	fmt.Printf("  parent: parent@demo.com / %s\n", seed.DemoPassword)
	fmt.Printf("  driver: driver@demo.com / %s\n", seed.DemoPassword)
	fmt.Printf("  frisco route: %s\n", res.FriscoRouteID)
	fmt.Printf("  dallas route: %s\n", res.DallasRouteID)

	fmt.Println("Row counts:")
	for _, t := range tables {
		var count int
		if err := db.GetContext(ctx, &count, fmt.Sprintf("SELECT COUNT(*) FROM %s", t)); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}
