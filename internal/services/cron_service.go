package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService runs housekeeping jobs outside the request path
type CronService struct {
	cron       *cron.Cron
	pickups    *PickupTracker
	tokens     RefreshTokenStore
	sessionTTL time.Duration
	jobTimeout time.Duration
	clock      Clock
	logger     logrus.FieldLogger
}

// NewCronService creates a new CronService
func NewCronService(pickups *PickupTracker, tokens RefreshTokenStore, sessionTTL time.Duration, clock Clock, logger logrus.FieldLogger) *CronService {
	opts := []cron.Option{cron.WithSeconds()}
	if sc, ok := clock.(SystemClock); ok && sc.Location != nil {
		opts = append(opts, cron.WithLocation(sc.Location))
	}

	return &CronService{
		cron:       cron.New(opts...),
		pickups:    pickups,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		jobTimeout: 2 * time.Minute,
		clock:      clock,
		logger:     logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	// Cron format: second minute hour day month weekday
	if _, err := s.cron.AddFunc("0 15 * * * *", s.pruneSessionsJob); err != nil {
		return fmt.Errorf("failed to schedule pickup session prune job: %w", err)
	}
	s.logger.Info("Scheduled: prune idle pickup sessions (hourly at :15)")

	if _, err := s.cron.AddFunc("0 30 3 * * *", s.purgeTokensJob); err != nil {
		return fmt.Errorf("failed to schedule refresh token purge job: %w", err)
	}
	s.logger.Info("Scheduled: purge expired refresh tokens (daily at 3:30 AM)")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	<-s.cron.Stop().Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) pruneSessionsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	removed, err := s.pickups.PruneIdle(ctx, s.sessionTTL)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Failed to prune pickup sessions")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"removed":  removed,
		"duration": time.Since(start).String(),
	}).Info("[CRON] Pruned idle pickup sessions")
}

func (s *CronService) purgeTokensJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	purged, err := s.tokens.PurgeExpiredRefreshTokens(ctx, s.clock.Now())
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Failed to purge refresh tokens")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"purged":   purged,
		"duration": time.Since(start).String(),
	}).Info("[CRON] Purged expired refresh tokens")
}

// RunNow runs every job once, synchronously
func (s *CronService) RunNow() {
	s.pruneSessionsJob()
	s.purgeTokensJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
