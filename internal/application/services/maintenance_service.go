package services

import (
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/user"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/caching/interfaces"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/pkg/config"
	"github.com/robfig/cron/v3"
)

// MaintenanceService runs the scheduled jobs: the nightly quota reset at
// UTC midnight and the hourly guest session sweep.
type MaintenanceService struct {
	views  user.ViewRepository
	access interfaces.AccessCache
	guests *GuestService
	logger *logging.ChanneledLogger
	cron   *cron.Cron
	now    func() time.Time
}

func NewMaintenanceService(views user.ViewRepository, access interfaces.AccessCache, guests *GuestService, logger *logging.ChanneledLogger) *MaintenanceService {
	return &MaintenanceService{
		views:  views,
		access: access,
		guests: guests,
		logger: logger,
		cron:   cron.New(cron.WithLocation(time.UTC)),
		now:    time.Now,
	}
}

// Start registers and launches the scheduled jobs.
func (s *MaintenanceService) Start() error {
	if _, err := s.cron.AddFunc(config.QuotaResetCronSpec, s.ResetDailyQuotas); err != nil {
		return err
	}

	sweepSpec := "@every " + config.GuestSweepInterval.String()
	if _, err := s.cron.AddFunc(sweepSpec, s.SweepGuests); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.System().Info("Maintenance jobs scheduled", "quotaReset", config.QuotaResetCronSpec, "guestSweep", sweepSpec)
	return nil
}

// Stop halts the scheduler, waiting for running jobs.
func (s *MaintenanceService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ResetDailyQuotas purges view rows from previous days and drops every
// cached access snapshot so remaining-view counts restart at the limit.
func (s *MaintenanceService) ResetDailyQuotas() {
	start := time.Now()
	today := user.DayKey(s.now().UTC())

	removed, err := s.views.PurgeBefore(today)
	if err != nil {
		s.logger.System().Error("Quota reset failed to purge views", "error", err.Error())
		return
	}
	s.access.InvalidateAllAccess()

	s.logger.System().Info("Daily quotas reset", "purgedViews", removed, "duration", time.Since(start))
}

// SweepGuests evicts expired guest sessions.
func (s *MaintenanceService) SweepGuests() {
	removed := s.guests.SweepExpired()
	if removed > 0 {
		s.logger.System().Info("Guest sweep complete", "removed", removed)
	}
}

// SetClock overrides wall-clock time for tests.
func (s *MaintenanceService) SetClock(now func() time.Time) { s.now = now }
