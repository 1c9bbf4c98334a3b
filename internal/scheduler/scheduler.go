package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/plexarr/plexarr/internal/config"
	"github.com/plexarr/plexarr/internal/controllers"
	"github.com/plexarr/plexarr/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// runTimeout bounds a single sync run end to end
const runTimeout = 30 * time.Minute

// Scheduler fires sync runs on a fixed interval. At most one run is active
// at any time: ticks and manual triggers that arrive while a run is in
// flight are dropped, never queued.
type Scheduler struct {
	cron     *cron.Cron
	cfg      *config.Config
	syncCtrl *controllers.SyncController
	logger   *logrus.Logger

	runMu sync.Mutex

	stateMu sync.RWMutex
	state   models.SchedulerState
}

// NewScheduler creates a new scheduler
func NewScheduler(cfg *config.Config, syncCtrl *controllers.SyncController, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		cfg:      cfg,
		syncCtrl: syncCtrl,
		logger:   logger,
		state:    models.StateIdle,
	}
}

// Start registers the sync job and starts the timer. The interval is read
// once at startup; changing it through the config API takes effect on the
// next restart.
func (s *Scheduler) Start() error {
	interval := s.cfg.Snapshot().SyncInterval
	s.logger.WithField("interval", interval).Info("Starting scheduler")

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if err := s.TriggerSync(); err != nil {
			s.logger.Warn("Skipping scheduled sync: previous run still in progress")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add sync job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	// Run initial sync immediately
	go func() {
		if err := s.TriggerSync(); err != nil {
			s.logger.WithError(err).Warn("Initial sync not started")
		}
	}()

	return nil
}

// Stop stops the timer. A run already in flight finishes on its own.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// State reports whether a sync run is currently active
func (s *Scheduler) State() models.SchedulerState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// TriggerSync starts a sync run in the background. Returns
// models.ErrAlreadyRunning if one is already in flight.
func (s *Scheduler) TriggerSync() error {
	if !s.runMu.TryLock() {
		return models.ErrAlreadyRunning
	}

	s.setState(models.StateRunning)
	go func() {
		defer s.runMu.Unlock()
		defer s.setState(models.StateIdle)
		s.runSync()
	}()

	return nil
}

// RunSyncBlocking executes a sync run on the caller's goroutine. Used by
// tests and one-shot invocations.
func (s *Scheduler) RunSyncBlocking(ctx context.Context) (*models.SyncRun, error) {
	if !s.runMu.TryLock() {
		return nil, models.ErrAlreadyRunning
	}
	defer s.runMu.Unlock()

	s.setState(models.StateRunning)
	defer s.setState(models.StateIdle)

	return s.syncCtrl.Run(ctx, s.cfg.Snapshot())
}

func (s *Scheduler) runSync() {
	s.logger.Info("Running sync")

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	// Settings are snapshotted once per run: config changes made while the
	// run is in flight apply to the next run only.
	settings := s.cfg.Snapshot()

	if _, err := s.syncCtrl.Run(ctx, settings); err != nil {
		s.logger.WithError(err).Error("Sync run failed")
		return
	}
	s.logger.Info("Sync run completed")
}

func (s *Scheduler) setState(state models.SchedulerState) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}
