package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/plexarr/plexarr/internal/config"
	"github.com/plexarr/plexarr/internal/controllers"
	"github.com/plexarr/plexarr/internal/models"
	"github.com/plexarr/plexarr/internal/services/plex"
	"github.com/plexarr/plexarr/internal/sources"
	"github.com/sirupsen/logrus"
)

// blockingAdapter holds a fetch open until released, and records the
// settings each run was given
type blockingAdapter struct {
	release  chan struct{}
	settings []config.SyncSettings
}

func (a *blockingAdapter) Type() models.SourceType { return models.SourceIMDB }

func (a *blockingAdapter) Fetch(ctx context.Context, settings config.SyncSettings) ([]models.WatchlistItem, error) {
	a.settings = append(a.settings, settings)
	if a.release != nil {
		<-a.release
	}
	return nil, nil
}

type noopTarget struct{}

func (noopTarget) GetWatchlist(ctx context.Context) ([]plex.WatchlistItem, error) { return nil, nil }

func (noopTarget) AddItem(ctx context.Context, item models.WatchlistItem) error { return nil }

type notifyStore struct {
	done chan struct{}
}

func (s *notifyStore) SaveRun(run *models.SyncRun) error {
	s.done <- struct{}{}
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	err := cfg.UpdateSync(config.SyncSettings{
		SourceType:   models.SourceIMDB,
		IMDBListURL:  "https://www.imdb.com/list/ls000000000/",
		Region:       "US",
		SyncInterval: 6 * time.Hour,
	})
	if err != nil {
		t.Fatalf("settings rejected: %v", err)
	}
	return cfg
}

func newTestScheduler(t *testing.T, adapter *blockingAdapter, store *notifyStore) *Scheduler {
	t.Helper()
	logger := quietLogger()
	syncCtrl := controllers.NewSyncController(
		sources.NewRegistry(adapter),
		controllers.NewAvailabilityController(nil, logger),
		controllers.NewReconciler(logger),
		noopTarget{},
		store,
		logger,
	)
	return NewScheduler(testConfig(t), syncCtrl, logger)
}

func TestTriggerSyncSingleFlight(t *testing.T) {
	adapter := &blockingAdapter{release: make(chan struct{})}
	store := &notifyStore{done: make(chan struct{}, 1)}
	s := newTestScheduler(t, adapter, store)

	if err := s.TriggerSync(); err != nil {
		t.Fatalf("first trigger must start a run: %v", err)
	}
	if got := s.State(); got != models.StateRunning {
		t.Errorf("expected state running, got %q", got)
	}

	if err := s.TriggerSync(); !errors.Is(err, models.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	close(adapter.release)
	select {
	case <-store.done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}

	// Dropped triggers are not queued: exactly one run happened
	if len(adapter.settings) != 1 {
		t.Errorf("expected 1 run, got %d", len(adapter.settings))
	}
}

func TestTriggerSyncIdleAfterRun(t *testing.T) {
	adapter := &blockingAdapter{}
	store := &notifyStore{done: make(chan struct{}, 1)}
	s := newTestScheduler(t, adapter, store)

	if err := s.TriggerSync(); err != nil {
		t.Fatalf("trigger failed: %v", err)
	}
	select {
	case <-store.done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}

	// The lock is released after the run; the next trigger must succeed
	deadline := time.Now().Add(5 * time.Second)
	for {
		if err := s.TriggerSync(); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("scheduler never returned to idle")
		}
		time.Sleep(10 * time.Millisecond)
	}
	<-store.done
}

func TestRunUsesSettingsSnapshot(t *testing.T) {
	adapter := &blockingAdapter{}
	store := &notifyStore{done: make(chan struct{}, 1)}
	s := newTestScheduler(t, adapter, store)

	run, err := s.RunSyncBlocking(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	<-store.done
	if run.Aborted {
		t.Fatalf("run aborted: %s", run.AbortReason)
	}

	// Change the region between runs; the next run sees the new value
	settings := s.cfg.Snapshot()
	settings.Region = "FR"
	if err := s.cfg.UpdateSync(settings); err != nil {
		t.Fatalf("update rejected: %v", err)
	}

	if _, err := s.RunSyncBlocking(context.Background()); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	<-store.done

	if len(adapter.settings) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(adapter.settings))
	}
	if adapter.settings[0].Region != "US" || adapter.settings[1].Region != "FR" {
		t.Errorf("settings not snapshotted per run: %+v", adapter.settings)
	}
}
