package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/plexarr/plexarr/internal/config"
	"github.com/plexarr/plexarr/internal/models"
	"github.com/plexarr/plexarr/internal/services/plex"
	"github.com/plexarr/plexarr/internal/sources"
	"github.com/sirupsen/logrus"
)

// targetClient is the slice of the Plex client a sync run needs
type targetClient interface {
	GetWatchlist(ctx context.Context) ([]plex.WatchlistItem, error)
	AddItem(ctx context.Context, item models.WatchlistItem) error
}

// runStore persists finalized runs
type runStore interface {
	SaveRun(run *models.SyncRun) error
}

// SyncController executes one synchronization run end to end
type SyncController struct {
	sources      *sources.Registry
	availability *AvailabilityController
	reconciler   *Reconciler
	target       targetClient
	store        runStore
	logger       *logrus.Logger
}

// NewSyncController creates a new sync controller
func NewSyncController(
	reg *sources.Registry,
	availability *AvailabilityController,
	reconciler *Reconciler,
	target targetClient,
	store runStore,
	logger *logrus.Logger,
) *SyncController {
	return &SyncController{
		sources:      reg,
		availability: availability,
		reconciler:   reconciler,
		target:       target,
		store:        store,
		logger:       logger,
	}
}

// Run executes one sync against the given configuration snapshot. The
// returned SyncRun is always finalized and persisted; the error is non-nil
// only when the run aborted before reconciliation.
func (c *SyncController) Run(ctx context.Context, settings config.SyncSettings) (*models.SyncRun, error) {
	run := &models.SyncRun{
		StartedAt:  time.Now(),
		SourceType: settings.SourceType,
	}

	c.logger.WithFields(logrus.Fields{
		"source": settings.SourceType,
		"region": settings.Region,
	}).Info("Starting sync run")

	candidates, err := c.fetchCandidates(ctx, settings)
	if err != nil {
		return c.abort(run, err)
	}
	run.ItemsConsidered = len(candidates)

	// The target list is always fetched fresh so concurrent external
	// changes cannot cause double-adds
	current, err := c.target.GetWatchlist(ctx)
	if err != nil {
		return c.abort(run, err)
	}

	result := c.reconciler.Reconcile(candidates, current)

	subscribed := settings.SubscribedSet()
	cache := NewRunCache()

	for _, item := range result.ToAdd {
		if err := ctx.Err(); err != nil {
			run.AddError(item, "run cancelled: "+err.Error())
			continue
		}

		resolution, err := c.availability.Resolve(ctx, item, settings.Region, subscribed, cache)
		if err != nil {
			// Conservative default: the lookup failed, record it and still
			// offer the item for adding rather than dropping it
			c.logger.WithError(err).WithField("title", item.Title).Warn("Availability lookup failed")
			run.AddError(item, err.Error())
			resolution = Resolution{Item: item, Available: false}
		}

		if resolution.Available {
			run.ItemsSkippedAvailable++
			c.logger.WithFields(logrus.Fields{
				"title":     item.Title,
				"providers": resolution.Providers,
			}).Info("Skipping item available on subscribed provider")
			continue
		}

		if err := c.target.AddItem(ctx, resolution.Item); err != nil {
			c.logger.WithError(err).WithField("title", item.Title).Error("Failed to add item")
			run.AddError(item, err.Error())
			continue
		}
		run.ItemsAdded = append(run.ItemsAdded, resolution.Item)
	}

	c.finalize(run)
	return run, nil
}

// fetchCandidates fetches and normalizes the source list. Any failure here
// aborts the run: there is nothing to reconcile without a source list.
func (c *SyncController) fetchCandidates(ctx context.Context, settings config.SyncSettings) ([]models.WatchlistItem, error) {
	adapter, err := c.sources.ForType(settings.SourceType)
	if err != nil {
		return nil, err
	}
	return adapter.Fetch(ctx, settings)
}

func (c *SyncController) abort(run *models.SyncRun, err error) (*models.SyncRun, error) {
	run.Aborted = true
	run.AbortReason = err.Error()

	switch {
	case errors.Is(err, models.ErrConfigInvalid):
		c.logger.WithError(err).Error("Sync aborted: configuration invalid")
	case errors.Is(err, models.ErrAuthFailed):
		c.logger.WithError(err).Error("Sync aborted: authentication failed, please re-authenticate")
	default:
		c.logger.WithError(err).Error("Sync aborted: source unavailable")
	}

	c.finalize(run)
	return run, err
}

func (c *SyncController) finalize(run *models.SyncRun) {
	run.FinishedAt = time.Now()

	if err := c.store.SaveRun(run); err != nil {
		c.logger.WithError(err).Error("Failed to persist sync run")
	}

	c.logger.WithFields(logrus.Fields{
		"source":    run.SourceType,
		"processed": run.ItemsConsidered,
		"added":     len(run.ItemsAdded),
		"skipped":   run.ItemsSkippedAvailable,
		"errors":    len(run.Errors),
		"duration":  run.Duration().Round(time.Millisecond).String(),
	}).Info("Sync run finished")
}
