package controllers

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
	"github.com/plexarr/plexarr/internal/models"
	"github.com/sirupsen/logrus"
)

// metadataClient is the slice of the TMDB client the resolver needs
type metadataClient interface {
	FindByIMDBID(ctx context.Context, imdbID string) (int, models.MediaType, error)
	SearchByTitle(ctx context.Context, title string, year int, mediaType models.MediaType) (int, error)
	WatchProviders(ctx context.Context, tmdbID int, mediaType models.MediaType, region string) ([]string, error)
}

// AvailabilityCache caches lookups by (tmdbID, region). The default is
// scoped to one run; a host may inject a persistent implementation.
type AvailabilityCache interface {
	Get(key string) (models.AvailabilityRecord, bool)
	Set(key string, rec models.AvailabilityRecord)
}

type runCache struct {
	c *gocache.Cache
}

// NewRunCache creates an in-process cache for a single run
func NewRunCache() AvailabilityCache {
	return &runCache{c: gocache.New(gocache.NoExpiration, gocache.NoExpiration)}
}

func (rc *runCache) Get(key string) (models.AvailabilityRecord, bool) {
	v, ok := rc.c.Get(key)
	if !ok {
		return models.AvailabilityRecord{}, false
	}
	return v.(models.AvailabilityRecord), true
}

func (rc *runCache) Set(key string, rec models.AvailabilityRecord) {
	rc.c.Set(key, rec, gocache.NoExpiration)
}

// Resolution is the result of one availability lookup
type Resolution struct {
	// Item carries the lazily resolved TMDB id when one was found
	Item      models.WatchlistItem
	Available bool
	Providers []string
}

// AvailabilityController determines whether an item is currently
// streamable on any subscribed provider
type AvailabilityController struct {
	client metadataClient
	logger *logrus.Logger
}

// NewAvailabilityController creates a new availability controller
func NewAvailabilityController(client metadataClient, logger *logrus.Logger) *AvailabilityController {
	return &AvailabilityController{client: client, logger: logger}
}

// Resolve looks up streaming availability for one item in the given region.
// An item whose TMDB id cannot be resolved is unknown availability and
// defaults to not available, so it is never silently dropped. Lookup
// failures after retries return an error wrapping ErrResolutionFailed.
func (c *AvailabilityController) Resolve(ctx context.Context, item models.WatchlistItem, region string, subscribed map[string]struct{}, cache AvailabilityCache) (Resolution, error) {
	resolved, err := c.resolveTMDBId(ctx, item)
	if err != nil {
		return Resolution{Item: item}, fmt.Errorf("%w: %v", models.ErrResolutionFailed, err)
	}
	if resolved.TMDBId == 0 {
		c.logger.WithFields(logrus.Fields{
			"title": item.Title,
			"year":  item.Year,
		}).Debug("No confident TMDB match, defaulting to not available")
		return Resolution{Item: item, Available: false}, nil
	}

	key := fmt.Sprintf("%d:%s", resolved.TMDBId, region)
	record, ok := cache.Get(key)
	if !ok {
		providers, err := c.client.WatchProviders(ctx, resolved.TMDBId, resolved.MediaType, region)
		if err != nil {
			return Resolution{Item: resolved}, fmt.Errorf("%w: %v", models.ErrResolutionFailed, err)
		}
		record = models.AvailabilityRecord{TMDBId: resolved.TMDBId, Region: region, Providers: providers}
		cache.Set(key, record)
	}

	matched, available := record.Available(subscribed)
	return Resolution{Item: resolved, Available: available, Providers: matched}, nil
}

// resolveTMDBId fills in the TMDB id when missing: by IMDB id first, then
// by title/year lookup. Returns the item unchanged with id 0 when no
// confident match exists.
func (c *AvailabilityController) resolveTMDBId(ctx context.Context, item models.WatchlistItem) (models.WatchlistItem, error) {
	if item.TMDBId != 0 {
		return item, nil
	}

	if len(item.SourceID) > 2 && item.SourceID[:2] == "tt" {
		id, mediaType, err := c.client.FindByIMDBID(ctx, item.SourceID)
		if err != nil {
			return item, err
		}
		if id != 0 {
			resolved := item.WithTMDBId(id)
			// The find endpoint is authoritative about the media type
			if mediaType != "" {
				resolved.MediaType = mediaType
			}
			return resolved, nil
		}
	}

	id, err := c.client.SearchByTitle(ctx, item.Title, item.Year, item.MediaType)
	if err != nil {
		return item, err
	}
	if id == 0 {
		return item, nil
	}
	return item.WithTMDBId(id), nil
}
