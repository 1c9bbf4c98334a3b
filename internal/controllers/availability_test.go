package controllers

import (
	"context"
	"errors"
	"testing"

	"github.com/plexarr/plexarr/internal/models"
	"github.com/plexarr/plexarr/internal/utils"
)

// fakeMetadata stubs the TMDB client surface
type fakeMetadata struct {
	findID        int
	findType      models.MediaType
	findErr       error
	searchID      int
	searchErr     error
	providers     map[int][]string
	providerErr   error
	providerCalls int
}

func (f *fakeMetadata) FindByIMDBID(ctx context.Context, imdbID string) (int, models.MediaType, error) {
	return f.findID, f.findType, f.findErr
}

func (f *fakeMetadata) SearchByTitle(ctx context.Context, title string, year int, mediaType models.MediaType) (int, error) {
	return f.searchID, f.searchErr
}

func (f *fakeMetadata) WatchProviders(ctx context.Context, tmdbID int, mediaType models.MediaType, region string) ([]string, error) {
	f.providerCalls++
	if f.providerErr != nil {
		return nil, f.providerErr
	}
	return f.providers[tmdbID], nil
}

func subscribed(names ...string) map[string]struct{} {
	return utils.NormalizeProviderSet(names)
}

func TestResolveAvailableOnSubscribedProvider(t *testing.T) {
	meta := &fakeMetadata{providers: map[int][]string{603: {"Netflix"}}}
	c := NewAvailabilityController(meta, quietLogger())

	item := models.WatchlistItem{Title: "The Matrix", Year: 1999, MediaType: models.MediaTypeMovie, TMDBId: 603}
	res, err := c.Resolve(context.Background(), item, "US", subscribed("netflix"), NewRunCache())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !res.Available {
		t.Error("expected available=true for netflix/netflix")
	}

	res, err = c.Resolve(context.Background(), item, "US", subscribed("hulu"), NewRunCache())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.Available {
		t.Error("expected available=false for netflix/hulu")
	}
}

func TestResolveProviderAliasing(t *testing.T) {
	meta := &fakeMetadata{providers: map[int][]string{1: {"Apple TV+"}}}
	c := NewAvailabilityController(meta, quietLogger())

	item := models.WatchlistItem{Title: "Severance", Year: 2022, MediaType: models.MediaTypeShow, TMDBId: 1}
	res, err := c.Resolve(context.Background(), item, "US", subscribed("Apple TV Plus"), NewRunCache())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !res.Available {
		t.Error("expected alias forms of the same provider to match")
	}
}

func TestResolveUnresolvedIdConservativeDefault(t *testing.T) {
	meta := &fakeMetadata{findID: 0, searchID: 0}
	c := NewAvailabilityController(meta, quietLogger())

	item := models.WatchlistItem{Title: "Totally Obscure", Year: 1971, MediaType: models.MediaTypeMovie, SourceID: "tt7777777"}
	res, err := c.Resolve(context.Background(), item, "US", subscribed("netflix"), NewRunCache())
	if err != nil {
		t.Fatalf("unknown availability must not be an error: %v", err)
	}
	if res.Available {
		t.Error("unknown availability must default to not available")
	}
	if meta.providerCalls != 0 {
		t.Error("no provider lookup expected without a resolved id")
	}
}

func TestResolveLazyIdResolutionViaIMDB(t *testing.T) {
	meta := &fakeMetadata{findID: 603, findType: models.MediaTypeMovie, providers: map[int][]string{603: {"Netflix"}}}
	c := NewAvailabilityController(meta, quietLogger())

	item := models.WatchlistItem{Title: "The Matrix", Year: 1999, MediaType: models.MediaTypeMovie, SourceID: "tt0133093"}
	res, err := c.Resolve(context.Background(), item, "US", subscribed("netflix"), NewRunCache())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if res.Item.TMDBId != 603 {
		t.Errorf("expected lazily resolved id on returned item, got %d", res.Item.TMDBId)
	}
	if !res.Available {
		t.Error("expected available after lazy resolution")
	}
}

func TestResolveLookupFailureIsResolutionFailed(t *testing.T) {
	meta := &fakeMetadata{providerErr: errors.New("boom")}
	c := NewAvailabilityController(meta, quietLogger())

	item := models.WatchlistItem{Title: "X", Year: 2000, MediaType: models.MediaTypeMovie, TMDBId: 7}
	_, err := c.Resolve(context.Background(), item, "US", subscribed("netflix"), NewRunCache())
	if !errors.Is(err, models.ErrResolutionFailed) {
		t.Errorf("expected ErrResolutionFailed, got %v", err)
	}
}

func TestResolveCachesPerRunByIdAndRegion(t *testing.T) {
	meta := &fakeMetadata{providers: map[int][]string{603: {"Netflix"}}}
	c := NewAvailabilityController(meta, quietLogger())
	cache := NewRunCache()

	item := models.WatchlistItem{Title: "The Matrix", Year: 1999, MediaType: models.MediaTypeMovie, TMDBId: 603}
	for i := 0; i < 3; i++ {
		if _, err := c.Resolve(context.Background(), item, "US", subscribed("netflix"), cache); err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
	}
	if meta.providerCalls != 1 {
		t.Errorf("expected a single provider lookup with a shared cache, got %d", meta.providerCalls)
	}

	// A different region misses the cache
	if _, err := c.Resolve(context.Background(), item, "FR", subscribed("netflix"), cache); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if meta.providerCalls != 2 {
		t.Errorf("expected region to be part of the cache key, got %d calls", meta.providerCalls)
	}
}
