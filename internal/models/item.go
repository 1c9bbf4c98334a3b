package models

import (
	"fmt"

	"github.com/plexarr/plexarr/internal/utils"
)

// WatchlistItem is the canonical representation of a title from any source.
// Immutable once created within a sync run.
type WatchlistItem struct {
	Title     string
	MediaType MediaType
	Year      int    // 0 when unknown
	SourceID  string // source-specific identifier (e.g. "tt0133093")
	TMDBId    int    // 0 until resolved
}

// Key returns the deduplication identity for the item: the TMDB id when
// resolved, otherwise normalized (title, year, mediaType).
func (i WatchlistItem) Key() string {
	if i.TMDBId != 0 {
		return fmt.Sprintf("tmdb:%d", i.TMDBId)
	}
	return i.TitleKey()
}

// TitleKey returns the fallback identity from normalized title, year and
// media type, regardless of whether a TMDB id is resolved.
func (i WatchlistItem) TitleKey() string {
	return fmt.Sprintf("%s:%d:%s", utils.NormalizeTitle(i.Title), i.Year, i.MediaType)
}

// WithTMDBId returns a copy of the item with the resolved TMDB id set.
func (i WatchlistItem) WithTMDBId(id int) WatchlistItem {
	i.TMDBId = id
	return i
}

// AvailabilityRecord is one cached provider-availability lookup result.
type AvailabilityRecord struct {
	TMDBId    int
	Region    string
	Providers []string
}

// Available reports whether any returned provider intersects the given
// normalized subscribed-provider set.
func (r AvailabilityRecord) Available(subscribed map[string]struct{}) ([]string, bool) {
	var matched []string
	for _, p := range r.Providers {
		if _, ok := subscribed[utils.NormalizeProvider(p)]; ok {
			matched = append(matched, p)
		}
	}
	return matched, len(matched) > 0
}
