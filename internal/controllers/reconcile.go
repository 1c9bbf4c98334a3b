package controllers

import (
	"fmt"
	"strings"

	"github.com/plexarr/plexarr/internal/models"
	"github.com/plexarr/plexarr/internal/services/plex"
	"github.com/sirupsen/logrus"
)

// ReconcileResult is the set difference between source candidates and the
// target watchlist
type ReconcileResult struct {
	// ToAdd preserves the source order of the candidates
	ToAdd          []models.WatchlistItem
	AlreadyPresent []models.WatchlistItem
}

// Reconciler computes which candidate items are missing from the target
// watchlist
type Reconciler struct {
	logger *logrus.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(logger *logrus.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Reconcile matches candidates against the current target items. Identity
// prefers the TMDB id, then the IMDB id (feed entries carry it as SourceID,
// Plex entries from their GUIDs), then normalized (title, year, mediaType)
// where a missing year on either side matches any year. An item already
// present is never re-added, whatever its availability.
func (r *Reconciler) Reconcile(candidates []models.WatchlistItem, current []plex.WatchlistItem) ReconcileResult {
	present := indexTarget(current)

	var result ReconcileResult
	seen := make(map[string]struct{}, 2*len(candidates))

	for _, candidate := range candidates {
		// Dedupe candidates within the run, keeping the first occurrence
		key := candidate.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		seen[candidate.TitleKey()] = struct{}{}

		if present.has(candidate) {
			result.AlreadyPresent = append(result.AlreadyPresent, candidate)
			continue
		}
		result.ToAdd = append(result.ToAdd, candidate)
	}

	r.logger.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"missing":    len(result.ToAdd),
		"present":    len(result.AlreadyPresent),
	}).Debug("Reconciled against target watchlist")

	return result
}

// targetIndex holds the identity keys of the current target watchlist
type targetIndex struct {
	exact   map[string]struct{} // tmdb id, imdb id and exact title keys
	anyYear map[string]struct{} // year-less title keys of every entry
	noYear  map[string]struct{} // year-less title keys of entries without a year
}

func indexTarget(current []plex.WatchlistItem) *targetIndex {
	idx := &targetIndex{
		exact:   make(map[string]struct{}, 3*len(current)),
		anyYear: make(map[string]struct{}, len(current)),
		noYear:  make(map[string]struct{}),
	}
	for _, t := range current {
		if t.TMDBId != 0 {
			idx.exact[fmt.Sprintf("tmdb:%d", t.TMDBId)] = struct{}{}
		}
		if t.IMDBId != "" {
			idx.exact["imdb:"+t.IMDBId] = struct{}{}
		}

		entry := models.WatchlistItem{Title: t.Title, Year: t.Year, MediaType: t.MediaType}
		idx.exact[entry.TitleKey()] = struct{}{}

		yearless := models.WatchlistItem{Title: t.Title, MediaType: t.MediaType}.TitleKey()
		idx.anyYear[yearless] = struct{}{}
		if t.Year == 0 {
			idx.noYear[yearless] = struct{}{}
		}
	}
	return idx
}

func (idx *targetIndex) has(candidate models.WatchlistItem) bool {
	if candidate.TMDBId != 0 {
		if _, ok := idx.exact[fmt.Sprintf("tmdb:%d", candidate.TMDBId)]; ok {
			return true
		}
	}
	if strings.HasPrefix(candidate.SourceID, "tt") {
		if _, ok := idx.exact["imdb:"+candidate.SourceID]; ok {
			return true
		}
	}
	if _, ok := idx.exact[candidate.TitleKey()]; ok {
		return true
	}

	// A candidate without a year (RSS feed entries) matches any year on the
	// target; a candidate with a year still matches a year-less target entry.
	// Two entries carrying different years stay distinct.
	yearless := models.WatchlistItem{Title: candidate.Title, MediaType: candidate.MediaType}.TitleKey()
	if candidate.Year == 0 {
		_, ok := idx.anyYear[yearless]
		return ok
	}
	_, ok := idx.noYear[yearless]
	return ok
}
