package controllers

import (
	"testing"

	"github.com/plexarr/plexarr/internal/models"
	"github.com/plexarr/plexarr/internal/services/plex"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestReconcileMatchesByTMDBId(t *testing.T) {
	r := NewReconciler(quietLogger())

	candidates := []models.WatchlistItem{
		{Title: "Renamed On Source", Year: 1999, MediaType: models.MediaTypeMovie, TMDBId: 603},
	}
	current := []plex.WatchlistItem{
		{Title: "The Matrix", Year: 1999, MediaType: models.MediaTypeMovie, TMDBId: 603},
	}

	result := r.Reconcile(candidates, current)
	if len(result.ToAdd) != 0 || len(result.AlreadyPresent) != 1 {
		t.Errorf("expected TMDB id match, got toAdd=%d present=%d", len(result.ToAdd), len(result.AlreadyPresent))
	}
}

func TestReconcileFallsBackToTitleYearType(t *testing.T) {
	r := NewReconciler(quietLogger())

	candidates := []models.WatchlistItem{
		{Title: "  the MATRIX ", Year: 1999, MediaType: models.MediaTypeMovie},
		{Title: "The Matrix", Year: 1999, MediaType: models.MediaTypeShow},
	}
	current := []plex.WatchlistItem{
		{Title: "The Matrix", Year: 1999, MediaType: models.MediaTypeMovie},
	}

	result := r.Reconcile(candidates, current)
	if len(result.AlreadyPresent) != 1 {
		t.Fatalf("expected normalized title match, got %d present", len(result.AlreadyPresent))
	}
	if len(result.ToAdd) != 1 || result.ToAdd[0].MediaType != models.MediaTypeShow {
		t.Errorf("show with same title must not match the movie: %+v", result.ToAdd)
	}
}

func TestReconcilePreservesSourceOrder(t *testing.T) {
	r := NewReconciler(quietLogger())

	candidates := []models.WatchlistItem{
		{Title: "C", Year: 2003, MediaType: models.MediaTypeMovie},
		{Title: "A", Year: 2001, MediaType: models.MediaTypeMovie},
		{Title: "B", Year: 2002, MediaType: models.MediaTypeMovie},
	}

	result := r.Reconcile(candidates, nil)
	if len(result.ToAdd) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.ToAdd))
	}
	for i, want := range []string{"C", "A", "B"} {
		if result.ToAdd[i].Title != want {
			t.Errorf("position %d: expected %s, got %s", i, want, result.ToAdd[i].Title)
		}
	}
}

func TestReconcileDedupesCandidates(t *testing.T) {
	r := NewReconciler(quietLogger())

	candidates := []models.WatchlistItem{
		{Title: "Heat", Year: 1995, MediaType: models.MediaTypeMovie, TMDBId: 949},
		{Title: "Heat", Year: 1995, MediaType: models.MediaTypeMovie, TMDBId: 949},
	}

	result := r.Reconcile(candidates, nil)
	if len(result.ToAdd) != 1 {
		t.Errorf("expected duplicate candidate collapsed, got %d", len(result.ToAdd))
	}
}

func TestReconcileMatchesByIMDBId(t *testing.T) {
	r := NewReconciler(quietLogger())

	// RSS feed entries carry no year and no TMDB id, only the tt id; the
	// Plex entry was enriched on a prior run
	candidates := []models.WatchlistItem{
		{Title: "The Matrix", MediaType: models.MediaTypeMovie, SourceID: "tt0133093"},
	}
	current := []plex.WatchlistItem{
		{Title: "The Matrix", Year: 1999, MediaType: models.MediaTypeMovie, IMDBId: "tt0133093", TMDBId: 603},
	}

	result := r.Reconcile(candidates, current)
	if len(result.ToAdd) != 0 {
		t.Errorf("item already on the target watchlist must not be re-added: %+v", result.ToAdd)
	}
	if len(result.AlreadyPresent) != 1 {
		t.Errorf("expected IMDB id match, got %d present", len(result.AlreadyPresent))
	}
}

func TestReconcileYearlessCandidateMatchesByTitle(t *testing.T) {
	r := NewReconciler(quietLogger())

	candidates := []models.WatchlistItem{
		{Title: "Heat", MediaType: models.MediaTypeMovie},
	}
	current := []plex.WatchlistItem{
		{Title: "Heat", Year: 1995, MediaType: models.MediaTypeMovie},
	}

	result := r.Reconcile(candidates, current)
	if len(result.ToAdd) != 0 || len(result.AlreadyPresent) != 1 {
		t.Errorf("year-less candidate must match the yeared entry, got toAdd=%d present=%d",
			len(result.ToAdd), len(result.AlreadyPresent))
	}
}

func TestReconcileDistinctYearsStayDistinct(t *testing.T) {
	r := NewReconciler(quietLogger())

	candidates := []models.WatchlistItem{
		{Title: "Dune", Year: 2021, MediaType: models.MediaTypeMovie},
	}
	current := []plex.WatchlistItem{
		{Title: "Dune", Year: 1984, MediaType: models.MediaTypeMovie},
	}

	result := r.Reconcile(candidates, current)
	if len(result.ToAdd) != 1 {
		t.Errorf("a remake with its own year is a different item, got toAdd=%d", len(result.ToAdd))
	}
}

func TestReconcileIdempotence(t *testing.T) {
	r := NewReconciler(quietLogger())

	// Feed entries without years: Plex fills in the year and GUIDs once added
	candidates := []models.WatchlistItem{
		{Title: "Title A", MediaType: models.MediaTypeMovie, SourceID: "tt0000001"},
		{Title: "Title B", MediaType: models.MediaTypeShow, SourceID: "tt0000002"},
	}

	first := r.Reconcile(candidates, nil)
	if len(first.ToAdd) != 2 {
		t.Fatalf("first pass should add both, got %d", len(first.ToAdd))
	}

	// Simulate the target after the first pass added everything
	current := make([]plex.WatchlistItem, 0, len(first.ToAdd))
	for i, item := range first.ToAdd {
		current = append(current, plex.WatchlistItem{
			Title:     item.Title,
			Year:      2020 + i,
			MediaType: item.MediaType,
			IMDBId:    item.SourceID,
		})
	}

	second := r.Reconcile(candidates, current)
	if len(second.ToAdd) != 0 {
		t.Errorf("second pass against unchanged source should add nothing, got %d", len(second.ToAdd))
	}
	if len(second.AlreadyPresent) != 2 {
		t.Errorf("expected both items present on second pass, got %d", len(second.AlreadyPresent))
	}
}
