package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/plexarr/plexarr/internal/models"
	"github.com/plexarr/plexarr/internal/utils"
)

// matchConfidenceFloor is the maximum normalized-title edit distance still
// considered a confident match
const matchConfidenceFloor = 2

// FindByIMDBID resolves a TMDB id and media type from an IMDB id
func (c *Client) FindByIMDBID(ctx context.Context, imdbID string) (int, models.MediaType, error) {
	params := url.Values{}
	params.Set("external_source", "imdb_id")

	var resp struct {
		MovieResults []struct {
			ID int `json:"id"`
		} `json:"movie_results"`
		TVResults []struct {
			ID int `json:"id"`
		} `json:"tv_results"`
	}

	if err := c.get(ctx, "/find/"+url.PathEscape(imdbID), params, "", &resp); err != nil {
		return 0, "", fmt.Errorf("failed to find by IMDB id %s: %w", imdbID, err)
	}

	if len(resp.MovieResults) > 0 {
		return resp.MovieResults[0].ID, models.MediaTypeMovie, nil
	}
	if len(resp.TVResults) > 0 {
		return resp.TVResults[0].ID, models.MediaTypeShow, nil
	}
	return 0, "", nil
}

type searchResult struct {
	ID    int
	Title string
	Year  int
}

// SearchByTitle resolves a TMDB id from title, year and media type. Returns
// 0 when no confident unambiguous match exists: ties between equally good
// candidates are treated as unresolved rather than guessed.
func (c *Client) SearchByTitle(ctx context.Context, title string, year int, mediaType models.MediaType) (int, error) {
	path := "/search/movie"
	if mediaType == models.MediaTypeShow {
		path = "/search/tv"
	}

	params := url.Values{}
	params.Set("query", title)
	if year > 0 {
		if mediaType == models.MediaTypeShow {
			params.Set("first_air_date_year", strconv.Itoa(year))
		} else {
			params.Set("year", strconv.Itoa(year))
		}
	}

	var resp struct {
		Results []struct {
			ID           int    `json:"id"`
			Title        string `json:"title"`
			Name         string `json:"name"`
			ReleaseDate  string `json:"release_date"`
			FirstAirDate string `json:"first_air_date"`
		} `json:"results"`
	}

	if err := c.get(ctx, path, params, "", &resp); err != nil {
		return 0, fmt.Errorf("failed to search %s %q: %w", mediaType, title, err)
	}

	want := utils.NormalizeTitle(title)
	best, runnerUp := -1, -1
	var bestResult searchResult

	for _, r := range resp.Results {
		candidate := searchResult{ID: r.ID, Title: r.Title, Year: parseYear(r.ReleaseDate)}
		if mediaType == models.MediaTypeShow {
			candidate.Title = r.Name
			candidate.Year = parseYear(r.FirstAirDate)
		}

		score := levenshtein.ComputeDistance(want, utils.NormalizeTitle(candidate.Title))
		if year > 0 && candidate.Year != 0 && candidate.Year != year {
			score += 3
		}

		switch {
		case best < 0 || score < best:
			runnerUp = best
			best = score
			bestResult = candidate
		case runnerUp < 0 || score < runnerUp:
			runnerUp = score
		}
	}

	if best < 0 || best > matchConfidenceFloor {
		return 0, nil
	}
	// A tie between distinct candidates is ambiguous
	if runnerUp >= 0 && runnerUp == best {
		c.logger.WithField("title", title).Debug("Ambiguous TMDB title match, leaving unresolved")
		return 0, nil
	}

	return bestResult.ID, nil
}

func parseYear(date string) int {
	if idx := strings.IndexByte(date, '-'); idx > 0 {
		date = date[:idx]
	}
	year, err := strconv.Atoi(date)
	if err != nil {
		return 0
	}
	return year
}
