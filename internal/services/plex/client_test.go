package plex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/plexarr/plexarr/internal/models"
	"github.com/sirupsen/logrus"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	client, err := NewClient("test-token", logger)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	client.discoverURL = srv.URL
	client.metadataURL = srv.URL
	return client
}

func TestParseGUID(t *testing.T) {
	ids := ParseGUID("imdb://tt0133093")
	if ids["imdb"] != "tt0133093" {
		t.Errorf("expected imdb id, got %v", ids)
	}

	ids = ParseGUID("tmdb://603")
	if ids["tmdb"] != "603" {
		t.Errorf("expected tmdb id, got %v", ids)
	}

	if ids := ParseGUID("plex://movie/5d776825880197001ec90e2c"); len(ids) != 0 {
		t.Errorf("expected no external ids for plex guid, got %v", ids)
	}
}

func TestGetWatchlistPaginates(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Plex-Token"); got != "test-token" {
			t.Errorf("unexpected token header %q", got)
		}
		start, _ := strconv.Atoi(r.URL.Query().Get("X-Plex-Container-Start"))

		if start == 0 {
			fmt.Fprint(w, `{"MediaContainer":{"totalSize":3,"Metadata":[
				{"ratingKey":"r1","guid":"plex://movie/a","type":"movie","title":"Title A","year":2020,
				 "Guid":[{"id":"imdb://tt0000001"},{"id":"tmdb://11"}]},
				{"ratingKey":"r2","guid":"plex://show/b","type":"show","title":"Title B","year":2021,
				 "Guid":[{"id":"tmdb://22"}]}
			]}}`)
			return
		}
		fmt.Fprint(w, `{"MediaContainer":{"totalSize":3,"Metadata":[
			{"ratingKey":"r3","guid":"imdb://tt0000003","type":"movie","title":"Title C","year":2019}
		]}}`)
	}))

	items, err := client.GetWatchlist(context.Background())
	if err != nil {
		t.Fatalf("get watchlist failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items across pages, got %d", len(items))
	}
	if items[0].IMDBId != "tt0000001" || items[0].TMDBId != 11 {
		t.Errorf("unexpected ids on first item: %+v", items[0])
	}
	if items[1].MediaType != models.MediaTypeShow || items[1].TMDBId != 22 {
		t.Errorf("unexpected second item: %+v", items[1])
	}
	if items[2].IMDBId != "tt0000003" {
		t.Errorf("expected imdb id parsed from primary guid: %+v", items[2])
	}
}

func TestGetWatchlistUnauthorized(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.GetWatchlist(context.Background())
	if !errors.Is(err, models.ErrAuthFailed) {
		t.Errorf("expected ErrAuthFailed, got %v", err)
	}
}

func TestAddItemMatchesThenAdds(t *testing.T) {
	var addedKey string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/library/metadata/matches":
			if got := r.URL.Query().Get("guid"); got != "imdb://tt0133093" {
				t.Errorf("unexpected match guid %q", got)
			}
			if got := r.URL.Query().Get("type"); got != "1" {
				t.Errorf("unexpected match type %q", got)
			}
			fmt.Fprint(w, `{"MediaContainer":{"Metadata":[{"ratingKey":"key-603"}]}}`)
		case "/actions/addToWatchlist":
			if r.Method != http.MethodPut {
				t.Errorf("expected PUT, got %s", r.Method)
			}
			addedKey = r.URL.Query().Get("ratingKey")
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	item := models.WatchlistItem{Title: "The Matrix", Year: 1999, MediaType: models.MediaTypeMovie, SourceID: "tt0133093"}
	if err := client.AddItem(context.Background(), item); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if addedKey != "key-603" {
		t.Errorf("expected matched rating key used for add, got %q", addedKey)
	}
}

func TestAddItemNoMatchIsAddFailed(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"MediaContainer":{"Metadata":[]}}`)
	}))

	item := models.WatchlistItem{Title: "Obscure", MediaType: models.MediaTypeMovie, TMDBId: 99}
	err := client.AddItem(context.Background(), item)
	if !errors.Is(err, models.ErrAddFailed) {
		t.Errorf("expected ErrAddFailed, got %v", err)
	}
}

func TestAddItemWithoutIDs(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without an external id")
	}))

	item := models.WatchlistItem{Title: "Nothing To Match", MediaType: models.MediaTypeMovie}
	if err := client.AddItem(context.Background(), item); !errors.Is(err, models.ErrAddFailed) {
		t.Errorf("expected ErrAddFailed, got %v", err)
	}
}
