package models

// MediaType represents the type of media (movie or tv show)
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeShow  MediaType = "show"
)

// SourceType identifies which external watchlist source feeds a sync run
type SourceType string

const (
	SourceIMDB          SourceType = "imdb"
	SourceTMDBList      SourceType = "tmdb_list"
	SourceTMDBWatchlist SourceType = "tmdb_watchlist"
	SourceTrakt         SourceType = "trakt"
)

// Service identifies a credentialed external service
type Service string

const (
	ServiceTMDB  Service = "tmdb"
	ServiceTrakt Service = "trakt"
)

// SchedulerState represents the scheduler's current state
type SchedulerState string

const (
	StateIdle    SchedulerState = "idle"
	StateRunning SchedulerState = "running"
)
