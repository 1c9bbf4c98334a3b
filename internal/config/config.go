package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/plexarr/plexarr/internal/models"
	"github.com/plexarr/plexarr/internal/utils"
	"github.com/spf13/viper"
)

// SyncSettings is the mutable part of the configuration. A run never reads
// it directly: the scheduler takes a Snapshot at run start, so a live edit
// cannot race an in-progress sync.
type SyncSettings struct {
	SourceType          models.SourceType
	IMDBListURL         string
	TMDBListID          string
	TMDBAccountID       string
	Region              string
	SubscribedProviders []string
	SyncInterval        time.Duration
}

// SubscribedSet returns the normalized subscribed-provider lookup set
func (s SyncSettings) SubscribedSet() map[string]struct{} {
	return utils.NormalizeProviderSet(s.SubscribedProviders)
}

// Config holds all application configuration
type Config struct {
	// Credentials captured at startup (the dashboard owns interactive capture)
	TMDBAPIKey        string
	TraktClientID     string
	TraktClientSecret string
	PlexToken         string

	// Server
	ServerPort string

	// Paths
	DatabaseFile string

	// Logging
	LogLevel string

	mu   sync.RWMutex
	sync SyncSettings
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	viper.SetDefault("SOURCE_TYPE", string(models.SourceIMDB))
	viper.SetDefault("REGION", "US")
	viper.SetDefault("SYNC_INTERVAL_HOURS", 6)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "plexarr")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		TMDBAPIKey:        viper.GetString("TMDB_API_KEY"),
		TraktClientID:     viper.GetString("TRAKT_CLIENT_ID"),
		TraktClientSecret: viper.GetString("TRAKT_CLIENT_SECRET"),
		PlexToken:         viper.GetString("PLEX_TOKEN"),

		ServerPort:   viper.GetString("SERVER_PORT"),
		DatabaseFile: filepath.Join(configDir, "plexarr.db"),
		LogLevel:     viper.GetString("LOG_LEVEL"),

		sync: SyncSettings{
			SourceType:          models.SourceType(viper.GetString("SOURCE_TYPE")),
			IMDBListURL:         viper.GetString("IMDB_LIST_URL"),
			TMDBListID:          viper.GetString("TMDB_LIST_ID"),
			TMDBAccountID:       viper.GetString("TMDB_ACCOUNT_ID"),
			Region:              viper.GetString("REGION"),
			SubscribedProviders: splitList(viper.GetString("STREAMING_SERVICES")),
			SyncInterval:        time.Duration(viper.GetInt("SYNC_INTERVAL_HOURS")) * time.Hour,
		},
	}

	if config.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY is required")
	}
	if config.PlexToken == "" {
		return nil, fmt.Errorf("PLEX_TOKEN is required")
	}
	if err := validateSyncSettings(config.sync); err != nil {
		return nil, err
	}

	return config, nil
}

// Snapshot returns an immutable copy of the sync settings for one run
func (c *Config) Snapshot() SyncSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := c.sync
	snap.SubscribedProviders = append([]string(nil), c.sync.SubscribedProviders...)
	return snap
}

// UpdateSync replaces the sync settings. Takes effect for runs started
// after the call; a run in progress keeps its snapshot.
func (c *Config) UpdateSync(settings SyncSettings) error {
	if err := validateSyncSettings(settings); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sync = settings
	return nil
}

func validateSyncSettings(s SyncSettings) error {
	switch s.SourceType {
	case models.SourceIMDB, models.SourceTMDBList, models.SourceTMDBWatchlist, models.SourceTrakt:
	default:
		return fmt.Errorf("%w: unknown source type %q", models.ErrConfigInvalid, s.SourceType)
	}
	if s.Region == "" {
		return fmt.Errorf("%w: region is required", models.ErrConfigInvalid)
	}
	if s.SyncInterval < time.Minute {
		return fmt.Errorf("%w: sync interval %s is too short", models.ErrConfigInvalid, s.SyncInterval)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
