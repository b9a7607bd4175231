package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables holding the Spotify client registration.
const (
	EnvSpotifyClientID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvSpotifyRedirectURI  = "SPOTIFY_REDIRECT_URI"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	YouTube  YouTubeConfig  `toml:"youtube"`
	Spotify  SpotifyConfig  `toml:"spotify"`
	Retry    RetryConfig    `toml:"retry"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// YouTubeConfig contains source reader settings.
type YouTubeConfig struct {
	ClientSecrets string `toml:"client_secrets"`
	TokenPath     string `toml:"token_path"`
	PageSize      int64  `toml:"page_size"`
	FavoritesID   string `toml:"favorites_id"`
}

// SpotifyConfig contains destination writer settings.
type SpotifyConfig struct {
	TokenPath            string        `toml:"token_path"`
	BatchSize            int           `toml:"batch_size"`
	BatchPause           time.Duration `toml:"batch_pause"`
	FavoritesName        string        `toml:"favorites_name"`
	FavoritesDescription string        `toml:"favorites_description"`
	DescriptionPrefix    string        `toml:"description_prefix"`
}

// RetryConfig contains the backoff policy for source page requests.
type RetryConfig struct {
	MaxAttempts int           `toml:"max_attempts"`
	BaseDelay   time.Duration `toml:"base_delay"`
	MaxDelay    time.Duration `toml:"max_delay"`
}

// Policy converts the configuration into a [RetryPolicy].
func (c RetryConfig) Policy() RetryPolicy {
	return RetryPolicy{MaxAttempts: c.MaxAttempts, BaseDelay: c.BaseDelay, MaxDelay: c.MaxDelay}
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the listen address of the callback server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SpotifyCredentials is the Spotify client registration read from the environment.
type SpotifyCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects values the transfer cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.YouTube.PageSize < 1 || c.YouTube.PageSize > 50:
		return fmt.Errorf("%w: youtube.page_size must be between 1 and 50, got %d", ErrInvalidConfig, c.YouTube.PageSize)
	case c.YouTube.FavoritesID == "":
		return fmt.Errorf("%w: youtube.favorites_id is required", ErrInvalidConfig)
	case c.Spotify.BatchSize < 1 || c.Spotify.BatchSize > 100:
		return fmt.Errorf("%w: spotify.batch_size must be between 1 and 100, got %d", ErrInvalidConfig, c.Spotify.BatchSize)
	case c.Spotify.BatchPause < 0:
		return fmt.Errorf("%w: spotify.batch_pause must not be negative", ErrInvalidConfig)
	case c.Spotify.FavoritesName == "":
		return fmt.Errorf("%w: spotify.favorites_name is required", ErrInvalidConfig)
	case c.Retry.MaxAttempts < 1:
		return fmt.Errorf("%w: retry.max_attempts must be at least 1, got %d", ErrInvalidConfig, c.Retry.MaxAttempts)
	case c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < c.Retry.BaseDelay:
		return fmt.Errorf("%w: retry delays must satisfy 0 <= base_delay <= max_delay", ErrInvalidConfig)
	}
	return nil
}

// LoadSpotifyEnv loads the Spotify client registration.
//
// Values are read from the environment after loading envFile, if it exists.
// Variables already set in the process environment take precedence over the file.
func LoadSpotifyEnv(envFile string) (SpotifyCredentials, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return SpotifyCredentials{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	creds := SpotifyCredentials{
		ClientID:     os.Getenv(EnvSpotifyClientID),
		ClientSecret: os.Getenv(EnvSpotifyClientSecret),
		RedirectURI:  os.Getenv(EnvSpotifyRedirectURI),
	}

	var missing []string
	if creds.ClientID == "" {
		missing = append(missing, EnvSpotifyClientID)
	}
	if creds.ClientSecret == "" {
		missing = append(missing, EnvSpotifyClientSecret)
	}
	if creds.RedirectURI == "" {
		missing = append(missing, EnvSpotifyRedirectURI)
	}
	if len(missing) > 0 {
		return creds, fmt.Errorf("%w: %v not set", ErrMissingCredentials, missing)
	}

	return creds, nil
}
