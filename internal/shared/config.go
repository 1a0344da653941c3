package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override file configuration.
const (
	EnvClientID     = "RSPOTIFY_CLIENT_ID"
	EnvClientSecret = "RSPOTIFY_CLIENT_SECRET"
	EnvRedirectURI  = "RSPOTIFY_REDIRECT_URI"
	EnvRefreshToken = "RSPOTIFY_REFRESH_TOKEN"
	EnvPort         = "NOWPLAYING_PORT"
)

// RefreshPolicy selects what the credential refresher does when a refresh fails.
type RefreshPolicy string

const (
	PolicyFatal   RefreshPolicy = "fatal"   // stop the service
	PolicyRetry   RefreshPolicy = "retry"   // retry with backoff until a refresh succeeds
	PolicyDegrade RefreshPolicy = "degrade" // keep the stale token and wait for the next interval
)

// Duration is a [time.Duration] read from and written to TOML as a string such as "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Poll        PollConfig        `toml:"poll"`
	Refresh     RefreshConfig     `toml:"refresh"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	RefreshToken string `toml:"refresh_token"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	CORS         bool     `toml:"cors"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PollConfig controls the playback poller.
type PollConfig struct {
	Interval Duration `toml:"interval"`
	Timeout  Duration `toml:"timeout"` // bound on a single upstream query
}

// RefreshConfig controls the credential refresher.
type RefreshConfig struct {
	Interval     Duration      `toml:"interval"`
	Policy       RefreshPolicy `toml:"policy"`
	RetryBackoff Duration      `toml:"retry_backoff"`
	MaxBackoff   Duration      `toml:"max_backoff"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
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

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// ApplyEnv overrides credential and port settings with values found by lookup (typically [os.LookupEnv]).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(EnvClientID, &c.Credentials.Spotify.ClientID)
	set(EnvClientSecret, &c.Credentials.Spotify.ClientSecret)
	set(EnvRedirectURI, &c.Credentials.Spotify.RedirectURI)
	set(EnvRefreshToken, &c.Credentials.Spotify.RefreshToken)

	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvPort, v)
		}
		c.Server.Port = port
	}

	return nil
}

// Validate checks everything the service needs before it starts. It fails on the first problem found.
func (c *Config) Validate() error {
	sp := c.Credentials.Spotify
	if sp.ClientID == "" {
		return fmt.Errorf("%w: spotify client_id", ErrMissingCredentials)
	}
	if sp.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_secret", ErrMissingCredentials)
	}
	if sp.RefreshToken == "" {
		return fmt.Errorf("%w: spotify refresh_token (run `nowplaying auth`)", ErrNoRefreshToken)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", ErrInvalidConfig, c.Server.Port)
	}

	if c.Poll.Interval.Duration < time.Second || c.Poll.Interval.Duration > 5*time.Minute {
		return fmt.Errorf("%w: poll interval %v must be between 1s and 5m", ErrInvalidConfig, c.Poll.Interval)
	}
	if c.Poll.Timeout.Duration <= 0 || c.Poll.Timeout.Duration > c.Poll.Interval.Duration {
		return fmt.Errorf("%w: poll timeout %v must be positive and at most the poll interval", ErrInvalidConfig, c.Poll.Timeout)
	}

	if c.Refresh.Interval.Duration <= 0 || c.Refresh.Interval.Duration >= time.Hour {
		return fmt.Errorf("%w: refresh interval %v must be under one hour", ErrInvalidConfig, c.Refresh.Interval)
	}
	switch c.Refresh.Policy {
	case PolicyFatal, PolicyRetry, PolicyDegrade:
	default:
		return fmt.Errorf("%w: refresh policy %q", ErrInvalidConfig, c.Refresh.Policy)
	}
	if c.Refresh.Policy == PolicyRetry {
		if c.Refresh.RetryBackoff.Duration <= 0 || c.Refresh.MaxBackoff.Duration < c.Refresh.RetryBackoff.Duration {
			return fmt.Errorf("%w: retry_backoff must be positive and not exceed max_backoff", ErrInvalidConfig)
		}
	}

	return nil
}
