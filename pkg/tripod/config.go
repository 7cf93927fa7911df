package tripod

import (
	"errors"
	"fmt"
	"os"

	"github.com/MarciaSuzuki/Tripod/pkg/tripod/catalog"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "TRIPOD"

// ProfileMode selects what applying a marker profile does to an entry.
type ProfileMode string

const (
	// ProfileMetadata records the profile id on the entry only.
	ProfileMetadata ProfileMode = "metadata"
	// ProfileNote also inserts a profile note at the top of the transcript.
	ProfileNote ProfileMode = "note"
)

type Config struct {
	DBPath           string      `envconfig:"DB_PATH" default:"tripod.sqlite3"`
	GoalHours        float64     `envconfig:"GOAL_HOURS" default:"100"`
	AudioExportLimit int64       `envconfig:"AUDIO_EXPORT_LIMIT" default:"20971520"`
	ProfileMode      ProfileMode `envconfig:"PROFILE_MODE" default:"metadata"`
	CatalogPath      string      `envconfig:"CATALOG_PATH"`
	EntryPrefix      string      `envconfig:"ENTRY_PREFIX" default:"LA"`

	Logger  Logger           `ignored:"true"`
	Storage Storage          `ignored:"true"`
	Catalog *catalog.Catalog `ignored:"true"`
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithGoalHours(hours float64) Option {
	return func(c *Config) {
		c.GoalHours = hours
	}
}

func WithAudioExportLimit(bytes int64) Option {
	return func(c *Config) {
		c.AudioExportLimit = bytes
	}
}

func WithProfileMode(mode ProfileMode) Option {
	return func(c *Config) {
		c.ProfileMode = mode
	}
}

func WithCatalogPath(path string) Option {
	return func(c *Config) {
		c.CatalogPath = path
	}
}

func WithEntryPrefix(prefix string) Option {
	return func(c *Config) {
		c.EntryPrefix = prefix
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *Config) {
		c.Catalog = cat
	}
}

// WithConfig copies every field of cfg, typically one built by LoadConfig.
func WithConfig(cfg *Config) Option {
	return func(c *Config) {
		if cfg != nil {
			*c = *cfg
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:           "tripod.sqlite3",
		GoalHours:        100,
		AudioExportLimit: 20 << 20,
		ProfileMode:      ProfileMetadata,
		EntryPrefix:      "LA",
	}
}

// LoadConfig reads TRIPOD_* variables from the environment after loading
// the given .env files. Missing .env files are skipped.
func LoadConfig(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ProfileMode {
	case ProfileMetadata, ProfileNote:
	default:
		return fmt.Errorf("%w: profile mode %q (want %q or %q)", ErrInvalidConfig, c.ProfileMode, ProfileMetadata, ProfileNote)
	}
	if c.GoalHours <= 0 {
		return fmt.Errorf("%w: goal hours must be positive", ErrInvalidConfig)
	}
	if c.AudioExportLimit <= 0 {
		return fmt.Errorf("%w: audio export limit must be positive", ErrInvalidConfig)
	}
	if c.Storage == nil && c.DBPath == "" {
		return fmt.Errorf("%w: no database path", ErrInvalidConfig)
	}
	return nil
}
