// Package config provides Viper-based configuration loading for the tracker.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Bestiary sources.
const (
	BestiaryAPI   = "api"
	BestiaryLocal = "local"
	BestiaryNone  = "none"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File redirects log output away from stderr when set, keeping the
	// console prompt readable.
	File string `mapstructure:"file"`
}

// StorageConfig selects where encounter snapshots are kept.
type StorageConfig struct {
	// Driver is "file" or "postgres".
	Driver string `mapstructure:"driver"`
	// Path is the snapshot file used by the file driver.
	Path string `mapstructure:"path"`
	// Encounter names the snapshot row used by the postgres driver.
	Encounter string `mapstructure:"encounter"`
	// AutosaveDebounce is the quiet period before a change is written.
	AutosaveDebounce time.Duration `mapstructure:"autosave_debounce"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// BestiaryConfig selects the monster lookup source.
type BestiaryConfig struct {
	// Source is "api", "local" or "none".
	Source string `mapstructure:"source"`
	// BaseURL is the root of the monster API.
	BaseURL string `mapstructure:"base_url"`
	// Timeout bounds each API request.
	Timeout time.Duration `mapstructure:"timeout"`
	// Dir holds YAML monster templates for the local source.
	Dir string `mapstructure:"dir"`
}

// TrackerConfig holds combat rules and presentation settings.
type TrackerConfig struct {
	DefaultHP int `mapstructure:"default_hp"`
	DefaultAC int `mapstructure:"default_ac"`
	// RollDisplay is how long an initiative roll stays on screen.
	RollDisplay time.Duration `mapstructure:"roll_display"`
	// AbilityPlaceholder is shown for an unknown ability score.
	AbilityPlaceholder string `mapstructure:"ability_placeholder"`
	// ConditionsDir optionally overrides condition definitions.
	ConditionsDir string `mapstructure:"conditions_dir"`
	// ScriptsDir optionally holds Lua house-rule scripts.
	ScriptsDir string `mapstructure:"scripts_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Bestiary BestiaryConfig `mapstructure:"bestiary"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
}

// Validate checks all configuration invariants. Database settings are only
// checked when the postgres driver is selected.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Driver == DriverPostgres {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateBestiary(c.Bestiary); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTracker(c.Tracker); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	var errs []string
	switch s.Driver {
	case DriverFile:
		if s.Path == "" {
			errs = append(errs, "storage.path must not be empty for the file driver")
		}
	case DriverPostgres:
		if s.Encounter == "" {
			errs = append(errs, "storage.encounter must not be empty for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.driver must be one of [file, postgres], got %q", s.Driver))
	}
	if s.AutosaveDebounce < 0 {
		errs = append(errs, "storage.autosave_debounce must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 || d.MinConns > d.MaxConns {
		errs = append(errs, fmt.Sprintf("database.min_conns must be 0-%d, got %d", d.MaxConns, d.MinConns))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateBestiary(b BestiaryConfig) error {
	switch b.Source {
	case BestiaryAPI:
		if b.BaseURL == "" {
			return fmt.Errorf("bestiary.base_url must not be empty for the api source")
		}
		if b.Timeout <= 0 {
			return fmt.Errorf("bestiary.timeout must be positive, got %s", b.Timeout)
		}
	case BestiaryLocal:
		if b.Dir == "" {
			return fmt.Errorf("bestiary.dir must not be empty for the local source")
		}
	case BestiaryNone:
	default:
		return fmt.Errorf("bestiary.source must be one of [api, local, none], got %q", b.Source)
	}
	return nil
}

func validateTracker(t TrackerConfig) error {
	var errs []string
	if t.DefaultHP < 0 {
		errs = append(errs, fmt.Sprintf("tracker.default_hp must be >= 0, got %d", t.DefaultHP))
	}
	if t.DefaultAC < 0 {
		errs = append(errs, fmt.Sprintf("tracker.default_ac must be >= 0, got %d", t.DefaultAC))
	}
	if t.RollDisplay < 0 {
		errs = append(errs, "tracker.roll_display must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and
// environment variables only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance carrying the defaults and TRACKER_
// environment overrides, ready for an optional config file.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")

	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.path", "encounter.json")
	v.SetDefault("storage.encounter", "default")
	v.SetDefault("storage.autosave_debounce", "500ms")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "tracker")
	v.SetDefault("database.password", "tracker")
	v.SetDefault("database.name", "tracker")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("bestiary.source", BestiaryAPI)
	v.SetDefault("bestiary.base_url", "https://www.dnd5eapi.co")
	v.SetDefault("bestiary.timeout", "10s")
	v.SetDefault("bestiary.dir", "content/monsters")

	v.SetDefault("tracker.default_hp", 10)
	v.SetDefault("tracker.default_ac", 10)
	v.SetDefault("tracker.roll_display", "3s")
	v.SetDefault("tracker.ability_placeholder", "—")
	v.SetDefault("tracker.conditions_dir", "")
	v.SetDefault("tracker.scripts_dir", "")
}
