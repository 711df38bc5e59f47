package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/karnoweb/viewable/internal/calendar"
)

// Config holds every runtime setting, loaded from the environment.
type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"20s"`

	// Calendar selects the default reporting calendar: gregorian or jalali.
	Calendar string `env:"VIEWABLE_CALENDAR" envDefault:"gregorian"`
	Timezone string `env:"VIEWABLE_TIMEZONE" envDefault:"UTC"`
	// WeekStartsOn is a time.Weekday ordinal; 6 keeps Saturday starts for
	// Jalali-first deployments, 1 is Monday.
	WeekStartsOn int `env:"VIEWABLE_WEEK_STARTS_ON" envDefault:"6"`

	BranchEnabled     bool   `env:"VIEWABLE_BRANCH_ENABLED" envDefault:"false"`
	DefaultCollection string `env:"VIEWABLE_DEFAULT_COLLECTION" envDefault:""`

	// EntityTables maps entity types to the tables that hydrate ranking
	// and trending results, e.g. "post=posts.id:title,slug;page=pages.id:title".
	// Unmapped types still rank, just without attributes.
	EntityTables string `env:"VIEWABLE_ENTITY_TABLES" envDefault:""`

	// VisitorIdentifiers is the fallback chain used to derive a visitor
	// key, tried in order.
	VisitorIdentifiers string `env:"VIEWABLE_VISITOR_IDENTIFIERS" envDefault:"user,session,ip"`
	IgnoreBots         bool   `env:"VIEWABLE_IGNORE_BOTS" envDefault:"true"`
	StoreUserAgent     bool   `env:"VIEWABLE_STORE_USER_AGENT" envDefault:"true"`
	StoreReferer       bool   `env:"VIEWABLE_STORE_REFERER" envDefault:"true"`
	StoreIP            bool   `env:"VIEWABLE_STORE_IP" envDefault:"true"`

	CooldownEnabled bool          `env:"VIEWABLE_COOLDOWN_ENABLED" envDefault:"true"`
	CooldownPeriod  time.Duration `env:"VIEWABLE_COOLDOWN_PERIOD" envDefault:"60m"`

	CompressionEnabled  bool   `env:"VIEWABLE_COMPRESSION_ENABLED" envDefault:"true"`
	CompressionSchedule string `env:"VIEWABLE_COMPRESSION_SCHEDULE" envDefault:"0 1 * * *"`
	CompressionChunk    int    `env:"VIEWABLE_COMPRESSION_CHUNK" envDefault:"1000"`

	// IncludeToday merges live counts for the current day into analytics
	// reads, since today's events are not yet compressed.
	IncludeToday bool `env:"VIEWABLE_INCLUDE_TODAY" envDefault:"true"`
}

// Load reads configuration from the environment and validates the
// calendar settings up front so misconfiguration fails at startup.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.CalendarType(); err != nil {
		return nil, err
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if cfg.WeekStartsOn < 0 || cfg.WeekStartsOn > 6 {
		return nil, fmt.Errorf("invalid week start %d: must be 0..6", cfg.WeekStartsOn)
	}
	if cfg.CompressionChunk < 1 {
		return nil, fmt.Errorf("invalid compression chunk %d: must be positive", cfg.CompressionChunk)
	}
	return cfg, nil
}

// CalendarType parses the configured default calendar.
func (c *Config) CalendarType() (calendar.Type, error) {
	return calendar.ParseType(c.Calendar)
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// WeekStart returns the configured first day of the week.
func (c *Config) WeekStart() time.Weekday {
	return time.Weekday(c.WeekStartsOn)
}

// IdentifierChain splits the visitor identifier fallback order.
func (c *Config) IdentifierChain() []string {
	parts := strings.Split(c.VisitorIdentifiers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
