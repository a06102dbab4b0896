package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, populated from the environment.
// Phase offsets are HH:MM wall-clock times in Timezone.
type Config struct {
	ListenHost string `env:"ROSTERD_HOST" envDefault:""`
	ListenPort int    `env:"ROSTERD_PORT" envDefault:"8080"`

	Timezone string `env:"ROSTERD_TIMEZONE" envDefault:"Asia/Kolkata"`

	EntryCreationAt string `env:"ROSTERD_PHASE_CREATE" envDefault:"08:00"`
	ReminderAt      string `env:"ROSTERD_PHASE_REMIND" envDefault:"21:00"`
	LockAt          string `env:"ROSTERD_PHASE_LOCK" envDefault:"22:30"`
	PolicySweepAt   string `env:"ROSTERD_PHASE_SWEEP" envDefault:"23:00"`
	ResolutionAt    string `env:"ROSTERD_PHASE_RESOLVE" envDefault:"00:01"`

	Quorum     int           `env:"ROSTERD_QUORUM" envDefault:"4"`
	QuorumTick time.Duration `env:"ROSTERD_QUORUM_TICK" envDefault:"10m"`

	WarningThreshold        int `env:"ROSTERD_WARNING_THRESHOLD" envDefault:"5"`
	MissedDaysThreshold     int `env:"ROSTERD_MISSED_DAYS_THRESHOLD" envDefault:"15"`
	InvalidDeclineThreshold int `env:"ROSTERD_INVALID_DECLINE_THRESHOLD" envDefault:"10"`

	SessionIdleTimeout time.Duration `env:"ROSTERD_SESSION_TIMEOUT" envDefault:"30m"`
	// MarkWindow bounds host attendance corrections after a date's end;
	// zero keeps them open indefinitely.
	MarkWindow time.Duration `env:"ROSTERD_MARK_WINDOW" envDefault:"0"`

	StorageType string `env:"ROSTERD_STORAGE" envDefault:"memory"`
	RedisURL    string `env:"ROSTERD_REDIS_URL" envDefault:""`
}

// Load parses the configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
