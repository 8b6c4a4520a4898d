// Package config loads settings from defaults, a YAML file, the environment and
// command-line flags, in increasing order of priority.
package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	DB       string `koanf:"db"        validate:"required"`
	Addr     string `koanf:"addr"      validate:"required,hostname_port"`
	ReposDir string `koanf:"repos_dir" validate:"required"`
	// Timezone decides when the learner's day, and so the new-card allowance, rolls over.
	Timezone string `koanf:"timezone" validate:"required,timezone"`

	Log       LogConfig       `koanf:"log"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Attempts  AttemptsConfig  `koanf:"attempts"`
	Admission AdmissionConfig `koanf:"admission"`
	Session   SessionConfig   `koanf:"session"`
}

type LogConfig struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

type SchedulerConfig struct {
	IntroOffsets []int `koanf:"intro_offsets" validate:"required,min=1,dive,gte=0"`
}

type AttemptsConfig struct {
	Cooldown   time.Duration `koanf:"cooldown"    validate:"gte=0"`
	HistoryCap int           `koanf:"history_cap" validate:"gte=10,gtefield=Window"`
	Window     int           `koanf:"window"      validate:"gte=1"`
}

type AdmissionConfig struct {
	NewPerDay   int `koanf:"new_per_day"  validate:"gte=0"`
	StruggleCap int `koanf:"struggle_cap" validate:"gte=1"`
}

type SessionConfig struct {
	Cap         int  `koanf:"cap"           validate:"gte=1"`
	GroupByTier bool `koanf:"group_by_tier"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DB:       "recall.db",
		Addr:     "localhost:8080",
		ReposDir: "repos",
		Timezone: "UTC",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Scheduler: SchedulerConfig{
			IntroOffsets: []int{0, 1, 3, 7, 14, 30},
		},
		Attempts: AttemptsConfig{
			Cooldown:   60 * time.Minute,
			HistoryCap: 50,
			Window:     10,
		},
		Admission: AdmissionConfig{
			NewPerDay:   5,
			StruggleCap: 10,
		},
		Session: SessionConfig{
			Cap:         15,
			GroupByTier: true,
		},
	}
}

// Location resolves Timezone. Validation guarantees it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
