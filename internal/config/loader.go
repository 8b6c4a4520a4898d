package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment override. A double underscore separates
// nested keys: RECALL_ADMISSION__NEW_PER_DAY sets admission.new_per_day.
const EnvPrefix = "RECALL_"

// Flags registers the command-line overrides on fs. Flag names match config keys.
func Flags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "Path to a YAML config file")
	fs.String("db", d.DB, "Path to the SQLite database file")
	fs.String("addr", d.Addr, "Address the HTTP API listens on")
	fs.String("repos_dir", d.ReposDir, "Directory where git deck sources are cloned")
	fs.String("timezone", d.Timezone, "IANA timezone of the learner's day")
	fs.String("log.level", d.Log.Level, "Log level: debug, info, warn or error")
	fs.String("log.format", d.Log.Format, "Log format: json or text")
	fs.Int("admission.new_per_day", d.Admission.NewPerDay, "Maximum new cards per day")
	fs.Int("session.cap", d.Session.Cap, "Maximum cards per study session")
}

// Load builds the configuration. fs must have been parsed after Flags registered on it.
// Flags override the environment only when they were set explicitly.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("config: read flags: %w", err)
	}
	k.Delete("config")

	// Slices are decoded into an empty field so a shorter list replaces the default.
	cfg := Default()
	offsets := cfg.Scheduler.IntroOffsets
	cfg.Scheduler.IntroOffsets = nil
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if cfg.Scheduler.IntroOffsets == nil {
		cfg.Scheduler.IntroOffsets = offsets
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its rules and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
