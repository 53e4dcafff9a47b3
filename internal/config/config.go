// Package config loads the autoswitch demo configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/amp-labs/autoswitch/logger"
	"github.com/amp-labs/autoswitch/strategy"
	"github.com/amp-labs/autoswitch/switcher"
	"github.com/amp-labs/autoswitch/telemetry"
	"github.com/caarlos0/env/v11"
)

// ErrInvalidConfig is returned when a value parses but is out of range.
var ErrInvalidConfig = errors.New("invalid config")

const defaultServiceName = "autoswitch"

// Config is the demo configuration.
type Config struct {
	Interval   time.Duration `env:"AUTOSWITCH_INTERVAL"   envDefault:"1.5s"`
	Transition time.Duration `env:"AUTOSWITCH_TRANSITION" envDefault:"400ms"`
	Strategy   string        `env:"AUTOSWITCH_STRATEGY"   envDefault:"interval"`

	// Loops is the number of passes through the deck before the sequence
	// ends on its own. Zero repeats forever.
	Loops int    `env:"AUTOSWITCH_LOOPS" envDefault:"0"`
	Deck  string `env:"AUTOSWITCH_DECK"`
	Width int    `env:"AUTOSWITCH_WIDTH" envDefault:"48"`

	MetricsAddr string `env:"AUTOSWITCH_METRICS_ADDR"`

	LogJSON        bool       `env:"LOG_JSON"         envDefault:"false"`
	LogLevel       slog.Level `env:"LOG_LEVEL"        envDefault:"INFO"`
	LegacyLogLevel slog.Level `env:"LEGACY_LOG_LEVEL" envDefault:"INFO"`
	LogOutput      string     `env:"LOG_OUTPUT"       envDefault:"stdout"`

	Telemetry telemetry.Config
}

// Load parses the process environment.
func Load() (Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg.finish()
}

// LoadFrom parses environ instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg.finish()
}

func (c Config) finish() (Config, error) {
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = defaultServiceName
	}

	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = telemetry.DefaultEndpoint()
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate checks ranges and names that the parser cannot.
func (c Config) Validate() error {
	var errs []error

	if c.Interval < 0 {
		errs = append(errs, fmt.Errorf("%w: AUTOSWITCH_INTERVAL must not be negative, got %s", ErrInvalidConfig, c.Interval))
	}

	if c.Transition < 0 {
		errs = append(errs, fmt.Errorf("%w: AUTOSWITCH_TRANSITION must not be negative, got %s", ErrInvalidConfig, c.Transition))
	}

	if c.Loops < 0 {
		errs = append(errs, fmt.Errorf("%w: AUTOSWITCH_LOOPS must not be negative, got %d", ErrInvalidConfig, c.Loops))
	}

	if c.Width <= 0 {
		errs = append(errs, fmt.Errorf("%w: AUTOSWITCH_WIDTH must be positive, got %d", ErrInvalidConfig, c.Width))
	}

	if !slices.Contains(strategy.Names(), c.Strategy) {
		errs = append(errs, fmt.Errorf("%w: AUTOSWITCH_STRATEGY %q is not one of %v",
			ErrInvalidConfig, c.Strategy, strategy.Names()))
	}

	if _, err := logger.Output(c.LogOutput); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// LoggerOptions returns the logging setup for subsystem.
func (c Config) LoggerOptions(subsystem string) (logger.Options, error) {
	out, err := logger.Output(c.LogOutput)
	if err != nil {
		return logger.Options{}, err
	}

	return logger.Options{
		Subsystem:   subsystem,
		JSON:        c.LogJSON,
		MinLevel:    c.LogLevel,
		LegacyLevel: c.LegacyLogLevel,
		Output:      out,
	}, nil
}

// Builder resolves the configured strategy.
func (c Config) Builder() (*switcher.Builder, error) {
	return strategy.ByName(c.Strategy, c.Interval, c.Transition)
}

// MaxSwitches converts Loops into a switch limit for a deck of n slides.
// Zero means no limit.
func (c Config) MaxSwitches(n int) int {
	if c.Loops <= 0 || n <= 0 {
		return 0
	}

	return c.Loops*n - 1
}
