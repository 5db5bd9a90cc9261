package driver

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Config holds the immutable, process-wide configuration injected into every
// Processor. It is loaded once at startup from the environment.
type Config struct {
	// IngestURL is the base URL of the remote log collector. Requests are
	// posted to "{IngestURL}/logs".
	IngestURL string `env:"LOG_INGEST_API" envDefault:"http://localhost:8080"`

	// LogLevel controls the verbosity of the structured logger.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads Config from the process environment, applying defaults
// for any variable that is unset.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

// Clone returns an independent copy of cfg. Each StartLogging call clones
// the shared Config before handing it to a new Processor, so no Processor
// ever observes a mutation made through another's copy -- even though, today,
// nothing mutates a Config after LoadConfig returns.
func (cfg *Config) Clone() *Config {
	clone := *cfg
	return &clone
}

// ParsedLogLevel parses Config.LogLevel into a logrus.Level, defaulting to
// Info if the configured value isn't recognized.
func (cfg *Config) ParsedLogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
