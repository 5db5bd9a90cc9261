package driver

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

// unsetEnv clears key for the duration of the test and restores whatever
// was there before, since t.Setenv can only set a value, never remove it --
// and caarlos0/env only falls back to envDefault when the variable is
// entirely absent, not when it's set to an empty string.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	prev, had := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, prev)
		}
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	unsetEnv(t, "LOG_INGEST_API")
	unsetEnv(t, "LOG_LEVEL")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.IngestURL != "http://localhost:8080" {
		t.Errorf("IngestURL = %q, want %q", cfg.IngestURL, "http://localhost:8080")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("LOG_INGEST_API", "https://ingest.example.com")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.IngestURL != "https://ingest.example.com" {
		t.Errorf("IngestURL = %q, want %q", cfg.IngestURL, "https://ingest.example.com")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestConfigCloneIsIndependent(t *testing.T) {
	cfg := &Config{IngestURL: "http://a", LogLevel: "info"}
	clone := cfg.Clone()

	clone.IngestURL = "http://b"

	if cfg.IngestURL != "http://a" {
		t.Errorf("original mutated: IngestURL = %q, want %q", cfg.IngestURL, "http://a")
	}
	if clone.IngestURL != "http://b" {
		t.Errorf("clone.IngestURL = %q, want %q", clone.IngestURL, "http://b")
	}
}

func TestConfigParsedLogLevel(t *testing.T) {
	cfg := &Config{LogLevel: "warn"}
	if got := cfg.ParsedLogLevel(); got != logrus.WarnLevel {
		t.Errorf("ParsedLogLevel() = %v, want %v", got, logrus.WarnLevel)
	}

	cfg = &Config{LogLevel: "not-a-level"}
	if got := cfg.ParsedLogLevel(); got != logrus.InfoLevel {
		t.Errorf("ParsedLogLevel() with invalid input = %v, want %v", got, logrus.InfoLevel)
	}
}
