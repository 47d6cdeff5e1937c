package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// CatalogPaths are HCL files or directories declaring modules. When empty
	// the built-in modules are cataloged instead.
	CatalogPaths []string
	// Load names modules to load on demand once eager modules are up.
	Load []string
	// ContinueOnError keeps initializing independent modules after a failure.
	ContinueOnError bool

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	DiagnosticsURL       string
	DiagnosticsNamespace string
}

// NewConfig validates cfg and returns a copy with defaults applied.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if _, ok := logLevels[cfg.LogLevel]; !ok {
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid health check port %d", cfg.HealthcheckPort)
	}

	for _, name := range cfg.Load {
		if strings.TrimSpace(name) == "" {
			return nil, errors.New("module names to load must not be empty")
		}
	}

	if cfg.DiagnosticsURL != "" {
		u, err := url.Parse(cfg.DiagnosticsURL)
		if err != nil {
			return nil, fmt.Errorf("invalid diagnostics URL: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid diagnostics URL %q: scheme and host are required", cfg.DiagnosticsURL)
		}
	}

	return &cfg, nil
}
