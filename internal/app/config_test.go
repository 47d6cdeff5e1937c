package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := NewConfig(Config{})
		require.NoError(t, err)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Empty(t, cfg.CatalogPaths)
	})

	t.Run("valid", func(t *testing.T) {
		in := Config{
			CatalogPaths:    []string{"modules"},
			Load:            []string{"print"},
			LogFormat:       "json",
			LogLevel:        "debug",
			HealthcheckPort: 8080,
			DiagnosticsURL:  "http://localhost:3000/socket.io/",
		}
		cfg, err := NewConfig(in)
		require.NoError(t, err)
		assert.Equal(t, in, *cfg)
	})

	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"log format", Config{LogFormat: "yaml"}, "invalid log format"},
		{"log level", Config{LogLevel: "trace"}, "invalid log level"},
		{"negative port", Config{HealthcheckPort: -1}, "invalid health check port"},
		{"port too high", Config{HealthcheckPort: 70000}, "invalid health check port"},
		{"empty load name", Config{Load: []string{"a", " "}}, "must not be empty"},
		{"relative diagnostics URL", Config{DiagnosticsURL: "localhost"}, "scheme and host are required"},
		{"malformed diagnostics URL", Config{DiagnosticsURL: "://x"}, "invalid diagnostics URL"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(tc.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &SafeBuffer{}
	logger := newLogger("warn", "json", buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown","key":"value"`)

	buf = &SafeBuffer{}
	newLogger("bogus", "text", buf).Info("fallback")
	assert.Contains(t, buf.String(), "level=INFO msg=fallback")
}
