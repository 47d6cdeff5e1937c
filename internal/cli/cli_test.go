package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, exit, err := Parse(nil, &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, exit)
		assert.Empty(t, cfg.CatalogPaths)
		assert.Empty(t, cfg.Load)
		assert.False(t, cfg.ContinueOnError)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "/", cfg.DiagnosticsNamespace)
	})

	t.Run("all flags", func(t *testing.T) {
		cfg, exit, err := Parse([]string{
			"-catalog", "base.hcl",
			"-catalog", "extra",
			"-load", "print, shell,,",
			"-continue-on-error",
			"-healthcheck-port", "9090",
			"-log-format", "JSON",
			"-log-level", "DEBUG",
			"-diagnostics-url", "http://localhost:3000",
			"-diagnostics-namespace", "/modkit",
			"more.hcl",
		}, &bytes.Buffer{})
		require.NoError(t, err)
		require.False(t, exit)

		assert.Equal(t, []string{"base.hcl", "extra", "more.hcl"}, cfg.CatalogPaths)
		assert.Equal(t, []string{"print", "shell"}, cfg.Load)
		assert.True(t, cfg.ContinueOnError)
		assert.Equal(t, 9090, cfg.HealthcheckPort)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "http://localhost:3000", cfg.DiagnosticsURL)
		assert.Equal(t, "/modkit", cfg.DiagnosticsNamespace)
	})

	t.Run("help", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, exit, err := Parse([]string{"-h"}, out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	testCases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown flag", []string{"-nope"}, "flag provided but not defined: -nope"},
		{"bad log format", []string{"-log-format", "xml"}, "invalid log format"},
		{"bad log level", []string{"-log-level", "loud"}, "invalid log level"},
		{"bad port", []string{"-healthcheck-port", "-5"}, "invalid health check port"},
		{"empty catalog", []string{"-catalog", ""}, "catalog path must not be empty"},
		{"bad diagnostics URL", []string{"-diagnostics-url", "hub"}, "scheme and host are required"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			require.Error(t, err)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantErr)
		})
	}
}
