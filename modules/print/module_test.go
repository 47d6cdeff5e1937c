package print

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/modkit/internal/container"
	"github.com/vk/modkit/internal/ctxlog"
	"github.com/vk/modkit/modules/env_vars"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestPrinter_PrintValues(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	require.NoError(t, p.PrintValues("settings", map[string]string{"B": "2", "A": "1"}))
	require.NoError(t, p.PrintValues("empty", nil))

	assert.Equal(t, "settings:\n      A = \"1\"\n      B = \"2\"\nempty:\n      (none)\n", buf.String())

	assert.Error(t, NewPrinter(failingWriter{}).PrintValues("x", nil))
}

func TestModule_PrintsPrefixedSettings(t *testing.T) {
	var buf bytes.Buffer
	c := container.New()
	require.NoError(t, container.RegisterInstance[io.Writer](c, &buf))
	require.NoError(t, container.RegisterInstance(c, env_vars.FromPairs([]string{
		"MODKIT_COLOR=blue",
		"HOME=/root",
	})))

	m := &Module{}
	require.NoError(t, m.RegisterTypes(testContext(), c))
	require.NoError(t, m.OnInitialized(testContext(), c))

	assert.Equal(t, "settings:\n      MODKIT_COLOR = \"blue\"\n", buf.String())
}

func TestModule_RequiresSettings(t *testing.T) {
	c := container.New()
	require.NoError(t, container.RegisterInstance[io.Writer](c, &bytes.Buffer{}))

	m := &Module{}
	require.NoError(t, m.RegisterTypes(testContext(), c))
	err := m.OnInitialized(testContext(), c)
	assert.ErrorIs(t, err, container.ErrNotRegistered)
}

func TestModule_RequiresWriter(t *testing.T) {
	c := container.New()
	require.NoError(t, container.RegisterInstance(c, env_vars.FromPairs(nil)))

	m := &Module{}
	require.NoError(t, m.RegisterTypes(testContext(), c))
	err := m.OnInitialized(testContext(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "printer output")
}
