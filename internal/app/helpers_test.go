package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/modkit/internal/container"
	"github.com/vk/modkit/internal/modularity"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// trace records the order in which test modules come up.
type trace struct {
	mu    sync.Mutex
	order []string
}

func (tr *trace) add(name string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.order = append(tr.order, name)
}

func (tr *trace) names() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.order...)
}

var errBroken = errors.New("broken on purpose")

// record reports name to the trace registered by SetupAppTest.
func record(r modularity.Resolver, name string) error {
	tr, err := container.Resolve[*trace](r)
	if err != nil {
		return err
	}
	tr.add(name)
	return nil
}

type alphaModule struct{}
type betaModule struct{}
type gammaModule struct{}
type brokenModule struct{}

func (*alphaModule) RegisterTypes(context.Context, modularity.TypeRegistry) error { return nil }
func (*alphaModule) OnInitialized(_ context.Context, r modularity.Resolver) error {
	return record(r, "alpha")
}

func (*betaModule) RegisterTypes(context.Context, modularity.TypeRegistry) error { return nil }
func (*betaModule) OnInitialized(_ context.Context, r modularity.Resolver) error {
	return record(r, "beta")
}

func (*gammaModule) RegisterTypes(context.Context, modularity.TypeRegistry) error { return nil }
func (*gammaModule) OnInitialized(_ context.Context, r modularity.Resolver) error {
	return record(r, "gamma")
}

func (*brokenModule) RegisterTypes(context.Context, modularity.TypeRegistry) error { return nil }
func (*brokenModule) OnInitialized(context.Context, modularity.Resolver) error {
	return errBroken
}

func builtin(alias string, t reflect.Type, opts ...modularity.Option) Builtin {
	return Builtin{Alias: alias, Type: t, Options: opts}
}

var (
	alphaType  = reflect.TypeFor[*alphaModule]()
	betaType   = reflect.TypeFor[*betaModule]()
	gammaType  = reflect.TypeFor[*gammaModule]()
	brokenType = reflect.TypeFor[*brokenModule]()
)

// SetupAppTest creates a new app instance for system testing, wired with a
// trace every test module reports to.
func SetupAppTest(t *testing.T, cfg Config, opts ...Option) (*App, *SafeBuffer, *trace) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	tr := &trace{}
	cfg.LogLevel = "debug"
	config, err := NewConfig(cfg)
	require.NoError(t, err)

	opts = append([]Option{WithInstance(reflect.TypeFor[*trace](), tr)}, opts...)
	testApp, err := NewApp(logBuffer, config, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		testApp.Close()
		if os.Getenv("MODKIT_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer, tr
}
