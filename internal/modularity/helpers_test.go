package modularity

import (
	"context"
	"errors"
	"reflect"
	"sync"
)

// mapContainer resolves types from a fixed instance table.
type mapContainer struct {
	mu         sync.Mutex
	instances  map[reflect.Type]any
	registered []reflect.Type
	resolveErr error
}

func newMapContainer() *mapContainer {
	return &mapContainer{instances: make(map[reflect.Type]any)}
}

func (c *mapContainer) put(instance any) {
	c.instances[reflect.TypeOf(instance)] = instance
}

func (c *mapContainer) Resolve(t reflect.Type) (any, error) {
	if c.resolveErr != nil {
		return nil, c.resolveErr
	}
	instance, ok := c.instances[t]
	if !ok {
		return nil, errors.New("no instance for " + TypeName(t))
	}
	return instance, nil
}

func (c *mapContainer) Register(t reflect.Type, _ Factory) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registered = append(c.registered, t)
	return nil
}

func (c *mapContainer) RegisterSingleton(t reflect.Type, f Factory) error { return c.Register(t, f) }

func (c *mapContainer) RegisterInstance(t reflect.Type, _ any) error { return c.Register(t, nil) }

type logEntry struct {
	message  string
	category Category
	priority Priority
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) Log(message string, category Category, priority Priority) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{message, category, priority})
}

func (l *recordingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// hookModule is a configurable Module used across tests.
type hookModule struct {
	registerErr error
	initErr     error
	panicWith   any
	calls       []string
}

func (m *hookModule) RegisterTypes(ctx context.Context, registry TypeRegistry) error {
	m.calls = append(m.calls, "register")
	if m.registerErr != nil {
		return m.registerErr
	}
	return registry.RegisterSingleton(reflect.TypeFor[string](), func(Resolver) (any, error) { return "svc", nil })
}

func (m *hookModule) OnInitialized(ctx context.Context, resolver Resolver) error {
	m.calls = append(m.calls, "initialized")
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	return m.initErr
}

// Distinct module types for catalog tests.
type alphaModule struct{ hookModule }
type betaModule struct{ hookModule }

// notAModule lacks the Module hooks.
type notAModule struct{}

var hookModuleType = reflect.TypeFor[*hookModule]()

func mustDescriptor(name string, deps ...string) *Descriptor {
	d, err := NewDescriptor(hookModuleType, name, WithDependsOn(deps...))
	if err != nil {
		panic(err)
	}
	return d
}

func names(ds []*Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name()
	}
	return out
}
