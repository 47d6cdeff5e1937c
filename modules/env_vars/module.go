package env_vars

import (
	"context"
	"os"
	"reflect"
	"strings"

	"github.com/vk/modkit/internal/container"
	"github.com/vk/modkit/internal/ctxlog"
	"github.com/vk/modkit/internal/modularity"
)

// Name is the catalog name of this module.
const Name = "env_vars"

// Settings is the read-only configuration service this module provides.
type Settings interface {
	Get(key string) (string, bool)
	// WithPrefix returns every entry whose key starts with prefix.
	WithPrefix(prefix string) map[string]string
}

// Module implements modularity.Module for this package.
type Module struct{}

type envSettings struct {
	values map[string]string
}

// FromEnviron snapshots os.Environ into a Settings service.
func FromEnviron() Settings {
	return FromPairs(os.Environ())
}

// FromPairs builds a Settings service from KEY=VALUE pairs.
func FromPairs(pairs []string) Settings {
	values := make(map[string]string, len(pairs))
	for _, e := range pairs {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			values[pair[0]] = pair[1]
		}
	}
	return &envSettings{values: values}
}

func (s *envSettings) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *envSettings) WithPrefix(prefix string) map[string]string {
	out := make(map[string]string)
	for k, v := range s.values {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out
}

// RegisterTypes registers the Settings service unless the host already
// provided one.
func (m *Module) RegisterTypes(ctx context.Context, registry modularity.TypeRegistry) error {
	if r, ok := registry.(interface{ IsRegistered(reflect.Type) bool }); ok && r.IsRegistered(reflect.TypeFor[Settings]()) {
		ctxlog.FromContext(ctx).Debug("Settings service provided by host, keeping it.")
		return nil
	}
	return container.RegisterSingleton(registry, func(modularity.Resolver) (Settings, error) {
		return FromEnviron(), nil
	})
}

// OnInitialized implements modularity.Module.
func (m *Module) OnInitialized(ctx context.Context, resolver modularity.Resolver) error {
	ctxlog.FromContext(ctx).Debug("Environment settings available.")
	return nil
}
