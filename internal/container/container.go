// Package container is the in-memory dependency-injection container the
// module initializer resolves modules and their services from.
package container

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/vk/modkit/internal/modularity"
)

var (
	// ErrAlreadyRegistered indicates a duplicate registration for a type.
	ErrAlreadyRegistered = errors.New("container: type already registered")
	// ErrNotRegistered indicates a type that is neither registered nor constructible.
	ErrNotRegistered = errors.New("container: type not registered")
	// ErrResolutionCycle indicates factories that resolve each other.
	ErrResolutionCycle = errors.New("container: resolution cycle")
)

type lifetime int

const (
	transient lifetime = iota
	singleton
)

type registration struct {
	factory  modularity.Factory
	lifetime lifetime

	// mu guards the singleton instance. A failed build is not kept, so a
	// later resolution runs the factory again.
	mu       sync.Mutex
	instance any
}

// Container maps types to factories. It satisfies modularity.Container.
// Resolution is expected to happen from one goroutine at a time, which is how
// the initializer drives it.
type Container struct {
	mu            sync.RWMutex
	registrations map[reflect.Type]*registration
	aliases       map[string]reflect.Type

	// resolving tracks the current resolution chain for cycle detection.
	resolvingMu sync.Mutex
	resolving   []reflect.Type
}

var _ modularity.Container = (*Container)(nil)

// New creates an empty container.
func New() *Container {
	return &Container{
		registrations: make(map[reflect.Type]*registration),
		aliases:       make(map[string]reflect.Type),
	}
}

// Register maps t to a factory that runs on every resolution.
func (c *Container) Register(t reflect.Type, factory modularity.Factory) error {
	return c.add(t, &registration{factory: factory, lifetime: transient})
}

// RegisterSingleton maps t to a factory that runs once; later resolutions
// share the first result.
func (c *Container) RegisterSingleton(t reflect.Type, factory modularity.Factory) error {
	return c.add(t, &registration{factory: factory, lifetime: singleton})
}

// RegisterInstance maps t to an existing value.
func (c *Container) RegisterInstance(t reflect.Type, instance any) error {
	if instance == nil {
		return fmt.Errorf("register %s: nil instance", modularity.TypeName(t))
	}
	return c.add(t, &registration{
		factory:  func(modularity.Resolver) (any, error) { return instance, nil },
		lifetime: singleton,
	})
}

// Alias makes t discoverable by LookupType under name, in addition to its
// fully qualified type name.
func (c *Container) Alias(name string, t reflect.Type) error {
	if name == "" {
		return fmt.Errorf("alias: empty name")
	}
	if t == nil {
		return fmt.Errorf("alias %s: nil type", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.aliases[name]; ok && existing != t {
		return fmt.Errorf("alias %s: %w (bound to %s)", name, ErrAlreadyRegistered, modularity.TypeName(existing))
	}
	c.aliases[name] = t
	return nil
}

// LookupType finds a type by alias or by fully qualified type name among the
// registered and aliased types.
func (c *Container) LookupType(name string) (reflect.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if t, ok := c.aliases[name]; ok {
		return t, true
	}
	for _, t := range c.aliases {
		if modularity.TypeName(t) == name {
			return t, true
		}
	}
	for t := range c.registrations {
		if modularity.TypeName(t) == name {
			return t, true
		}
	}
	return nil, false
}

// IsRegistered reports whether t has an explicit registration.
func (c *Container) IsRegistered(t reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.registrations[t]
	return ok
}

// Resolve returns an instance of t. Unregistered pointer-to-struct types are
// constructed as zero values, so plain module types need no registration.
func (c *Container) Resolve(t reflect.Type) (any, error) {
	if t == nil {
		return nil, fmt.Errorf("resolve: %w", modularity.ErrFailedToResolveType)
	}
	if err := c.enter(t); err != nil {
		return nil, err
	}
	defer c.leave()

	c.mu.RLock()
	reg, ok := c.registrations[t]
	c.mu.RUnlock()

	if !ok {
		if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
			return reflect.New(t.Elem()).Interface(), nil
		}
		return nil, fmt.Errorf("resolve %s: %w", modularity.TypeName(t), ErrNotRegistered)
	}

	if reg.lifetime == singleton {
		reg.mu.Lock()
		defer reg.mu.Unlock()
		if reg.instance != nil {
			return reg.instance, nil
		}
		instance, err := c.build(t, reg)
		if err != nil {
			return nil, err
		}
		reg.instance = instance
		return instance, nil
	}
	return c.build(t, reg)
}

func (c *Container) build(t reflect.Type, reg *registration) (any, error) {
	instance, err := reg.factory(c)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", modularity.TypeName(t), err)
	}
	if instance == nil {
		return nil, fmt.Errorf("resolve %s: factory returned nil", modularity.TypeName(t))
	}
	return instance, nil
}

func (c *Container) add(t reflect.Type, reg *registration) error {
	if t == nil {
		return fmt.Errorf("register: nil type")
	}
	if reg.factory == nil {
		return fmt.Errorf("register %s: nil factory", modularity.TypeName(t))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.registrations[t]; exists {
		return fmt.Errorf("register %s: %w", modularity.TypeName(t), ErrAlreadyRegistered)
	}
	c.registrations[t] = reg
	return nil
}

func (c *Container) enter(t reflect.Type) error {
	c.resolvingMu.Lock()
	defer c.resolvingMu.Unlock()

	for i, inFlight := range c.resolving {
		if inFlight == t {
			names := make([]string, 0, len(c.resolving)-i+1)
			for _, r := range c.resolving[i:] {
				names = append(names, modularity.TypeName(r))
			}
			names = append(names, modularity.TypeName(t))
			return fmt.Errorf("resolve %s: %w: %s", modularity.TypeName(t), ErrResolutionCycle, strings.Join(names, " -> "))
		}
	}
	c.resolving = append(c.resolving, t)
	return nil
}

func (c *Container) leave() {
	c.resolvingMu.Lock()
	c.resolving = c.resolving[:len(c.resolving)-1]
	c.resolvingMu.Unlock()
}

// Resolve is the typed form of Container.Resolve.
func Resolve[T any](r modularity.Resolver) (T, error) {
	var zero T
	instance, err := r.Resolve(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("resolve %s: got %T", modularity.TypeName(reflect.TypeFor[T]()), instance)
	}
	return typed, nil
}

// RegisterSingleton is the typed form of Container.RegisterSingleton.
func RegisterSingleton[T any](r modularity.TypeRegistry, factory func(modularity.Resolver) (T, error)) error {
	return r.RegisterSingleton(reflect.TypeFor[T](), func(res modularity.Resolver) (any, error) {
		return factory(res)
	})
}

// RegisterInstance is the typed form of Container.RegisterInstance.
func RegisterInstance[T any](r modularity.TypeRegistry, instance T) error {
	return r.RegisterInstance(reflect.TypeFor[T](), instance)
}
