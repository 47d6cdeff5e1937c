package modularity

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// Resolver turns a type identity into a live instance.
type Resolver interface {
	Resolve(t reflect.Type) (any, error)
}

// Factory builds an instance, resolving its own collaborators from r.
type Factory func(r Resolver) (any, error)

// TypeRegistry accepts component mappings from modules.
type TypeRegistry interface {
	Register(t reflect.Type, factory Factory) error
	RegisterSingleton(t reflect.Type, factory Factory) error
	RegisterInstance(t reflect.Type, instance any) error
}

// Container is the dependency-injection surface the initializer drives.
type Container interface {
	Resolver
	TypeRegistry
}

// Module is implemented by every module type listed in a catalog.
type Module interface {
	// RegisterTypes registers the module's component mappings.
	RegisterTypes(ctx context.Context, registry TypeRegistry) error
	// OnInitialized runs once all of the module's registrations are in place.
	OnInitialized(ctx context.Context, resolver Resolver) error
}

// StateListener is told about every descriptor state transition.
type StateListener func(d *Descriptor, state ModuleState)

// InitializerOption customizes an Initializer.
type InitializerOption func(*Initializer)

// WithStateListener registers fn for state transitions.
func WithStateListener(fn StateListener) InitializerOption {
	return func(i *Initializer) {
		if fn != nil {
			i.listeners = append(i.listeners, fn)
		}
	}
}

// Initializer resolves module instances through a Container and activates them.
type Initializer struct {
	container Container
	logger    Logger
	listeners []StateListener
}

// NewInitializer creates an initializer. A nil logger discards failure reports.
func NewInitializer(container Container, logger Logger, opts ...InitializerOption) (*Initializer, error) {
	if container == nil {
		return nil, fmt.Errorf("%w: container is required", ErrInvalidArgument)
	}
	if logger == nil {
		logger = nopLogger{}
	}
	i := &Initializer{container: container, logger: logger}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Initialize resolves and activates the module described by d. Initializing
// an already Initialized module is a no-op.
//
// Every failure is reported as exactly one *InitializeError, logged once
// before it is returned. The descriptor is left in Initializing in that case;
// retrying or aborting is up to the caller. A retry skips RegisterTypes when
// it already succeeded.
func (i *Initializer) Initialize(ctx context.Context, d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("%w: descriptor is nil", ErrInvalidArgument)
	}
	if d.State() == Initialized {
		return nil
	}
	if d.advance(Initializing) {
		i.notify(d, Initializing)
	}

	var instance Module
	err := runSafely("module "+d.name, func() error {
		var err error
		instance, err = i.ResolveModule(ctx, d.moduleType)
		if err != nil {
			return err
		}
		if !d.registered.Load() {
			if err := instance.RegisterTypes(ctx, i.container); err != nil {
				return fmt.Errorf("register types: %w", err)
			}
			d.registered.Store(true)
		}
		if err := instance.OnInitialized(ctx, i.container); err != nil {
			return fmt.Errorf("on initialized: %w", err)
		}
		return nil
	})
	if err != nil {
		return i.handleInitializationError(d, componentOf(instance), err)
	}

	if d.advance(Initialized) {
		i.notify(d, Initialized)
	}
	return nil
}

// ResolveModule asks the container for an instance of moduleType and checks
// that it implements Module.
func (i *Initializer) ResolveModule(ctx context.Context, moduleType reflect.Type) (Module, error) {
	if moduleType == nil {
		return nil, fmt.Errorf("%w: module type is nil", ErrFailedToResolveType)
	}
	instance, err := i.container.Resolve(moduleType)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", TypeName(moduleType), err)
	}
	module, ok := instance.(Module)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not implement modularity.Module", ErrFailedToResolveType, TypeName(moduleType))
	}
	return module, nil
}

// handleInitializationError wraps err in an *InitializeError, logs the result
// once and returns it. An *InitializeError found in err's chain is returned
// as is.
func (i *Initializer) handleInitializationError(d *Descriptor, component string, err error) error {
	var moduleErr *InitializeError
	var existing *InitializeError
	if errors.As(err, &existing) {
		moduleErr = existing
	} else {
		moduleErr = &InitializeError{Module: d.name, Component: component, Err: err}
	}

	i.logger.Log(moduleErr.Error(), CategoryException, PriorityHigh)
	return moduleErr
}

func (i *Initializer) notify(d *Descriptor, state ModuleState) {
	for _, fn := range i.listeners {
		fn(d, state)
	}
}

// componentOf returns the package path of a resolved module instance.
func componentOf(instance Module) string {
	if instance == nil {
		return ""
	}
	t := reflect.TypeOf(instance)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath()
}
