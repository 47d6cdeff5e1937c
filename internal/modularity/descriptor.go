package modularity

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

// InitializationMode controls when a module is loaded.
type InitializationMode int

const (
	// WhenAvailable modules are loaded lazily, on demand.
	WhenAvailable InitializationMode = iota
	// OnApplicationStart modules are loaded eagerly during bootstrap.
	OnApplicationStart
)

func (m InitializationMode) String() string {
	switch m {
	case WhenAvailable:
		return "when_available"
	case OnApplicationStart:
		return "on_application_start"
	default:
		return fmt.Sprintf("InitializationMode(%d)", int(m))
	}
}

// ParseInitializationMode converts the textual form used in catalog files.
// An empty string yields the default, WhenAvailable.
func ParseInitializationMode(s string) (InitializationMode, error) {
	switch s {
	case "", "when_available":
		return WhenAvailable, nil
	case "on_application_start":
		return OnApplicationStart, nil
	default:
		return WhenAvailable, fmt.Errorf("%w: unknown initialization mode %q", ErrInvalidArgument, s)
	}
}

// ModuleState is the lifecycle position of a descriptor.
type ModuleState int32

const (
	NotStarted ModuleState = iota
	Initializing
	Initialized
)

func (s ModuleState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Initializing:
		return "initializing"
	case Initialized:
		return "initialized"
	default:
		return fmt.Sprintf("ModuleState(%d)", int32(s))
	}
}

// Descriptor is the metadata record of a module. Name and Type are fixed at
// construction; the remaining fields may be adjusted until the descriptor is
// ordered for loading.
type Descriptor struct {
	name       string
	moduleType reflect.Type
	state      atomic.Int32
	// registered is set once RegisterTypes succeeded, so a retry only
	// repeats activation.
	registered atomic.Bool

	// DependsOn lists the names of modules that must be initialized first.
	DependsOn []string
	Mode      InitializationMode
	// Ref optionally points at the location the module binary was found.
	Ref   string
	Group string
}

// Option customizes a descriptor during construction.
type Option func(*Descriptor)

// WithName overrides the name. Only meaningful for Catalog.AddType, where the
// name is otherwise derived from the type.
func WithName(name string) Option {
	return func(d *Descriptor) { d.name = name }
}

// WithMode sets the initialization mode.
func WithMode(mode InitializationMode) Option {
	return func(d *Descriptor) { d.Mode = mode }
}

// WithDependsOn appends dependency names.
func WithDependsOn(names ...string) Option {
	return func(d *Descriptor) { d.DependsOn = append(d.DependsOn, names...) }
}

// WithRef sets the module location reference.
func WithRef(ref string) Option {
	return func(d *Descriptor) { d.Ref = ref }
}

// WithGroup sets the group label.
func WithGroup(group string) Option {
	return func(d *Descriptor) { d.Group = group }
}

// NewDescriptor builds a descriptor for moduleType under the given name.
func NewDescriptor(moduleType reflect.Type, name string, opts ...Option) (*Descriptor, error) {
	d := &Descriptor{
		name:       name,
		moduleType: moduleType,
		DependsOn:  []string{},
		Mode:       WhenAvailable,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.moduleType == nil {
		return nil, fmt.Errorf("%w: module type is required", ErrInvalidArgument)
	}
	if d.name == "" {
		return nil, fmt.Errorf("%w: module name is required for type %s", ErrInvalidArgument, TypeName(d.moduleType))
	}
	for i, dep := range d.DependsOn {
		if dep == "" {
			return nil, fmt.Errorf("%w: module '%s' has an empty dependency name at position %d", ErrInvalidArgument, d.name, i)
		}
	}
	return d, nil
}

// Name returns the unique module name.
func (d *Descriptor) Name() string { return d.name }

// Type returns the module implementation type.
func (d *Descriptor) Type() reflect.Type { return d.moduleType }

// State returns the current lifecycle state.
func (d *Descriptor) State() ModuleState { return ModuleState(d.state.Load()) }

// advance moves the descriptor forward to next. It reports false when the
// descriptor is already at or past next; states never move backwards.
func (d *Descriptor) advance(next ModuleState) bool {
	for {
		cur := d.state.Load()
		if ModuleState(cur) >= next {
			return false
		}
		if d.state.CompareAndSwap(cur, int32(next)) {
			return true
		}
	}
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s (%s, %s)", d.name, TypeName(d.moduleType), d.State())
}

// TypeName renders the fully qualified identity of t, e.g.
// "*github.com/vk/modkit/modules/shell.Module".
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Pointer {
		return "*" + TypeName(t.Elem())
	}
	if t.PkgPath() != "" && t.Name() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}
