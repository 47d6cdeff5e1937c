package modularity

import (
	"fmt"
	"reflect"
	"sync"
)

// ChangeAction identifies the kind of collection change.
type ChangeAction int

const (
	ActionAdd ChangeAction = iota
)

func (a ChangeAction) String() string {
	if a == ActionAdd {
		return "add"
	}
	return fmt.Sprintf("ChangeAction(%d)", int(a))
}

// ChangeEvent describes one collection change.
type ChangeEvent struct {
	Action ChangeAction
	Item   *Descriptor
	Index  int
}

// Observer receives collection changes synchronously on the mutating goroutine.
type Observer func(ChangeEvent)

// Catalog owns the ordered set of module descriptors.
type Catalog struct {
	mu    sync.RWMutex
	items []*Descriptor

	obsMu     sync.Mutex
	observers []observerEntry
	nextObsID int
}

type observerEntry struct {
	id int
	fn Observer
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		items: make([]*Descriptor, 0),
	}
}

// Subscribe registers fn for change notifications and returns a function that
// removes it again.
func (c *Catalog) Subscribe(fn Observer) (unsubscribe func()) {
	c.obsMu.Lock()
	id := c.nextObsID
	c.nextObsID++
	c.observers = append(c.observers, observerEntry{id: id, fn: fn})
	c.obsMu.Unlock()

	return func() {
		c.obsMu.Lock()
		defer c.obsMu.Unlock()
		for i, entry := range c.observers {
			if entry.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// Add appends d to the catalog. The collection is left unchanged when the
// name is already taken.
func (c *Catalog) Add(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("%w: descriptor is nil", ErrInvalidArgument)
	}

	c.mu.Lock()
	for _, existing := range c.items {
		if existing.name == d.name {
			c.mu.Unlock()
			return &DuplicateModuleError{Name: d.name}
		}
	}
	c.items = append(c.items, d)
	index := len(c.items) - 1
	c.mu.Unlock()

	c.notify(ChangeEvent{Action: ActionAdd, Item: d, Index: index})
	return nil
}

// AddType builds a descriptor for moduleType and adds it. Without WithName the
// name is the fully qualified type name.
func (c *Catalog) AddType(moduleType reflect.Type, opts ...Option) (*Descriptor, error) {
	if moduleType == nil {
		return nil, fmt.Errorf("%w: module type is required", ErrInvalidArgument)
	}
	d, err := NewDescriptor(moduleType, TypeName(moduleType), opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Add(d); err != nil {
		return nil, err
	}
	return d, nil
}

// AddModule is the typed form of Catalog.AddType.
func AddModule[T Module](c *Catalog, opts ...Option) (*Descriptor, error) {
	return c.AddType(reflect.TypeFor[T](), opts...)
}

// Exists reports whether a module with the given name is in the catalog.
func (c *Catalog) Exists(name string) bool {
	_, ok := c.Find(name)
	return ok
}

// ExistsType reports whether a module of the given type is in the catalog.
func (c *Catalog) ExistsType(moduleType reflect.Type) bool {
	_, ok := c.FindType(moduleType)
	return ok
}

// Exists is the typed form of Catalog.ExistsType.
func Exists[T Module](c *Catalog) bool {
	return c.ExistsType(reflect.TypeFor[T]())
}

// IsInitialized reports whether the named module reached Initialized. Unknown
// names report false.
func (c *Catalog) IsInitialized(name string) bool {
	d, ok := c.Find(name)
	return ok && d.State() == Initialized
}

// IsInitializedType reports whether the first module of the given type reached
// Initialized.
func (c *Catalog) IsInitializedType(moduleType reflect.Type) bool {
	d, ok := c.FindType(moduleType)
	return ok && d.State() == Initialized
}

// IsInitializedModule is the typed form of Catalog.IsInitializedType.
func IsInitializedModule[T Module](c *Catalog) bool {
	return c.IsInitializedType(reflect.TypeFor[T]())
}

// Find returns the descriptor with the given name.
func (c *Catalog) Find(name string) (*Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, d := range c.items {
		if d.name == name {
			return d, true
		}
	}
	return nil, false
}

// FindType returns the first descriptor registered for moduleType.
func (c *Catalog) FindType(moduleType reflect.Type) (*Descriptor, bool) {
	if moduleType == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, d := range c.items {
		if d.moduleType == moduleType {
			return d, true
		}
	}
	return nil, false
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Modules returns a snapshot of all descriptors in insertion order.
func (c *Catalog) Modules() []*Descriptor {
	return c.filter(func(*Descriptor) bool { return true })
}

// ModulesByMode returns the descriptors with the given initialization mode.
func (c *Catalog) ModulesByMode(mode InitializationMode) []*Descriptor {
	return c.filter(func(d *Descriptor) bool { return d.Mode == mode })
}

// ModulesInGroup returns the descriptors labelled with group. The empty group
// selects groupless modules.
func (c *Catalog) ModulesInGroup(group string) []*Descriptor {
	return c.filter(func(d *Descriptor) bool { return d.Group == group })
}

// Groups returns the distinct non-empty group labels in first-seen order.
func (c *Catalog) Groups() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	var groups []string
	for _, d := range c.items {
		if d.Group == "" {
			continue
		}
		if _, ok := seen[d.Group]; ok {
			continue
		}
		seen[d.Group] = struct{}{}
		groups = append(groups, d.Group)
	}
	return groups
}

// Validate checks the whole catalog for duplicate names, missing
// dependencies and cycles, in that order.
func (c *Catalog) Validate() error {
	_, err := c.SortByDependencies(c.Modules())
	return err
}

// CompleteList returns subset together with every module it transitively
// depends on, in catalog order.
func (c *Catalog) CompleteList(subset []*Descriptor) ([]*Descriptor, error) {
	c.mu.RLock()
	byName := make(map[string]*Descriptor, len(c.items))
	for _, d := range c.items {
		byName[d.name] = d
	}
	all := append([]*Descriptor(nil), c.items...)
	c.mu.RUnlock()

	included := make(map[string]bool)
	queue := make([]*Descriptor, 0, len(subset))
	for _, d := range subset {
		if d == nil {
			return nil, fmt.Errorf("%w: descriptor is nil", ErrInvalidArgument)
		}
		if !included[d.name] {
			included[d.name] = true
			queue = append(queue, d)
		}
	}
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		for _, dep := range d.DependsOn {
			if included[dep] {
				continue
			}
			depDesc, ok := byName[dep]
			if !ok {
				return nil, &DependencyNotFoundError{Module: d.name, Dependency: dep}
			}
			included[dep] = true
			queue = append(queue, depDesc)
		}
	}

	result := make([]*Descriptor, 0, len(included))
	for _, d := range all {
		if included[d.name] {
			result = append(result, d)
		}
	}
	return result, nil
}

func (c *Catalog) filter(keep func(*Descriptor) bool) []*Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Descriptor, 0, len(c.items))
	for _, d := range c.items {
		if keep(d) {
			result = append(result, d)
		}
	}
	return result
}

func (c *Catalog) notify(ev ChangeEvent) {
	c.obsMu.Lock()
	observers := append([]observerEntry(nil), c.observers...)
	c.obsMu.Unlock()

	for _, entry := range observers {
		entry.fn(ev)
	}
}
