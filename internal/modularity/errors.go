package modularity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument indicates a construction-time contract violation.
	ErrInvalidArgument = errors.New("modularity: invalid argument")
	// ErrDuplicateModuleName indicates two descriptors share a name.
	ErrDuplicateModuleName = errors.New("modularity: duplicate module name")
	// ErrDependencyModuleNotFound indicates a dependency that is absent from the relevant set.
	ErrDependencyModuleNotFound = errors.New("modularity: dependency module not found")
	// ErrCyclicDependency indicates a cycle in the dependency graph.
	ErrCyclicDependency = errors.New("modularity: cyclic dependency")
	// ErrModuleInitialize indicates that resolving or activating a module failed.
	ErrModuleInitialize = errors.New("modularity: module initialization failed")
	// ErrFailedToResolveType indicates the resolver was asked for an absent type.
	ErrFailedToResolveType = errors.New("modularity: failed to resolve type")
	// ErrModuleNotFound indicates a lookup by name missed the catalog.
	ErrModuleNotFound = errors.New("modularity: module not found")
)

// DuplicateModuleError names the module that was declared more than once.
type DuplicateModuleError struct {
	Name string
}

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("duplicate module name '%s'", e.Name)
}

func (e *DuplicateModuleError) Is(target error) bool { return target == ErrDuplicateModuleName }

// DependencyNotFoundError names a module and the dependency it could not find.
// InCatalog is set when the dependency exists in the catalog but was not part
// of the set handed to SortByDependencies.
type DependencyNotFoundError struct {
	Module     string
	Dependency string
	InCatalog  bool
}

func (e *DependencyNotFoundError) Error() string {
	if e.InCatalog {
		return fmt.Sprintf("module '%s' depends on '%s', which is in the catalog but not in the set being ordered", e.Module, e.Dependency)
	}
	return fmt.Sprintf("module '%s' depends on '%s', which is not in the catalog", e.Module, e.Dependency)
}

func (e *DependencyNotFoundError) Is(target error) bool { return target == ErrDependencyModuleNotFound }

// CyclicDependencyError carries the cycle as a path whose first and last
// elements are the same module, e.g. [a b a].
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency detected: %s", strings.Join(e.Path, " -> "))
}

func (e *CyclicDependencyError) Is(target error) bool { return target == ErrCyclicDependency }

// Modules returns the distinct module names taking part in the cycle.
func (e *CyclicDependencyError) Modules() []string {
	if len(e.Path) < 2 {
		return append([]string(nil), e.Path...)
	}
	return append([]string(nil), e.Path[:len(e.Path)-1]...)
}

// InitializeError reports a failure while resolving or activating a module.
type InitializeError struct {
	Module string
	// Component is the package path of the resolved module implementation,
	// empty when resolution itself failed.
	Component string
	Err       error
}

func (e *InitializeError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("failed to initialize module '%s' from '%s': %v", e.Module, e.Component, e.Err)
	}
	return fmt.Sprintf("failed to initialize module '%s': %v", e.Module, e.Err)
}

func (e *InitializeError) Unwrap() error { return e.Err }

func (e *InitializeError) Is(target error) bool { return target == ErrModuleInitialize }
