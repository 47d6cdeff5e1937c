package modularity

import (
	"fmt"
	"sort"
)

// SortByDependencies orders descriptors so that every module appears after
// all modules it depends on. Modules without an ordering constraint between
// them keep their catalog insertion order.
//
// Every dependency must be part of descriptors. A dependency that only exists
// in the wider catalog is still reported as ErrDependencyModuleNotFound, with
// DependencyNotFoundError.InCatalog set.
func (c *Catalog) SortByDependencies(descriptors []*Descriptor) ([]*Descriptor, error) {
	ordered, err := c.inCatalogOrder(descriptors)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Descriptor, len(ordered))
	for _, d := range ordered {
		if _, dup := byName[d.name]; dup {
			return nil, &DuplicateModuleError{Name: d.name}
		}
		byName[d.name] = d
	}

	for _, d := range ordered {
		for _, dep := range d.DependsOn {
			if _, ok := byName[dep]; ok {
				continue
			}
			return nil, &DependencyNotFoundError{
				Module:     d.name,
				Dependency: dep,
				InCatalog:  c.Exists(dep),
			}
		}
	}

	// Depth-first search with two marks:
	// resolved: fully visited, all dependencies already emitted.
	// onPath: on the current traversal path; reaching one again is a cycle.
	resolved := make(map[string]bool, len(ordered))
	onPath := make(map[string]bool)
	var path []string
	result := make([]*Descriptor, 0, len(ordered))

	var visit func(d *Descriptor) error
	visit = func(d *Descriptor) error {
		if resolved[d.name] {
			return nil
		}
		if onPath[d.name] {
			return &CyclicDependencyError{Path: cyclePath(path, d.name)}
		}

		onPath[d.name] = true
		path = append(path, d.name)

		for _, dep := range d.DependsOn {
			if err := visit(byName[dep]); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		delete(onPath, d.name)
		resolved[d.name] = true
		result = append(result, d)
		return nil
	}

	for _, d := range ordered {
		if err := visit(d); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// cyclePath cuts the traversal path at the first occurrence of name and closes
// the loop, e.g. path [x a b] reaching a again yields [a b a].
func cyclePath(path []string, name string) []string {
	for i, n := range path {
		if n == name {
			cycle := append([]string(nil), path[i:]...)
			return append(cycle, name)
		}
	}
	return []string{name, name}
}

// inCatalogOrder returns a copy of descriptors sorted by catalog insertion
// index. Descriptors that are not in the catalog keep their relative order
// after the catalog members.
func (c *Catalog) inCatalogOrder(descriptors []*Descriptor) ([]*Descriptor, error) {
	c.mu.RLock()
	index := make(map[*Descriptor]int, len(c.items))
	for i, d := range c.items {
		index[d] = i
	}
	total := len(c.items)
	c.mu.RUnlock()

	ordered := make([]*Descriptor, len(descriptors))
	rank := make(map[*Descriptor]int, len(descriptors))
	for i, d := range descriptors {
		if d == nil {
			return nil, fmt.Errorf("%w: descriptor at position %d is nil", ErrInvalidArgument, i)
		}
		ordered[i] = d
		if idx, ok := index[d]; ok {
			rank[d] = idx
		} else {
			rank[d] = total + i
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank[ordered[i]] < rank[ordered[j]]
	})
	return ordered, nil
}
