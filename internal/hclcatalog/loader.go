// Package hclcatalog populates a module catalog from HCL files.
//
//	module "shell" {
//	  type       = "shell"
//	  mode       = "on_application_start"
//	  depends_on = [module.env_vars, "print"]
//	  group      = "core"
//	}
//
// `type` is resolved through a TypeLookup, either by alias or by fully
// qualified type name. Dependencies may be written as `module.<name>`
// references or as plain strings; whether they exist is left to
// Catalog.Validate.
package hclcatalog

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/modkit/internal/ctxlog"
	"github.com/vk/modkit/internal/fsutil"
	"github.com/vk/modkit/internal/modularity"
)

// Extension is the suffix of catalog files.
const Extension = ".hcl"

// TypeLookup maps the `type` attribute of a module block to a Go type.
type TypeLookup interface {
	LookupType(name string) (reflect.Type, bool)
}

// Loader reads catalog files into descriptors.
type Loader struct {
	types TypeLookup
}

// NewLoader creates a loader resolving module types through types.
func NewLoader(types TypeLookup) *Loader {
	return &Loader{types: types}
}

// Load parses every catalog file under paths and adds the declared modules to
// catalog in file order, then block order. Nothing is added when any file
// fails to parse or decode.
func (l *Loader) Load(ctx context.Context, catalog *modularity.Catalog, paths ...string) (int, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL catalog loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, Extension)
	if err != nil {
		return 0, err
	}
	logger.Debug("Discovered catalog files.", "count", len(files))

	parser := hclparse.NewParser()
	var descriptors []*modularity.Descriptor

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return 0, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return 0, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, block := range root.Modules {
			d, err := l.translateModule(block)
			if err != nil {
				return 0, fmt.Errorf("%s: %w", file, err)
			}
			descriptors = append(descriptors, d)
		}
	}

	seen := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		if _, dup := seen[d.Name()]; dup || catalog.Exists(d.Name()) {
			return 0, fmt.Errorf("add module '%s': %w", d.Name(), &modularity.DuplicateModuleError{Name: d.Name()})
		}
		seen[d.Name()] = struct{}{}
	}

	for _, d := range descriptors {
		if err := catalog.Add(d); err != nil {
			return 0, fmt.Errorf("add module '%s': %w", d.Name(), err)
		}
	}

	logger.Debug("HCL catalog loading complete.", "modules", len(descriptors))
	return len(descriptors), nil
}

// translateModule converts a decoded block into a descriptor.
func (l *Loader) translateModule(block *moduleBlock) (*modularity.Descriptor, error) {
	moduleType, ok := l.types.LookupType(block.Type)
	if !ok {
		return nil, fmt.Errorf("module '%s': %w: unknown type %q", block.Name, modularity.ErrFailedToResolveType, block.Type)
	}

	mode, err := modularity.ParseInitializationMode(block.Mode)
	if err != nil {
		return nil, fmt.Errorf("module '%s': %w", block.Name, err)
	}

	deps, diags := dependencyNames(block.DependsOn)
	if diags.HasErrors() {
		return nil, fmt.Errorf("module '%s': invalid depends_on: %w", block.Name, diags)
	}

	return modularity.NewDescriptor(moduleType, block.Name,
		modularity.WithMode(mode),
		modularity.WithDependsOn(deps...),
		modularity.WithGroup(block.Group),
		modularity.WithRef(block.Ref),
	)
}
