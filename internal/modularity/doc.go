// Package modularity is the module lifecycle engine. It owns the catalog of
// module descriptors, validates the dependency graph they declare, computes a
// load order and drives every module through create, register and activate.
//
// # Flow
//
// A bootstrapper fills a Catalog (directly, through AddType/AddModule, or from
// a declarative source such as internal/hclcatalog), calls Validate, then asks
// the catalog to order a stage-filtered subset with SortByDependencies. Each
// descriptor is handed to an Initializer in that order:
//
//	Catalog ──Validate──▶ SortByDependencies ──▶ Initializer.Initialize
//	                                               │
//	                                   Resolver.Resolve(type)
//	                                   Module.RegisterTypes(registry)
//	                                   Module.OnInitialized(resolver)
//
// Graph errors (duplicates, missing dependencies, cycles) surface before any
// module is touched. Initialization failures surface per module as a single
// *InitializeError and are logged once through the configured Logger.
//
// The engine is synchronous: modules are initialized one at a time and the
// ordering step guarantees that dependencies are Initialized first.
package modularity
