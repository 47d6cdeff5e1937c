// Package app wires the module system into a runnable application. It builds
// the container, catalog and initializer for one run, loads the catalog from
// HCL files or the built-in module list, and drives startup and on-demand
// module loading, decoupled from any specific entrypoint like a CLI.
package app
