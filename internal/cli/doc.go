// Package cli turns the modkit command line into an app.Config. Catalog
// paths may be given with -catalog or positionally; invalid input is reported
// as an *ExitError carrying the process exit code.
package cli
