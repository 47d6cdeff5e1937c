package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/modkit/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("modkit", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
modkit - Loads application modules from a catalog in dependency order.

Usage:
  modkit [options] [CATALOG_PATH...]

Arguments:
  CATALOG_PATH
    Path to a .hcl file or a directory of .hcl files declaring modules.
    Without one, the built-in modules are loaded.

Options:
`)
		flagSet.PrintDefaults()
	}

	var catalogPaths []string
	flagSet.Func("catalog", "Path to a catalog file or directory. May be repeated.", func(v string) error {
		if v == "" {
			return errors.New("catalog path must not be empty")
		}
		catalogPaths = append(catalogPaths, v)
		return nil
	})
	loadFlag := flagSet.String("load", "", "Comma-separated modules to load on demand after startup.")
	continueFlag := flagSet.Bool("continue-on-error", false, "Keep initializing independent modules after a failure.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	diagURLFlag := flagSet.String("diagnostics-url", "", "socket.io hub receiving module events, e.g. http://localhost:3000.")
	diagNSFlag := flagSet.String("diagnostics-namespace", "/", "socket.io namespace for module events.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	catalogPaths = append(catalogPaths, flagSet.Args()...)

	config, err := app.NewConfig(app.Config{
		CatalogPaths:         catalogPaths,
		Load:                 splitList(*loadFlag),
		ContinueOnError:      *continueFlag,
		HealthcheckPort:      *healthPortFlag,
		LogFormat:            strings.ToLower(*logFormatFlag),
		LogLevel:             strings.ToLower(*logLevelFlag),
		DiagnosticsURL:       *diagURLFlag,
		DiagnosticsNamespace: *diagNSFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
