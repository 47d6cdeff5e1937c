package print

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/vk/modkit/internal/container"
	"github.com/vk/modkit/internal/ctxlog"
	"github.com/vk/modkit/internal/modularity"
	"github.com/vk/modkit/modules/env_vars"
)

// Name is the catalog name of this module.
const Name = "print"

// SettingsPrefix selects the settings the module prints on start.
const SettingsPrefix = "MODKIT_"

// Printer writes key/value listings to the host's output.
type Printer interface {
	PrintValues(title string, values map[string]string) error
}

// Module implements modularity.Module for this package.
type Module struct{}

type writerPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer) Printer {
	return &writerPrinter{out: out}
}

func (p *writerPrinter) PrintValues(title string, values map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := fmt.Fprintf(p.out, "%s:\n", title); err != nil {
		return err
	}
	if len(values) == 0 {
		_, err := fmt.Fprintln(p.out, "      (none)")
		return err
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(p.out, "      %s = %q\n", k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// RegisterTypes registers the Printer service on top of the host's io.Writer.
func (m *Module) RegisterTypes(ctx context.Context, registry modularity.TypeRegistry) error {
	return container.RegisterSingleton(registry, func(r modularity.Resolver) (Printer, error) {
		out, err := container.Resolve[io.Writer](r)
		if err != nil {
			return nil, fmt.Errorf("printer output: %w", err)
		}
		return NewPrinter(out), nil
	})
}

// OnInitialized prints the MODKIT_ settings.
func (m *Module) OnInitialized(ctx context.Context, resolver modularity.Resolver) error {
	settings, err := container.Resolve[env_vars.Settings](resolver)
	if err != nil {
		return err
	}
	printer, err := container.Resolve[Printer](resolver)
	if err != nil {
		return err
	}

	values := settings.WithPrefix(SettingsPrefix)
	ctxlog.FromContext(ctx).Info("Printing settings", "count", len(values))
	return printer.PrintValues("settings", values)
}
