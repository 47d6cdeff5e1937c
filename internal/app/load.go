package app

import (
	"fmt"

	"github.com/vk/modkit/internal/ctxlog"
	"github.com/vk/modkit/internal/hclcatalog"
	"github.com/vk/modkit/internal/modularity"
)

// loadCatalog fills the catalog from the configured HCL files, or from the
// built-in module list when none are configured.
func (app *App) loadCatalog() error {
	logger := ctxlog.FromContext(app.ctx)

	if len(app.config.CatalogPaths) == 0 {
		logger.Debug("No catalog paths given, cataloging built-in modules.")
		for _, b := range app.builtins {
			opts := append([]modularity.Option{modularity.WithName(b.Alias)}, b.Options...)
			if _, err := app.catalog.AddType(b.Type, opts...); err != nil {
				return fmt.Errorf("failed to catalog built-in module '%s': %w", b.Alias, err)
			}
		}
		logger.Info("Module catalog loaded.", "source", "builtin", "modules", app.catalog.Len())
		return nil
	}

	logger.Debug("Loading module catalog...", "paths", app.config.CatalogPaths)
	n, err := hclcatalog.NewLoader(app.container).Load(app.ctx, app.catalog, app.config.CatalogPaths...)
	if err != nil {
		return fmt.Errorf("failed to load module catalog: %w", err)
	}
	if n == 0 {
		logger.Warn("No modules declared in catalog files.", "paths", app.config.CatalogPaths)
	}
	logger.Info("Module catalog loaded.", "source", "hcl", "modules", n, "groups", app.catalog.Groups())
	return nil
}
