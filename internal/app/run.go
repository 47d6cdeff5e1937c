package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/modkit/internal/ctxlog"
	"github.com/vk/modkit/internal/modularity"
)

// Report summarizes what a run did with each module it touched.
type Report struct {
	Initialized []string
	Failed      []string
	Skipped     []string
}

// Run validates the catalog, initializes the modules marked for application
// start together with their dependencies, then loads the modules named in
// Config.Load. With the health check server enabled, Run keeps serving until
// ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, app.logger)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Run method started.")

	serving := app.healthCheckServer()
	defer func() {
		if err := app.closeHealthCheckServer(); err != nil {
			logger.Warn("Health check server did not close cleanly.", "error", err)
		}
	}()

	if err := app.catalog.Validate(); err != nil {
		return fmt.Errorf("catalog validation failed: %w", err)
	}
	logger.Debug("Catalog validation passed.", "modules", app.catalog.Len())

	eager, err := app.catalog.CompleteList(app.catalog.ModulesByMode(modularity.OnApplicationStart))
	if err != nil {
		return fmt.Errorf("failed to collect startup modules: %w", err)
	}
	ordered, err := app.catalog.SortByDependencies(eager)
	if err != nil {
		return fmt.Errorf("failed to order startup modules: %w", err)
	}

	logger.Info("Initializing startup modules...", "count", len(ordered))
	runErr := app.initializeInOrder(ctx, ordered)

	if runErr == nil || app.config.ContinueOnError {
		for _, name := range app.config.Load {
			if err := app.LoadModule(ctx, name); err != nil {
				runErr = errors.Join(runErr, err)
				if !app.config.ContinueOnError {
					break
				}
			}
		}
	}

	report := app.Report()
	logger.Info("Module bootstrap finished.",
		"initialized", len(report.Initialized),
		"failed", len(report.Failed),
		"skipped", len(report.Skipped),
	)
	if runErr != nil {
		return runErr
	}

	if serving {
		logger.Info("Bootstrap complete, serving health checks until shutdown.")
		<-ctx.Done()
	}

	logger.Debug("App.Run method finished.")
	return nil
}

// LoadModule initializes the named module after any of its dependencies that
// are not initialized yet. Loading an initialized module is a no-op.
func (app *App) LoadModule(ctx context.Context, name string) error {
	ctx = ctxlog.WithLogger(ctx, app.logger)
	logger := ctxlog.FromContext(ctx)

	d, ok := app.catalog.Find(name)
	if !ok {
		return fmt.Errorf("load module '%s': %w", name, modularity.ErrModuleNotFound)
	}
	if d.State() == modularity.Initialized {
		logger.Debug("Module already initialized.", "module", name)
		return nil
	}

	list, err := app.catalog.CompleteList([]*modularity.Descriptor{d})
	if err != nil {
		return fmt.Errorf("load module '%s': %w", name, err)
	}
	ordered, err := app.catalog.SortByDependencies(list)
	if err != nil {
		return fmt.Errorf("load module '%s': %w", name, err)
	}

	logger.Info("Loading module on demand.", "module", name, "modules", len(ordered))
	if err := app.initializeInOrder(ctx, ordered); err != nil {
		return fmt.Errorf("load module '%s': %w", name, err)
	}
	return nil
}

// Report returns a snapshot of the modules handled so far.
func (app *App) Report() Report {
	app.mu.Lock()
	defer app.mu.Unlock()
	return Report{
		Initialized: append([]string(nil), app.report.Initialized...),
		Failed:      append([]string(nil), app.report.Failed...),
		Skipped:     append([]string(nil), app.report.Skipped...),
	}
}

// initializeInOrder initializes ordered modules one after another. Modules
// already initialized are passed over. A module whose dependencies did not all
// initialize is skipped. The first failure aborts unless ContinueOnError is
// set, in which case all failures are joined.
func (app *App) initializeInOrder(ctx context.Context, ordered []*modularity.Descriptor) error {
	logger := ctxlog.FromContext(ctx)

	var errs []error
	for _, d := range ordered {
		if d.State() == modularity.Initialized {
			continue
		}
		if dep := app.pendingDependency(d); dep != "" {
			logger.Warn("Skipping module, dependency is not initialized.", "module", d.Name(), "dependency", dep)
			app.record(&app.report.Skipped, d.Name())
			continue
		}

		mctx := ctxlog.With(ctx, "module", d.Name())
		if err := app.initializer.Initialize(mctx, d); err != nil {
			app.record(&app.report.Failed, d.Name())
			if !app.config.ContinueOnError {
				return err
			}
			errs = append(errs, err)
			continue
		}
		app.record(&app.report.Initialized, d.Name())
	}
	return errors.Join(errs...)
}

// pendingDependency returns the first dependency of d that is not initialized.
func (app *App) pendingDependency(d *modularity.Descriptor) string {
	for _, dep := range d.DependsOn {
		if !app.catalog.IsInitialized(dep) {
			return dep
		}
	}
	return ""
}

func (app *App) record(list *[]string, name string) {
	app.mu.Lock()
	defer app.mu.Unlock()
	*list = append(*list, name)
}
