package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/vk/modkit/internal/container"
	"github.com/vk/modkit/internal/ctxlog"
	"github.com/vk/modkit/internal/diagnostics"
	"github.com/vk/modkit/internal/modularity"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx    context.Context
	outW   io.Writer
	logger *slog.Logger
	config *Config
	runID  string

	builtins  []Builtin
	instances []hostInstance

	container   *container.Container
	catalog     *modularity.Catalog
	initializer *modularity.Initializer
	publisher   *diagnostics.Publisher
	detach      func()
	httpServer  *http.Server

	mu     sync.Mutex
	report Report
}

type hostInstance struct {
	t        reflect.Type
	instance any
}

// Option customizes an App.
type Option func(*App)

// WithBuiltins replaces the modules compiled into the binary.
func WithBuiltins(builtins ...Builtin) Option {
	return func(app *App) { app.builtins = builtins }
}

// WithPublisher publishes catalog activity through p instead of dialing the
// configured diagnostics hub.
func WithPublisher(p *diagnostics.Publisher) Option {
	return func(app *App) { app.publisher = p }
}

// WithInstance registers a host-provided service before any module runs.
func WithInstance(t reflect.Type, instance any) Option {
	return func(app *App) {
		app.instances = append(app.instances, hostInstance{t: t, instance: instance})
	}
}

// NewApp is the constructor for the main application. It returns an App with
// its own logger, container and a populated module catalog.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	runID := uuid.NewString()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW).With("run_id", runID)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	app := &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   cfg,
		runID:    runID,
		builtins: coreModules,
		detach:   func() {},
	}
	for _, opt := range opts {
		opt(app)
	}

	app.container = container.New()
	if err := container.RegisterInstance[io.Writer](app.container, outW); err != nil {
		return nil, fmt.Errorf("register output writer: %w", err)
	}
	for _, hi := range app.instances {
		if err := app.container.RegisterInstance(hi.t, hi.instance); err != nil {
			return nil, fmt.Errorf("register host instance: %w", err)
		}
	}
	for _, b := range app.builtins {
		if err := app.container.Alias(b.Alias, b.Type); err != nil {
			return nil, fmt.Errorf("register built-in module: %w", err)
		}
	}
	logger.Debug("Built-in modules registered.", "count", len(app.builtins))

	app.catalog = modularity.NewCatalog()

	if app.publisher == nil && cfg.DiagnosticsURL != "" {
		p, err := diagnostics.Connect(ctx, cfg.DiagnosticsURL, cfg.DiagnosticsNamespace)
		if err != nil {
			logger.Warn("Diagnostics hub unavailable, continuing without it.", "error", err)
		} else {
			app.publisher = p
		}
	}

	initOpts := []modularity.InitializerOption{modularity.WithStateListener(app.logStateChange)}
	if app.publisher != nil {
		app.detach = app.publisher.Attach(app.catalog)
		initOpts = append(initOpts, modularity.WithStateListener(app.publisher.StateChanged))
	}

	initializer, err := modularity.NewInitializer(app.container, modularity.NewSlogLogger(logger), initOpts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.initializer = initializer

	if err := app.loadCatalog(); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

// Catalog returns the application's module catalog.
func (app *App) Catalog() *modularity.Catalog {
	return app.catalog
}

// Container returns the application's container. This is primarily for testing.
func (app *App) Container() *container.Container {
	return app.container
}

// RunID returns the identifier attached to every log line of this App.
func (app *App) RunID() string {
	return app.runID
}

// Close releases the diagnostics connection and stops the health check server.
func (app *App) Close() {
	app.detach()
	if app.publisher != nil {
		app.publisher.Close()
	}
	if err := app.closeHealthCheckServer(); err != nil {
		app.logger.Warn("Health check server did not close cleanly.", "error", err)
	}
}

func (app *App) logStateChange(d *modularity.Descriptor, state modularity.ModuleState) {
	app.logger.Debug("Module state changed.", "module", d.Name(), "state", state.String())
}
