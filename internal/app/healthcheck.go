package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/vk/modkit/internal/ctxlog"
	"github.com/vk/modkit/internal/modularity"
)

// ModuleStatus is the JSON view of one catalog entry.
type ModuleStatus struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Mode      string   `json:"mode"`
	State     string   `json:"state"`
	Group     string   `json:"group,omitempty"`
	DependsOn []string `json:"depends_on"`
}

func moduleStatus(d *modularity.Descriptor) ModuleStatus {
	return ModuleStatus{
		Name:      d.Name(),
		Type:      modularity.TypeName(d.Type()),
		Mode:      d.Mode.String(),
		State:     d.State().String(),
		Group:     d.Group,
		DependsOn: append([]string{}, d.DependsOn...),
	}
}

// router serves the health and module state endpoints.
func (app *App) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Get("/health", app.healthHandler)
	r.Get("/modules", app.modulesHandler)
	r.Get("/modules/{name}", app.moduleHandler)
	return r
}

func (app *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (app *App) modulesHandler(w http.ResponseWriter, r *http.Request) {
	modules := app.catalog.Modules()
	statuses := make([]ModuleStatus, 0, len(modules))
	for _, d := range modules {
		statuses = append(statuses, moduleStatus(d))
	}
	app.writeJSON(w, http.StatusOK, statuses)
}

func (app *App) moduleHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	d, ok := app.catalog.Find(name)
	if !ok {
		app.writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("module '%s' not found", name)})
		return
	}
	app.writeJSON(w, http.StatusOK, moduleStatus(d))
}

func (app *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxlog.FromContext(app.ctx).Warn("Failed to write response.", "error", err)
	}
}

// healthCheckServer starts the health check HTTP server in the background and
// reports whether it did.
func (app *App) healthCheckServer() bool {
	logger := ctxlog.FromContext(app.ctx)
	if app.config.HealthcheckPort <= 0 {
		logger.Debug("Health check server not started: disabled")
		return false
	}

	addr := fmt.Sprintf(":%d", app.config.HealthcheckPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           app.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	app.mu.Lock()
	app.httpServer = server
	app.mu.Unlock()

	go func() {
		logger.Info("Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
	return true
}

// closeHealthCheckServer shuts the server down once; later calls are no-ops.
func (app *App) closeHealthCheckServer() error {
	logger := ctxlog.FromContext(app.ctx)

	app.mu.Lock()
	server := app.httpServer
	app.httpServer = nil
	app.mu.Unlock()
	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(app.ctx, 5*time.Second)
	defer cancel()

	logger.Info("Shutting down health check server...")
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	logger.Debug("Health check server shut down gracefully.")
	return nil
}
