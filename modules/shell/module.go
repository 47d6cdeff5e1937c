// Package shell is the application's root module. It starts eagerly and
// announces the title taken from settings.
package shell

import (
	"context"

	"github.com/vk/modkit/internal/container"
	"github.com/vk/modkit/internal/ctxlog"
	"github.com/vk/modkit/internal/modularity"
	"github.com/vk/modkit/modules/env_vars"
	"github.com/vk/modkit/modules/print"
)

// Name is the catalog name of this module.
const Name = "shell"

// TitleKey is the setting holding the shell title.
const TitleKey = "MODKIT_TITLE"

const defaultTitle = "modkit"

// Shell exposes the composed application title to other modules.
type Shell struct {
	Title string
}

// Module implements modularity.Module for this package.
type Module struct{}

// RegisterTypes registers the Shell service.
func (m *Module) RegisterTypes(ctx context.Context, registry modularity.TypeRegistry) error {
	return container.RegisterSingleton(registry, func(r modularity.Resolver) (*Shell, error) {
		settings, err := container.Resolve[env_vars.Settings](r)
		if err != nil {
			return nil, err
		}
		title, ok := settings.Get(TitleKey)
		if !ok || title == "" {
			title = defaultTitle
		}
		return &Shell{Title: title}, nil
	})
}

// OnInitialized prints the shell title.
func (m *Module) OnInitialized(ctx context.Context, resolver modularity.Resolver) error {
	sh, err := container.Resolve[*Shell](resolver)
	if err != nil {
		return err
	}
	printer, err := container.Resolve[print.Printer](resolver)
	if err != nil {
		return err
	}

	ctxlog.FromContext(ctx).Info("Shell ready", "title", sh.Title)
	return printer.PrintValues("shell", map[string]string{"title": sh.Title})
}
