package app

import (
	"reflect"

	"github.com/vk/modkit/internal/modularity"
	"github.com/vk/modkit/modules/env_vars"
	"github.com/vk/modkit/modules/print"
	"github.com/vk/modkit/modules/shell"
)

// Builtin is a module compiled into the binary. Its alias is the name catalog
// files use in their `type` attribute; its options describe the default
// catalog entry used when no catalog files are given.
type Builtin struct {
	Alias   string
	Type    reflect.Type
	Options []modularity.Option
}

// coreModules is the list of modules compiled into the modkit binary.
var coreModules = []Builtin{
	{
		Alias: env_vars.Name,
		Type:  reflect.TypeFor[*env_vars.Module](),
	},
	{
		Alias:   print.Name,
		Type:    reflect.TypeFor[*print.Module](),
		Options: []modularity.Option{modularity.WithDependsOn(env_vars.Name)},
	},
	{
		Alias: shell.Name,
		Type:  reflect.TypeFor[*shell.Module](),
		Options: []modularity.Option{
			modularity.WithDependsOn(env_vars.Name, print.Name),
			modularity.WithMode(modularity.OnApplicationStart),
		},
	},
}
