package hclcatalog

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes all top-level blocks of a catalog file.
type fileRoot struct {
	Modules []*moduleBlock `hcl:"module,block"`
	Remain  hcl.Body       `hcl:",remain"`
}

// moduleBlock is one `module "name" { ... }` declaration.
type moduleBlock struct {
	Name      string         `hcl:"name,label"`
	Type      string         `hcl:"type"`
	Mode      string         `hcl:"mode,optional"`
	DependsOn hcl.Expression `hcl:"depends_on,optional"`
	Group     string         `hcl:"group,optional"`
	Ref       string         `hcl:"ref,optional"`
}
