package hclcatalog

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// moduleRoot is the traversal root of module references, as in `module.shell`.
const moduleRoot = "module"

// dependencyNames extracts module names from a depends_on list. Elements are
// either `module.<name>` references or expressions evaluating to a string.
// An absent or null attribute yields no dependencies.
func dependencyNames(expr hcl.Expression) ([]string, hcl.Diagnostics) {
	if expr == nil {
		return nil, nil
	}
	if len(expr.Variables()) == 0 {
		val, diags := expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		if val.IsNull() {
			return nil, nil
		}
	}

	elems, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		return nil, diags
	}

	names := make([]string, 0, len(elems))
	for _, elem := range elems {
		if name, ok := parseModuleTraversal(elem); ok {
			names = append(names, name)
			continue
		}

		name, elemDiags := stringValue(elem)
		diags = append(diags, elemDiags...)
		if elemDiags.HasErrors() {
			continue
		}
		names = append(names, name)
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return names, diags
}

// parseModuleTraversal recognises a reference of the form `module.<name>`.
func parseModuleTraversal(expr hcl.Expression) (string, bool) {
	traversal, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() {
		return "", false
	}
	if len(traversal) != 2 || traversal.RootName() != moduleRoot {
		return "", false
	}
	attr, ok := traversal[1].(hcl.TraverseAttr)
	if !ok {
		return "", false
	}
	return attr.Name, true
}

// stringValue evaluates a constant expression and converts it to a string.
func stringValue(expr hcl.Expression) (string, hcl.Diagnostics) {
	if vars := expr.Variables(); len(vars) > 0 {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid dependency reference",
			Detail:   fmt.Sprintf("Dependencies must be written as %s.<name> or as a string, got a reference to %q.", moduleRoot, vars[0].RootName()),
			Subject:  expr.Range().Ptr(),
		}}
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	if val.IsNull() || !val.IsKnown() {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid dependency name",
			Detail:   "A dependency name must not be null.",
			Subject:  expr.Range().Ptr(),
		}}
	}

	strVal, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid dependency name",
			Detail:   fmt.Sprintf("A dependency name must be a string: %s.", err),
			Subject:  expr.Range().Ptr(),
		}}
	}
	if strVal.AsString() == "" {
		return "", hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid dependency name",
			Detail:   "A dependency name must not be empty.",
			Subject:  expr.Range().Ptr(),
		}}
	}
	return strVal.AsString(), nil
}
