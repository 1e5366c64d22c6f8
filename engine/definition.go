package engine

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	berrors "github.com/lumenui/bridge/errors"
)

// Definition is a compiled UI definition: the block tree of one source
// file with attribute expressions left unevaluated. Definitions are
// immutable once parsed and cached per path.
type Definition struct {
	Path    string
	Windows []*NodeSpec
}

// NodeSpec is one declared node: kind, optional label, ordered attribute
// expressions, and child specs.
type NodeSpec struct {
	Kind     NodeKind
	Label    string
	Attrs    []AttrSpec
	Children []*NodeSpec
}

// AttrSpec is one attribute with its unevaluated expression.
type AttrSpec struct {
	Name string
	Expr hcl.Expression
}

var nodeKinds = map[string]NodeKind{
	"window": KindWindow,
	"column": KindColumn,
	"row":    KindRow,
	"text":   KindText,
	"button": KindButton,
	"list":   KindList,
}

// ParseDefinition compiles a definition source. Only window blocks may
// appear at the top level; a definition without windows is an error
// because loading it could never produce a root object.
func ParseDefinition(path string, src []byte) (*Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, berrors.Parse(berrors.PhaseParse, path, diags)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, berrors.Parse(berrors.PhaseParse, path,
			fmt.Errorf("unexpected body type %T", file.Body))
	}

	def := &Definition{Path: path}

	if len(body.Attributes) > 0 {
		return nil, berrors.Parse(berrors.PhaseParse, path,
			fmt.Errorf("top-level attributes are not allowed"))
	}

	for _, block := range body.Blocks {
		if block.Type != "window" {
			return nil, berrors.Parse(berrors.PhaseParse, path,
				fmt.Errorf("top-level block must be window, got %q at %s",
					block.Type, block.DefRange().String()))
		}
		spec, err := parseBlock(path, block)
		if err != nil {
			return nil, err
		}
		def.Windows = append(def.Windows, spec)
	}

	if len(def.Windows) == 0 {
		return nil, berrors.Parse(berrors.PhaseParse, path,
			fmt.Errorf("definition declares no window"))
	}
	return def, nil
}

func parseBlock(path string, block *hclsyntax.Block) (*NodeSpec, error) {
	kind, ok := nodeKinds[block.Type]
	if !ok {
		return nil, berrors.Parse(berrors.PhaseParse, path,
			fmt.Errorf("unknown block type %q at %s", block.Type, block.DefRange().String()))
	}

	spec := &NodeSpec{Kind: kind}
	if len(block.Labels) > 0 {
		spec.Label = block.Labels[0]
	}
	if kind == KindList && spec.Label == "" {
		return nil, berrors.Parse(berrors.PhaseParse, path,
			fmt.Errorf("list block at %s needs a projection label", block.DefRange().String()))
	}

	// hclsyntax keeps attributes in a map; order them by source position
	// so builds and bindings are deterministic.
	for _, attr := range orderedAttributes(block.Body) {
		spec.Attrs = append(spec.Attrs, AttrSpec{Name: attr.Name, Expr: attr.Expr})
	}

	for _, child := range block.Body.Blocks {
		cs, err := parseBlock(path, child)
		if err != nil {
			return nil, err
		}
		if cs.Kind == KindWindow {
			return nil, berrors.Parse(berrors.PhaseParse, path,
				fmt.Errorf("window block cannot be nested at %s", child.DefRange().String()))
		}
		spec.Children = append(spec.Children, cs)
	}
	return spec, nil
}

func orderedAttributes(body *hclsyntax.Body) []*hclsyntax.Attribute {
	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, a := range body.Attributes {
		attrs = append(attrs, a)
	}
	for i := 1; i < len(attrs); i++ {
		for j := i; j > 0 && beforeInSource(attrs[j], attrs[j-1]); j-- {
			attrs[j], attrs[j-1] = attrs[j-1], attrs[j]
		}
	}
	return attrs
}

func beforeInSource(a, b *hclsyntax.Attribute) bool {
	ra, rb := a.SrcRange.Start, b.SrcRange.Start
	if ra.Line != rb.Line {
		return ra.Line < rb.Line
	}
	return ra.Column < rb.Column
}

// bound reports whether an attribute expression references runtime
// variables and therefore needs a live binding.
func bound(expr hcl.Expression) bool {
	return len(expr.Variables()) > 0
}
