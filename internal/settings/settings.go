// Package settings loads the user's settings file and applies its overrides
// to the registered integration extensions. The file is HCL, one block per
// integration:
//
//	integration "dependency-check" {
//	  threshold   = 7.0
//	  print_cause = true
//	}
//
// Loading and applying are split: Load parses into a format-agnostic model,
// Apply writes the model's values into extension fields as explicit
// overrides. Both run during the configuration phase, before finalization.
package settings

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/checkgrid/internal/ctxlog"
)

// Model is the parsed settings file, independent of HCL specifics.
type Model struct {
	Integrations []Integration
}

// Integration is one integration block's raw attribute values.
type Integration struct {
	ID         string
	Attributes map[string]cty.Value
}

type fileSchema struct {
	Integrations []*integrationBlock `hcl:"integration,block"`
}

type integrationBlock struct {
	ID   string   `hcl:"id,label"`
	Body hcl.Body `hcl:",remain"`
}

// Load parses the settings file at path into a Model. Attribute expressions
// must be literal; the settings surface has no evaluation context.
func Load(ctx context.Context, path string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing settings file %s: %w", path, diags)
	}

	var schema fileSchema
	if diags := gohcl.DecodeBody(file.Body, nil, &schema); diags.HasErrors() {
		return nil, fmt.Errorf("decoding settings file %s: %w", path, diags)
	}

	model := &Model{}
	for _, block := range schema.Integrations {
		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("reading integration %q settings: %w", block.ID, diags)
		}
		integ := Integration{ID: block.ID, Attributes: make(map[string]cty.Value, len(attrs))}
		for name, attr := range attrs {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("evaluating %s.%s: %w", block.ID, name, diags)
			}
			integ.Attributes[name] = val
		}
		model.Integrations = append(model.Integrations, integ)
	}
	logger.Debug("Settings file loaded.", "path", path, "integrations", len(model.Integrations))
	return model, nil
}
