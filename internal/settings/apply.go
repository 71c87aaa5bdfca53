package settings

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/checkgrid/internal/ctxlog"
	"github.com/vk/checkgrid/internal/depscan"
	"github.com/vk/checkgrid/internal/extension"
	"github.com/vk/checkgrid/internal/quality"
)

// Apply writes the model's attribute values into the registered extensions
// as explicit overrides. A block for an integration that is not registered
// (for instance one whose attachment was contained) logs a warning and is
// ignored, so one broken integration does not invalidate the whole file.
// Unknown attributes within a known block are configuration errors.
func Apply(ctx context.Context, model *Model, reg *extension.Registry, root string) error {
	logger := ctxlog.FromContext(ctx)

	for _, integ := range model.Integrations {
		var err error
		switch extension.ID(integ.ID) {
		case depscan.IntegrationID:
			ext, ok := extension.Lookup[*depscan.Extension](reg, depscan.IntegrationID)
			if !ok {
				logger.Warn("Settings for unattached integration ignored.", "integration", integ.ID)
				continue
			}
			err = applyDepscan(integ, ext, root)
		case quality.IntegrationID:
			ext, ok := extension.Lookup[*quality.Extension](reg, quality.IntegrationID)
			if !ok {
				logger.Warn("Settings for unattached integration ignored.", "integration", integ.ID)
				continue
			}
			err = applyQuality(integ, ext)
		default:
			err = fmt.Errorf("unknown integration %q", integ.ID)
		}
		if err != nil {
			return fmt.Errorf("applying settings: %w", err)
		}
	}
	return nil
}

func applyDepscan(integ Integration, ext *depscan.Extension, root string) error {
	for name, val := range integ.Attributes {
		switch name {
		case "skip":
			b, err := asBool(val)
			if err != nil {
				return attrErr(integ.ID, name, err)
			}
			ext.Skip.Set(b)
		case "threshold":
			f, err := asFloat(val)
			if err != nil {
				return attrErr(integ.ID, name, err)
			}
			if f < 0 || f > 10 {
				return attrErr(integ.ID, name, fmt.Errorf("must be within the scanner's 0-10 scale, got %v", f))
			}
			ext.Threshold.Set(f)
		case "print_cause":
			b, err := asBool(val)
			if err != nil {
				return attrErr(integ.ID, name, err)
			}
			ext.PrintCauseEnabled.Set(b)
		case "suppression_file":
			s, err := asString(val)
			if err != nil {
				return attrErr(integ.ID, name, err)
			}
			if !filepath.IsAbs(s) {
				s = filepath.Join(root, s)
			}
			ext.SuppressionFile.Set(s)
		case "edition":
			s, err := asString(val)
			if err != nil {
				return attrErr(integ.ID, name, err)
			}
			ext.Edition.Set(depscan.ParseEdition(s))
		default:
			return fmt.Errorf("integration %q has no setting %q", integ.ID, name)
		}
	}
	return nil
}

func applyQuality(integ Integration, ext *quality.Extension) error {
	for name, val := range integ.Attributes {
		switch name {
		case "skip":
			b, err := asBool(val)
			if err != nil {
				return attrErr(integ.ID, name, err)
			}
			ext.Skip.Set(b)
		case "server_url":
			s, err := asString(val)
			if err != nil {
				return attrErr(integ.ID, name, err)
			}
			ext.ServerURL.Set(s)
		case "project_key":
			s, err := asString(val)
			if err != nil {
				return attrErr(integ.ID, name, err)
			}
			ext.ProjectKey.Set(s)
		case "edition":
			s, err := asString(val)
			if err != nil {
				return attrErr(integ.ID, name, err)
			}
			ext.Edition.Set(depscan.ParseEdition(s))
		default:
			return fmt.Errorf("integration %q has no setting %q", integ.ID, name)
		}
	}
	return nil
}

func attrErr(id, name string, err error) error {
	return fmt.Errorf("%s.%s: %w", id, name, err)
}

func asBool(val cty.Value) (bool, error) {
	conv, err := convert.Convert(val, cty.Bool)
	if err != nil {
		return false, fmt.Errorf("expected bool: %w", err)
	}
	return conv.True(), nil
}

func asFloat(val cty.Value) (float64, error) {
	conv, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("expected number: %w", err)
	}
	f, _ := conv.AsBigFloat().Float64()
	return f, nil
}

func asString(val cty.Value) (string, error) {
	conv, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("expected string: %w", err)
	}
	return conv.AsString(), nil
}
