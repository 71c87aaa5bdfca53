// Package quality is the code-quality reporting integration. It uploads the
// host's static-analysis results to an external analysis server through the
// Reporter collaborator and wires the report task into the host pipeline.
package quality

import (
	"context"
	"fmt"

	"github.com/vk/checkgrid/internal/depscan"
	"github.com/vk/checkgrid/internal/env"
	"github.com/vk/checkgrid/internal/extension"
	"github.com/vk/checkgrid/internal/lazy"
	"github.com/vk/checkgrid/internal/pipeline"
)

// IntegrationID keys this integration in the extension registry.
const IntegrationID extension.ID = "quality-report"

// TaskReport is the upload task exposed to the host pipeline.
const TaskReport = "report"

// Reporter is the external analysis-server collaborator. Report assembly
// and upload happen behind this boundary.
type Reporter interface {
	Upload(ctx context.Context, serverURL, projectKey string) error
}

// Extension is the configuration extension of the reporting integration.
type Extension struct {
	Skip       *lazy.Value[bool]
	ServerURL  *lazy.Value[string]
	ProjectKey *lazy.Value[string]
	Edition    *lazy.Value[depscan.Edition]

	gate *extension.SkipGate
}

// NewExtension builds the extension with its conventions. ServerURL has no
// convention: leaving it unset marks the integration unconfigured, and the
// report task skips itself rather than failing.
func NewExtension(projectKey string, props *env.Properties) *Extension {
	ext := &Extension{
		Skip:       lazy.New[bool]("quality.skip").Convention(false),
		ServerURL:  lazy.New[string]("quality.serverUrl"),
		ProjectKey: lazy.New[string]("quality.projectKey").Convention(projectKey),
		Edition: lazy.New[depscan.Edition]("quality.edition").ConventionFunc(func() (depscan.Edition, bool) {
			if s, ok := props.EditionOverride(); ok {
				return depscan.ParseEdition(s), true
			}
			return depscan.EditionUnknown, true
		}),
	}
	ext.gate = &extension.SkipGate{
		Integration: IntegrationID,
		Skip:        ext.Skip,
		Auto: func() (string, bool) {
			if ext.Edition.MustGet() == depscan.EditionCommunity && props.IsPullRequestBuild() {
				return "the community edition cannot report on pull-request builds", true
			}
			return "", false
		},
	}
	return ext
}

// Finalize resolves the skip decision and freezes the extension's fields.
func (e *Extension) Finalize(ctx context.Context) {
	e.gate.Resolve(ctx)
	e.Skip.Freeze()
	e.ServerURL.Freeze()
	e.ProjectKey.Freeze()
	e.Edition.Freeze()
}

// Skipped reports the effective skip decision after finalization.
func (e *Extension) Skipped() bool {
	return e.Skip.GetOr(false)
}

// Integration is the attached reporting integration.
type Integration struct {
	Extension *Extension
	reporter  Reporter
}

// Attach creates and registers the extension and wires the report task. The
// host's aggregate verification task gains a dependency on it.
func Attach(
	ctx context.Context,
	reg *extension.Registry,
	asm *pipeline.Assembler,
	projectKey string,
	props *env.Properties,
	reporter Reporter,
	hostCheck string,
) (*Integration, error) {
	if reporter == nil {
		return nil, fmt.Errorf("host provides no analysis-reporting capability")
	}

	ext := NewExtension(projectKey, props)
	if err := extension.Register(reg, IntegrationID, ext); err != nil {
		return nil, err
	}
	i := &Integration{Extension: ext, reporter: reporter}

	// The upload target only resolves once both coordinates are known;
	// an unconfigured server leaves it unset and the task skips itself.
	target := lazy.Zip(ext.ServerURL, ext.ProjectKey, func(url, key string) uploadTarget {
		return uploadTarget{serverURL: url, projectKey: key}
	})

	err := asm.Attach(pipeline.TaskSpec{
		Name: TaskReport,
		Condition: func() bool {
			if ext.Skipped() {
				return false
			}
			_, configured := target.Get()
			return configured
		},
		Action: func(ctx context.Context) error {
			return i.upload(ctx, target.MustGet())
		},
	})
	if err != nil {
		return nil, err
	}
	if err := asm.DependsOn(hostCheck, TaskReport); err != nil {
		return nil, err
	}
	return i, nil
}

// uploadTarget pairs the analysis server with the project it reports on.
type uploadTarget struct {
	serverURL  string
	projectKey string
}

func (i *Integration) upload(ctx context.Context, target uploadTarget) error {
	if err := i.reporter.Upload(ctx, target.serverURL, target.projectKey); err != nil {
		return fmt.Errorf("uploading analysis report to %s: %w", target.serverURL, err)
	}
	return nil
}
