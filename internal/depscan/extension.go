package depscan

import (
	"context"
	"path/filepath"

	"github.com/vk/checkgrid/internal/env"
	"github.com/vk/checkgrid/internal/extension"
	"github.com/vk/checkgrid/internal/lazy"
)

// IntegrationID keys this integration in the extension registry.
const IntegrationID extension.ID = "dependency-check"

// DefaultSuppressionFileName is the conventional suppression file location,
// relative to the project root.
const DefaultSuppressionFileName = "dependency-check-suppression.xml"

// Extension is the configuration extension of the scanning integration. Its
// fields are lazy values: configuration code may override them any time
// before finalization; after Finalize they are frozen and further writes
// panic.
type Extension struct {
	// Skip disables the whole integration for the run. The automatic skip
	// rule latches it to true at finalization when it fires.
	Skip *lazy.Value[bool]
	// Threshold is the severity at or above which a finding fails the scan,
	// on the scanner's native 0-10 scale.
	Threshold *lazy.Value[float64]
	// PrintCauseEnabled turns on the vulnerability-evidence diagnostic task.
	PrintCauseEnabled *lazy.Value[bool]
	// SuppressionFile is the path of the suppression allow-list artifact.
	SuppressionFile *lazy.Value[string]
	// Edition is the licensed edition of the scanning tool.
	Edition *lazy.Value[Edition]

	gate *extension.SkipGate
}

// NewExtension builds the extension with its declared conventions: skip
// false, threshold 0.0, print-cause off, the suppression file next to the
// project root, and the edition taken from the environment override when one
// is set, UNKNOWN otherwise.
func NewExtension(root string, props *env.Properties) *Extension {
	ext := &Extension{
		Skip:              lazy.New[bool]("depscan.skip").Convention(false),
		Threshold:         lazy.New[float64]("depscan.threshold").Convention(0),
		PrintCauseEnabled: lazy.New[bool]("depscan.printCauseEnabled").Convention(false),
		SuppressionFile: lazy.New[string]("depscan.suppressionFile").
			Convention(filepath.Join(root, DefaultSuppressionFileName)),
		Edition: lazy.New[Edition]("depscan.edition").ConventionFunc(func() (Edition, bool) {
			if s, ok := props.EditionOverride(); ok {
				return ParseEdition(s), true
			}
			return EditionUnknown, true
		}),
	}
	ext.gate = &extension.SkipGate{
		Integration: IntegrationID,
		Skip:        ext.Skip,
		Auto: func() (string, bool) {
			if ext.Edition.MustGet() == EditionCommunity && props.IsPullRequestBuild() {
				return "the community edition cannot analyze pull-request builds", true
			}
			return "", false
		},
	}
	return ext
}

// Finalize resolves the effective skip decision through the gate and freezes
// every field. It runs exactly once, at the registry's finalization barrier,
// strictly after all ordinary configuration-phase writes and strictly before
// any task condition is evaluated.
func (e *Extension) Finalize(ctx context.Context) {
	e.gate.Resolve(ctx)
	e.Skip.Freeze()
	e.Threshold.Freeze()
	e.PrintCauseEnabled.Freeze()
	e.SuppressionFile.Freeze()
	e.Edition.Freeze()
}

// Skipped reports the effective skip decision. Task conditions read it at
// execution time, after finalization has latched any automatic skip.
func (e *Extension) Skipped() bool {
	return e.Skip.GetOr(false)
}
