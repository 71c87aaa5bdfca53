package depscan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/vk/checkgrid/internal/ctxlog"
	"github.com/vk/checkgrid/internal/env"
	"github.com/vk/checkgrid/internal/extension"
	"github.com/vk/checkgrid/internal/lazy"
	"github.com/vk/checkgrid/internal/pathutil"
	"github.com/vk/checkgrid/internal/pipeline"
)

// Task names exposed to the host pipeline.
const (
	TaskCheckSuppression    = "checkSuppressionFile"
	TaskGenerateSuppression = "generateSuppressionFile"
	TaskUpdateSuppression   = "updateSuppressionFile"
	TaskPrintCause          = "printVulnerabilityCause"
	TaskScanAnalyze         = "scanAnalyze"
)

// ErrThresholdExceeded marks a scan that found a vulnerability at or above
// the configured severity threshold.
var ErrThresholdExceeded = errors.New("severity threshold exceeded")

// Integration is the attached scanning integration: its extension plus the
// wired task state shared between the scan and its lifecycle tasks.
type Integration struct {
	Extension *Extension

	scanner Scanner
	props   *env.Properties
	out     io.Writer

	// report is captured by scanAnalyze for the suppression-candidate and
	// print-cause tasks that run after it.
	report *Report
}

// Attach creates and registers the extension under IntegrationID and wires
// the integration's tasks into the host pipeline. hostCheck names the host's
// aggregate verification task, which gains a dependency on the scan.
//
// Attach performs wiring only; every activation condition closes over the
// extension and is evaluated by the host scheduler at execution time,
// against post-finalization state.
func Attach(
	ctx context.Context,
	reg *extension.Registry,
	asm *pipeline.Assembler,
	root string,
	props *env.Properties,
	scanner Scanner,
	out io.Writer,
	hostCheck string,
) (*Integration, error) {
	if scanner == nil {
		return nil, fmt.Errorf("host provides no dependency-scanning capability")
	}

	ext := NewExtension(root, props)
	if err := extension.Register(reg, IntegrationID, ext); err != nil {
		return nil, err
	}

	i := &Integration{Extension: ext, scanner: scanner, props: props, out: out}

	existingBase := pathutil.ExistingFile(ext.SuppressionFile)
	baseExists := func() bool {
		_, ok := existingBase.Get()
		return ok
	}
	notSkipped := func() bool { return !ext.Skipped() }

	// Candidate path when a base file exists: its sibling on disk.
	updateCandidate := pathutil.Sibling(root, ext.SuppressionFile, pathutil.CandidateName)
	// Candidate path when none exists yet: the sibling of the configured
	// location, which cannot be existence-filtered.
	freshCandidate := lazy.Map(ext.SuppressionFile, func(p string) string {
		return filepath.Join(filepath.Dir(p), pathutil.CandidateName(filepath.Base(p)))
	})

	steps := []pipeline.TaskSpec{
		{
			Name:      TaskCheckSuppression,
			Condition: func() bool { return notSkipped() && baseExists() },
			Action: func(ctx context.Context) error {
				if err := i.scanner.ValidateSuppressions(ctx, existingBase.MustGet()); err != nil {
					return fmt.Errorf("suppression file invalid: %w", err)
				}
				return nil
			},
		},
		{
			Name:      TaskPrintCause,
			Condition: func() bool { return ext.PrintCauseEnabled.GetOr(false) },
			Action:    i.printCause,
		},
		{
			Name:        TaskScanAnalyze,
			Condition:   notSkipped,
			Action:      i.runScan,
			DependsOn:   []string{TaskCheckSuppression},
			FinalizedBy: []string{TaskPrintCause},
		},
		{
			Name:      TaskGenerateSuppression,
			Condition: func() bool { return notSkipped() && !baseExists() },
			DependsOn: []string{TaskScanAnalyze},
			Action: func(ctx context.Context) error {
				return i.scanner.WriteSuppressionCandidate(ctx, i.report, "", freshCandidate.MustGet())
			},
		},
		{
			Name:      TaskUpdateSuppression,
			Condition: func() bool { return notSkipped() && baseExists() },
			DependsOn: []string{TaskScanAnalyze},
			Action: func(ctx context.Context) error {
				return i.scanner.WriteSuppressionCandidate(ctx, i.report, existingBase.MustGet(), updateCandidate.MustGet())
			},
		},
	}
	for _, spec := range steps {
		if err := asm.Attach(spec); err != nil {
			return nil, err
		}
	}

	if err := asm.DependsOn(hostCheck, TaskScanAnalyze); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *Integration) runScan(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	report, err := i.scanner.Scan(ctx, SelectDataSource(ctx, i.props))
	if err != nil {
		return fmt.Errorf("dependency scan: %w", err)
	}
	i.report = report

	threshold := i.Extension.Threshold.MustGet()
	violations := report.AtOrAbove(threshold)
	if len(violations) == 0 {
		logger.Info("Dependency scan passed.",
			"findings", len(report.Findings), "threshold", threshold)
		return nil
	}
	worst, _ := report.Worst()
	return fmt.Errorf("%w: %d finding(s) at or above %.1f, worst %s (%.1f)",
		ErrThresholdExceeded, len(violations), threshold, worst.VulnerabilityID, worst.Severity)
}

// printCause emits the evidence behind each finding of the last scan. It is
// wired as a finalizer of the scan, so it gets its chance whether the scan
// passed or failed.
func (i *Integration) printCause(ctx context.Context) error {
	if i.report == nil || len(i.report.Findings) == 0 {
		fmt.Fprintln(i.out, "no vulnerabilities found")
		return nil
	}
	for _, f := range i.report.Findings {
		fmt.Fprintf(i.out, "%s in %s@%s (severity %.1f)\n",
			f.VulnerabilityID, f.Package, f.InstalledVersion, f.Severity)
		for _, ev := range f.Evidence {
			fmt.Fprintf(i.out, "  evidence: %s\n", ev)
		}
	}
	return nil
}
