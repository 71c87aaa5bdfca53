package depscan

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/checkgrid/internal/ctxlog"
	"github.com/vk/checkgrid/internal/env"
	"github.com/vk/checkgrid/internal/extension"
	"github.com/vk/checkgrid/internal/pipeline"
)

// recordingScanner wraps StaticScanner and records the order of engine calls.
type recordingScanner struct {
	StaticScanner
	calls []string
}

func (r *recordingScanner) Scan(ctx context.Context, ds DataSource) (*Report, error) {
	r.calls = append(r.calls, "scan")
	return r.StaticScanner.Scan(ctx, ds)
}

func (r *recordingScanner) ValidateSuppressions(ctx context.Context, path string) error {
	r.calls = append(r.calls, "validate")
	return r.StaticScanner.ValidateSuppressions(ctx, path)
}

func (r *recordingScanner) WriteSuppressionCandidate(ctx context.Context, report *Report, basePath, candidatePath string) error {
	r.calls = append(r.calls, "write")
	return r.StaticScanner.WriteSuppressionCandidate(ctx, report, basePath, candidatePath)
}

type harness struct {
	root    string
	reg     *extension.Registry
	pipe    *pipeline.Pipeline
	integ   *Integration
	out     *bytes.Buffer
	logBuf  *bytes.Buffer
	baseCtx context.Context
}

func newHarness(t *testing.T, scanner Scanner) *harness {
	t.Helper()
	h := &harness{
		root:   t.TempDir(),
		reg:    extension.NewRegistry(),
		pipe:   pipeline.New(),
		out:    &bytes.Buffer{},
		logBuf: &bytes.Buffer{},
	}
	h.baseCtx = ctxlog.WithLogger(context.Background(),
		slog.New(slog.NewTextHandler(h.logBuf, nil)))

	require.NoError(t, h.pipe.Register(&pipeline.Task{Name: "check"}))

	integ, err := Attach(h.baseCtx, h.reg, pipeline.NewAssembler(h.pipe),
		h.root, env.Load(), scanner, h.out, "check")
	require.NoError(t, err)
	h.integ = integ
	return h
}

func (h *harness) run(t *testing.T) *pipeline.Result {
	t.Helper()
	require.NoError(t, h.reg.Finalize(h.baseCtx))
	result, err := h.pipe.Run(h.baseCtx)
	require.NoError(t, err)
	return result
}

func (h *harness) writeSuppressionFile(t *testing.T, content string) string {
	t.Helper()
	path := h.integ.Extension.SuppressionFile.MustGet()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestThresholdSemantics(t *testing.T) {
	finding := Finding{VulnerabilityID: "CVE-2025-0001", Package: "libfoo", Severity: 7}

	t.Run("fails when a severity meets the threshold", func(t *testing.T) {
		h := newHarness(t, &StaticScanner{Findings: []Finding{finding}})
		h.integ.Extension.Threshold.Set(7)

		result := h.run(t)
		assert.Equal(t, pipeline.StatusFailed, result.Status(TaskScanAnalyze))
		assert.ErrorIs(t, result.Err(), ErrThresholdExceeded)
		assert.Equal(t, pipeline.StatusNotRun, result.Status("check"),
			"a failed scan fails the aggregate check")
	})

	t.Run("passes when every severity is below the threshold", func(t *testing.T) {
		h := newHarness(t, &StaticScanner{Findings: []Finding{finding}})
		h.integ.Extension.Threshold.Set(7.1)

		result := h.run(t)
		assert.Equal(t, pipeline.StatusSucceeded, result.Status(TaskScanAnalyze))
		assert.Equal(t, pipeline.StatusSucceeded, result.Status("check"))
	})

	t.Run("default threshold fails on any finding", func(t *testing.T) {
		h := newHarness(t, &StaticScanner{Findings: []Finding{{VulnerabilityID: "CVE-2025-0002", Severity: 0}}})
		result := h.run(t)
		assert.Equal(t, pipeline.StatusFailed, result.Status(TaskScanAnalyze))
	})

	t.Run("explicit skip means the scan never runs", func(t *testing.T) {
		scanner := &recordingScanner{StaticScanner: StaticScanner{Findings: []Finding{finding}}}
		h := newHarness(t, scanner)
		h.integ.Extension.Skip.Set(true)
		h.integ.Extension.Threshold.Set(0)

		result := h.run(t)
		assert.Equal(t, pipeline.StatusSkipped, result.Status(TaskScanAnalyze))
		assert.Empty(t, scanner.calls)
		assert.NoError(t, result.Err(), "skip produces no error at all")
		assert.Equal(t, pipeline.StatusSucceeded, result.Status("check"),
			"skipped dependencies satisfy the aggregate check")
	})
}

func TestAutomaticSkipLatch(t *testing.T) {
	t.Run("community edition on a pull-request build latches skip", func(t *testing.T) {
		t.Setenv("CHECKGRID_EDITION", "COMMUNITY")
		t.Setenv("BUILD_REASON", "PullRequest")

		scanner := &recordingScanner{}
		h := newHarness(t, scanner)
		result := h.run(t)

		assert.True(t, h.integ.Extension.Skip.MustGet(), "latch is visible through the flag")
		assert.Equal(t, pipeline.StatusSkipped, result.Status(TaskScanAnalyze))
		assert.Empty(t, scanner.calls)
		assert.Contains(t, h.logBuf.String(), "level=WARN")
		assert.Contains(t, h.logBuf.String(), "pull-request")
	})

	t.Run("community edition off pull requests still scans", func(t *testing.T) {
		t.Setenv("CHECKGRID_EDITION", "COMMUNITY")
		t.Setenv("BUILD_REASON", "Manual")

		h := newHarness(t, &StaticScanner{})
		result := h.run(t)
		assert.Equal(t, pipeline.StatusSucceeded, result.Status(TaskScanAnalyze))
	})

	t.Run("writes after finalization panic", func(t *testing.T) {
		h := newHarness(t, &StaticScanner{})
		h.run(t)
		assert.Panics(t, func() { h.integ.Extension.Skip.Set(false) })
		assert.Panics(t, func() { h.integ.Extension.Threshold.Set(9) })
	})
}

func TestSuppressionLifecycle(t *testing.T) {
	t.Run("existing well-formed file validates before the scan", func(t *testing.T) {
		scanner := &recordingScanner{}
		h := newHarness(t, scanner)
		h.writeSuppressionFile(t, "CVE-2020-1234\n# reviewed\n")

		result := h.run(t)
		assert.Equal(t, pipeline.StatusSucceeded, result.Status(TaskCheckSuppression))
		assert.Equal(t, pipeline.StatusSucceeded, result.Status(TaskScanAnalyze))
		require.GreaterOrEqual(t, len(scanner.calls), 2)
		assert.Equal(t, []string{"validate", "scan"}, scanner.calls[:2])
	})

	t.Run("malformed file blocks the scan", func(t *testing.T) {
		scanner := &recordingScanner{}
		h := newHarness(t, scanner)
		h.writeSuppressionFile(t, "not a valid entry\n")

		result := h.run(t)
		assert.Equal(t, pipeline.StatusFailed, result.Status(TaskCheckSuppression))
		assert.Equal(t, pipeline.StatusNotRun, result.Status(TaskScanAnalyze))
		assert.NotContains(t, scanner.calls, "scan")
		assert.ErrorContains(t, result.Err(), "malformed suppression entry")
	})

	t.Run("no file: check is skipped and a candidate is generated", func(t *testing.T) {
		h := newHarness(t, &StaticScanner{Findings: []Finding{{VulnerabilityID: "CVE-2025-0003", Severity: 1}}})
		h.integ.Extension.Threshold.Set(10)

		result := h.run(t)
		assert.Equal(t, pipeline.StatusSkipped, result.Status(TaskCheckSuppression))
		assert.Equal(t, pipeline.StatusSucceeded, result.Status(TaskScanAnalyze),
			"a missing suppression file must not block the scan")
		assert.Equal(t, pipeline.StatusSucceeded, result.Status(TaskGenerateSuppression))
		assert.Equal(t, pipeline.StatusSkipped, result.Status(TaskUpdateSuppression))

		candidate := filepath.Join(h.root, "dependency-check-suppression.new.xml")
		data, err := os.ReadFile(candidate)
		require.NoError(t, err)
		assert.Contains(t, string(data), "CVE-2025-0003")
	})

	t.Run("existing file: candidate merges old and new, base untouched", func(t *testing.T) {
		h := newHarness(t, &StaticScanner{Findings: []Finding{{VulnerabilityID: "CVE-2025-0004", Severity: 1}}})
		h.integ.Extension.Threshold.Set(10)
		base := h.writeSuppressionFile(t, "CVE-2020-1234\n")

		result := h.run(t)
		assert.Equal(t, pipeline.StatusSucceeded, result.Status(TaskUpdateSuppression))
		assert.Equal(t, pipeline.StatusSkipped, result.Status(TaskGenerateSuppression))

		baseData, err := os.ReadFile(base)
		require.NoError(t, err)
		assert.Equal(t, "CVE-2020-1234\n", string(baseData), "base file is never overwritten in place")

		candData, err := os.ReadFile(filepath.Join(h.root, "dependency-check-suppression.new.xml"))
		require.NoError(t, err)
		assert.Contains(t, string(candData), "CVE-2020-1234")
		assert.Contains(t, string(candData), "CVE-2025-0004")
	})
}

func TestPrintCause(t *testing.T) {
	finding := Finding{
		VulnerabilityID:  "CVE-2025-0005",
		Package:          "libbar",
		InstalledVersion: "1.2.3",
		Severity:         9,
		Evidence:         []string{"pom.xml dependency libbar:1.2.3"},
	}

	t.Run("runs after a failed scan when enabled", func(t *testing.T) {
		h := newHarness(t, &StaticScanner{Findings: []Finding{finding}})
		h.integ.Extension.PrintCauseEnabled.Set(true)

		result := h.run(t)
		assert.Equal(t, pipeline.StatusFailed, result.Status(TaskScanAnalyze))
		assert.Equal(t, pipeline.StatusSucceeded, result.Status(TaskPrintCause))
		assert.Contains(t, h.out.String(), "CVE-2025-0005")
		assert.Contains(t, h.out.String(), "pom.xml dependency")
	})

	t.Run("runs after a passing scan when enabled", func(t *testing.T) {
		h := newHarness(t, &StaticScanner{})
		h.integ.Extension.PrintCauseEnabled.Set(true)

		result := h.run(t)
		assert.Equal(t, pipeline.StatusSucceeded, result.Status(TaskPrintCause))
		assert.Contains(t, h.out.String(), "no vulnerabilities found")
	})

	t.Run("never runs when the flag is off", func(t *testing.T) {
		h := newHarness(t, &StaticScanner{})
		result := h.run(t)
		assert.Equal(t, pipeline.StatusSkipped, result.Status(TaskPrintCause))
		assert.Empty(t, h.out.String())
	})

	t.Run("never runs when the scan itself was skipped", func(t *testing.T) {
		h := newHarness(t, &StaticScanner{})
		h.integ.Extension.PrintCauseEnabled.Set(true)
		h.integ.Extension.Skip.Set(true)

		result := h.run(t)
		assert.Equal(t, pipeline.StatusSkipped, result.Status(TaskPrintCause))
		assert.Empty(t, h.out.String())
	})
}

func TestAttachErrors(t *testing.T) {
	t.Run("nil scanner is a setup error", func(t *testing.T) {
		reg := extension.NewRegistry()
		pipe := pipeline.New()
		require.NoError(t, pipe.Register(&pipeline.Task{Name: "check"}))

		_, err := Attach(context.Background(), reg, pipeline.NewAssembler(pipe),
			t.TempDir(), env.Load(), nil, &bytes.Buffer{}, "check")
		assert.ErrorContains(t, err, "no dependency-scanning capability")
	})

	t.Run("second attach for the same host is rejected", func(t *testing.T) {
		h := newHarness(t, &StaticScanner{})
		_, err := Attach(h.baseCtx, h.reg, pipeline.NewAssembler(h.pipe),
			h.root, env.Load(), &StaticScanner{}, h.out, "check")
		assert.ErrorContains(t, err, "already registered")
	})
}

func TestParseEdition(t *testing.T) {
	assert.Equal(t, EditionCommunity, ParseEdition("community"))
	assert.Equal(t, EditionDeveloper, ParseEdition("DEVELOPER"))
	assert.Equal(t, EditionEnterprise, ParseEdition(" Enterprise "))
	assert.Equal(t, EditionUnknown, ParseEdition("gold"))
	assert.Equal(t, "COMMUNITY", EditionCommunity.String())
	assert.Equal(t, "UNKNOWN", EditionUnknown.String())
}

func TestSelectDataSource(t *testing.T) {
	t.Run("external database disables auto-update", func(t *testing.T) {
		t.Setenv("CHECKGRID_DB_CONNECTION", "jdbc:postgresql://db/odc")
		t.Setenv("CHECKGRID_DB_DRIVER", "org.postgresql.Driver")

		var logBuf bytes.Buffer
		ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logBuf, nil)))

		ds := SelectDataSource(ctx, env.Load())
		require.NotNil(t, ds.External)
		assert.False(t, ds.AutoUpdate)
		assert.Contains(t, logBuf.String(), "org.postgresql.Driver")
	})

	t.Run("default is the local dataset with auto-update", func(t *testing.T) {
		ds := SelectDataSource(context.Background(), env.Load())
		assert.Nil(t, ds.External)
		assert.True(t, ds.AutoUpdate)
	})
}
