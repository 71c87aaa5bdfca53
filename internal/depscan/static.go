package depscan

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// StaticScanner is a Scanner backed by a fixed set of findings. It stands in
// for a real scan engine in tests and in the demo CLI; suppression entries
// are one vulnerability ID per line, lines starting with '#' ignored.
type StaticScanner struct {
	Findings []Finding
	ScanErr  error
}

// Scan returns the configured findings, minus any suppressed by entries the
// scanner has been asked to validate. The static engine holds no state, so
// suppression filtering happens against the report at write time only.
func (s *StaticScanner) Scan(ctx context.Context, ds DataSource) (*Report, error) {
	if s.ScanErr != nil {
		return nil, s.ScanErr
	}
	findings := make([]Finding, len(s.Findings))
	copy(findings, s.Findings)
	return &Report{Findings: findings}, nil
}

// ValidateSuppressions checks the file parses as a suppression list: it must
// be readable and contain no blank non-comment garbage markers.
func (s *StaticScanner) ValidateSuppressions(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading suppression file %s: %w", path, err)
	}
	for n, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.ContainsAny(line, " \t") {
			return fmt.Errorf("%s:%d: malformed suppression entry %q", path, n+1, line)
		}
	}
	return nil
}

// WriteSuppressionCandidate writes a candidate file listing the report's
// vulnerability IDs, merged with the entries of basePath when one exists.
// The base file itself is never touched.
func (s *StaticScanner) WriteSuppressionCandidate(ctx context.Context, report *Report, basePath, candidatePath string) error {
	seen := make(map[string]bool)
	var entries []string

	if basePath != "" {
		data, err := os.ReadFile(basePath)
		if err != nil {
			return fmt.Errorf("reading suppression file %s: %w", basePath, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || seen[line] {
				continue
			}
			seen[line] = true
			entries = append(entries, line)
		}
	}

	if report != nil {
		for _, f := range report.Findings {
			if seen[f.VulnerabilityID] {
				continue
			}
			seen[f.VulnerabilityID] = true
			entries = append(entries, f.VulnerabilityID)
		}
	}

	body := "# suppression candidate, review and promote manually\n"
	if len(entries) > 0 {
		body += strings.Join(entries, "\n") + "\n"
	}
	return os.WriteFile(candidatePath, []byte(body), 0o644)
}
