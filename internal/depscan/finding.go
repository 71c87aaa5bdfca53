package depscan

// Severity is a finding's score on the scanner's native CVSS scale (0 to 10).
type Severity float64

// Finding is one normalized vulnerability reported by the scan engine.
type Finding struct {
	VulnerabilityID  string
	Package          string
	InstalledVersion string
	Severity         Severity
	Evidence         []string
}

// Report is the outcome of one scan.
type Report struct {
	Findings []Finding
}

// AtOrAbove returns the findings whose severity meets or exceeds threshold.
func (r *Report) AtOrAbove(threshold float64) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if float64(f.Severity) >= threshold {
			out = append(out, f)
		}
	}
	return out
}

// Worst returns the highest-severity finding, or false for an empty report.
func (r *Report) Worst() (Finding, bool) {
	if len(r.Findings) == 0 {
		return Finding{}, false
	}
	worst := r.Findings[0]
	for _, f := range r.Findings[1:] {
		if f.Severity > worst.Severity {
			worst = f
		}
	}
	return worst, true
}
