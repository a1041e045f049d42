package doctor

import (
	"fmt"
	"io"
)

// FormatReport writes one line per result, ✓ for a pass, ✗ for an error and
// ! for a warning, followed by a summary count of issues.
func FormatReport(w io.Writer, report DiagnosticReport) {
	for _, r := range report.Results {
		switch {
		case r.Passed:
			fmt.Fprintf(w, "✓ %s: OK\n", r.Name)
			continue
		case r.Severity == SeverityWarning:
			fmt.Fprintf(w, "! %s: %s\n", r.Name, r.Details)
		default:
			fmt.Fprintf(w, "✗ %s: %s\n", r.Name, r.Details)
		}
		if r.Suggestion != "" {
			fmt.Fprintf(w, "  → %s\n", r.Suggestion)
		}
	}

	if len(report.Results) > 0 {
		fmt.Fprint(w, "\n")
	}

	errs, warns := report.ErrorCount(), report.WarningCount()
	switch issues := errs + warns; issues {
	case 0:
		fmt.Fprint(w, "No issues found.\n")
	case 1:
		fmt.Fprintf(w, "1 issue found (%d errors, %d warnings).\n", errs, warns)
	default:
		fmt.Fprintf(w, "%d issues found (%d errors, %d warnings).\n", issues, errs, warns)
	}
}

// ExitCode returns 1 when the report has any error-severity failure and 0
// otherwise. Warnings never fail a run.
func ExitCode(report DiagnosticReport) int {
	if report.HasErrors() {
		return 1
	}
	return 0
}
