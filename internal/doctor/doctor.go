// Package doctor provides read-only integrity checks over a stored task
// collection. It defines the check interface, result types, and a runner that
// executes all registered checks without short-circuiting.
package doctor

import (
	"context"

	"github.com/leeovery/termtodo/internal/task"
)

// Severity indicates whether a check failure is an error or a warning.
// Errors affect exit code; warnings do not.
type Severity string

const (
	// SeverityError marks data that breaks a task invariant.
	SeverityError Severity = "error"
	// SeverityWarning marks suspicious but allowed data.
	SeverityWarning Severity = "warning"
)

// CheckResult holds the outcome of a single diagnostic check evaluation.
// A passing check has Passed true with empty Details and Suggestion.
type CheckResult struct {
	// Name is the check's display label (e.g. "ID uniqueness").
	Name       string   `json:"name"`
	Passed     bool     `json:"passed"`
	Severity   Severity `json:"severity,omitempty"`
	Details    string   `json:"details,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Check is the interface that all diagnostic checks implement.
// A passing check returns exactly one result with Passed true; a failing
// check returns one result per problem found.
type Check interface {
	Run(ctx context.Context, tasks []task.Task) []CheckResult
}

// DiagnosticReport collects all check results from a diagnostic run.
type DiagnosticReport struct {
	Results []CheckResult `json:"results"`
}

// HasErrors returns true if any result has Passed false with SeverityError.
func (r *DiagnosticReport) HasErrors() bool {
	return r.ErrorCount() > 0
}

// ErrorCount returns the number of results with Passed false and SeverityError.
func (r *DiagnosticReport) ErrorCount() int {
	return r.count(SeverityError)
}

// WarningCount returns the number of results with Passed false and SeverityWarning.
func (r *DiagnosticReport) WarningCount() int {
	return r.count(SeverityWarning)
}

func (r *DiagnosticReport) count(sev Severity) int {
	count := 0
	for _, result := range r.Results {
		if !result.Passed && result.Severity == sev {
			count++
		}
	}
	return count
}

// DiagnosticRunner holds an ordered slice of Check implementations
// and executes all of them, collecting results into a DiagnosticReport.
type DiagnosticRunner struct {
	checks []Check
}

// NewDiagnosticRunner creates a DiagnosticRunner with no registered checks.
func NewDiagnosticRunner() *DiagnosticRunner {
	return &DiagnosticRunner{}
}

// NewDefaultRunner returns a runner with every built-in check registered,
// errors first.
func NewDefaultRunner() *DiagnosticRunner {
	r := NewDiagnosticRunner()
	r.Register(&DuplicateIDCheck{})
	r.Register(&TitleCheck{})
	r.Register(&EnumCheck{})
	r.Register(&CompletionCheck{})
	r.Register(&CreatedOrderCheck{})
	r.Register(&DuplicateSubtaskIDCheck{})
	r.Register(&DuplicateTagCheck{})
	r.Register(&OrphanedDependencyCheck{})
	r.Register(&DependencyCycleCheck{})
	return r
}

// Register appends a check to the runner's ordered slice.
func (d *DiagnosticRunner) Register(check Check) {
	d.checks = append(d.checks, check)
}

// RunAll executes every registered check against tasks and collects the
// results. Failures never short-circuit the run; only a cancelled ctx stops
// it early. With zero registered checks, it returns an empty report.
func (d *DiagnosticRunner) RunAll(ctx context.Context, tasks []task.Task) DiagnosticReport {
	results := []CheckResult{}
	for _, check := range d.checks {
		if ctx.Err() != nil {
			break
		}
		results = append(results, check.Run(ctx, tasks)...)
	}
	return DiagnosticReport{Results: results}
}

func pass(name string) []CheckResult {
	return []CheckResult{{Name: name, Passed: true}}
}

func orPass(name string, failures []CheckResult) []CheckResult {
	if len(failures) > 0 {
		return failures
	}
	return pass(name)
}
