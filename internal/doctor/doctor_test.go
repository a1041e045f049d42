package doctor

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeovery/termtodo/internal/task"
)

var base = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func mk(id string, offset time.Duration) task.Task {
	return task.NewTask(id, "Task "+id, base.Add(offset))
}

// stubCheck is a test double that returns preconfigured results.
type stubCheck struct {
	results []CheckResult
	called  bool
}

func (s *stubCheck) Run(context.Context, []task.Task) []CheckResult {
	s.called = true
	return s.results
}

func failing(name string, sev Severity) *stubCheck {
	return &stubCheck{results: []CheckResult{{Name: name, Severity: sev, Details: name + " failed"}}}
}

func TestDiagnosticRunner(t *testing.T) {
	t.Run("it returns an empty report when no checks are registered", func(t *testing.T) {
		report := NewDiagnosticRunner().RunAll(context.Background(), nil)
		assert.Empty(t, report.Results)
		assert.False(t, report.HasErrors())
	})

	t.Run("it runs every check even after failures", func(t *testing.T) {
		first := failing("A", SeverityError)
		second := &stubCheck{results: pass("B")}
		r := NewDiagnosticRunner()
		r.Register(first)
		r.Register(second)

		report := r.RunAll(context.Background(), nil)
		assert.True(t, first.called)
		assert.True(t, second.called)
		assert.Len(t, report.Results, 2)
		assert.Equal(t, 1, report.ErrorCount())
	})

	t.Run("it counts warnings without making them errors", func(t *testing.T) {
		r := NewDiagnosticRunner()
		r.Register(failing("W", SeverityWarning))
		report := r.RunAll(context.Background(), nil)
		assert.Equal(t, 1, report.WarningCount())
		assert.False(t, report.HasErrors())
		assert.Equal(t, 0, ExitCode(report))
	})

	t.Run("it stops when the context is cancelled", func(t *testing.T) {
		check := failing("A", SeverityError)
		r := NewDiagnosticRunner()
		r.Register(check)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r.RunAll(ctx, nil)
		assert.False(t, check.called)
	})
}

func TestDefaultRunner(t *testing.T) {
	t.Run("it passes a healthy collection", func(t *testing.T) {
		a := mk("a", 0)
		b := mk("b", time.Second)
		b.Dependencies = []string{"a"}
		done := base.Add(time.Hour)
		b.Status = task.StatusCompleted
		b.CompletedAt = &done

		report := NewDefaultRunner().RunAll(context.Background(), []task.Task{a, b})
		for _, r := range report.Results {
			assert.True(t, r.Passed, "%s: %s", r.Name, r.Details)
		}
		assert.Len(t, report.Results, 9)
	})
}

func findFailures(results []CheckResult) []CheckResult {
	var out []CheckResult
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func TestChecks(t *testing.T) {
	ctx := context.Background()

	t.Run("it reports duplicate ids with their positions", func(t *testing.T) {
		got := findFailures((&DuplicateIDCheck{}).Run(ctx, []task.Task{mk("a", 0), mk("b", 0), mk("a", 0)}))
		require.Len(t, got, 1)
		assert.Equal(t, SeverityError, got[0].Severity)
		assert.Equal(t, `Duplicate ID "a": tasks #1, #3`, got[0].Details)
	})

	t.Run("it reports blank and untrimmed titles", func(t *testing.T) {
		blank := mk("a", 0)
		blank.Title = "  "
		padded := mk("b", 0)
		padded.Title = " b "
		got := findFailures((&TitleCheck{}).Run(ctx, []task.Task{blank, padded, mk("c", 0)}))
		require.Len(t, got, 2)
		assert.Equal(t, "a: Title is required", got[0].Details)
		assert.Contains(t, got[1].Details, "surrounding whitespace")
	})

	t.Run("it reports unknown enum values", func(t *testing.T) {
		bad := mk("a", 0)
		bad.Priority = "urgent"
		bad.Status = "done"
		got := findFailures((&EnumCheck{}).Run(ctx, []task.Task{bad}))
		require.Len(t, got, 2)
		assert.Equal(t, `a: unknown priority "urgent"`, got[0].Details)
		assert.Equal(t, `a: unknown status "done"`, got[1].Details)
	})

	t.Run("it reports completedAt disagreeing with status", func(t *testing.T) {
		noStamp := mk("a", 0)
		noStamp.Status = task.StatusCompleted
		stray := mk("b", 0)
		stray.CompletedAt = &base
		got := findFailures((&CompletionCheck{}).Run(ctx, []task.Task{noStamp, stray}))
		require.Len(t, got, 2)
		assert.Equal(t, "a is completed but has no completedAt", got[0].Details)
		assert.Equal(t, "b is pending but has completedAt 2026-01-15T10:00:00.000Z", got[1].Details)
	})

	t.Run("it warns about out-of-order createdAt", func(t *testing.T) {
		got := findFailures((&CreatedOrderCheck{}).Run(ctx, []task.Task{mk("a", time.Minute), mk("b", 0)}))
		require.Len(t, got, 1)
		assert.Equal(t, SeverityWarning, got[0].Severity)
		assert.True(t, strings.HasPrefix(got[0].Details, "b (created"))
	})

	t.Run("it warns about duplicate subtask ids", func(t *testing.T) {
		a := mk("a", 0)
		a.Subtasks = []task.Subtask{{ID: "s1", Title: "x"}, {ID: "s1", Title: "y"}}
		got := findFailures((&DuplicateSubtaskIDCheck{}).Run(ctx, []task.Task{a}))
		require.Len(t, got, 1)
		assert.Equal(t, SeverityWarning, got[0].Severity)
	})

	t.Run("it warns about repeated tags", func(t *testing.T) {
		a := mk("a", 0)
		a.Tags = []string{"go", "Go", "rust"}
		got := findFailures((&DuplicateTagCheck{}).Run(ctx, []task.Task{a}))
		require.Len(t, got, 1)
		assert.Equal(t, "a repeats tags: Go", got[0].Details)
	})

	t.Run("it warns about orphaned dependencies", func(t *testing.T) {
		a := mk("a", 0)
		a.Dependencies = []string{"ghost"}
		got := findFailures((&OrphanedDependencyCheck{}).Run(ctx, []task.Task{a}))
		require.Len(t, got, 1)
		assert.Equal(t, "a depends on non-existent task ghost", got[0].Details)
	})

	t.Run("it reports each dependency cycle once", func(t *testing.T) {
		a, b, c := mk("a", 0), mk("b", 0), mk("c", 0)
		a.Dependencies = []string{"b"}
		b.Dependencies = []string{"c"}
		c.Dependencies = []string{"a"}
		got := findFailures((&DependencyCycleCheck{}).Run(ctx, []task.Task{c, b, a}))
		require.Len(t, got, 1)
		assert.Equal(t, "Dependency cycle: a → b → c → a", got[0].Details)
	})
}

func TestFormatReport(t *testing.T) {
	t.Run("it prints no issues for an all-pass report", func(t *testing.T) {
		var buf bytes.Buffer
		FormatReport(&buf, DiagnosticReport{Results: pass("ID uniqueness")})
		assert.Equal(t, "✓ ID uniqueness: OK\n\nNo issues found.\n", buf.String())
	})

	t.Run("it marks errors and warnings and counts both", func(t *testing.T) {
		report := DiagnosticReport{Results: []CheckResult{
			{Name: "ID uniqueness", Severity: SeverityError, Details: "dup", Suggestion: manualFix},
			{Name: "Tags", Severity: SeverityWarning, Details: "repeat"},
		}}
		var buf bytes.Buffer
		FormatReport(&buf, report)
		want := "✗ ID uniqueness: dup\n  → Manual fix required\n! Tags: repeat\n\n2 issues found (1 errors, 1 warnings).\n"
		assert.Equal(t, want, buf.String())
		assert.Equal(t, 1, ExitCode(report))
	})

	t.Run("it prints only the summary for an empty report", func(t *testing.T) {
		var buf bytes.Buffer
		FormatReport(&buf, DiagnosticReport{})
		assert.Equal(t, "No issues found.\n", buf.String())
	})
}
