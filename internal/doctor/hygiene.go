package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/leeovery/termtodo/internal/task"
)

// CreatedOrderCheck warns when a task was created before the one stored
// ahead of it. New tasks are appended, so createdAt should never decrease.
type CreatedOrderCheck struct{}

func (c *CreatedOrderCheck) Run(_ context.Context, tasks []task.Task) []CheckResult {
	const name = "Creation order"

	var failures []CheckResult
	for i := 1; i < len(tasks); i++ {
		prev, cur := tasks[i-1], tasks[i]
		if cur.CreatedAt.Before(prev.CreatedAt) {
			failures = append(failures, CheckResult{
				Name:     name,
				Severity: SeverityWarning,
				Details: fmt.Sprintf("%s (created %s) is stored after %s (created %s)",
					cur.ID, task.FormatTimestamp(cur.CreatedAt), prev.ID, task.FormatTimestamp(prev.CreatedAt)),
			})
		}
	}
	return orPass(name, failures)
}

// DuplicateSubtaskIDCheck warns when a task holds two subtasks with one id.
// Toggling such a subtask only reaches the first.
type DuplicateSubtaskIDCheck struct{}

func (c *DuplicateSubtaskIDCheck) Run(_ context.Context, tasks []task.Task) []CheckResult {
	const name = "Subtask IDs"

	var failures []CheckResult
	for _, t := range tasks {
		seen := make(map[string]bool, len(t.Subtasks))
		for _, s := range t.Subtasks {
			if seen[s.ID] {
				failures = append(failures, CheckResult{
					Name:       name,
					Severity:   SeverityWarning,
					Details:    fmt.Sprintf("%s has more than one subtask with id %q", t.ID, s.ID),
					Suggestion: manualFix,
				})
				break
			}
			seen[s.ID] = true
		}
	}
	return orPass(name, failures)
}

// DuplicateTagCheck warns about tags repeated on one task, ignoring case.
type DuplicateTagCheck struct{}

func (c *DuplicateTagCheck) Run(_ context.Context, tasks []task.Task) []CheckResult {
	const name = "Tags"

	var failures []CheckResult
	for _, t := range tasks {
		if dups := task.DuplicateTags(t.Tags); len(dups) > 0 {
			failures = append(failures, CheckResult{
				Name:       name,
				Severity:   SeverityWarning,
				Details:    fmt.Sprintf("%s repeats tags: %s", t.ID, strings.Join(dups, ", ")),
				Suggestion: "Run `termtodo update " + t.ID + " --tags ...`",
			})
		}
	}
	return orPass(name, failures)
}
