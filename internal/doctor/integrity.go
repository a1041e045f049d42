package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/leeovery/termtodo/internal/task"
)

const manualFix = "Manual fix required"

// DuplicateIDCheck reports every id shared by more than one task. Each group
// is one error listing the positions of the offending records.
type DuplicateIDCheck struct{}

func (c *DuplicateIDCheck) Run(_ context.Context, tasks []task.Task) []CheckResult {
	const name = "ID uniqueness"

	groups := make(map[string][]int)
	var order []string
	for i, t := range tasks {
		if _, seen := groups[t.ID]; !seen {
			order = append(order, t.ID)
		}
		groups[t.ID] = append(groups[t.ID], i+1)
	}

	var failures []CheckResult
	for _, id := range order {
		positions := groups[id]
		if len(positions) <= 1 {
			continue
		}
		parts := make([]string, len(positions))
		for i, p := range positions {
			parts[i] = fmt.Sprintf("#%d", p)
		}
		failures = append(failures, CheckResult{
			Name:       name,
			Severity:   SeverityError,
			Details:    fmt.Sprintf("Duplicate ID %q: tasks %s", id, strings.Join(parts, ", ")),
			Suggestion: manualFix,
		})
	}
	return orPass(name, failures)
}

// TitleCheck reports titles that are blank, untrimmed or too long.
type TitleCheck struct{}

func (c *TitleCheck) Run(_ context.Context, tasks []task.Task) []CheckResult {
	const name = "Titles"

	var failures []CheckResult
	for _, t := range tasks {
		trimmed, err := task.ValidateTitle(t.Title)
		switch {
		case err != nil:
			failures = append(failures, CheckResult{
				Name:       name,
				Severity:   SeverityError,
				Details:    fmt.Sprintf("%s: %v", t.ID, err),
				Suggestion: "Run `termtodo update " + t.ID + " --title ...`",
			})
		case trimmed != t.Title:
			failures = append(failures, CheckResult{
				Name:       name,
				Severity:   SeverityError,
				Details:    fmt.Sprintf("%s: title has surrounding whitespace", t.ID),
				Suggestion: "Run `termtodo update " + t.ID + " --title ...`",
			})
		}
	}
	return orPass(name, failures)
}

// EnumCheck reports category, priority and status values outside the known sets.
type EnumCheck struct{}

func (c *EnumCheck) Run(_ context.Context, tasks []task.Task) []CheckResult {
	const name = "Field values"

	var failures []CheckResult
	add := func(id, field, value string) {
		failures = append(failures, CheckResult{
			Name:       name,
			Severity:   SeverityError,
			Details:    fmt.Sprintf("%s: unknown %s %q", id, field, value),
			Suggestion: manualFix,
		})
	}
	for _, t := range tasks {
		if !t.Category.Valid() {
			add(t.ID, "category", string(t.Category))
		}
		if !t.Priority.Valid() {
			add(t.ID, "priority", string(t.Priority))
		}
		if !t.Status.Valid() {
			add(t.ID, "status", string(t.Status))
		}
	}
	return orPass(name, failures)
}

// CompletionCheck reports tasks whose completedAt disagrees with their status:
// completedAt must be set exactly when the status is completed.
type CompletionCheck struct{}

func (c *CompletionCheck) Run(_ context.Context, tasks []task.Task) []CheckResult {
	const name = "Completion timestamps"

	var failures []CheckResult
	for _, t := range tasks {
		completed := t.Status == task.StatusCompleted
		switch {
		case completed && t.CompletedAt == nil:
			failures = append(failures, CheckResult{
				Name:       name,
				Severity:   SeverityError,
				Details:    fmt.Sprintf("%s is completed but has no completedAt", t.ID),
				Suggestion: "Run `termtodo status " + t.ID + " completed`",
			})
		case !completed && t.CompletedAt != nil:
			failures = append(failures, CheckResult{
				Name:       name,
				Severity:   SeverityError,
				Details:    fmt.Sprintf("%s is %s but has completedAt %s", t.ID, t.Status, task.FormatTimestamp(*t.CompletedAt)),
				Suggestion: "Run `termtodo status " + t.ID + " " + string(t.Status) + "`",
			})
		}
	}
	return orPass(name, failures)
}
