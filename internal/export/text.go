package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/leeovery/termtodo/internal/task"
)

const bannerWidth = 50

func renderText(tasks []task.Task, now time.Time) string {
	var b strings.Builder
	heavy := strings.Repeat("=", bannerWidth)
	light := strings.Repeat("-", bannerWidth)

	b.WriteString(heavy + "\n")
	b.WriteString("TODO EXPORT\n")
	b.WriteString(heavy + "\n")
	fmt.Fprintf(&b, "Exported: %s\n", now.Format(exportedLayout))
	fmt.Fprintf(&b, "Total Tasks: %d\n\n", len(tasks))

	for _, g := range statusGroups(tasks) {
		fmt.Fprintf(&b, "%s (%d)\n", strings.ToUpper(StatusLabel(g.Status)), len(g.Tasks))
		b.WriteString(light + "\n\n")
		for _, t := range g.Tasks {
			writeTextTask(&b, t)
		}
	}
	return b.String()
}

func writeTextTask(b *strings.Builder, t task.Task) {
	fmt.Fprintf(b, "%s %s\n", checkbox(t.Status == task.StatusCompleted), t.Title)
	if t.Description != "" {
		for _, line := range strings.Split(t.Description, "\n") {
			fmt.Fprintf(b, "    %s\n", line)
		}
	}

	fmt.Fprintf(b, "    Priority: %s | Category: %s\n", t.Priority, t.Category)
	if t.DueDate != nil {
		fmt.Fprintf(b, "    Due: %s\n", task.FormatDate(*t.DueDate))
	}
	if t.EstimatedTime != nil {
		fmt.Fprintf(b, "    Estimated: %d minutes\n", *t.EstimatedTime)
	}
	if t.PomodoroCount > 0 {
		fmt.Fprintf(b, "    Pomodoros: %d\n", t.PomodoroCount)
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(b, "    Tags: %s\n", strings.Join(t.Tags, ", "))
	}
	if len(t.Subtasks) > 0 {
		b.WriteString("    Subtasks:\n")
		for _, s := range t.Subtasks {
			fmt.Fprintf(b, "      %s %s\n", checkbox(s.Completed), s.Title)
		}
	}
	if t.CodeSnippet != nil {
		fmt.Fprintf(b, "    Code (%s):\n", t.CodeSnippet.Language)
		for _, line := range strings.Split(strings.TrimRight(t.CodeSnippet.Code, "\n"), "\n") {
			fmt.Fprintf(b, "      %s\n", line)
		}
	}
	b.WriteString("\n")
}
