package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/leeovery/termtodo/internal/task"
)

func renderMarkdown(tasks []task.Task, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Todo Export\n\n")
	fmt.Fprintf(&b, "Exported: %s\n", now.Format(exportedLayout))
	fmt.Fprintf(&b, "Total Tasks: %d\n\n", len(tasks))

	for _, g := range statusGroups(tasks) {
		fmt.Fprintf(&b, "## %s (%d)\n\n", StatusLabel(g.Status), len(g.Tasks))
		for _, t := range g.Tasks {
			writeMarkdownTask(&b, t)
		}
	}
	return b.String()
}

func writeMarkdownTask(b *strings.Builder, t task.Task) {
	fmt.Fprintf(b, "### %s %s\n\n", checkbox(t.Status == task.StatusCompleted), t.Title)

	if t.Description != "" {
		b.WriteString(t.Description)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(b, "- Priority: %s\n", t.Priority)
	fmt.Fprintf(b, "- Category: %s\n", t.Category)
	if t.DueDate != nil {
		fmt.Fprintf(b, "- Due Date: %s\n", task.FormatDate(*t.DueDate))
	}
	if t.EstimatedTime != nil {
		fmt.Fprintf(b, "- Estimated Time: %d minutes\n", *t.EstimatedTime)
	}
	if t.PomodoroCount > 0 {
		fmt.Fprintf(b, "- Pomodoros: %d\n", t.PomodoroCount)
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(b, "- Tags: %s\n", strings.Join(t.Tags, ", "))
	}
	b.WriteString("\n")

	if len(t.Subtasks) > 0 {
		b.WriteString("**Subtasks:**\n")
		for _, s := range t.Subtasks {
			fmt.Fprintf(b, "- %s %s\n", checkbox(s.Completed), s.Title)
		}
		b.WriteString("\n")
	}

	if t.CodeSnippet != nil {
		writeFence(b, t.CodeSnippet)
	}

	b.WriteString("---\n\n")
}

func writeFence(b *strings.Builder, cs *task.CodeSnippet) {
	fmt.Fprintf(b, "```%s\n", cs.Language)
	b.WriteString(cs.Code)
	if !strings.HasSuffix(cs.Code, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}
