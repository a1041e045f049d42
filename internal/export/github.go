package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/leeovery/termtodo/internal/task"
)

func renderGitHub(tasks []task.Task, now time.Time) string {
	var b strings.Builder
	b.WriteString("# GitHub Issues Export\n\n")
	fmt.Fprintf(&b, "Exported: %s\n", now.Format(exportedLayout))
	fmt.Fprintf(&b, "Total Issues: %d\n\n", len(tasks))

	for _, t := range tasks {
		writeIssue(&b, t)
	}
	return b.String()
}

func writeIssue(b *strings.Builder, t task.Task) {
	fmt.Fprintf(b, "## %s\n\n", t.Title)

	labels := []string{"priority:" + string(t.Priority), "category:" + string(t.Category)}
	labels = append(labels, t.Tags...)
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = "`" + l + "`"
	}
	fmt.Fprintf(b, "**Labels:** %s\n\n", strings.Join(quoted, ", "))

	if t.Description != "" {
		b.WriteString("### Description\n\n")
		b.WriteString(t.Description)
		b.WriteString("\n\n")
	}

	if len(t.Subtasks) > 0 {
		b.WriteString("### Tasks\n\n")
		for _, s := range t.Subtasks {
			fmt.Fprintf(b, "- %s %s\n", checkbox(s.Completed), s.Title)
		}
		b.WriteString("\n")
	}

	if t.CodeSnippet != nil {
		b.WriteString("### Code\n\n")
		writeFence(b, t.CodeSnippet)
	}

	b.WriteString("### Metadata\n\n")
	fmt.Fprintf(b, "- **Status:** %s\n", t.Status)
	fmt.Fprintf(b, "- **Created:** %s\n", task.FormatDate(t.CreatedAt))
	if t.DueDate != nil {
		fmt.Fprintf(b, "- **Due Date:** %s\n", task.FormatDate(*t.DueDate))
	}
	if t.EstimatedTime != nil {
		fmt.Fprintf(b, "- **Estimated Time:** %d minutes\n", *t.EstimatedTime)
	}
	b.WriteString("\n---\n\n")
}
