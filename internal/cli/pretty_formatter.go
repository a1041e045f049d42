package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leeovery/termtodo/internal/settings"
	"github.com/leeovery/termtodo/internal/task"
)

// maxTitleWidth is the maximum title length in list output before truncation.
const maxTitleWidth = 50

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	priorityStyles = map[task.Priority]lipgloss.Style{
		task.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		task.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		task.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("70")),
	}
)

// PrettyFormatter renders aligned, lightly styled output for terminals.
// Colours disappear automatically when the output is not a colour terminal.
type PrettyFormatter struct{}

// FormatTaskList renders an aligned table with a header row. Empty lists
// produce "No tasks found." with no headers.
func (f *PrettyFormatter) FormatTaskList(w io.Writer, tasks []task.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks found.")
		return err
	}

	headers := []string{"ID", "STATUS", "PRI", "CATEGORY", "DUE", "TITLE"}
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		title := truncateTitle(t.Title, maxTitleWidth)
		if done, total := task.SubtaskProgress(t); total > 0 {
			title += dimStyle.Render(fmt.Sprintf(" [%d/%d]", done, total))
		}
		rows[i] = []string{
			t.ID,
			string(t.Status),
			priorityStyles[t.Priority].Render(string(t.Priority)),
			string(t.Category),
			formatDue(t),
			title,
		}
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			if cw := lipgloss.Width(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	styled := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = headerStyle.Render(h)
	}
	writeRow(w, styled, widths)
	for _, r := range rows {
		writeRow(w, r, widths)
	}
	return nil
}

// writeRow pads every cell but the last to its column width, measuring
// rendered width so styled cells line up.
func writeRow(w io.Writer, cells []string, widths []int) {
	var sb strings.Builder
	for i, cell := range cells {
		sb.WriteString(cell)
		if i < len(cells)-1 {
			sb.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2))
		}
	}
	fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
}

// FormatTaskDetail renders key-value pairs with aligned labels. Empty
// sections are omitted entirely.
func (f *PrettyFormatter) FormatTaskDetail(w io.Writer, t task.Task) error {
	line := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(w, "%s%s\n", labelStyle.Render(fmt.Sprintf("%-11s", label+":")), value)
	}

	line("ID", t.ID)
	line("Title", headerStyle.Render(t.Title))
	line("Status", string(t.Status))
	line("Priority", priorityStyles[t.Priority].Render(string(t.Priority)))
	line("Category", string(t.Category))
	line("Created", task.FormatTimestamp(t.CreatedAt))
	line("Completed", formatOptionalTime(t.CompletedAt))
	line("Due", formatOptionalTime(t.DueDate))
	if t.EstimatedTime != nil {
		line("Estimate", fmt.Sprintf("%d min", *t.EstimatedTime))
	}
	if t.ActualTime != nil {
		line("Actual", fmt.Sprintf("%d min", *t.ActualTime))
	}
	if t.PomodoroCount > 0 {
		line("Pomodoros", fmt.Sprintf("%d", t.PomodoroCount))
	}
	line("Tags", strings.Join(t.Tags, ", "))
	line("Depends on", strings.Join(t.Dependencies, ", "))

	if len(t.Subtasks) > 0 {
		done, total := task.SubtaskProgress(t)
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Subtasks (%d/%d):\n", done, total)
		for _, s := range t.Subtasks {
			mark := "[ ]"
			if s.Completed {
				mark = "[x]"
			}
			fmt.Fprintf(w, "  %s %s  %s\n", mark, s.Title, dimStyle.Render(s.ID))
		}
	}

	if strings.TrimSpace(t.Description) != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Description:")
		for _, l := range strings.Split(t.Description, "\n") {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}

	if t.CodeSnippet != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Code (%s):\n", t.CodeSnippet.Language)
		for _, l := range strings.Split(strings.TrimRight(t.CodeSnippet.Code, "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}
	return nil
}

// FormatTransition renders a status transition result as plain text.
func (f *PrettyFormatter) FormatTransition(w io.Writer, d TransitionData) error {
	_, err := fmt.Fprintf(w, "%s: %s → %s\n", d.ID, d.OldStatus, d.NewStatus)
	return err
}

// FormatStats renders the total, then status, category and priority groups
// with right-aligned numbers.
func (f *PrettyFormatter) FormatStats(w io.Writer, d StatsData) error {
	nums := []int{d.Total, d.Overdue, d.TotalCompleted}
	for _, group := range [][]Count{d.ByStatus, d.ByCategory, d.ByPriority} {
		for _, c := range group {
			nums = append(nums, c.Count)
		}
	}
	numW := numWidth(nums)
	const labelW = 16

	top := fmt.Sprintf("%%-%ds%%%dd\n", labelW, numW)
	indent := fmt.Sprintf("  %%-%ds%%%dd\n", labelW-2, numW)

	fmt.Fprintf(w, top, "Total:", d.Total)
	fmt.Fprintf(w, top, "Overdue:", d.Overdue)
	fmt.Fprintf(w, top, "Ever completed:", d.TotalCompleted)

	for _, group := range []struct {
		title  string
		counts []Count
	}{
		{"Status:", d.ByStatus},
		{"Category:", d.ByCategory},
		{"Priority:", d.ByPriority},
	} {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render(group.title))
		for _, c := range group.counts {
			fmt.Fprintf(w, indent, c.Label+":", c.Count)
		}
	}
	return nil
}

// FormatTags renders one tag per line.
func (f *PrettyFormatter) FormatTags(w io.Writer, tags []string) error {
	if len(tags) == 0 {
		_, err := fmt.Fprintln(w, "No tags found.")
		return err
	}
	for _, tag := range tags {
		fmt.Fprintf(w, "#%s\n", tag)
	}
	return nil
}

// FormatSettings renders aligned key/value pairs.
func (f *PrettyFormatter) FormatSettings(w io.Writer, s settings.UserSettings) error {
	values, err := settingsValues(s)
	if err != nil {
		return err
	}
	keyW := 0
	for _, key := range settings.Keys() {
		if len(key) > keyW {
			keyW = len(key)
		}
	}
	for _, key := range settings.Keys() {
		fmt.Fprintf(w, "%s  %s\n", labelStyle.Render(fmt.Sprintf("%-*s", keyW, key)), values[key].text)
	}
	return nil
}

// FormatMessage writes the message followed by a newline.
func (f *PrettyFormatter) FormatMessage(w io.Writer, msg string) error {
	_, err := fmt.Fprintln(w, msg)
	return err
}

// numWidth returns the width needed to display the widest number in the slice.
// Returns at least 3 to ensure consistent spacing with right-aligned numbers.
func numWidth(nums []int) int {
	w := 3
	for _, n := range nums {
		if l := len(fmt.Sprintf("%d", n)); l > w {
			w = l
		}
	}
	return w
}

// truncateTitle truncates a title to maxWidth characters, appending "..."
// if it exceeds the limit.
func truncateTitle(title string, maxWidth int) string {
	runes := []rune(title)
	if len(runes) <= maxWidth {
		return title
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}
	return string(runes[:maxWidth-3]) + "..."
}
