package cli

import (
	"fmt"
	"io"
	"strings"

	toon "github.com/toon-format/toon-go"

	"github.com/leeovery/termtodo/internal/settings"
	"github.com/leeovery/termtodo/internal/task"
)

// ToonFormatter renders TOON (Token-Oriented Object Notation), the default
// when stdout is not a terminal. It is compact and schema-headed, which suits
// agents and scripts.
type ToonFormatter struct{}

const listSchema = "{id,title,status,priority,category,due,tags}"

// FormatTaskList renders tasks as one tabular section. An empty list still
// prints its header.
func (f *ToonFormatter) FormatTaskList(w io.Writer, tasks []task.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintf(w, "tasks[0]%s:\n", listSchema)
		return err
	}

	rows := make([]toon.Object, len(tasks))
	for i, t := range tasks {
		rows[i] = toon.NewObject(
			toon.Field{Key: "id", Value: t.ID},
			toon.Field{Key: "title", Value: t.Title},
			toon.Field{Key: "status", Value: string(t.Status)},
			toon.Field{Key: "priority", Value: string(t.Priority)},
			toon.Field{Key: "category", Value: string(t.Category)},
			toon.Field{Key: "due", Value: formatDue(t)},
			toon.Field{Key: "tags", Value: strings.Join(t.Tags, " ")},
		)
	}
	return writeToon(w, toon.NewObject(toon.Field{Key: "tasks", Value: rows}))
}

// FormatTaskDetail renders a task section followed by subtasks and
// dependencies, which are always present, and description and code, which
// are omitted when empty.
func (f *ToonFormatter) FormatTaskDetail(w io.Writer, t task.Task) error {
	fields := []toon.Field{
		{Key: "id", Value: t.ID},
		{Key: "title", Value: t.Title},
		{Key: "status", Value: string(t.Status)},
		{Key: "priority", Value: string(t.Priority)},
		{Key: "category", Value: string(t.Category)},
		{Key: "created", Value: task.FormatTimestamp(t.CreatedAt)},
	}
	optional := []struct{ key, value string }{
		{"completed", formatOptionalTime(t.CompletedAt)},
		{"due", formatOptionalTime(t.DueDate)},
		{"estimated", formatOptionalInt(t.EstimatedTime)},
		{"actual", formatOptionalInt(t.ActualTime)},
		{"tags", strings.Join(t.Tags, " ")},
	}
	for _, o := range optional {
		if o.value != "" {
			fields = append(fields, toon.Field{Key: o.key, Value: o.value})
		}
	}
	if t.PomodoroCount > 0 {
		fields = append(fields, toon.Field{Key: "pomodoros", Value: t.PomodoroCount})
	}

	var sections []string
	taskDoc, err := toon.MarshalString(toon.NewObject(toon.Field{Key: "task", Value: []toon.Object{toon.NewObject(fields...)}}))
	if err != nil {
		return fmt.Errorf("toon marshal error: %w", err)
	}
	sections = append(sections, taskDoc+"\n")

	sections = append(sections, subtaskSection(t.Subtasks))
	sections = append(sections, fmt.Sprintf("dependencies[%d]: %s\n", len(t.Dependencies), strings.Join(t.Dependencies, ",")))

	if t.Description != "" {
		sections = append(sections, indentedSection("description", t.Description))
	}
	if t.CodeSnippet != nil {
		sections = append(sections, indentedSection("code("+t.CodeSnippet.Language+")", t.CodeSnippet.Code))
	}

	_, err = fmt.Fprint(w, strings.Join(sections, "\n"))
	return err
}

// FormatTransition renders a status transition as plain text.
func (f *ToonFormatter) FormatTransition(w io.Writer, d TransitionData) error {
	_, err := fmt.Fprintf(w, "%s: %s → %s\n", d.ID, d.OldStatus, d.NewStatus)
	return err
}

// FormatStats renders a summary row followed by one section per breakdown.
func (f *ToonFormatter) FormatStats(w io.Writer, d StatsData) error {
	summary := toon.NewObject(toon.Field{Key: "stats", Value: []toon.Object{toon.NewObject(
		toon.Field{Key: "total", Value: d.Total},
		toon.Field{Key: "overdue", Value: d.Overdue},
		toon.Field{Key: "total_completed", Value: d.TotalCompleted},
	)}})
	if err := writeToon(w, summary); err != nil {
		return err
	}
	for _, s := range []struct {
		name   string
		counts []Count
	}{
		{"by_status", d.ByStatus},
		{"by_category", d.ByCategory},
		{"by_priority", d.ByPriority},
	} {
		rows := make([]toon.Object, len(s.counts))
		for i, c := range s.counts {
			rows[i] = toon.NewObject(
				toon.Field{Key: "label", Value: c.Label},
				toon.Field{Key: "count", Value: c.Count},
			)
		}
		fmt.Fprintln(w)
		if err := writeToon(w, toon.NewObject(toon.Field{Key: s.name, Value: rows})); err != nil {
			return err
		}
	}
	return nil
}

// FormatTags renders the tag list as a single primitive array.
func (f *ToonFormatter) FormatTags(w io.Writer, tags []string) error {
	escaped := make([]string, len(tags))
	for i, tag := range tags {
		escaped[i] = toonEscapeValue(tag)
	}
	_, err := fmt.Fprintf(w, "tags[%d]: %s\n", len(tags), strings.Join(escaped, ","))
	return err
}

// FormatSettings renders settings as key/value lines in key order.
func (f *ToonFormatter) FormatSettings(w io.Writer, s settings.UserSettings) error {
	values, err := settingsValues(s)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "settings:")
	for _, key := range settings.Keys() {
		v := values[key]
		text := v.text
		if v.isString {
			text = toonEscapeValue(text)
		}
		fmt.Fprintf(w, "  %s: %s\n", key, text)
	}
	return nil
}

// FormatMessage renders a simple message as plain text.
func (f *ToonFormatter) FormatMessage(w io.Writer, msg string) error {
	_, err := fmt.Fprintln(w, msg)
	return err
}

func writeToon(w io.Writer, doc toon.Object) error {
	out, err := toon.MarshalString(doc)
	if err != nil {
		return fmt.Errorf("toon marshal error: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func subtaskSection(subtasks []task.Subtask) string {
	header := fmt.Sprintf("subtasks[%d]{id,title,completed}:", len(subtasks))
	if len(subtasks) == 0 {
		return header + "\n"
	}
	rows := make([]string, len(subtasks))
	for i, s := range subtasks {
		rows[i] = "  " + strings.Join([]string{
			toonEscapeValue(s.ID),
			toonEscapeValue(s.Title),
			fmt.Sprintf("%t", s.Completed),
		}, ",")
	}
	return header + "\n" + strings.Join(rows, "\n") + "\n"
}

func indentedSection(name, body string) string {
	var sb strings.Builder
	sb.WriteString(name + ":\n")
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}

// toonEscapeValue uses the toon-go library to escape a string value for use
// in a comma-delimited array row.
func toonEscapeValue(s string) string {
	doc := toon.NewObject(
		toon.Field{Key: "a", Value: []toon.Object{
			toon.NewObject(toon.Field{Key: "v", Value: s}),
		}},
	)
	result, err := toon.MarshalString(doc)
	if err != nil {
		return s
	}
	// Result is "a[1]{v}:\n  <value>".
	lines := strings.SplitN(result, "\n", 2)
	if len(lines) == 2 {
		return strings.TrimSpace(lines[1])
	}
	return s
}

func formatDue(t task.Task) string {
	if t.DueDate == nil {
		return ""
	}
	return task.FormatDate(*t.DueDate)
}
