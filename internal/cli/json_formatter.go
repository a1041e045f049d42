package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/leeovery/termtodo/internal/settings"
	"github.com/leeovery/termtodo/internal/task"
)

// JSONFormatter renders indented JSON. Tasks use their stored JSON shape so
// the output can be fed back through import. Lists are never null.
type JSONFormatter struct{}

type jsonStats struct {
	Total          int     `json:"total"`
	Overdue        int     `json:"overdue"`
	TotalCompleted int     `json:"total_completed"`
	ByStatus       []Count `json:"by_status"`
	ByCategory     []Count `json:"by_category"`
	ByPriority     []Count `json:"by_priority"`
}

type jsonTransition struct {
	ID   string      `json:"id"`
	From task.Status `json:"from"`
	To   task.Status `json:"to"`
}

// FormatTaskList renders tasks as a JSON array.
func (f *JSONFormatter) FormatTaskList(w io.Writer, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	return writeJSON(w, tasks)
}

// FormatTaskDetail renders a single task object.
func (f *JSONFormatter) FormatTaskDetail(w io.Writer, t task.Task) error {
	return writeJSON(w, t)
}

// FormatTransition renders {"id","from","to"}.
func (f *JSONFormatter) FormatTransition(w io.Writer, d TransitionData) error {
	return writeJSON(w, jsonTransition{ID: d.ID, From: d.OldStatus, To: d.NewStatus})
}

// FormatStats renders counts with snake_case keys.
func (f *JSONFormatter) FormatStats(w io.Writer, d StatsData) error {
	return writeJSON(w, jsonStats{
		Total:          d.Total,
		Overdue:        d.Overdue,
		TotalCompleted: d.TotalCompleted,
		ByStatus:       nonNil(d.ByStatus),
		ByCategory:     nonNil(d.ByCategory),
		ByPriority:     nonNil(d.ByPriority),
	})
}

// FormatTags renders tags as a JSON array.
func (f *JSONFormatter) FormatTags(w io.Writer, tags []string) error {
	return writeJSON(w, nonNil(tags))
}

// FormatSettings renders the settings record as stored.
func (f *JSONFormatter) FormatSettings(w io.Writer, s settings.UserSettings) error {
	return writeJSON(w, s)
}

// FormatMessage renders {"message": msg}.
func (f *JSONFormatter) FormatMessage(w io.Writer, msg string) error {
	return writeJSON(w, map[string]string{"message": msg})
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
