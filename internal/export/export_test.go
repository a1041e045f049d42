package export

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeovery/termtodo/internal/query"
	"github.com/leeovery/termtodo/internal/task"
)

var exportTime = time.Date(2026, 4, 2, 14, 30, 0, 0, time.UTC)

func newExporter() *Exporter {
	return New(WithClock(func() time.Time { return exportTime }))
}

func mk(id, title string, st task.Status, p task.Priority) task.Task {
	t := task.NewTask(id, title, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	t.Status = st
	t.Priority = p
	return t
}

func richTask() task.Task {
	t := mk("r1", "Build lexer", task.StatusPending, task.PriorityHigh)
	t.Category = task.CategoryCoding
	t.Description = "Tokenize the input"
	due := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	t.DueDate = &due
	est := 90
	t.EstimatedTime = &est
	t.PomodoroCount = 3
	t.Tags = []string{"go", "compiler"}
	t.Subtasks = []task.Subtask{{ID: "sub-1", Title: "idents", Completed: true}, {ID: "sub-2", Title: "numbers"}}
	t.CodeSnippet = &task.CodeSnippet{Code: "type Token int", Language: "go"}
	return t
}

func TestFilter(t *testing.T) {
	tasks := []task.Task{
		mk("1", "a", task.StatusPending, task.PriorityLow),
		mk("2", "b", task.StatusCompleted, task.PriorityLow),
		mk("3", "c", task.StatusArchived, task.PriorityLow),
	}

	t.Run("it excludes completed and archived by default", func(t *testing.T) {
		assert.Len(t, Filter(tasks, Options{Format: FormatJSON}), 1)
	})

	t.Run("it includes them when asked", func(t *testing.T) {
		assert.Len(t, Filter(tasks, Options{Format: FormatJSON, IncludeCompleted: true, IncludeArchived: true}), 3)
	})

	t.Run("it always excludes them for github", func(t *testing.T) {
		got := Filter(tasks, Options{Format: FormatGitHub, IncludeCompleted: true, IncludeArchived: true})
		require.Len(t, got, 1)
		assert.Equal(t, "1", got[0].ID)
	})

	t.Run("it restricts by category and createdAt range", func(t *testing.T) {
		in := append([]task.Task{}, tasks...)
		in[0].Category = task.CategoryCoding
		assert.Len(t, Filter(in, Options{Categories: []task.Category{task.CategoryLearning}}), 0)
		assert.Len(t, Filter(in, Options{Categories: []task.Category{task.CategoryCoding}}), 1)

		after := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		assert.Len(t, Filter(in, Options{DateRange: &query.DateRange{Start: &after}}), 0)
	})
}

func TestExportJSON(t *testing.T) {
	t.Run("it wraps tasks with version, date and count", func(t *testing.T) {
		out, err := newExporter().Export([]task.Task{richTask()}, Options{Format: FormatJSON})
		require.NoError(t, err)

		var doc Document
		require.NoError(t, json.Unmarshal([]byte(out), &doc))
		assert.Equal(t, "1.0.0", doc.Version)
		assert.Equal(t, 1, doc.TaskCount)
		assert.True(t, doc.ExportDate.Equal(exportTime))
		require.Len(t, doc.Tasks, 1)
		assert.Equal(t, richTask(), doc.Tasks[0])
		assert.Contains(t, out, "\n  \"version\"")
	})

	t.Run("it writes an empty array for no tasks", func(t *testing.T) {
		out, err := newExporter().Export(nil, Options{Format: FormatJSON})
		require.NoError(t, err)
		assert.Contains(t, out, `"tasks": []`)
	})
}

func TestExportMarkdown(t *testing.T) {
	t.Run("it emits one pending section with headings in input order", func(t *testing.T) {
		tasks := []task.Task{
			mk("1", "High one", task.StatusPending, task.PriorityHigh),
			mk("2", "Medium one", task.StatusPending, task.PriorityMedium),
			mk("3", "Low one", task.StatusPending, task.PriorityLow),
		}
		out, err := newExporter().Export(tasks, Options{Format: FormatMarkdown})
		require.NoError(t, err)

		assert.Equal(t, 1, strings.Count(out, "## Pending (3)"))
		assert.Equal(t, 3, strings.Count(out, "### [ ]"))
		assert.NotContains(t, out, "## In Progress")
		hi := strings.Index(out, "High one")
		med := strings.Index(out, "Medium one")
		lo := strings.Index(out, "Low one")
		assert.True(t, hi < med && med < lo)
	})

	t.Run("it renders metadata, subtasks and code", func(t *testing.T) {
		done := mk("d", "Finished", task.StatusCompleted, task.PriorityLow)
		out, err := newExporter().Export([]task.Task{richTask(), done}, Options{Format: FormatMarkdown, IncludeCompleted: true})
		require.NoError(t, err)

		for _, want := range []string{
			"# Todo Export",
			"Exported: 2026-04-02 14:30",
			"Total Tasks: 2",
			"### [ ] Build lexer",
			"Tokenize the input",
			"- Priority: high",
			"- Category: coding",
			"- Due Date: 2026-04-10",
			"- Estimated Time: 90 minutes",
			"- Pomodoros: 3",
			"- Tags: go, compiler",
			"**Subtasks:**\n- [x] idents\n- [ ] numbers",
			"```go\ntype Token int\n```",
			"## Completed (1)",
			"### [x] Finished",
		} {
			assert.Contains(t, out, want)
		}
		assert.True(t, strings.Index(out, "## Pending") < strings.Index(out, "## Completed"))
	})
}

func TestExportText(t *testing.T) {
	t.Run("it uses ASCII banners", func(t *testing.T) {
		out, err := newExporter().Export([]task.Task{richTask()}, Options{Format: FormatText})
		require.NoError(t, err)
		assert.Contains(t, out, strings.Repeat("=", 50)+"\nTODO EXPORT\n")
		assert.Contains(t, out, "PENDING (1)\n"+strings.Repeat("-", 50))
		assert.Contains(t, out, "[ ] Build lexer")
		assert.Contains(t, out, "Priority: high | Category: coding")
		assert.Contains(t, out, "      [x] idents")
		assert.NotContains(t, out, "###")
	})
}

func TestExportGitHub(t *testing.T) {
	t.Run("it renders issue blocks for open work only", func(t *testing.T) {
		done := mk("d", "Shipped", task.StatusCompleted, task.PriorityLow)
		out, err := newExporter().Export([]task.Task{richTask(), done}, Options{Format: FormatGitHub, IncludeCompleted: true})
		require.NoError(t, err)

		assert.Contains(t, out, "## Build lexer")
		assert.Contains(t, out, "**Labels:** `priority:high`, `category:coding`, `go`, `compiler`")
		assert.Contains(t, out, "### Description\n\nTokenize the input")
		assert.Contains(t, out, "### Tasks\n\n- [x] idents")
		assert.Contains(t, out, "### Code\n\n```go")
		assert.Contains(t, out, "### Metadata")
		assert.NotContains(t, out, "Shipped")
	})
}

func TestExportUnsupported(t *testing.T) {
	t.Run("it fails immediately for an unknown format", func(t *testing.T) {
		_, err := newExporter().Export(nil, Options{Format: "pdf"})
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	})
}

func TestGetStats(t *testing.T) {
	t.Run("it counts by status, category and priority", func(t *testing.T) {
		s := GetStats([]task.Task{
			mk("1", "a", task.StatusPending, task.PriorityHigh),
			mk("2", "b", task.StatusPending, task.PriorityLow),
			mk("3", "c", task.StatusCompleted, task.PriorityHigh),
		})
		assert.Equal(t, 3, s.Total)
		assert.Equal(t, 2, s.ByStatus[task.StatusPending])
		assert.Equal(t, 2, s.ByPriority[task.PriorityHigh])
		assert.Equal(t, 3, s.ByCategory[task.CategoryPersonal])
	})
}

func TestFilename(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "todo-export-2026-04-02.json"},
		{FormatMarkdown, "todo-export-2026-04-02.md"},
		{FormatText, "todo-export-2026-04-02.txt"},
		{FormatGitHub, "todo-export-2026-04-02.md"},
	}
	for _, tt := range tests {
		t.Run("it names "+string(tt.format)+" exports", func(t *testing.T) {
			got, err := Filename(tt.format, exportTime)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Run("it accepts names and extensions", func(t *testing.T) {
		f, err := ParseFormat("MD")
		require.NoError(t, err)
		assert.Equal(t, FormatMarkdown, f)
		_, err = ParseFormat("pdf")
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	})
}
