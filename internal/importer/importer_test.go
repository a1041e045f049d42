package importer

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeovery/termtodo/internal/export"
	"github.com/leeovery/termtodo/internal/task"
)

var importTime = time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC)

func newImporter() *Importer {
	return New(WithClock(func() time.Time { return importTime }))
}

func noIDs(string) bool { return false }

func sampleTasks() []task.Task {
	created := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	a := task.NewTask("1775030400000-aaaaaaaa", "Build lexer", created)
	a.Category = task.CategoryCoding
	a.Priority = task.PriorityHigh
	a.Description = "Tokenize the input"
	due := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	a.DueDate = &due
	est := 90
	a.EstimatedTime = &est
	a.PomodoroCount = 3
	a.Tags = []string{"go", "compiler"}
	a.Subtasks = []task.Subtask{{ID: "sub-1", Title: "idents", Completed: true}, {ID: "sub-2", Title: "numbers"}}
	a.CodeSnippet = &task.CodeSnippet{Code: "type Token int", Language: "go"}

	b := task.NewTask("1775030400001-bbbbbbbb", "Read chapter 3", created.Add(time.Minute))
	b.Category = task.CategoryLearning
	b.Priority = task.PriorityLow
	b.Status = task.StatusCompleted
	done := created.Add(time.Hour)
	b.CompletedAt = &done

	return []task.Task{a, b}
}

func exportAs(t *testing.T, f export.Format, tasks []task.Task) string {
	t.Helper()
	out, err := export.Export(tasks, export.Options{Format: f, IncludeCompleted: true, IncludeArchived: true})
	require.NoError(t, err)
	return out
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Format
	}{
		{"it detects a JSON object", `  {"tasks": []}`, FormatJSON},
		{"it detects a JSON array", `[{"title":"a"}]`, FormatJSON},
		{"it detects a markdown export", "# Todo Export\n\n## Pending (0)\n", FormatMarkdown},
		{"it detects markdown task headings", "### [ ] Something\n", FormatMarkdown},
		{"it rejects broken JSON without markdown markers", `{"tasks": [`, ""},
		{"it rejects plain text", "just some words", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.content))
		})
	}
}

func TestValidateContent(t *testing.T) {
	t.Run("it rejects blank content", func(t *testing.T) {
		assert.True(t, errors.Is(ValidateContent("   \n"), ErrEmptyContent))
	})

	t.Run("it rejects undetectable content", func(t *testing.T) {
		assert.True(t, errors.Is(ValidateContent("hello"), ErrUndetectable))
	})

	t.Run("it accepts either supported format", func(t *testing.T) {
		assert.NoError(t, ValidateContent(`[]`))
		assert.NoError(t, ValidateContent("### [ ] a"))
	})
}

func TestParseFormat(t *testing.T) {
	t.Run("it accepts names, md and empty", func(t *testing.T) {
		for in, want := range map[string]Format{"": "", "JSON": FormatJSON, "md": FormatMarkdown, "markdown": FormatMarkdown} {
			got, err := ParseFormat(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
		_, err := ParseFormat("csv")
		assert.Error(t, err)
	})
}

func TestParseJSON(t *testing.T) {
	t.Run("it reads the wrapped export shape", func(t *testing.T) {
		cs, err := ParseJSON(`{"version":"1.0.0","tasks":[{"title":"a","priority":"HIGH"}]}`)
		require.NoError(t, err)
		require.Len(t, cs, 1)
		assert.Equal(t, "a", cs[0].Title)
		assert.Equal(t, "HIGH", cs[0].Priority)
	})

	t.Run("it reads a bare array", func(t *testing.T) {
		cs, err := ParseJSON(`[{"title":"a"},{"title":"b","estimatedTime":30}]`)
		require.NoError(t, err)
		require.Len(t, cs, 2)
		require.NotNil(t, cs[1].EstimatedTime)
		assert.Equal(t, 30.0, *cs[1].EstimatedTime)
	})

	t.Run("it fails for malformed JSON or a missing tasks array", func(t *testing.T) {
		_, err := ParseJSON(`{"tasks": [`)
		assert.Error(t, err)
		_, err = ParseJSON(`{"version":"1.0.0"}`)
		assert.Error(t, err)
	})

	t.Run("it keeps a wrongly-typed record as an invalid candidate", func(t *testing.T) {
		cs, err := ParseJSON(`[{"title":"ok"},{"title":"bad","tags":"nope"}]`)
		require.NoError(t, err)
		require.Len(t, cs, 2)
		assert.NoError(t, Validate(cs[0]))
		assert.Error(t, Validate(cs[1]))
		assert.Equal(t, "bad", cs[1].Title)
	})
}

func TestParseMarkdown(t *testing.T) {
	t.Run("it reads back the markdown export", func(t *testing.T) {
		cs := ParseMarkdown(exportAs(t, export.FormatMarkdown, sampleTasks()))
		require.Len(t, cs, 2)

		a := cs[0]
		assert.Equal(t, "Build lexer", a.Title)
		assert.Equal(t, "Tokenize the input", a.Description)
		assert.Equal(t, "pending", a.Status)
		assert.Equal(t, "high", a.Priority)
		assert.Equal(t, "coding", a.Category)
		assert.Equal(t, "2026-04-10", a.DueDate)
		require.NotNil(t, a.EstimatedTime)
		assert.Equal(t, 90.0, *a.EstimatedTime)
		require.NotNil(t, a.PomodoroCount)
		assert.Equal(t, 3.0, *a.PomodoroCount)
		assert.Equal(t, []string{"go", "compiler"}, a.Tags)
		require.Len(t, a.Subtasks, 2)
		assert.True(t, a.Subtasks[0].Completed)
		assert.Equal(t, "numbers", a.Subtasks[1].Title)
		require.NotNil(t, a.CodeSnippet)
		assert.Equal(t, task.CodeSnippet{Code: "type Token int", Language: "go"}, *a.CodeSnippet)

		assert.Equal(t, "Read chapter 3", cs[1].Title)
		assert.Equal(t, "completed", cs[1].Status)
	})

	t.Run("it uses the checkbox when there is no status section", func(t *testing.T) {
		cs := ParseMarkdown("### [x] Done thing\n### [ ] Open thing\n- **Priority:** low\n")
		require.Len(t, cs, 2)
		assert.Equal(t, "completed", cs[0].Status)
		assert.Equal(t, "", cs[1].Status)
		assert.Equal(t, "low", cs[1].Priority)
	})

	t.Run("it maps the In Progress section", func(t *testing.T) {
		cs := ParseMarkdown("## In Progress (1)\n\n### [ ] Halfway\n")
		require.Len(t, cs, 1)
		assert.Equal(t, "in-progress", cs[0].Status)
	})

	t.Run("it closes an unterminated code fence at the end", func(t *testing.T) {
		cs := ParseMarkdown("### [ ] Snippet\n```sh\necho hi\n")
		require.Len(t, cs, 1)
		require.NotNil(t, cs[0].CodeSnippet)
		assert.Equal(t, "echo hi", cs[0].CodeSnippet.Code)
		assert.Equal(t, "sh", cs[0].CodeSnippet.Language)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		c    Candidate
		want string
	}{
		{"it requires a title", Candidate{Title: "   "}, "Title is required"},
		{"it limits the title length", Candidate{Title: string(bytes.Repeat([]byte("x"), 201))}, "Title must be 200 characters or less"},
		{"it rejects an unknown priority", Candidate{Title: "a", Priority: "urgent"}, "Invalid priority: urgent"},
		{"it rejects an unknown category", Candidate{Title: "a", Category: "work"}, "Invalid category: work"},
		{"it rejects an unknown status", Candidate{Title: "a", Status: "done"}, "Invalid status: done"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, Validate(tt.c), tt.want)
		})
	}

	t.Run("it accepts enums in any case", func(t *testing.T) {
		assert.NoError(t, Validate(Candidate{Title: "a", Priority: "High", Category: "CODING", Status: "In-Progress"}))
	})
}

func TestIsDuplicate(t *testing.T) {
	existing := []task.Task{task.NewTask("1", "Write Tests", importTime)}

	t.Run("it matches title case-insensitively with empty descriptions", func(t *testing.T) {
		assert.True(t, IsDuplicate(task.Task{Title: "write tests"}, existing))
	})

	t.Run("it requires the description to match too", func(t *testing.T) {
		assert.False(t, IsDuplicate(task.Task{Title: "Write Tests", Description: "unit"}, existing))
	})
}

func TestNormalize(t *testing.T) {
	t.Run("it fills defaults and a fresh id", func(t *testing.T) {
		got, err := newImporter().Normalize(Candidate{Title: "  New  "}, noIDs)
		require.NoError(t, err)
		assert.Equal(t, "New", got.Title)
		assert.Equal(t, task.CategoryPersonal, got.Category)
		assert.Equal(t, task.PriorityMedium, got.Priority)
		assert.Equal(t, task.StatusPending, got.Status)
		assert.Equal(t, importTime, got.CreatedAt)
		assert.Regexp(t, `^1775206800000-[0-9a-f]{8}$`, got.ID)
		assert.Equal(t, []string{}, got.Tags)
		assert.Equal(t, []task.Subtask{}, got.Subtasks)
	})

	t.Run("it keeps a supplied id and createdAt", func(t *testing.T) {
		got, err := newImporter().Normalize(Candidate{ID: "keep-me", Title: "a", CreatedAt: "2026-01-02T03:04:05.000Z"}, noIDs)
		require.NoError(t, err)
		assert.Equal(t, "keep-me", got.ID)
		assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), got.CreatedAt)
	})

	t.Run("it stamps completedAt for completed records and drops it otherwise", func(t *testing.T) {
		done, err := newImporter().Normalize(Candidate{Title: "a", Status: "completed"}, noIDs)
		require.NoError(t, err)
		require.NotNil(t, done.CompletedAt)
		assert.Equal(t, importTime, *done.CompletedAt)

		open, err := newImporter().Normalize(Candidate{Title: "a", CompletedAt: "2026-01-02T00:00:00Z"}, noIDs)
		require.NoError(t, err)
		assert.Nil(t, open.CompletedAt)
	})

	t.Run("it fails on an unparseable date", func(t *testing.T) {
		_, err := newImporter().Normalize(Candidate{Title: "a", DueDate: "next tuesday"}, noIDs)
		assert.EqualError(t, err, `invalid dueDate: "next tuesday"`)
	})

	t.Run("it gives subtasks without ids a fresh one", func(t *testing.T) {
		got, err := newImporter().Normalize(Candidate{Title: "a", Subtasks: []task.Subtask{{Title: "s"}}}, noIDs)
		require.NoError(t, err)
		require.Len(t, got.Subtasks, 1)
		assert.Regexp(t, `^sub-[0-9a-f]{8}$`, got.Subtasks[0].ID)
	})
}

func TestImport(t *testing.T) {
	t.Run("it skips a blank-titled record and reports failure", func(t *testing.T) {
		res, err := newImporter().Import(`{"version":"1.0.0","tasks":[{"title":"  "}]}`, "", nil)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, Stats{Imported: 0, Duplicates: 0, Skipped: 1}, res.Stats)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0], "Title is required")
		assert.Contains(t, res.Errors[0], "(untitled)")
	})

	t.Run("it round-trips a JSON export", func(t *testing.T) {
		in := sampleTasks()
		res, err := newImporter().Import(exportAs(t, export.FormatJSON, in), "", nil)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, Stats{Imported: 2}, res.Stats)
		assert.Equal(t, in, res.Tasks)
	})

	t.Run("it reports every record as a duplicate on a second pass", func(t *testing.T) {
		content := exportAs(t, export.FormatJSON, sampleTasks())
		first, err := newImporter().Import(content, FormatJSON, nil)
		require.NoError(t, err)

		second, err := newImporter().Import(content, FormatJSON, first.Tasks)
		require.NoError(t, err)
		assert.False(t, second.Success)
		assert.Equal(t, first.Stats.Imported, second.Stats.Duplicates)
		assert.Equal(t, 0, second.Stats.Imported)
		assert.Len(t, second.Duplicates, 2)
	})

	t.Run("it imports a markdown export with fresh ids", func(t *testing.T) {
		res, err := newImporter().Import(exportAs(t, export.FormatMarkdown, sampleTasks()), "", nil)
		require.NoError(t, err)
		require.Len(t, res.Tasks, 2)
		assert.Equal(t, "Build lexer", res.Tasks[0].Title)
		assert.Equal(t, task.PriorityHigh, res.Tasks[0].Priority)
		assert.Equal(t, task.StatusCompleted, res.Tasks[1].Status)
		assert.NotEqual(t, res.Tasks[0].ID, res.Tasks[1].ID)
	})

	t.Run("it skips invalid records and keeps the rest", func(t *testing.T) {
		res, err := newImporter().Import(`[{"title":"good"},{"title":"bad","priority":"urgent"}]`, "", nil)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, Stats{Imported: 1, Skipped: 1}, res.Stats)
		assert.Equal(t, []string{`Task "bad": Invalid priority: urgent`}, res.Errors)
	})

	t.Run("it fails outright for undetectable content", func(t *testing.T) {
		res, err := newImporter().Import("no structure here", "", nil)
		assert.True(t, errors.Is(err, ErrUndetectable))
		assert.False(t, res.Success)
		assert.Len(t, res.Errors, 1)
	})
}

func TestCommit(t *testing.T) {
	t.Run("it passes only new tasks to the sink", func(t *testing.T) {
		res := Result{Tasks: sampleTasks()[:1], Duplicates: sampleTasks()[1:]}
		got, err := Commit(DryRun{}, res)
		require.NoError(t, err)
		assert.Equal(t, res.Tasks, got)
	})

	t.Run("it does nothing for an empty import", func(t *testing.T) {
		got, err := Commit(DryRun{}, Result{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestIncludeDuplicates(t *testing.T) {
	t.Run("it moves duplicates into the new tasks", func(t *testing.T) {
		tasks := sampleTasks()
		res := Result{
			Tasks:      tasks[:1],
			Duplicates: tasks[1:],
			Stats:      Stats{Imported: 1, Duplicates: 1, Skipped: 2},
		}
		got := IncludeDuplicates(res)
		assert.Equal(t, tasks, got.Tasks)
		assert.Empty(t, got.Duplicates)
		assert.Equal(t, Stats{Imported: 2, Skipped: 2}, got.Stats)
		assert.True(t, got.Success)
	})
}

func TestPresent(t *testing.T) {
	t.Run("it prints header, per-record lines and summary", func(t *testing.T) {
		res := Result{
			Tasks:      []task.Task{{Title: "New one"}},
			Duplicates: []task.Task{{Title: "Old one"}},
			Errors:     []string{`Task "(untitled)": Title is required`},
			Stats:      Stats{Imported: 1, Duplicates: 1, Skipped: 1},
		}
		var buf bytes.Buffer
		Present(&buf, FormatJSON, true, res)

		want := "Importing from json... [dry-run]\n" +
			"  ✓ Task: New one\n" +
			"  = Duplicate: Old one\n" +
			"  ✗ Task \"(untitled)\": Title is required\n" +
			"\nDone: 1 imported, 1 duplicates, 1 skipped\n"
		assert.Equal(t, want, buf.String())
	})
}
