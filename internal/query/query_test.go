package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeovery/termtodo/internal/task"
)

func day(d int) *time.Time {
	t := time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func mk(id, title string, mods ...func(*task.Task)) task.Task {
	t := task.NewTask(id, title, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	for _, m := range mods {
		m(&t)
	}
	return t
}

func ids(tasks []task.Task) []string {
	out := []string{}
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func fixture() []task.Task {
	return []task.Task{
		mk("1", "Write parser", func(t *task.Task) {
			t.Priority = task.PriorityHigh
			t.Category = task.CategoryCoding
			t.Tags = []string{"go", "parsing"}
			t.DueDate = day(10)
			t.CodeSnippet = &task.CodeSnippet{Code: "func lex() {}", Language: "go"}
		}),
		mk("2", "Read chapter 3", func(t *task.Task) {
			t.Priority = task.PriorityLow
			t.Category = task.CategoryLearning
			t.Description = "Compilers book"
			t.Status = task.StatusInProgress
		}),
		mk("3", "Essay draft", func(t *task.Task) {
			t.Priority = task.PriorityHigh
			t.Category = task.CategoryAssignment
			t.Status = task.StatusCompleted
			t.DueDate = day(5)
			t.Tags = []string{"school"}
		}),
		mk("4", "Groceries", func(t *task.Task) {
			t.Status = task.StatusArchived
			t.DueDate = day(20)
		}),
	}
}

func TestSearch(t *testing.T) {
	tasks := fixture()

	t.Run("it returns the input for a blank query", func(t *testing.T) {
		assert.Equal(t, ids(tasks), ids(Search(tasks, "   ", false)))
	})

	t.Run("it matches title, description, tags and code case-insensitively", func(t *testing.T) {
		assert.Equal(t, []string{"1"}, ids(Search(tasks, "PARSER", false)))
		assert.Equal(t, []string{"2"}, ids(Search(tasks, "compilers", false)))
		assert.Equal(t, []string{"3"}, ids(Search(tasks, "school", false)))
		assert.Equal(t, []string{"1"}, ids(Search(tasks, "lex()", false)))
	})

	t.Run("it matches regular expressions", func(t *testing.T) {
		assert.Equal(t, []string{"1", "3"}, ids(Search(tasks, "^(write|essay)", true)))
		assert.Equal(t, []string{"1"}, ids(Search(tasks, `func\s+lex`, true)))
	})

	t.Run("it falls back to substring search without code on a bad regex", func(t *testing.T) {
		withParen := append(fixture(), mk("5", "fix (bug"))
		assert.Equal(t, []string{"5"}, ids(Search(withParen, "(bug", true)))

		codeOnly := []task.Task{mk("6", "x", func(t *task.Task) {
			t.CodeSnippet = &task.CodeSnippet{Code: "call(", Language: "go"}
		})}
		assert.Empty(t, Search(codeOnly, "call(", true))
		assert.Len(t, Search(codeOnly, "call(", false), 1)
	})

	t.Run("it never returns tasks outside the input", func(t *testing.T) {
		for _, q := range []string{"a", "e", "zz", "go"} {
			got := Search(tasks, q, false)
			for _, g := range got {
				assert.Contains(t, ids(tasks), g.ID)
			}
		}
	})
}

func TestFilter(t *testing.T) {
	tasks := fixture()

	t.Run("it ANDs across fields", func(t *testing.T) {
		got := Filter(tasks, Filters{
			Priorities: []task.Priority{task.PriorityHigh},
			Statuses:   []task.Status{task.StatusPending},
		})
		assert.Equal(t, []string{"1"}, ids(got))
	})

	t.Run("it ORs within a field", func(t *testing.T) {
		got := Filter(tasks, Filters{Categories: []task.Category{task.CategoryLearning, task.CategoryAssignment}})
		assert.Equal(t, []string{"2", "3"}, ids(got))
	})

	t.Run("it matches any listed tag", func(t *testing.T) {
		got := Filter(tasks, Filters{Tags: []string{"school", "parsing"}})
		assert.Equal(t, []string{"1", "3"}, ids(got))
	})

	t.Run("it applies an inclusive due range and drops undated tasks", func(t *testing.T) {
		got := Filter(tasks, Filters{DueRange: &DateRange{Start: day(5), End: day(10)}})
		assert.Equal(t, []string{"1", "3"}, ids(got))
	})

	t.Run("it supports open-ended ranges", func(t *testing.T) {
		got := Filter(tasks, Filters{DueRange: &DateRange{Start: day(10)}})
		assert.Equal(t, []string{"1", "4"}, ids(got))
	})

	t.Run("it does not restrict with empty filters", func(t *testing.T) {
		assert.Equal(t, ids(tasks), ids(Filter(tasks, Filters{})))
	})
}

func TestSort(t *testing.T) {
	tasks := fixture()

	t.Run("it sorts by priority rank and keeps ties stable", func(t *testing.T) {
		assert.Equal(t, []string{"1", "3", "4", "2"}, ids(Sort(tasks, SortPriority, Asc)))
		assert.Equal(t, []string{"2", "4", "1", "3"}, ids(Sort(tasks, SortPriority, Desc)))
	})

	t.Run("it sorts by status rank", func(t *testing.T) {
		assert.Equal(t, []string{"1", "2", "3", "4"}, ids(Sort(tasks, SortStatus, Asc)))
	})

	t.Run("it sorts by title and category lexicographically", func(t *testing.T) {
		assert.Equal(t, []string{"3", "4", "2", "1"}, ids(Sort(tasks, SortTitle, Asc)))
		assert.Equal(t, []string{"3", "1", "2", "4"}, ids(Sort(tasks, SortCategory, Asc)))
	})

	t.Run("it puts tasks without a due date last in both directions", func(t *testing.T) {
		assert.Equal(t, []string{"3", "1", "4", "2"}, ids(Sort(tasks, SortDate, Asc)))
		assert.Equal(t, []string{"4", "1", "3", "2"}, ids(Sort(tasks, SortDate, Desc)))
	})

	t.Run("it orders a dated task before an undated one", func(t *testing.T) {
		in := []task.Task{mk("nil", "a"), mk("dated", "b", func(t *task.Task) { t.DueDate = day(1) })}
		assert.Equal(t, []string{"dated", "nil"}, ids(Sort(in, SortDate, Asc)))
	})

	t.Run("it is idempotent", func(t *testing.T) {
		for _, k := range SortKeys {
			for _, d := range []Direction{Asc, Desc} {
				once := Sort(tasks, k, d)
				assert.Equal(t, ids(once), ids(Sort(once, k, d)), "%s %s", k, d)
			}
		}
	})

	t.Run("it does not mutate the input", func(t *testing.T) {
		before := ids(tasks)
		Sort(tasks, SortTitle, Desc)
		assert.Equal(t, before, ids(tasks))
	})
}

func TestProcess(t *testing.T) {
	t.Run("it runs search, filter and sort in order", func(t *testing.T) {
		got := Process(fixture(), Options{
			Query:     "e",
			Filters:   Filters{Priorities: []task.Priority{task.PriorityHigh, task.PriorityMedium}},
			SortBy:    SortDate,
			Direction: Desc,
		})
		assert.Equal(t, []string{"4", "1", "3"}, ids(got))
	})
}

func TestAllTags(t *testing.T) {
	t.Run("it returns sorted unique tags", func(t *testing.T) {
		in := append(fixture(), mk("5", "x", func(t *task.Task) { t.Tags = []string{"go", "alpha"} }))
		assert.Equal(t, []string{"alpha", "go", "parsing", "school"}, AllTags(in))
	})
}

func TestParse(t *testing.T) {
	t.Run("it validates sort keys and directions", func(t *testing.T) {
		k, err := ParseSortKey("Priority")
		require.NoError(t, err)
		assert.Equal(t, SortPriority, k)
		_, err = ParseSortKey("size")
		assert.Error(t, err)

		d, err := ParseDirection("")
		require.NoError(t, err)
		assert.Equal(t, Asc, d)
		_, err = ParseDirection("up")
		assert.Error(t, err)
	})
	t.Run("it parses textual filters", func(t *testing.T) {
		f, err := ParseFilters([]string{"Coding"}, []string{"high"}, []string{"in-progress"}, []string{"#go", "Go"})
		require.NoError(t, err)
		assert.Equal(t, []task.Category{task.CategoryCoding}, f.Categories)
		assert.Equal(t, []task.Priority{task.PriorityHigh}, f.Priorities)
		assert.Equal(t, []task.Status{task.StatusInProgress}, f.Statuses)
		assert.Equal(t, []string{"go"}, f.Tags)

		_, err = ParseFilters(nil, []string{"urgent"}, nil, nil)
		assert.EqualError(t, err, "Invalid priority: urgent")
	})
}
