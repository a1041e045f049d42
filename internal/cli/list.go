package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leeovery/termtodo/internal/query"
	"github.com/leeovery/termtodo/internal/storage"
	"github.com/leeovery/termtodo/internal/task"
)

// listFlags holds the search, filter and sort flags of `termtodo list`.
type listFlags struct {
	search     string
	regex      bool
	categories string
	priorities string
	statuses   string
	tags       string
	dueFrom    string
	dueTo      string
	sort       string
	desc       bool
	all        bool
}

// options converts the flags into query options.
func (f *listFlags) options() (query.Options, error) {
	filters, err := query.ParseFilters(
		parseCommaSeparated(f.categories),
		parseCommaSeparated(f.priorities),
		parseCommaSeparated(f.statuses),
		parseCommaSeparated(f.tags),
	)
	if err != nil {
		return query.Options{}, err
	}

	if f.dueFrom != "" || f.dueTo != "" {
		var r query.DateRange
		if f.dueFrom != "" {
			from, err := parseDate(f.dueFrom)
			if err != nil {
				return query.Options{}, err
			}
			r.Start = &from
		}
		if f.dueTo != "" {
			to, err := parseDate(f.dueTo)
			if err != nil {
				return query.Options{}, err
			}
			to = endOfDay(f.dueTo, to)
			r.End = &to
		}
		filters.DueRange = &r
	}

	key, err := query.ParseSortKey(f.sort)
	if err != nil {
		return query.Options{}, err
	}
	dir := query.Asc
	if f.desc {
		dir = query.Desc
	}

	return query.Options{
		Query:     f.search,
		UseRegex:  f.regex,
		Filters:   filters,
		SortBy:    key,
		Direction: dir,
	}, nil
}

func (a *App) listCmd() *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}
			return a.withStore(func(s *storage.Store) error {
				tasks, err := s.GetTasks()
				if err != nil {
					return err
				}
				if !f.all && len(opts.Filters.Statuses) == 0 {
					prefs, err := s.GetSettings()
					if err != nil {
						return err
					}
					tasks = hideClosed(tasks, prefs.ShowCompletedTasks)
				}

				result := query.Process(tasks, opts)
				if a.fc.Quiet {
					for _, t := range result {
						fmt.Fprintln(a.Stdout, t.ID)
					}
					return nil
				}
				return a.formatter().FormatTaskList(a.Stdout, result)
			})
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.search, "search", "", "match title, description, tags and code")
	fs.BoolVar(&f.regex, "regex", false, "treat --search as a regular expression")
	fs.StringVar(&f.categories, "category", "", "comma-separated categories")
	fs.StringVar(&f.priorities, "priority", "", "comma-separated priorities")
	fs.StringVar(&f.statuses, "status", "", "comma-separated statuses")
	fs.StringVar(&f.tags, "tag", "", "comma-separated tags (any match)")
	fs.StringVar(&f.dueFrom, "due-from", "", "earliest due date (YYYY-MM-DD)")
	fs.StringVar(&f.dueTo, "due-to", "", "latest due date, inclusive (YYYY-MM-DD)")
	fs.StringVar(&f.sort, "sort", string(query.SortDate), "priority, date, status, category or title")
	fs.BoolVar(&f.desc, "desc", false, "sort descending")
	fs.BoolVar(&f.all, "all", false, "include archived tasks, and completed ones even when hidden by settings")
	return cmd
}

// hideClosed drops archived tasks, and completed ones unless showCompleted.
func hideClosed(tasks []task.Task, showCompleted bool) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		switch {
		case t.Status == task.StatusArchived:
		case t.Status == task.StatusCompleted && !showCompleted:
		default:
			out = append(out, t)
		}
	}
	return out
}

func (a *App) tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List every tag in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *storage.Store) error {
				tasks, err := s.GetTasks()
				if err != nil {
					return err
				}
				return a.formatter().FormatTags(a.Stdout, query.AllTags(tasks))
			})
		},
	}
}

func (a *App) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *storage.Store) error {
				tasks, err := s.GetTasks()
				if err != nil {
					return err
				}
				total, err := s.TotalCompleted()
				if err != nil {
					return err
				}
				return a.formatter().FormatStats(a.Stdout, buildStats(tasks, total, a.Now()))
			})
		},
	}
}
