package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leeovery/termtodo/internal/storage"
	"github.com/leeovery/termtodo/internal/task"
)

// taskFlags are the field flags shared by add and update.
type taskFlags struct {
	title         string
	description   string
	category      string
	priority      string
	status        string
	tags          string
	due           string
	estimate      int
	actual        int
	depends       string
	code          string
	lang          string
	clearDue      bool
	clearEstimate bool
	clearActual   bool
	clearCode     bool
}

func (f *taskFlags) register(cmd *cobra.Command, update bool) {
	fs := cmd.Flags()
	if update {
		fs.StringVar(&f.title, "title", "", "new title")
	}
	fs.StringVarP(&f.description, "description", "d", "", "longer description")
	fs.StringVarP(&f.category, "category", "c", "", "learning, coding, assignment, project or personal")
	fs.StringVarP(&f.priority, "priority", "p", "", "high, medium or low")
	fs.StringVarP(&f.status, "status", "s", "", "pending, in-progress, completed or archived")
	fs.StringVarP(&f.tags, "tags", "t", "", "comma-separated tags")
	fs.StringVar(&f.due, "due", "", "due date (YYYY-MM-DD)")
	fs.IntVar(&f.estimate, "estimate", 0, "estimated minutes")
	fs.IntVar(&f.actual, "actual", 0, "actual minutes spent")
	fs.StringVar(&f.depends, "depends", "", "comma-separated IDs of tasks this one depends on")
	fs.StringVar(&f.code, "code", "", "attach a code snippet")
	fs.StringVar(&f.lang, "lang", "text", "language of the code snippet")
	if update {
		fs.BoolVar(&f.clearDue, "clear-due", false, "remove the due date")
		fs.BoolVar(&f.clearEstimate, "clear-estimate", false, "remove the estimate")
		fs.BoolVar(&f.clearActual, "clear-actual", false, "remove the actual time")
		fs.BoolVar(&f.clearCode, "clear-code", false, "remove the code snippet")
	}
}

// patch builds a task.Patch from the flags that were set on cmd.
func (f *taskFlags) patch(cmd *cobra.Command) (task.Patch, error) {
	var p task.Patch
	changed := cmd.Flags().Changed

	if changed("title") {
		p.Title = &f.title
	}
	if changed("description") {
		p.Description = &f.description
	}
	if changed("category") {
		c, err := task.ParseCategory(f.category)
		if err != nil {
			return p, err
		}
		p.Category = &c
	}
	if changed("priority") {
		pr, err := task.ParsePriority(f.priority)
		if err != nil {
			return p, err
		}
		p.Priority = &pr
	}
	if changed("status") {
		st, err := task.ParseStatus(f.status)
		if err != nil {
			return p, err
		}
		p.Status = &st
	}
	if changed("tags") {
		tags := task.DeduplicateTags(parseCommaSeparated(f.tags))
		p.Tags = &tags
	}
	if changed("due") {
		due, err := parseDate(f.due)
		if err != nil {
			return p, err
		}
		p.DueDate = &due
	}
	for _, m := range []struct {
		name string
		val  int
		dst  **int
	}{
		{"estimate", f.estimate, &p.EstimatedTime},
		{"actual", f.actual, &p.ActualTime},
	} {
		if !changed(m.name) {
			continue
		}
		if m.val < 0 {
			return p, fmt.Errorf("--%s must not be negative", m.name)
		}
		v := m.val
		*m.dst = &v
	}
	if changed("depends") {
		deps := task.DeduplicateDependencies(parseCommaSeparated(f.depends))
		p.Dependencies = &deps
	}
	if changed("code") {
		p.CodeSnippet = &task.CodeSnippet{Code: f.code, Language: f.lang}
	}

	p.ClearDueDate = f.clearDue
	p.ClearEstimate = f.clearEstimate
	p.ClearActual = f.clearActual
	p.ClearCode = f.clearCode
	return p, nil
}

func (a *App) addCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a new task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.patch(cmd)
			if err != nil {
				return err
			}
			return a.withStore(func(s *storage.Store) error {
				prefs, err := s.GetSettings()
				if err != nil {
					return err
				}
				draft := task.Task{
					Title:    strings.Join(args, " "),
					Category: prefs.DefaultCategory,
					Priority: prefs.DefaultPriority,
				}
				task.ApplyDefaults(&draft)
				if _, err := task.Apply(&draft, p, a.Now()); err != nil {
					return err
				}

				if len(draft.Dependencies) > 0 {
					tasks, err := s.GetTasks()
					if err != nil {
						return err
					}
					if err := task.ValidateDependencies(tasks, "", draft.Dependencies); err != nil {
						return err
					}
				}

				created, err := s.AddTask(draft)
				if err != nil {
					return err
				}
				return a.printTask(created)
			})
		},
	}
	f.register(cmd, false)
	return cmd
}

func (a *App) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *storage.Store) error {
				t, err := requireTask(s, args[0])
				if err != nil {
					return err
				}
				return a.formatter().FormatTaskDetail(a.Stdout, t)
			})
		},
	}
}

func (a *App) updateCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			p, err := f.patch(cmd)
			if err != nil {
				return err
			}
			if p.IsEmpty() {
				return errors.New("no changes specified; pass at least one field flag")
			}
			return a.withStore(func(s *storage.Store) error {
				if p.Dependencies != nil {
					tasks, err := s.GetTasks()
					if err != nil {
						return err
					}
					if err := task.ValidateDependencies(tasks, id, *p.Dependencies); err != nil {
						return err
					}
				}
				updated, err := s.UpdateTask(id, p)
				if err != nil {
					return err
				}
				return a.printTask(updated)
			})
		},
	}
	f.register(cmd, true)
	return cmd
}

func (a *App) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a task to another status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := task.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return a.withStore(func(s *storage.Store) error {
				before, err := requireTask(s, args[0])
				if err != nil {
					return err
				}
				after, err := s.UpdateTask(args[0], task.Patch{Status: &st})
				if err != nil {
					return err
				}
				return a.printTransition(before, after)
			})
		},
	}
}

func (a *App) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task completed, or reopen a completed one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *storage.Store) error {
				before, err := requireTask(s, args[0])
				if err != nil {
					return err
				}
				after, err := s.ToggleTaskComplete(args[0])
				if err != nil {
					return err
				}
				return a.printTransition(before, after)
			})
		},
	}
}

func (a *App) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Delete tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *storage.Store) error {
				for _, id := range args {
					if err := s.DeleteTask(id); err != nil {
						return err
					}
					if !a.fc.Quiet {
						if err := a.formatter().FormatMessage(a.Stdout, fmt.Sprintf("Removed %s", id)); err != nil {
							return err
						}
					}
				}
				return nil
			})
		},
	}
}

func (a *App) subtaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtask",
		Short: "Manage a task's checklist",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <task-id> <title>",
			Short: "Append a subtask",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(func(s *storage.Store) error {
					updated, err := s.AddSubtask(args[0], strings.Join(args[1:], " "))
					if err != nil {
						return err
					}
					return a.printTask(updated)
				})
			},
		},
		&cobra.Command{
			Use:   "toggle <task-id> <subtask-id>",
			Short: "Flip a subtask between done and not done",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(func(s *storage.Store) error {
					updated, err := s.ToggleSubtask(args[0], args[1])
					if err != nil {
						return err
					}
					return a.printTask(updated)
				})
			},
		},
	)
	return cmd
}

// printTask writes the task detail, or only its ID in quiet mode.
func (a *App) printTask(t task.Task) error {
	if a.fc.Quiet {
		_, err := fmt.Fprintln(a.Stdout, t.ID)
		return err
	}
	return a.formatter().FormatTaskDetail(a.Stdout, t)
}

func (a *App) printTransition(before, after task.Task) error {
	if a.fc.Quiet {
		return nil
	}
	return a.formatter().FormatTransition(a.Stdout, TransitionData{
		ID:        after.ID,
		OldStatus: before.Status,
		NewStatus: after.Status,
	})
}
