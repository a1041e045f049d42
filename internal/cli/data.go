package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leeovery/termtodo/internal/export"
	"github.com/leeovery/termtodo/internal/importer"
	"github.com/leeovery/termtodo/internal/query"
	"github.com/leeovery/termtodo/internal/storage"
)

func (a *App) exportCmd() *cobra.Command {
	var (
		format           string
		output           string
		includeCompleted bool
		includeArchived  bool
		categories       string
		from, to         string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as JSON, Markdown, text or GitHub issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			filters, err := query.ParseFilters(parseCommaSeparated(categories), nil, nil, nil)
			if err != nil {
				return err
			}
			opts := export.Options{
				Format:           f,
				IncludeCompleted: includeCompleted,
				IncludeArchived:  includeArchived,
				Categories:       filters.Categories,
			}
			if opts.DateRange, err = dateRange(from, to); err != nil {
				return err
			}

			return a.withStore(func(s *storage.Store) error {
				tasks, err := s.GetTasks()
				if err != nil {
					return err
				}
				out, err := export.New(export.WithClock(a.Now)).Export(tasks, opts)
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err := io.WriteString(a.Stdout, out)
					return err
				}

				path, err := exportPath(output, f, a.Now())
				if err != nil {
					return err
				}
				if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
					return fmt.Errorf("writing export: %w", err)
				}
				n := len(export.Filter(tasks, opts))
				a.log.Debug("export written", zap.String("path", path), zap.Int("tasks", n))
				if a.fc.Quiet {
					return nil
				}
				return a.formatter().FormatMessage(a.Stdout, fmt.Sprintf("Exported %d tasks to %s", n, path))
			})
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&format, "format", "f", string(export.FormatJSON), "json, markdown, text or github")
	fs.StringVarP(&output, "output", "o", "", "file or directory to write; stdout when empty")
	fs.BoolVar(&includeCompleted, "include-completed", false, "include completed tasks")
	fs.BoolVar(&includeArchived, "include-archived", false, "include archived tasks")
	fs.StringVar(&categories, "category", "", "comma-separated categories")
	fs.StringVar(&from, "from", "", "earliest creation date (YYYY-MM-DD)")
	fs.StringVar(&to, "to", "", "latest creation date, inclusive (YYYY-MM-DD)")
	return cmd
}

// dateRange builds an inclusive range from optional textual bounds. Both
// empty means no range.
func dateRange(from, to string) (*query.DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	var r query.DateRange
	if from != "" {
		t, err := parseDate(from)
		if err != nil {
			return nil, err
		}
		r.Start = &t
	}
	if to != "" {
		t, err := parseDate(to)
		if err != nil {
			return nil, err
		}
		t = endOfDay(to, t)
		r.End = &t
	}
	return &r, nil
}

// exportPath resolves --output. A directory receives the dated default
// filename for the format.
func exportPath(output string, f export.Format, now time.Time) (string, error) {
	info, err := os.Stat(output)
	if err != nil || !info.IsDir() {
		return output, nil
	}
	name, err := export.Filename(f, now)
	if err != nil {
		return "", err
	}
	return filepath.Join(output, name), nil
}

func (a *App) importCmd() *cobra.Command {
	var (
		format string
		force  bool
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import tasks from a JSON or Markdown export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := importer.ParseFormat(format)
			if err != nil {
				return err
			}
			content, err := a.readInput(args[0])
			if err != nil {
				return err
			}
			if f == "" {
				if err := importer.ValidateContent(content); err != nil {
					return err
				}
				f = importer.DetectFormat(content)
			}

			return a.withStore(func(s *storage.Store) error {
				existing, err := s.GetTasks()
				if err != nil {
					return err
				}
				res, err := importer.New(importer.WithClock(a.Now)).Import(content, f, existing)
				if err != nil {
					return err
				}
				if force {
					res = importer.IncludeDuplicates(res)
				}

				var sink importer.Sink = s
				if dryRun {
					sink = importer.DryRun{}
				}
				stored, err := importer.Commit(sink, res)
				if err != nil {
					return err
				}
				res.Tasks = stored
				a.log.Debug("import finished",
					zap.String("format", string(f)),
					zap.Bool("dry_run", dryRun),
					zap.Int("imported", res.Stats.Imported),
					zap.Int("duplicates", res.Stats.Duplicates),
					zap.Int("skipped", res.Stats.Skipped),
				)

				switch {
				case a.fc.Format == FormatJSON:
					return writeJSON(a.Stdout, res)
				case a.fc.Quiet:
					for _, t := range res.Tasks {
						fmt.Fprintln(a.Stdout, t.ID)
					}
					return nil
				default:
					importer.Present(a.Stdout, f, dryRun, res)
					return nil
				}
			})
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&format, "format", "f", "", "json or markdown; detected when empty")
	fs.BoolVar(&force, "force", false, "also import records that duplicate existing tasks")
	fs.BoolVar(&dryRun, "dry-run", false, "report what would be imported without writing")
	return cmd
}

func (a *App) backupCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a full snapshot of tasks, settings and username",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(s *storage.Store) error {
				data, err := s.ExportJSON()
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err := fmt.Fprintln(a.Stdout, string(data))
					return err
				}
				if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
					return fmt.Errorf("writing backup: %w", err)
				}
				if a.fc.Quiet {
					return nil
				}
				return a.formatter().FormatMessage(a.Stdout, fmt.Sprintf("Backup written to %s", output))
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write; stdout when empty")
	return cmd
}

func (a *App) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file|->",
		Short: "Replace all tasks and settings with a backup snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := a.readInput(args[0])
			if err != nil {
				return err
			}
			return a.withStore(func(s *storage.Store) error {
				if err := s.ImportData([]byte(content)); err != nil {
					return err
				}
				tasks, err := s.GetTasks()
				if err != nil {
					return err
				}
				if a.fc.Quiet {
					return nil
				}
				return a.formatter().FormatMessage(a.Stdout, fmt.Sprintf("Restored %d tasks", len(tasks)))
			})
		},
	}
}

// readInput reads a file argument, or stdin for "-".
func (a *App) readInput(arg string) (string, error) {
	var data []byte
	var err error
	if arg == "-" {
		data, err = io.ReadAll(a.Stdin)
	} else {
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", arg, err)
	}
	return string(data), nil
}

var _ importer.Sink = (*storage.Store)(nil)
