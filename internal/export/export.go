// Package export renders a task collection as JSON, Markdown, plain text, or
// GitHub-issue Markdown.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leeovery/termtodo/internal/query"
	"github.com/leeovery/termtodo/internal/task"
)

// Format names an export format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatGitHub   Format = "github"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatMarkdown, FormatText, FormatGitHub}

// Version is written into JSON exports.
const Version = "1.0.0"

// ErrUnsupportedFormat is returned for a format name outside Formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatJSON, FormatMarkdown, FormatText, FormatGitHub:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Options controls which tasks are exported and how.
type Options struct {
	Format           Format
	IncludeCompleted bool
	IncludeArchived  bool
	// Categories, when non-empty, restricts the export to these categories.
	Categories []task.Category
	// DateRange, when set, restricts by createdAt.
	DateRange *query.DateRange
}

// Exporter renders exports. The zero value is not usable; call New.
type Exporter struct {
	now func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithClock sets the time source for export dates.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// New returns an Exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export filters tasks by opts and renders them in opts.Format.
func (e *Exporter) Export(tasks []task.Task, opts Options) (string, error) {
	filtered := Filter(tasks, opts)
	now := e.now()

	switch opts.Format {
	case FormatJSON:
		return renderJSON(filtered, now)
	case FormatMarkdown:
		return renderMarkdown(filtered, now), nil
	case FormatText:
		return renderText(filtered, now), nil
	case FormatGitHub:
		return renderGitHub(filtered, now), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
}

// Export renders with a default Exporter.
func Export(tasks []task.Task, opts Options) (string, error) {
	return New().Export(tasks, opts)
}

// Filter applies the pre-export restrictions. The GitHub format always drops
// completed and archived tasks.
func Filter(tasks []task.Task, opts Options) []task.Task {
	includeCompleted := opts.IncludeCompleted
	includeArchived := opts.IncludeArchived
	if opts.Format == FormatGitHub {
		includeCompleted = false
		includeArchived = false
	}

	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == task.StatusCompleted && !includeCompleted {
			continue
		}
		if t.Status == task.StatusArchived && !includeArchived {
			continue
		}
		if len(opts.Categories) > 0 && !hasCategory(opts.Categories, t.Category) {
			continue
		}
		if opts.DateRange != nil && !opts.DateRange.Contains(t.CreatedAt) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func hasCategory(list []task.Category, c task.Category) bool {
	for _, item := range list {
		if item == c {
			return true
		}
	}
	return false
}

// Stats holds frequency counts over an exported collection.
type Stats struct {
	Total      int                   `json:"total"`
	ByStatus   map[task.Status]int   `json:"byStatus"`
	ByCategory map[task.Category]int `json:"byCategory"`
	ByPriority map[task.Priority]int `json:"byPriority"`
}

// GetStats counts tasks by status, category and priority.
func GetStats(tasks []task.Task) Stats {
	s := Stats{
		Total:      len(tasks),
		ByStatus:   make(map[task.Status]int),
		ByCategory: make(map[task.Category]int),
		ByPriority: make(map[task.Priority]int),
	}
	for _, t := range tasks {
		s.ByStatus[t.Status]++
		s.ByCategory[t.Category]++
		s.ByPriority[t.Priority]++
	}
	return s
}

var extensions = map[Format]string{
	FormatJSON:     "json",
	FormatMarkdown: "md",
	FormatText:     "txt",
	FormatGitHub:   "md",
}

// Filename returns todo-export-<YYYY-MM-DD>.<ext> for the format.
func Filename(f Format, now time.Time) (string, error) {
	ext, ok := extensions[f]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	return fmt.Sprintf("todo-export-%s.%s", task.FormatDate(now), ext), nil
}

// statusGroups splits tasks by status in lifecycle order, keeping input order
// within each group and skipping empty groups.
func statusGroups(tasks []task.Task) []group {
	var groups []group
	for _, st := range task.Statuses {
		var members []task.Task
		for _, t := range tasks {
			if t.Status == st {
				members = append(members, t)
			}
		}
		if len(members) > 0 {
			groups = append(groups, group{Status: st, Tasks: members})
		}
	}
	return groups
}

type group struct {
	Status task.Status
	Tasks  []task.Task
}

// StatusLabel is the section heading used for a status.
func StatusLabel(s task.Status) string {
	switch s {
	case task.StatusPending:
		return "Pending"
	case task.StatusInProgress:
		return "In Progress"
	case task.StatusCompleted:
		return "Completed"
	case task.StatusArchived:
		return "Archived"
	}
	return string(s)
}

const exportedLayout = "2006-01-02 15:04"
