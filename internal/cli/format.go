package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/leeovery/termtodo/internal/export"
	"github.com/leeovery/termtodo/internal/settings"
	"github.com/leeovery/termtodo/internal/task"
)

// Format represents the output format type.
type Format string

// Format constants for output selection.
const (
	FormatToon   Format = "toon"
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
)

// FormatConfig holds output configuration passed to handlers.
type FormatConfig struct {
	Format  Format
	Quiet   bool
	Verbose bool
}

// StatsData holds statistics for formatting.
type StatsData struct {
	Total          int
	ByStatus       []Count
	ByCategory     []Count
	ByPriority     []Count
	Overdue        int
	TotalCompleted int
}

// Count is one labelled frequency.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TransitionData describes a status change.
type TransitionData struct {
	ID        string
	OldStatus task.Status
	NewStatus task.Status
}

// Formatter defines the interface for output formatting.
// All commands use a Formatter to produce output.
type Formatter interface {
	FormatTaskList(w io.Writer, tasks []task.Task) error
	FormatTaskDetail(w io.Writer, t task.Task) error
	FormatTransition(w io.Writer, data TransitionData) error
	FormatStats(w io.Writer, data StatsData) error
	FormatTags(w io.Writer, tags []string) error
	FormatSettings(w io.Writer, s settings.UserSettings) error
	FormatMessage(w io.Writer, msg string) error
}

// DetectTTY checks if the given writer is a terminal (TTY).
// Returns false if writer is not an *os.File, if Stat() fails,
// or if the file is not a character device.
func DetectTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// ResolveFormat determines the output format from flags, the configured
// default and TTY status, in that order of precedence.
// Returns error if more than one format flag is set.
func ResolveFormat(toonFlag, prettyFlag, jsonFlag bool, configured string, isTTY bool) (Format, error) {
	count := 0
	for _, set := range []bool{toonFlag, prettyFlag, jsonFlag} {
		if set {
			count++
		}
	}
	if count > 1 {
		return "", errors.New("cannot specify multiple format flags (--toon, --pretty, --json)")
	}

	switch {
	case toonFlag:
		return FormatToon, nil
	case prettyFlag:
		return FormatPretty, nil
	case jsonFlag:
		return FormatJSON, nil
	}

	switch Format(configured) {
	case FormatToon, FormatPretty, FormatJSON:
		return Format(configured), nil
	case "":
	default:
		return "", fmt.Errorf("invalid output format %q", configured)
	}

	if isTTY {
		return FormatPretty, nil
	}
	return FormatToon, nil
}

// Formatter returns the concrete formatter for the configured format.
func (c FormatConfig) Formatter() Formatter {
	switch c.Format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatPretty:
		return &PrettyFormatter{}
	default:
		return &ToonFormatter{}
	}
}

// buildStats gathers the counts shown by `termtodo stats`, in display order.
func buildStats(tasks []task.Task, totalCompleted int, now time.Time) StatsData {
	s := export.GetStats(tasks)
	data := StatsData{Total: s.Total, TotalCompleted: totalCompleted}
	for _, st := range task.Statuses {
		data.ByStatus = append(data.ByStatus, Count{Label: string(st), Count: s.ByStatus[st]})
	}
	for _, c := range task.Categories {
		data.ByCategory = append(data.ByCategory, Count{Label: string(c), Count: s.ByCategory[c]})
	}
	for _, p := range task.Priorities {
		data.ByPriority = append(data.ByPriority, Count{Label: string(p), Count: s.ByPriority[p]})
	}
	for _, t := range tasks {
		if isOverdue(t, now) {
			data.Overdue++
		}
	}
	return data
}

// isOverdue reports whether an open task's due date has passed.
func isOverdue(t task.Task, now time.Time) bool {
	if t.DueDate == nil || t.Status == task.StatusCompleted || t.Status == task.StatusArchived {
		return false
	}
	return t.DueDate.Before(now)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return task.FormatTimestamp(*t)
}

func formatOptionalInt(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%d", *n)
}
