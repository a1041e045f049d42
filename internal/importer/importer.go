// Package importer turns external text (JSON or Markdown) into validated task
// records and separates duplicates of an existing collection. It never touches
// the filesystem; callers supply the content as a string.
package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leeovery/termtodo/internal/task"
)

// Format names an input format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

var (
	// ErrEmptyContent is returned for blank input.
	ErrEmptyContent = errors.New("content is empty")
	// ErrUndetectable is returned when the input is neither JSON nor Markdown.
	ErrUndetectable = errors.New("unable to detect format (expected JSON or Markdown)")
)

// ParseFormat validates a format name. An empty name means auto-detect.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatJSON, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported import format %q (valid: json, markdown)", s)
	}
}

// Stats counts the outcome of an import.
type Stats struct {
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
}

// Result is the outcome of Import. Tasks are the new records to merge;
// Duplicates matched an existing task and are left for the caller to decide.
// Success is true iff at least one record was imported.
type Result struct {
	Success    bool        `json:"success"`
	Tasks      []task.Task `json:"tasks"`
	Duplicates []task.Task `json:"duplicates"`
	Errors     []string    `json:"errors"`
	Stats      Stats       `json:"stats"`
}

// Importer parses and normalizes imports.
type Importer struct {
	now func() time.Time
}

// Option configures an Importer.
type Option func(*Importer)

// WithClock sets the time source for createdAt and generated IDs.
func WithClock(now func() time.Time) Option {
	return func(im *Importer) { im.now = now }
}

// New returns an Importer.
func New(opts ...Option) *Importer {
	im := &Importer{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import parses content in format (detected when empty), validates and
// normalizes each record, and splits duplicates of existing from new tasks.
// Records that fail are skipped and described in Result.Errors. The error
// return is non-nil only when nothing could be parsed at all; the Result then
// carries the same message with Success false.
func (im *Importer) Import(content string, format Format, existing []task.Task) (Result, error) {
	res := Result{Tasks: []task.Task{}, Duplicates: []task.Task{}, Errors: []string{}}

	if format == "" {
		if err := ValidateContent(content); err != nil {
			res.Errors = append(res.Errors, err.Error())
			return res, err
		}
		format = DetectFormat(content)
	}

	var candidates []Candidate
	var err error
	switch format {
	case FormatJSON:
		candidates, err = ParseJSON(content)
	case FormatMarkdown:
		candidates = ParseMarkdown(content)
	default:
		err = fmt.Errorf("unsupported import format %q", format)
	}
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res, err
	}

	ids := make(map[string]bool, len(existing))
	for _, t := range existing {
		ids[t.ID] = true
	}
	exists := func(id string) bool { return ids[id] }

	for _, c := range candidates {
		if err := Validate(c); err != nil {
			res.skip(c, err)
			continue
		}
		t, err := im.Normalize(c, exists)
		if err != nil {
			res.skip(c, err)
			continue
		}
		if IsDuplicate(t, existing) {
			res.Duplicates = append(res.Duplicates, t)
			res.Stats.Duplicates++
			continue
		}
		ids[t.ID] = true
		res.Tasks = append(res.Tasks, t)
		res.Stats.Imported++
	}

	res.Success = res.Stats.Imported > 0
	return res, nil
}

func (r *Result) skip(c Candidate, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("Task %q: %v", c.displayTitle(), err))
	r.Stats.Skipped++
}

// Import runs a default Importer.
func Import(content string, format Format, existing []task.Task) (Result, error) {
	return New().Import(content, format, existing)
}

// DetectFormat returns FormatJSON when the trimmed content starts with { or [
// and parses, FormatMarkdown when it has a ### heading or a "# Todo" title,
// and "" otherwise.
func DetectFormat(content string) Format {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if validJSON(trimmed) {
			return FormatJSON
		}
	}
	if strings.Contains(content, "###") || strings.Contains(content, "# Todo") {
		return FormatMarkdown
	}
	return ""
}

// ValidateContent rejects empty and undetectable content without parsing it.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if DetectFormat(content) == "" {
		return ErrUndetectable
	}
	return nil
}
