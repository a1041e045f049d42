// Package query derives filtered, ordered views of a task collection. Every
// function is pure: inputs are never mutated and results are new slices that
// may share Task values with the input.
package query

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/leeovery/termtodo/internal/task"
)

// SortKey selects the field Sort orders by.
type SortKey string

const (
	SortPriority SortKey = "priority"
	SortDate     SortKey = "date"
	SortStatus   SortKey = "status"
	SortCategory SortKey = "category"
	SortTitle    SortKey = "title"
)

// SortKeys lists the accepted sort keys.
var SortKeys = []SortKey{SortPriority, SortDate, SortStatus, SortCategory, SortTitle}

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseSortKey validates a sort key name. An empty name means unsorted.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if k == "" || contains(SortKeys, k) {
		return k, nil
	}
	return "", fmt.Errorf("invalid sort key %q (valid: priority, date, status, category, title)", s)
}

// ParseDirection validates a direction name. An empty name means ascending.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case "", Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q (valid: asc, desc)", s)
	}
}

// DateRange is an inclusive range. A nil bound is open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls within the range.
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// Filters restricts a collection. Values within one field are OR'd; fields are
// AND'd. Empty fields do not restrict.
type Filters struct {
	Categories []task.Category
	Priorities []task.Priority
	Statuses   []task.Status
	Tags       []string
	DueRange   *DateRange
}

// Search returns the tasks matching query against title, description, tags,
// and code snippet body, case-insensitively. A blank query returns the input.
// With useRegex, query is compiled as a regular expression; if it does not
// compile, Search falls back to substring matching without the code snippet.
func Search(tasks []task.Task, q string, useRegex bool) []task.Task {
	if strings.TrimSpace(q) == "" {
		return append([]task.Task(nil), tasks...)
	}

	match := substringMatcher(q, true)
	if useRegex {
		if re, err := regexp.Compile("(?i)" + q); err == nil {
			match = regexMatcher(re)
		} else {
			match = substringMatcher(q, false)
		}
	}

	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if match(t) {
			out = append(out, t)
		}
	}
	return out
}

type matcher func(task.Task) bool

func regexMatcher(re *regexp.Regexp) matcher {
	return func(t task.Task) bool {
		if re.MatchString(t.Title) || re.MatchString(t.Description) {
			return true
		}
		for _, tag := range t.Tags {
			if re.MatchString(tag) {
				return true
			}
		}
		return t.CodeSnippet != nil && re.MatchString(t.CodeSnippet.Code)
	}
}

func substringMatcher(q string, includeCode bool) matcher {
	needle := strings.ToLower(q)
	has := func(s string) bool { return strings.Contains(strings.ToLower(s), needle) }
	return func(t task.Task) bool {
		if has(t.Title) || has(t.Description) {
			return true
		}
		for _, tag := range t.Tags {
			if has(tag) {
				return true
			}
		}
		return includeCode && t.CodeSnippet != nil && has(t.CodeSnippet.Code)
	}
}

// Filter returns the tasks that satisfy every set field of f. When a due range
// is set, tasks without a due date are excluded.
func Filter(tasks []task.Task, f Filters) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if matches(t, f) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t task.Task, f Filters) bool {
	if len(f.Categories) > 0 && !contains(f.Categories, t.Category) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, t.Priority) {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.Tags) > 0 && !hasAnyTag(t.Tags, f.Tags) {
		return false
	}
	if f.DueRange != nil {
		if t.DueDate == nil || !f.DueRange.Contains(*t.DueDate) {
			return false
		}
	}
	return true
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func hasAnyTag(tags, want []string) bool {
	for _, tag := range tags {
		if contains(want, tag) {
			return true
		}
	}
	return false
}

// Sort returns a stably sorted copy of tasks. Direction only flips the
// comparison; tasks without a due date sort last in both directions.
func Sort(tasks []task.Task, key SortKey, dir Direction) []task.Task {
	out := append([]task.Task(nil), tasks...)
	cmp := comparator(key)
	if cmp == nil {
		return out
	}
	sign := 1
	if dir == Desc {
		sign = -1
	}

	sort.SliceStable(out, func(i, j int) bool {
		if key == SortDate {
			a, b := out[i].DueDate, out[j].DueDate
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
		}
		return sign*cmp(out[i], out[j]) < 0
	})
	return out
}

func comparator(key SortKey) func(a, b task.Task) int {
	switch key {
	case SortPriority:
		return func(a, b task.Task) int { return a.Priority.Rank() - b.Priority.Rank() }
	case SortStatus:
		return func(a, b task.Task) int { return a.Status.Rank() - b.Status.Rank() }
	case SortCategory:
		return func(a, b task.Task) int { return strings.Compare(string(a.Category), string(b.Category)) }
	case SortTitle:
		return func(a, b task.Task) int { return strings.Compare(a.Title, b.Title) }
	case SortDate:
		return func(a, b task.Task) int { return a.DueDate.Compare(*b.DueDate) }
	}
	return nil
}

// Options are the inputs to Process.
type Options struct {
	Query     string
	UseRegex  bool
	Filters   Filters
	SortBy    SortKey
	Direction Direction
}

// Process applies Search, Filter and Sort, in that order.
func Process(tasks []task.Task, opts Options) []task.Task {
	out := Search(tasks, opts.Query, opts.UseRegex)
	out = Filter(out, opts.Filters)
	return Sort(out, opts.SortBy, opts.Direction)
}

// AllTags returns every tag in the collection, deduplicated and sorted.
func AllTags(tasks []task.Task) []string {
	seen := make(map[string]bool)
	tags := []string{}
	for _, t := range tasks {
		for _, tag := range t.Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// ParseFilters builds Filters from textual enum values, as typed on a command
// line or in a query string. Tags are normalized; unknown enum values fail.
func ParseFilters(categories, priorities, statuses, tags []string) (Filters, error) {
	var f Filters
	for _, s := range categories {
		c, err := task.ParseCategory(s)
		if err != nil {
			return Filters{}, err
		}
		f.Categories = append(f.Categories, c)
	}
	for _, s := range priorities {
		p, err := task.ParsePriority(s)
		if err != nil {
			return Filters{}, err
		}
		f.Priorities = append(f.Priorities, p)
	}
	for _, s := range statuses {
		st, err := task.ParseStatus(s)
		if err != nil {
			return Filters{}, err
		}
		f.Statuses = append(f.Statuses, st)
	}
	f.Tags = task.DeduplicateTags(tags)
	if len(f.Tags) == 0 {
		f.Tags = nil
	}
	return f, nil
}
