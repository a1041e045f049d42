package importer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/leeovery/termtodo/internal/task"
)

// Validate checks the title and any enum values a candidate carries. Absent
// enums are fine; Normalize fills the defaults.
func Validate(c Candidate) error {
	if c.decodeErr != nil {
		return c.decodeErr
	}
	if _, err := task.ValidateTitle(c.Title); err != nil {
		return err
	}
	if strings.TrimSpace(c.Category) != "" {
		if _, err := task.ParseCategory(c.Category); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.Priority) != "" {
		if _, err := task.ParsePriority(c.Priority); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.Status) != "" {
		if _, err := task.ParseStatus(c.Status); err != nil {
			return err
		}
	}
	return nil
}

// IsDuplicate reports whether t matches an existing task by case-insensitive
// title and description. A missing description compares as empty.
func IsDuplicate(t task.Task, existing []task.Task) bool {
	title := strings.ToLower(t.Title)
	desc := strings.ToLower(t.Description)
	for _, e := range existing {
		if strings.ToLower(e.Title) == title && strings.ToLower(e.Description) == desc {
			return true
		}
	}
	return false
}

// dateLayouts are tried in order when reading imported timestamps.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	task.DateFormat,
}

func parseTime(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s: %q", field, s)
}

func parseMinutes(field string, f *float64) (*int, error) {
	if f == nil {
		return nil, nil
	}
	if *f < 0 || math.IsNaN(*f) {
		return nil, fmt.Errorf("invalid %s: %v", field, *f)
	}
	n := int(math.Round(*f))
	return &n, nil
}

// Normalize turns a validated candidate into a complete task. A supplied id
// and createdAt are kept; otherwise a fresh id (unique per exists) and the
// importer's clock are used. Missing enums take their defaults and
// completedAt is made consistent with the status.
func (im *Importer) Normalize(c Candidate, exists func(string) bool) (task.Task, error) {
	now := im.now()

	title, err := task.ValidateTitle(c.Title)
	if err != nil {
		return task.Task{}, err
	}

	t := task.Task{
		ID:             strings.TrimSpace(c.ID),
		Title:          title,
		Description:    c.Description,
		NotificationID: c.NotificationID,
		Tags:           task.DeduplicateTags(c.Tags),
		Dependencies:   task.DeduplicateDependencies(c.Dependencies),
		CodeSnippet:    c.CodeSnippet,
	}
	if c.ReminderEnabled != nil {
		t.ReminderEnabled = *c.ReminderEnabled
	}

	if c.Category != "" {
		if t.Category, err = task.ParseCategory(c.Category); err != nil {
			return task.Task{}, err
		}
	}
	if c.Priority != "" {
		if t.Priority, err = task.ParsePriority(c.Priority); err != nil {
			return task.Task{}, err
		}
	}
	if c.Status != "" {
		if t.Status, err = task.ParseStatus(c.Status); err != nil {
			return task.Task{}, err
		}
	}

	if t.DueDate, err = parseTime("dueDate", c.DueDate); err != nil {
		return task.Task{}, err
	}
	if t.Reminder, err = parseTime("reminder", c.Reminder); err != nil {
		return task.Task{}, err
	}
	created, err := parseTime("createdAt", c.CreatedAt)
	if err != nil {
		return task.Task{}, err
	}
	if created != nil {
		t.CreatedAt = *created
	} else {
		t.CreatedAt = now
	}
	if t.CompletedAt, err = parseTime("completedAt", c.CompletedAt); err != nil {
		return task.Task{}, err
	}

	if t.EstimatedTime, err = parseMinutes("estimatedTime", c.EstimatedTime); err != nil {
		return task.Task{}, err
	}
	if t.ActualTime, err = parseMinutes("actualTime", c.ActualTime); err != nil {
		return task.Task{}, err
	}
	if n, err := parseMinutes("pomodoroCount", c.PomodoroCount); err != nil {
		return task.Task{}, err
	} else if n != nil {
		t.PomodoroCount = *n
	}
	if n, err := parseMinutes("totalFocusTime", c.TotalFocusTime); err != nil {
		return task.Task{}, err
	} else if n != nil {
		t.TotalFocusTime = *n
	}

	t.Subtasks = make([]task.Subtask, 0, len(c.Subtasks))
	for _, s := range c.Subtasks {
		if s.ID == "" {
			s.ID = task.NewSubtaskID()
		}
		t.Subtasks = append(t.Subtasks, s)
	}

	task.ApplyDefaults(&t)

	switch {
	case t.Status == task.StatusCompleted && t.CompletedAt == nil:
		stamp := now
		t.CompletedAt = &stamp
	case t.Status != task.StatusCompleted:
		t.CompletedAt = nil
	}

	if t.ID == "" {
		if t.ID, err = task.GenerateID(now, exists); err != nil {
			return task.Task{}, err
		}
	}
	return t, nil
}
