// Package task defines the core task model, ID generation, and field validation
// for termtodo.
package task

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Category groups a task by the kind of work it is.
type Category string

const (
	CategoryLearning   Category = "learning"
	CategoryCoding     Category = "coding"
	CategoryAssignment Category = "assignment"
	CategoryProject    Category = "project"
	CategoryPersonal   Category = "personal"
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryLearning, CategoryCoding, CategoryAssignment, CategoryProject, CategoryPersonal}

// Priority is a task's urgency.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists every known priority from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Status represents a task's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusArchived   Status = "archived"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusArchived}

// Defaults applied to tasks that arrive without a value.
const (
	DefaultCategory = CategoryPersonal
	DefaultPriority = PriorityMedium
	DefaultStatus   = StatusPending
)

// MaxTitleLength is the maximum title length in characters, after trimming.
const MaxTitleLength = 200

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool { return p.Rank() >= 0 }

// Rank orders priorities high < medium < low. Unknown values rank -1.
func (p Priority) Rank() int {
	for i, k := range Priorities {
		if p == k {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return s.Rank() >= 0 }

// Rank orders statuses pending < in-progress < completed < archived. Unknown values rank -1.
func (s Status) Rank() int {
	for i, k := range Statuses {
		if s == k {
			return i
		}
	}
	return -1
}

// Subtask is a checklist item owned by exactly one task.
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// CodeSnippet is a code block attached to a task.
type CodeSnippet struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Task represents a single to-do item.
type Task struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	Category        Category     `json:"category"`
	Priority        Priority     `json:"priority"`
	Status          Status       `json:"status"`
	Tags            []string     `json:"tags"`
	DueDate         *time.Time   `json:"dueDate,omitempty"`
	Reminder        *time.Time   `json:"reminder,omitempty"`
	ReminderEnabled bool         `json:"reminderEnabled"`
	NotificationID  string       `json:"notificationId,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	CompletedAt     *time.Time   `json:"completedAt,omitempty"`
	EstimatedTime   *int         `json:"estimatedTime,omitempty"`
	ActualTime      *int         `json:"actualTime,omitempty"`
	Subtasks        []Subtask    `json:"subtasks"`
	CodeSnippet     *CodeSnippet `json:"codeSnippet,omitempty"`
	Dependencies    []string     `json:"dependencies"`
	PomodoroCount   int          `json:"pomodoroCount,omitempty"`
	TotalFocusTime  int          `json:"totalFocusTime,omitempty"`
}

const maxRetries = 5

// GenerateID creates a new task ID in the format {unix millis}-{8 hex chars}.
// The exists function checks if an ID is already in use.
func GenerateID(now time.Time, exists func(string) bool) (string, error) {
	for i := 0; i < maxRetries; i++ {
		id := fmt.Sprintf("%d-%s", now.UnixMilli(), shortRandom())
		if !exists(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique ID after %d attempts", maxRetries)
}

// NewSubtaskID returns a fresh subtask ID.
func NewSubtaskID() string {
	return "sub-" + shortRandom()
}

func shortRandom() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ValidateTitle trims the title and checks it is non-empty and at most
// MaxTitleLength characters. It returns the trimmed title.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", fmt.Errorf("Title is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxTitleLength {
		return "", fmt.Errorf("Title must be %d characters or less", MaxTitleLength)
	}
	return trimmed, nil
}

// ParseCategory trims and lowercases s and checks it names a known category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("Invalid category: %s", s)
	}
	return c, nil
}

// ParsePriority trims and lowercases s and checks it names a known priority.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("Invalid priority: %s", s)
	}
	return p, nil
}

// ParseStatus trims and lowercases s and checks it names a known status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("Invalid status: %s", s)
	}
	return st, nil
}

// Validate checks the title and enum fields of a complete task.
func Validate(t Task) error {
	if _, err := ValidateTitle(t.Title); err != nil {
		return err
	}
	if !t.Category.Valid() {
		return fmt.Errorf("Invalid category: %s", t.Category)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("Invalid priority: %s", t.Priority)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("Invalid status: %s", t.Status)
	}
	return nil
}

// ApplyDefaults fills empty enum fields and nil collections so the task is
// fully populated.
func ApplyDefaults(t *Task) {
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	if t.Priority == "" {
		t.Priority = DefaultPriority
	}
	if t.Status == "" {
		t.Status = DefaultStatus
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []Subtask{}
	}
	if t.Dependencies == nil {
		t.Dependencies = []string{}
	}
}

// NewTask creates a new Task with defaults applied.
func NewTask(id, title string, now time.Time) Task {
	t := Task{
		ID:        id,
		Title:     title,
		CreatedAt: now,
	}
	ApplyDefaults(&t)
	return t
}

// TimestampFormat is the ISO 8601 layout used when timestamps are rendered as text.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// DateFormat is the day-resolution layout used by exports and filenames.
const DateFormat = "2006-01-02"

// FormatTimestamp formats a time as ISO 8601 UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// FormatDate formats a time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}
