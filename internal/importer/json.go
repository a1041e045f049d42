package importer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leeovery/termtodo/internal/task"
)

// Candidate is a task-like record read from input, before validation.
// Dates stay as text until Normalize so a bad date skips only its record.
type Candidate struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Category        string            `json:"category"`
	Priority        string            `json:"priority"`
	Status          string            `json:"status"`
	Tags            []string          `json:"tags"`
	DueDate         string            `json:"dueDate"`
	Reminder        string            `json:"reminder"`
	ReminderEnabled *bool             `json:"reminderEnabled"`
	NotificationID  string            `json:"notificationId"`
	CreatedAt       string            `json:"createdAt"`
	CompletedAt     string            `json:"completedAt"`
	EstimatedTime   *float64          `json:"estimatedTime"`
	ActualTime      *float64          `json:"actualTime"`
	Subtasks        []task.Subtask    `json:"subtasks"`
	CodeSnippet     *task.CodeSnippet `json:"codeSnippet"`
	Dependencies    []string          `json:"dependencies"`
	PomodoroCount   *float64          `json:"pomodoroCount"`
	TotalFocusTime  *float64          `json:"totalFocusTime"`

	// decodeErr is set when the record could not be read into the fields above.
	decodeErr error
}

func (c Candidate) displayTitle() string {
	if t := strings.TrimSpace(c.Title); t != "" {
		return t
	}
	return "(untitled)"
}

func validJSON(s string) bool {
	return json.Valid([]byte(s))
}

// ParseJSON reads either {"version":..., "tasks":[...]} or a bare array of
// task-like objects. A record with wrongly-typed fields becomes a Candidate
// that fails validation; only malformed JSON or a missing tasks array is an
// error.
func ParseJSON(content string) ([]Candidate, error) {
	trimmed := strings.TrimSpace(content)

	var records []json.RawMessage
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	} else {
		var doc struct {
			Tasks *[]json.RawMessage `json:"tasks"`
		}
		if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		if doc.Tasks == nil {
			return nil, fmt.Errorf("invalid JSON: expected a tasks array")
		}
		records = *doc.Tasks
	}

	out := make([]Candidate, 0, len(records))
	for i, raw := range records {
		var c Candidate
		if err := json.Unmarshal(raw, &c); err != nil {
			title := titleOf(raw)
			c = Candidate{Title: title, decodeErr: fmt.Errorf("record %d is not a valid task: %w", i+1, err)}
		}
		out = append(out, c)
	}
	return out, nil
}

// titleOf best-effort extracts a string title from a record that failed to decode.
func titleOf(raw json.RawMessage) string {
	var probe struct {
		Title json.RawMessage `json:"title"`
	}
	if json.Unmarshal(raw, &probe) != nil {
		return ""
	}
	var s string
	if json.Unmarshal(probe.Title, &s) != nil {
		return ""
	}
	return s
}
