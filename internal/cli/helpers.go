package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/leeovery/termtodo/internal/settings"
	"github.com/leeovery/termtodo/internal/storage"
	"github.com/leeovery/termtodo/internal/task"
)

// parseCommaSeparated splits s on commas, trims whitespace, and filters
// empty values.
func parseCommaSeparated(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// dateLayouts are accepted for --due and the date range flags.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", task.DateFormat}

// parseDate reads a date or timestamp typed on the command line, in UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
}

// endOfDay moves a date-only bound to its last millisecond so --to is
// inclusive of the whole day.
func endOfDay(raw string, t time.Time) time.Time {
	if len(strings.TrimSpace(raw)) == len(task.DateFormat) {
		return t.Add(24*time.Hour - time.Millisecond)
	}
	return t
}

// settingValue is one setting as display text. isString marks values that
// were JSON strings rather than numbers or booleans.
type settingValue struct {
	text     string
	isString bool
}

// settingsValues renders every setting as display text keyed by JSON name.
func settingsValues(s settings.UserSettings) (map[string]settingValue, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]settingValue, len(raw))
	for k, v := range raw {
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			out[k] = settingValue{text: str, isString: true}
			continue
		}
		out[k] = settingValue{text: string(v)}
	}
	return out, nil
}

// requireTask loads a task by id, turning a miss into a not-found error.
func requireTask(s *storage.Store, id string) (task.Task, error) {
	t, err := s.GetTaskByID(id)
	if err != nil {
		return task.Task{}, err
	}
	if t == nil {
		return task.Task{}, &storage.Error{Code: storage.CodeTaskNotFound, Message: fmt.Sprintf("task %s not found", id)}
	}
	return *t, nil
}
