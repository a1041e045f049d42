// Package settings defines the user preference record and its shallow-merge
// update.
package settings

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/leeovery/termtodo/internal/task"
)

// UserSettings is the flat record of user preferences.
type UserSettings struct {
	Theme                     string        `json:"theme"`
	FontSize                  int           `json:"fontSize"`
	NotificationsEnabled      bool          `json:"notificationsEnabled"`
	DateFormat                string        `json:"dateFormat"`
	TimeFormat                string        `json:"timeFormat"`
	PomodoroWorkDuration      int           `json:"pomodoroWorkDuration"`
	PomodoroShortBreak        int           `json:"pomodoroShortBreak"`
	PomodoroLongBreak         int           `json:"pomodoroLongBreak"`
	PomodoroSessionsUntilLong int           `json:"pomodoroSessionsUntilLongBreak"`
	AutoStartBreaks           bool          `json:"autoStartBreaks"`
	SoundEnabled              bool          `json:"soundEnabled"`
	VibrationEnabled          bool          `json:"vibrationEnabled"`
	ShowCompletedTasks        bool          `json:"showCompletedTasks"`
	DefaultCategory           task.Category `json:"defaultCategory"`
	DefaultPriority           task.Priority `json:"defaultPriority"`
	DefaultView               string        `json:"defaultView"`
}

// Defaults returns the settings used before the user changes anything.
func Defaults() UserSettings {
	return UserSettings{
		Theme:                     "dracula",
		FontSize:                  14,
		NotificationsEnabled:      true,
		DateFormat:                "MM/DD/YYYY",
		TimeFormat:                "12h",
		PomodoroWorkDuration:      25,
		PomodoroShortBreak:        5,
		PomodoroLongBreak:         15,
		PomodoroSessionsUntilLong: 4,
		AutoStartBreaks:           false,
		SoundEnabled:              true,
		VibrationEnabled:          true,
		ShowCompletedTasks:        true,
		DefaultCategory:           task.DefaultCategory,
		DefaultPriority:           task.DefaultPriority,
		DefaultView:               "list",
	}
}

// Decode parses a stored settings blob on top of Defaults, so keys missing
// from data keep their default value. Empty data yields Defaults.
func Decode(data []byte) (UserSettings, error) {
	s := Defaults()
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Defaults(), fmt.Errorf("decoding settings: %w", err)
	}
	return s, nil
}

// Patch is a partial settings update. Nil fields are left unchanged.
type Patch struct {
	Theme                     *string        `json:"theme,omitempty"`
	FontSize                  *int           `json:"fontSize,omitempty"`
	NotificationsEnabled      *bool          `json:"notificationsEnabled,omitempty"`
	DateFormat                *string        `json:"dateFormat,omitempty"`
	TimeFormat                *string        `json:"timeFormat,omitempty"`
	PomodoroWorkDuration      *int           `json:"pomodoroWorkDuration,omitempty"`
	PomodoroShortBreak        *int           `json:"pomodoroShortBreak,omitempty"`
	PomodoroLongBreak         *int           `json:"pomodoroLongBreak,omitempty"`
	PomodoroSessionsUntilLong *int           `json:"pomodoroSessionsUntilLongBreak,omitempty"`
	AutoStartBreaks           *bool          `json:"autoStartBreaks,omitempty"`
	SoundEnabled              *bool          `json:"soundEnabled,omitempty"`
	VibrationEnabled          *bool          `json:"vibrationEnabled,omitempty"`
	ShowCompletedTasks        *bool          `json:"showCompletedTasks,omitempty"`
	DefaultCategory           *task.Category `json:"defaultCategory,omitempty"`
	DefaultPriority           *task.Priority `json:"defaultPriority,omitempty"`
	DefaultView               *string        `json:"defaultView,omitempty"`
}

// Merge returns s with every set field of p overwritten.
func Merge(s UserSettings, p Patch) (UserSettings, error) {
	if p.DefaultCategory != nil && !p.DefaultCategory.Valid() {
		return s, fmt.Errorf("invalid default category: %s", *p.DefaultCategory)
	}
	if p.DefaultPriority != nil && !p.DefaultPriority.Valid() {
		return s, fmt.Errorf("invalid default priority: %s", *p.DefaultPriority)
	}

	setString(&s.Theme, p.Theme)
	setInt(&s.FontSize, p.FontSize)
	setBool(&s.NotificationsEnabled, p.NotificationsEnabled)
	setString(&s.DateFormat, p.DateFormat)
	setString(&s.TimeFormat, p.TimeFormat)
	setInt(&s.PomodoroWorkDuration, p.PomodoroWorkDuration)
	setInt(&s.PomodoroShortBreak, p.PomodoroShortBreak)
	setInt(&s.PomodoroLongBreak, p.PomodoroLongBreak)
	setInt(&s.PomodoroSessionsUntilLong, p.PomodoroSessionsUntilLong)
	setBool(&s.AutoStartBreaks, p.AutoStartBreaks)
	setBool(&s.SoundEnabled, p.SoundEnabled)
	setBool(&s.VibrationEnabled, p.VibrationEnabled)
	setBool(&s.ShowCompletedTasks, p.ShowCompletedTasks)
	if p.DefaultCategory != nil {
		s.DefaultCategory = *p.DefaultCategory
	}
	if p.DefaultPriority != nil {
		s.DefaultPriority = *p.DefaultPriority
	}
	setString(&s.DefaultView, p.DefaultView)
	return s, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Keys returns the JSON names of every setting, sorted.
func Keys() []string {
	var m map[string]json.RawMessage
	data, _ := json.Marshal(Defaults())
	_ = json.Unmarshal(data, &m)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParsePatch builds a single-field patch from a JSON key name and a textual
// value, as typed on the command line.
func ParsePatch(key, value string) (Patch, error) {
	defaults := map[string]json.RawMessage{}
	data, _ := json.Marshal(Defaults())
	_ = json.Unmarshal(data, &defaults)

	current, ok := defaults[key]
	if !ok {
		return Patch{}, fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}

	var raw string
	switch current[0] {
	case '"':
		quoted, _ := json.Marshal(value)
		raw = string(quoted)
	case 't', 'f':
		b, err := strconv.ParseBool(value)
		if err != nil {
			return Patch{}, fmt.Errorf("setting %q expects true or false, got %q", key, value)
		}
		raw = strconv.FormatBool(b)
	default:
		n, err := strconv.Atoi(value)
		if err != nil {
			return Patch{}, fmt.Errorf("setting %q expects a whole number, got %q", key, value)
		}
		raw = strconv.Itoa(n)
	}

	var p Patch
	if err := json.Unmarshal([]byte(fmt.Sprintf("{%q:%s}", key, raw)), &p); err != nil {
		return Patch{}, fmt.Errorf("parsing setting %q: %w", key, err)
	}
	return p, nil
}
