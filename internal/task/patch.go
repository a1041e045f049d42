package task

import "time"

// Patch is a partial update to a task. Nil pointers leave the field unchanged;
// the Clear flags remove optional values. ID and CreatedAt are not patchable.
type Patch struct {
	Title           *string
	Description     *string
	Category        *Category
	Priority        *Priority
	Status          *Status
	Tags            *[]string
	DueDate         *time.Time
	ClearDueDate    bool
	Reminder        *time.Time
	ClearReminder   bool
	ReminderEnabled *bool
	NotificationID  *string
	EstimatedTime   *int
	ClearEstimate   bool
	ActualTime      *int
	ClearActual     bool
	Subtasks        *[]Subtask
	CodeSnippet     *CodeSnippet
	ClearCode       bool
	Dependencies    *[]string
	PomodoroCount   *int
	TotalFocusTime  *int
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == (Patch{})
}

// Apply validates the patch and merges it onto t. On error t is unchanged.
// The returned TransitionResult reports the status before and after.
func Apply(t *Task, p Patch, now time.Time) (TransitionResult, error) {
	next := *t

	if p.Title != nil {
		title, err := ValidateTitle(*p.Title)
		if err != nil {
			return TransitionResult{}, err
		}
		next.Title = title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Category != nil {
		c, err := ParseCategory(string(*p.Category))
		if err != nil {
			return TransitionResult{}, err
		}
		next.Category = c
	}
	if p.Priority != nil {
		pr, err := ParsePriority(string(*p.Priority))
		if err != nil {
			return TransitionResult{}, err
		}
		next.Priority = pr
	}
	if p.Tags != nil {
		next.Tags = append([]string{}, (*p.Tags)...)
	}

	next.DueDate = patchTime(next.DueDate, p.DueDate, p.ClearDueDate)
	next.Reminder = patchTime(next.Reminder, p.Reminder, p.ClearReminder)
	if p.ReminderEnabled != nil {
		next.ReminderEnabled = *p.ReminderEnabled
	}
	if p.NotificationID != nil {
		next.NotificationID = *p.NotificationID
	}
	next.EstimatedTime = patchInt(next.EstimatedTime, p.EstimatedTime, p.ClearEstimate)
	next.ActualTime = patchInt(next.ActualTime, p.ActualTime, p.ClearActual)
	if p.Subtasks != nil {
		next.Subtasks = append([]Subtask{}, (*p.Subtasks)...)
	}
	if p.ClearCode {
		next.CodeSnippet = nil
	} else if p.CodeSnippet != nil {
		cs := *p.CodeSnippet
		next.CodeSnippet = &cs
	}
	if p.Dependencies != nil {
		next.Dependencies = append([]string{}, (*p.Dependencies)...)
	}
	if p.PomodoroCount != nil {
		next.PomodoroCount = *p.PomodoroCount
	}
	if p.TotalFocusTime != nil {
		next.TotalFocusTime = *p.TotalFocusTime
	}

	result := TransitionResult{OldStatus: t.Status, NewStatus: t.Status}
	if p.Status != nil {
		st, err := ParseStatus(string(*p.Status))
		if err != nil {
			return TransitionResult{}, err
		}
		result, _ = SetStatus(&next, st, now)
	}

	*t = next
	return result, nil
}

func patchTime(cur, set *time.Time, clear bool) *time.Time {
	if clear {
		return nil
	}
	if set != nil {
		v := *set
		return &v
	}
	return cur
}

func patchInt(cur, set *int, clear bool) *int {
	if clear {
		return nil
	}
	if set != nil {
		v := *set
		return &v
	}
	return cur
}
