package task

import (
	"fmt"
	"time"
)

// TransitionResult holds the old and new status after a transition.
type TransitionResult struct {
	OldStatus Status
	NewStatus Status
}

// Completed reports whether the transition moved the task into completed.
func (r TransitionResult) Completed() bool {
	return r.NewStatus == StatusCompleted && r.OldStatus != StatusCompleted
}

// SetStatus moves the task to status. Any status may follow any other.
// completedAt is stamped on entry to completed and cleared on exit.
func SetStatus(t *Task, status Status, now time.Time) (TransitionResult, error) {
	if !status.Valid() {
		return TransitionResult{}, fmt.Errorf("Invalid status: %s", status)
	}
	old := t.Status
	t.Status = status
	syncCompletedAt(t, old, now)
	return TransitionResult{OldStatus: old, NewStatus: status}, nil
}

// ToggleComplete flips a completed task back to pending and marks anything
// else completed. An in-progress or archived task toggled twice ends up
// pending.
func ToggleComplete(t *Task, now time.Time) TransitionResult {
	next := StatusCompleted
	if t.Status == StatusCompleted {
		next = StatusPending
	}
	result, _ := SetStatus(t, next, now)
	return result
}

func syncCompletedAt(t *Task, old Status, now time.Time) {
	switch {
	case t.Status != StatusCompleted:
		t.CompletedAt = nil
	case old != StatusCompleted || t.CompletedAt == nil:
		stamp := now
		t.CompletedAt = &stamp
	}
}
