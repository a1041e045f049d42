package task

import (
	"errors"
	"fmt"
)

// ErrSubtaskNotFound is returned when a subtask ID is not on the task.
var ErrSubtaskNotFound = errors.New("subtask not found")

// AddSubtask appends a new incomplete subtask and returns it.
func AddSubtask(t *Task, title string) (Subtask, error) {
	trimmed, err := ValidateTitle(title)
	if err != nil {
		return Subtask{}, err
	}
	s := Subtask{ID: NewSubtaskID(), Title: trimmed}
	t.Subtasks = append(t.Subtasks, s)
	return s, nil
}

// ToggleSubtask flips the completed flag of the subtask with the given ID.
func ToggleSubtask(t *Task, subtaskID string) error {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == subtaskID {
			t.Subtasks[i].Completed = !t.Subtasks[i].Completed
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrSubtaskNotFound, subtaskID)
}

// SubtaskProgress returns completed and total subtask counts.
func SubtaskProgress(t Task) (done, total int) {
	for _, s := range t.Subtasks {
		if s.Completed {
			done++
		}
	}
	return done, len(t.Subtasks)
}
