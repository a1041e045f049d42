package task

import (
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestApply(t *testing.T) {
	t.Run("it merges only the set fields", func(t *testing.T) {
		tk := makeTask(StatusPending)
		tk.Description = "keep me"

		_, err := Apply(tk, Patch{Title: ptr("  Renamed "), Priority: ptr(PriorityHigh)}, testNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tk.Title != "Renamed" || tk.Priority != PriorityHigh {
			t.Errorf("unexpected task: %+v", tk)
		}
		if tk.Description != "keep me" {
			t.Errorf("description = %q", tk.Description)
		}
		if tk.ID != "1-a1b2c3d4" || !tk.CreatedAt.Equal(testNow) {
			t.Error("id or createdAt changed")
		}
	})

	t.Run("it leaves the task untouched on a validation error", func(t *testing.T) {
		tk := makeTask(StatusPending)
		_, err := Apply(tk, Patch{Title: ptr("   "), Priority: ptr(PriorityLow)}, testNow)
		if err == nil {
			t.Fatal("expected error")
		}
		if tk.Title != "Test task" || tk.Priority != PriorityMedium {
			t.Errorf("task mutated: %+v", tk)
		}
	})

	t.Run("it rejects unknown enum values", func(t *testing.T) {
		tk := makeTask(StatusPending)
		if _, err := Apply(tk, Patch{Category: ptr(Category("chores"))}, testNow); err == nil {
			t.Error("expected error for category")
		}
		if _, err := Apply(tk, Patch{Status: ptr(Status("done"))}, testNow); err == nil {
			t.Error("expected error for status")
		}
	})

	t.Run("it stamps and clears completedAt through status changes", func(t *testing.T) {
		tk := makeTask(StatusPending)
		later := testNow.Add(time.Minute)

		result, err := Apply(tk, Patch{Status: ptr(StatusCompleted)}, later)
		if err != nil {
			t.Fatal(err)
		}
		if !result.Completed() || tk.CompletedAt == nil || !tk.CompletedAt.Equal(later) {
			t.Errorf("result=%+v completedAt=%v", result, tk.CompletedAt)
		}

		if _, err := Apply(tk, Patch{Status: ptr(StatusArchived)}, later); err != nil {
			t.Fatal(err)
		}
		if tk.CompletedAt != nil {
			t.Errorf("completedAt = %v, want nil", tk.CompletedAt)
		}
	})

	t.Run("it sets and clears optional values", func(t *testing.T) {
		tk := makeTask(StatusPending)
		due := testNow.Add(48 * time.Hour)

		if _, err := Apply(tk, Patch{DueDate: &due, EstimatedTime: ptr(30), CodeSnippet: &CodeSnippet{Code: "x", Language: "go"}}, testNow); err != nil {
			t.Fatal(err)
		}
		if tk.DueDate == nil || *tk.EstimatedTime != 30 || tk.CodeSnippet == nil {
			t.Fatalf("values not set: %+v", tk)
		}

		if _, err := Apply(tk, Patch{ClearDueDate: true, ClearEstimate: true, ClearCode: true}, testNow); err != nil {
			t.Fatal(err)
		}
		if tk.DueDate != nil || tk.EstimatedTime != nil || tk.CodeSnippet != nil {
			t.Errorf("values not cleared: %+v", tk)
		}
	})

	t.Run("it copies slices rather than aliasing the patch", func(t *testing.T) {
		tk := makeTask(StatusPending)
		tags := []string{"a", "b"}
		if _, err := Apply(tk, Patch{Tags: &tags}, testNow); err != nil {
			t.Fatal(err)
		}
		tags[0] = "z"
		if tk.Tags[0] != "a" {
			t.Errorf("tags aliased: %v", tk.Tags)
		}
	})
}

func TestPatchIsEmpty(t *testing.T) {
	t.Run("it reports an empty patch", func(t *testing.T) {
		if !(Patch{}).IsEmpty() {
			t.Error("zero patch should be empty")
		}
		if (Patch{ClearDueDate: true}).IsEmpty() {
			t.Error("clear flag should make the patch non-empty")
		}
	})
}

func TestSubtasks(t *testing.T) {
	t.Run("it adds and toggles subtasks", func(t *testing.T) {
		tk := makeTask(StatusPending)
		s, err := AddSubtask(tk, " step one ")
		if err != nil {
			t.Fatal(err)
		}
		if s.Title != "step one" || s.Completed {
			t.Errorf("subtask = %+v", s)
		}
		if err := ToggleSubtask(tk, s.ID); err != nil {
			t.Fatal(err)
		}
		done, total := SubtaskProgress(*tk)
		if done != 1 || total != 1 {
			t.Errorf("progress = %d/%d", done, total)
		}
	})

	t.Run("it errors for an unknown subtask", func(t *testing.T) {
		tk := makeTask(StatusPending)
		if err := ToggleSubtask(tk, "sub-missing"); err == nil {
			t.Error("expected error")
		}
	})
}
