package task

import (
	"strings"
	"testing"
)

func TestValidateDependency(t *testing.T) {
	t.Run("allows valid dependency between unrelated tasks", func(t *testing.T) {
		tasks := []Task{{ID: "1-a"}, {ID: "1-b"}}
		if err := ValidateDependency(tasks, "1-a", "1-b"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("rejects direct self-reference", func(t *testing.T) {
		tasks := []Task{{ID: "1-a"}}
		err := ValidateDependency(tasks, "1-a", "1-a")
		if err == nil {
			t.Fatal("expected error for self-reference")
		}
		if !strings.Contains(err.Error(), "1-a → 1-a") {
			t.Errorf("error = %q", err.Error())
		}
	})

	t.Run("rejects unknown dependency", func(t *testing.T) {
		tasks := []Task{{ID: "1-a"}}
		if err := ValidateDependency(tasks, "1-a", "9-z"); err == nil {
			t.Fatal("expected error for unknown dependency")
		}
	})

	t.Run("rejects 3-node cycle with full path", func(t *testing.T) {
		tasks := []Task{
			{ID: "1-a", Dependencies: []string{"1-b"}},
			{ID: "1-b", Dependencies: []string{"1-c"}},
			{ID: "1-c"},
		}
		err := ValidateDependency(tasks, "1-c", "1-a")
		if err == nil {
			t.Fatal("expected cycle error")
		}
		want := "1-a → 1-b → 1-c → 1-a"
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error = %q, want path %q", err.Error(), want)
		}
	})
}

func TestFindCycle(t *testing.T) {
	t.Run("it finds a cycle through the task", func(t *testing.T) {
		tasks := []Task{
			{ID: "1-a", Dependencies: []string{"1-b"}},
			{ID: "1-b", Dependencies: []string{"1-a"}},
		}
		got := FindCycle(tasks, "1-a")
		if strings.Join(got, ",") != "1-a,1-b,1-a" {
			t.Errorf("FindCycle() = %v", got)
		}
	})

	t.Run("it returns nil for acyclic dependencies", func(t *testing.T) {
		tasks := []Task{
			{ID: "1-a", Dependencies: []string{"1-b"}},
			{ID: "1-b"},
		}
		if got := FindCycle(tasks, "1-a"); got != nil {
			t.Errorf("FindCycle() = %v, want nil", got)
		}
	})
}
