package task

import (
	"fmt"
	"strings"
)

// ValidateDependency checks whether making taskID depend on depID would create
// a self-reference, a cycle, or a reference to a task that does not exist.
// Pure function - no I/O.
func ValidateDependency(tasks []Task, taskID, depID string) error {
	byID := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	if _, ok := byID[depID]; !ok {
		return fmt.Errorf("dependency %s does not exist", depID)
	}
	if path := dependencyPath(byID, depID, taskID); path != nil {
		return fmt.Errorf("cannot add dependency - creates cycle: %s", strings.Join(append(path, depID), " → "))
	}
	return nil
}

// ValidateDependencies validates several dependency IDs, failing on the first error.
func ValidateDependencies(tasks []Task, taskID string, depIDs []string) error {
	for _, id := range depIDs {
		if err := ValidateDependency(tasks, taskID, id); err != nil {
			return err
		}
	}
	return nil
}

// FindCycle returns a dependency cycle through taskID, or nil if there is none.
// The path starts and ends with taskID.
func FindCycle(tasks []Task, taskID string) []string {
	byID := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	t, ok := byID[taskID]
	if !ok {
		return nil
	}
	for _, dep := range t.Dependencies {
		if path := dependencyPath(byID, dep, taskID); path != nil {
			return append([]string{taskID}, path...)
		}
	}
	return nil
}

// dependencyPath performs BFS from 'from' along dependency edges and returns
// the path to 'to', or nil if unreachable.
func dependencyPath(byID map[string]Task, from, to string) []string {
	if from == to {
		return []string{from}
	}

	type node struct {
		id   string
		path []string
	}

	visited := make(map[string]bool)
	queue := []node{{id: from, path: []string{from}}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current.id] {
			continue
		}
		visited[current.id] = true

		for _, dep := range byID[current.id].Dependencies {
			next := make([]string, len(current.path)+1)
			copy(next, current.path)
			next[len(current.path)] = dep
			if dep == to {
				return next
			}
			if !visited[dep] {
				queue = append(queue, node{id: dep, path: next})
			}
		}
	}
	return nil
}
