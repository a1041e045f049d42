package doctor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/leeovery/termtodo/internal/task"
)

// OrphanedDependencyCheck warns about dependency ids that name no stored task.
type OrphanedDependencyCheck struct{}

func (c *OrphanedDependencyCheck) Run(_ context.Context, tasks []task.Task) []CheckResult {
	const name = "Orphaned dependencies"

	known := knownIDs(tasks)
	var failures []CheckResult
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if _, ok := known[dep]; !ok {
				failures = append(failures, CheckResult{
					Name:       name,
					Severity:   SeverityWarning,
					Details:    fmt.Sprintf("%s depends on non-existent task %s", t.ID, dep),
					Suggestion: manualFix,
				})
			}
		}
	}
	return orPass(name, failures)
}

// DependencyCycleCheck reports each distinct dependency cycle once, using DFS
// with three-colour marking. Orphaned targets are ignored.
type DependencyCycleCheck struct{}

func (c *DependencyCycleCheck) Run(_ context.Context, tasks []task.Task) []CheckResult {
	const name = "Dependency cycles"

	known := knownIDs(tasks)
	adj := make(map[string][]string, len(tasks))
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if _, ok := known[dep]; ok {
				adj[t.ID] = append(adj[t.ID], dep)
			}
		}
	}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(known))
	seen := make(map[string]bool)
	var cycles [][]string
	var path []string

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		path = append(path, node)
		for _, next := range adj[node] {
			switch color[next] {
			case gray:
				cycle := normalizeCycle(extractCycle(path, next))
				key := strings.Join(cycle, ",")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			case white:
				dfs(next)
			}
		}
		path = path[:len(path)-1]
		color[node] = black
	}

	ids := make([]string, 0, len(known))
	for id := range known {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if color[id] == white {
			dfs(id)
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i], ",") < strings.Join(cycles[j], ",")
	})

	var failures []CheckResult
	for _, cycle := range cycles {
		parts := append(append([]string{}, cycle...), cycle[0])
		failures = append(failures, CheckResult{
			Name:       name,
			Severity:   SeverityError,
			Details:    "Dependency cycle: " + strings.Join(parts, " → "),
			Suggestion: manualFix,
		})
	}
	return orPass(name, failures)
}

func knownIDs(tasks []task.Task) map[string]struct{} {
	known := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		known[t.ID] = struct{}{}
	}
	return known
}

// extractCycle returns the tail of path starting at target.
func extractCycle(path []string, target string) []string {
	for i, node := range path {
		if node == target {
			return append([]string{}, path[i:]...)
		}
	}
	return nil
}

// normalizeCycle rotates the cycle so the lexicographically smallest ID is first.
func normalizeCycle(cycle []string) []string {
	if len(cycle) == 0 {
		return cycle
	}
	minIdx := 0
	for i, id := range cycle {
		if id < cycle[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, len(cycle))
	for i := range cycle {
		out[i] = cycle[(minIdx+i)%len(cycle)]
	}
	return out
}
