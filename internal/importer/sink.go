package importer

import "github.com/leeovery/termtodo/internal/task"

// Sink receives the new tasks of an import.
type Sink interface {
	ImportTasks(tasks []task.Task) ([]task.Task, error)
}

// DryRun implements Sink as a no-op. It returns the tasks unchanged so
// callers can report what would have been imported.
type DryRun struct{}

var _ Sink = DryRun{}

// ImportTasks returns tasks without persisting them.
func (DryRun) ImportTasks(tasks []task.Task) ([]task.Task, error) {
	return tasks, nil
}

// Commit hands the new tasks of res to sink in one call and returns them as
// stored. Duplicates are never committed. An empty import is a no-op.
func Commit(sink Sink, res Result) ([]task.Task, error) {
	if len(res.Tasks) == 0 {
		return []task.Task{}, nil
	}
	return sink.ImportTasks(res.Tasks)
}

// IncludeDuplicates returns res with its duplicates moved into Tasks, for
// imports that should keep every record regardless of matches.
func IncludeDuplicates(res Result) Result {
	if len(res.Duplicates) == 0 {
		return res
	}
	res.Tasks = append(append([]task.Task{}, res.Tasks...), res.Duplicates...)
	res.Stats.Imported += len(res.Duplicates)
	res.Stats.Duplicates = 0
	res.Duplicates = []task.Task{}
	res.Success = len(res.Tasks) > 0
	return res
}
