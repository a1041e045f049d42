package storage

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/leeovery/termtodo/internal/task"
)

// loadTasks reads and decodes the task collection. Caller holds the lock.
func (s *Store) loadTasks() ([]task.Task, error) {
	raw, ok, err := s.kv.Get(KeyTasks)
	if err != nil {
		return nil, newError(CodeTaskRead, messages[CodeTaskRead], err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		s.log.Debug("read: no stored tasks")
		return []task.Task{}, nil
	}

	tasks, err := DecodeTasks([]byte(raw))
	if err != nil {
		return nil, err
	}
	s.log.Debug("read: loaded tasks", zap.Int("count", len(tasks)))
	return tasks, nil
}

// saveTasks encodes and writes the whole collection. Caller holds the lock.
func (s *Store) saveTasks(code Code, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return newError(code, messages[code], err)
	}
	if err := s.kv.Set(KeyTasks, string(data)); err != nil {
		return newError(code, messages[code], err)
	}
	s.log.Debug("write: wrote tasks", zap.Int("count", len(tasks)))
	return nil
}

// DecodeTasks parses a stored task array. Dates are restored from their ISO
// strings; nil collections are replaced with empty ones.
func DecodeTasks(data []byte) ([]task.Task, error) {
	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, newError(CodeTaskParse, messages[CodeTaskParse], err)
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	for i := range tasks {
		fillCollections(&tasks[i])
	}
	return tasks, nil
}

func fillCollections(t *task.Task) {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []task.Subtask{}
	}
	if t.Dependencies == nil {
		t.Dependencies = []string{}
	}
}
