package storage

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/leeovery/termtodo/internal/task"
)

// EventKind identifies what changed.
type EventKind string

const (
	EventTaskAdded      EventKind = "task_added"
	EventTaskUpdated    EventKind = "task_updated"
	EventTaskDeleted    EventKind = "task_deleted"
	EventTasksImported  EventKind = "tasks_imported"
	EventTasksReplaced  EventKind = "tasks_replaced"
	EventSettingsChange EventKind = "settings_changed"
	EventValueChange    EventKind = "value_changed"
	EventCleared        EventKind = "cleared"
)

// Event describes a completed write. Task is set for single-task events; Key
// is set for value changes.
type Event struct {
	Kind   EventKind
	TaskID string
	Task   *task.Task
	Key    string
}

// Subscribe registers fn to be called after every successful write, once the
// lock is released. The returned function unregisters it.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Store) notify(e Event) {
	s.obsMu.Lock()
	fns := make([]func(Event), 0, len(s.observers))
	for i := 0; i < s.nextObs; i++ {
		if fn, ok := s.observers[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		s.call(fn, e)
	}
}

func (s *Store) call(fn func(Event), e Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("observer panicked", zap.String("event", string(e.Kind)), zap.String("panic", fmt.Sprint(r)))
		}
	}()
	fn(e)
}
