// Package storage provides the task store: durable CRUD over the task
// collection and user settings, persisted through a namespaced key-value
// store with whole-collection read-modify-write under a lock.
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/leeovery/termtodo/internal/kv"
	"github.com/leeovery/termtodo/internal/task"
)

const defaultLockTimeout = 5 * time.Second

// Keys of the persisted state, relative to the namespace.
const (
	KeyTasks          = "tasks"
	KeySettings       = "settings"
	KeyUsername       = "username"
	KeyTheme          = "theme"
	KeyStreak         = "streak"
	KeyTotalCompleted = "totalCompleted"
	KeyAppVersion     = "app_version"
	KeyLastSync       = "last_sync"
	KeyFirstLaunch    = "first_launch"
)

// ScalarKeys lists the keys that hold plain string values.
var ScalarKeys = []string{KeyUsername, KeyTheme, KeyStreak, KeyTotalCompleted, KeyAppVersion, KeyLastSync, KeyFirstLaunch}

// IDGenerator produces a new task ID that exists does not report as taken.
type IDGenerator func(now time.Time, exists func(string) bool) (string, error)

// Store is the task store. All operations read the whole collection, apply a
// change, and write it back while holding an in-process mutex and, when a lock
// file is configured, an exclusive file lock.
type Store struct {
	kv          kv.Store
	mu          sync.Mutex
	lockPath    string
	lockTimeout time.Duration
	now         func() time.Time
	newID       IDGenerator
	log         *zap.Logger

	obsMu     sync.Mutex
	observers map[int]func(Event)
	nextObs   int
}

// Option configures a Store.
type Option func(*Store)

// WithLockFile guards every operation with a file lock at path, so separate
// processes sharing a data directory do not interleave writes.
func WithLockFile(path string) Option {
	return func(s *Store) { s.lockPath = path }
}

// WithLockTimeout sets how long to wait for the file lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// WithClock sets the time source used for createdAt and completedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator sets the task ID source.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the logger for lock and write tracing.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a Store persisting through store. Callers usually pass a
// kv.Namespace-wrapped backend.
func New(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:          store,
		lockTimeout: defaultLockTimeout,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       task.GenerateID,
		log:         zap.NewNop(),
		observers:   make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying key-value store.
func (s *Store) Close() error {
	return s.kv.Close()
}

// withLock runs fn holding the store mutex and, if configured, the file lock.
// Lock failures are reported under code.
func (s *Store) withLock(shared bool, code Code, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lockPath == "" {
		return fn()
	}

	fl := flock.New(s.lockPath)
	mode := "exclusive"
	if shared {
		mode = "shared"
	}

	s.log.Debug("lock: acquiring", zap.String("mode", mode), zap.String("path", s.lockPath))
	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	var locked bool
	var err error
	if shared {
		locked, err = fl.TryRLockContext(ctx, 10*time.Millisecond)
	} else {
		locked, err = fl.TryLockContext(ctx, 10*time.Millisecond)
	}
	if err != nil || !locked {
		return newError(code, fmt.Sprintf("could not acquire lock on %s - another process may be using termtodo", s.lockPath), err)
	}
	s.log.Debug("lock: acquired", zap.String("mode", mode))
	defer func() {
		fl.Unlock()
		s.log.Debug("lock: released", zap.String("mode", mode))
	}()

	return fn()
}

// mutate performs the read-modify-write flow for the task collection:
// lock -> read -> fn -> write -> unlock. Errors from fn that are not already
// storage errors are reported under code.
func (s *Store) mutate(code Code, fn func(tasks []task.Task) ([]task.Task, error)) error {
	return s.withLock(false, code, func() error {
		tasks, err := s.loadTasks()
		if err != nil {
			return err
		}
		modified, err := fn(tasks)
		if err != nil {
			return wrap(code, err)
		}
		return s.saveTasks(code, modified)
	})
}

// GetTasks returns the full collection, or an empty slice if nothing is stored.
func (s *Store) GetTasks() ([]task.Task, error) {
	var tasks []task.Task
	err := s.withLock(true, CodeTaskRead, func() error {
		var err error
		tasks, err = s.loadTasks()
		return err
	})
	return tasks, err
}

// GetTaskByID returns the task with id, or nil if there is none.
func (s *Store) GetTaskByID(id string) (*task.Task, error) {
	tasks, err := s.GetTasks()
	if err != nil {
		return nil, err
	}
	if i := indexOf(tasks, id); i >= 0 {
		return &tasks[i], nil
	}
	return nil, nil
}

// AddTask stores a new task. Any ID or CreatedAt on t is replaced with a fresh
// ID and the current time.
func (s *Store) AddTask(t task.Task) (task.Task, error) {
	var added task.Task
	err := s.mutate(CodeTaskCreate, func(tasks []task.Task) ([]task.Task, error) {
		var err error
		added, err = s.prepareNew(tasks, t)
		if err != nil {
			return nil, err
		}
		return append(tasks, added), nil
	})
	if err != nil {
		return task.Task{}, err
	}
	s.notify(Event{Kind: EventTaskAdded, TaskID: added.ID, Task: &added})
	return added, nil
}

// ImportTasks adds each task as AddTask would, in a single write.
func (s *Store) ImportTasks(in []task.Task) ([]task.Task, error) {
	var added []task.Task
	err := s.mutate(CodeTaskCreate, func(tasks []task.Task) ([]task.Task, error) {
		for _, t := range in {
			n, err := s.prepareNew(tasks, t)
			if err != nil {
				return nil, fmt.Errorf("task %q: %w", t.Title, err)
			}
			tasks = append(tasks, n)
			added = append(added, n)
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(Event{Kind: EventTasksImported})
	return added, nil
}

// prepareNew assigns ID and CreatedAt, applies defaults, and validates.
// createdAt never goes backwards relative to existing tasks.
func (s *Store) prepareNew(existing []task.Task, t task.Task) (task.Task, error) {
	now := s.now()
	for _, e := range existing {
		if e.CreatedAt.After(now) {
			now = e.CreatedAt
		}
	}

	id, err := s.newID(now, func(id string) bool { return indexOf(existing, id) >= 0 })
	if err != nil {
		return task.Task{}, err
	}

	title, err := task.ValidateTitle(t.Title)
	if err != nil {
		return task.Task{}, err
	}

	t.ID = id
	t.Title = title
	t.CreatedAt = now
	task.ApplyDefaults(&t)
	if err := task.Validate(t); err != nil {
		return task.Task{}, err
	}

	if t.Status == task.StatusCompleted {
		if t.CompletedAt == nil {
			t.CompletedAt = &now
		}
	} else {
		t.CompletedAt = nil
	}
	return t, nil
}

// UpdateTask merges p onto the task with id. ID and CreatedAt never change.
func (s *Store) UpdateTask(id string, p task.Patch) (task.Task, error) {
	var updated task.Task
	var result task.TransitionResult
	err := s.mutate(CodeTaskUpdate, func(tasks []task.Task) ([]task.Task, error) {
		i := indexOf(tasks, id)
		if i < 0 {
			return nil, notFound(id)
		}
		var err error
		result, err = task.Apply(&tasks[i], p, s.now())
		if err != nil {
			return nil, err
		}
		updated = tasks[i]
		return tasks, nil
	})
	if err != nil {
		return task.Task{}, err
	}
	s.afterTransition(result)
	s.notify(Event{Kind: EventTaskUpdated, TaskID: id, Task: &updated})
	return updated, nil
}

// DeleteTask removes the task with id.
func (s *Store) DeleteTask(id string) error {
	err := s.mutate(CodeTaskDelete, func(tasks []task.Task) ([]task.Task, error) {
		i := indexOf(tasks, id)
		if i < 0 {
			return nil, notFound(id)
		}
		return append(tasks[:i], tasks[i+1:]...), nil
	})
	if err != nil {
		return err
	}
	s.notify(Event{Kind: EventTaskDeleted, TaskID: id})
	return nil
}

// ToggleTaskComplete flips completed to pending, and anything else to completed.
func (s *Store) ToggleTaskComplete(id string) (task.Task, error) {
	var updated task.Task
	var result task.TransitionResult
	err := s.mutate(CodeTaskUpdate, func(tasks []task.Task) ([]task.Task, error) {
		i := indexOf(tasks, id)
		if i < 0 {
			return nil, notFound(id)
		}
		result = task.ToggleComplete(&tasks[i], s.now())
		updated = tasks[i]
		return tasks, nil
	})
	if err != nil {
		return task.Task{}, err
	}
	s.afterTransition(result)
	s.notify(Event{Kind: EventTaskUpdated, TaskID: id, Task: &updated})
	return updated, nil
}

// ToggleSubtask flips one subtask of the task with taskID.
func (s *Store) ToggleSubtask(taskID, subtaskID string) (task.Task, error) {
	return s.editTask(taskID, func(t *task.Task) error {
		return task.ToggleSubtask(t, subtaskID)
	})
}

// AddSubtask appends a new subtask to the task with taskID.
func (s *Store) AddSubtask(taskID, title string) (task.Task, error) {
	return s.editTask(taskID, func(t *task.Task) error {
		_, err := task.AddSubtask(t, title)
		return err
	})
}

func (s *Store) editTask(id string, fn func(t *task.Task) error) (task.Task, error) {
	var updated task.Task
	err := s.mutate(CodeTaskUpdate, func(tasks []task.Task) ([]task.Task, error) {
		i := indexOf(tasks, id)
		if i < 0 {
			return nil, notFound(id)
		}
		if err := fn(&tasks[i]); err != nil {
			return nil, err
		}
		updated = tasks[i]
		return tasks, nil
	})
	if err != nil {
		return task.Task{}, err
	}
	s.notify(Event{Kind: EventTaskUpdated, TaskID: id, Task: &updated})
	return updated, nil
}

// ReplaceTasks overwrites the whole collection.
func (s *Store) ReplaceTasks(tasks []task.Task) error {
	err := s.withLock(false, CodeTaskUpdate, func() error {
		return s.saveTasks(CodeTaskUpdate, tasks)
	})
	if err != nil {
		return err
	}
	s.notify(Event{Kind: EventTasksReplaced})
	return nil
}

// afterTransition bumps the lifetime completion counter when a task entered
// completed. A failure here does not undo the task write.
func (s *Store) afterTransition(r task.TransitionResult) {
	if !r.Completed() {
		return
	}
	if _, err := s.incrementCompleted(); err != nil {
		s.log.Warn("failed to update completion counter", zap.Error(err))
	}
}

func indexOf(tasks []task.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
