package storage

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/leeovery/termtodo/internal/task"
)

// Value returns a scalar slot such as username or streak.
func (s *Store) Value(key string) (string, bool, error) {
	var v string
	var ok bool
	err := s.withLock(true, CodeSettingsRead, func() error {
		var err error
		v, ok, err = s.kv.Get(key)
		if err != nil {
			return newError(CodeSettingsRead, fmt.Sprintf("failed to read %s", key), err)
		}
		return nil
	})
	return v, ok, err
}

// SetValue writes a scalar slot.
func (s *Store) SetValue(key, value string) error {
	err := s.withLock(false, CodeSettingsWrite, func() error {
		if err := s.kv.Set(key, value); err != nil {
			return newError(CodeSettingsWrite, fmt.Sprintf("failed to write %s", key), err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(Event{Kind: EventValueChange, Key: key})
	return nil
}

// Username returns the stored username, or "" if unset.
func (s *Store) Username() (string, error) {
	v, _, err := s.Value(KeyUsername)
	return v, err
}

// SetUsername stores the username.
func (s *Store) SetUsername(name string) error {
	return s.SetValue(KeyUsername, strings.TrimSpace(name))
}

// TotalCompleted returns how many times a task has been marked completed.
func (s *Store) TotalCompleted() (int, error) {
	v, ok, err := s.Value(KeyTotalCompleted)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, newError(CodeSettingsRead, "stored totalCompleted is not a number", err)
	}
	return n, nil
}

func (s *Store) incrementCompleted() (int, error) {
	var n int
	err := s.withLock(false, CodeSettingsWrite, func() error {
		v, _, err := s.kv.Get(KeyTotalCompleted)
		if err != nil {
			return newError(CodeSettingsRead, messages[CodeSettingsRead], err)
		}
		n, _ = strconv.Atoi(strings.TrimSpace(v))
		n++
		if err := s.kv.Set(KeyTotalCompleted, strconv.Itoa(n)); err != nil {
			return newError(CodeSettingsWrite, messages[CodeSettingsWrite], err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.notify(Event{Kind: EventValueChange, Key: KeyTotalCompleted})
	return n, nil
}

// Init stamps first_launch on the first run and records version as
// app_version, rewriting it when a different version was stored.
func (s *Store) Init(version string) error {
	return s.withLock(false, CodeInit, func() error {
		if _, ok, err := s.kv.Get(KeyFirstLaunch); err != nil {
			return newError(CodeInit, messages[CodeInit], err)
		} else if !ok {
			if err := s.kv.Set(KeyFirstLaunch, task.FormatTimestamp(s.now())); err != nil {
				return newError(CodeInit, messages[CodeInit], err)
			}
			s.log.Info("first launch recorded")
		}

		stored, ok, err := s.kv.Get(KeyAppVersion)
		if err != nil {
			return newError(CodeInit, messages[CodeInit], err)
		}
		if ok && stored == version {
			return nil
		}
		if ok {
			s.log.Info("migrating stored data", zap.String("from", stored), zap.String("to", version))
		}
		if err := s.kv.Set(KeyAppVersion, version); err != nil {
			return newError(CodeInit, messages[CodeInit], err)
		}
		return nil
	})
}

// ClearAll removes every key in the store's namespace.
func (s *Store) ClearAll() error {
	err := s.withLock(false, CodeClearAll, func() error {
		if err := s.kv.Clear(); err != nil {
			return newError(CodeClearAll, messages[CodeClearAll], err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("cleared all data")
	s.notify(Event{Kind: EventCleared})
	return nil
}
