package storage

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/leeovery/termtodo/internal/settings"
	"github.com/leeovery/termtodo/internal/task"
)

// SnapshotVersion is written into every snapshot.
const SnapshotVersion = "1.0.0"

// Snapshot is the whole-state backup document.
type Snapshot struct {
	Version    string                `json:"version"`
	ExportDate time.Time             `json:"exportDate"`
	Tasks      []task.Task           `json:"tasks"`
	Settings   settings.UserSettings `json:"settings"`
	Username   string                `json:"username,omitempty"`
}

// ExportData captures tasks, settings and username in one snapshot.
func (s *Store) ExportData() (Snapshot, error) {
	var snap Snapshot
	err := s.withLock(true, CodeExport, func() error {
		tasks, err := s.loadTasks()
		if err != nil {
			return newError(CodeExport, messages[CodeExport], err)
		}
		st, err := s.loadSettings()
		if err != nil {
			return newError(CodeExport, messages[CodeExport], err)
		}
		username, _, err := s.kv.Get(KeyUsername)
		if err != nil {
			return newError(CodeExport, messages[CodeExport], err)
		}
		snap = Snapshot{
			Version:    SnapshotVersion,
			ExportDate: s.now(),
			Tasks:      tasks,
			Settings:   st,
			Username:   username,
		}
		return nil
	})
	return snap, err
}

// ExportJSON returns ExportData as indented JSON.
func (s *Store) ExportJSON() ([]byte, error) {
	snap, err := s.ExportData()
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, newError(CodeExport, messages[CodeExport], err)
	}
	return data, nil
}

// ImportData restores a snapshot produced by ExportJSON, replacing the task
// collection. Settings and username are restored when present. The document
// must carry both version and tasks.
func (s *Store) ImportData(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return newError(CodeImportInvalidFormat, messages[CodeImportInvalidFormat], err)
	}
	if _, ok := fields["version"]; !ok {
		return newError(CodeImportInvalidFormat, messages[CodeImportInvalidFormat], errors.New("missing version"))
	}
	rawTasks, ok := fields["tasks"]
	if !ok {
		return newError(CodeImportInvalidFormat, messages[CodeImportInvalidFormat], errors.New("missing tasks"))
	}

	tasks, err := DecodeTasks(rawTasks)
	if err != nil {
		return newError(CodeImportInvalidFormat, messages[CodeImportInvalidFormat], err)
	}

	var st *settings.UserSettings
	if raw, ok := fields["settings"]; ok {
		decoded, err := settings.Decode(raw)
		if err != nil {
			return newError(CodeImportInvalidFormat, messages[CodeImportInvalidFormat], err)
		}
		st = &decoded
	}

	var username *string
	if raw, ok := fields["username"]; ok {
		var u string
		if err := json.Unmarshal(raw, &u); err != nil {
			return newError(CodeImportInvalidFormat, messages[CodeImportInvalidFormat], err)
		}
		username = &u
	}

	err = s.withLock(false, CodeTaskUpdate, func() error {
		if err := s.saveTasks(CodeTaskUpdate, tasks); err != nil {
			return err
		}
		if st != nil {
			if err := s.saveSettings(*st); err != nil {
				return err
			}
		}
		if username != nil {
			if err := s.kv.Set(KeyUsername, *username); err != nil {
				return newError(CodeSettingsWrite, messages[CodeSettingsWrite], err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(Event{Kind: EventTasksReplaced})
	return nil
}
