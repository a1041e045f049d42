package storage

import (
	"encoding/json"

	"github.com/leeovery/termtodo/internal/settings"
)

// GetSettings returns the stored settings, default-filled.
func (s *Store) GetSettings() (settings.UserSettings, error) {
	var out settings.UserSettings
	err := s.withLock(true, CodeSettingsRead, func() error {
		var err error
		out, err = s.loadSettings()
		return err
	})
	return out, err
}

// SetSettings shallow-merges p onto the stored settings and returns the result.
func (s *Store) SetSettings(p settings.Patch) (settings.UserSettings, error) {
	var out settings.UserSettings
	err := s.withLock(false, CodeSettingsWrite, func() error {
		cur, err := s.loadSettings()
		if err != nil {
			return err
		}
		out, err = settings.Merge(cur, p)
		if err != nil {
			return newError(CodeSettingsWrite, messages[CodeSettingsWrite], err)
		}
		return s.saveSettings(out)
	})
	if err != nil {
		return settings.UserSettings{}, err
	}
	s.notify(Event{Kind: EventSettingsChange})
	return out, nil
}

func (s *Store) loadSettings() (settings.UserSettings, error) {
	raw, _, err := s.kv.Get(KeySettings)
	if err != nil {
		return settings.UserSettings{}, newError(CodeSettingsRead, messages[CodeSettingsRead], err)
	}
	out, err := settings.Decode([]byte(raw))
	if err != nil {
		return settings.UserSettings{}, newError(CodeSettingsRead, messages[CodeSettingsRead], err)
	}
	return out, nil
}

func (s *Store) saveSettings(v settings.UserSettings) error {
	data, err := json.Marshal(v)
	if err != nil {
		return newError(CodeSettingsWrite, messages[CodeSettingsWrite], err)
	}
	if err := s.kv.Set(KeySettings, string(data)); err != nil {
		return newError(CodeSettingsWrite, messages[CodeSettingsWrite], err)
	}
	return nil
}
