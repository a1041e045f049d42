// Package kv provides the durable key-value collaborator the task store
// persists through. Values are opaque strings; backends differ only in medium.
package kv

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Store is a durable string key-value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// Clear removes every key.
	Clear() error
	// Keys returns all keys in lexicographic order.
	Keys() ([]string, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendFile, BackendSQLite, BackendMemory}

// ValidBackend reports whether name is accepted by Open. Empty means file.
func ValidBackend(name string) bool {
	if name == "" {
		return true
	}
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// UnknownBackendError is returned by Open for an unrecognized backend name.
type UnknownBackendError struct {
	Name string
}

func (e *UnknownBackendError) Error() string {
	sorted := append([]string(nil), Backends...)
	sort.Strings(sorted)
	return fmt.Sprintf("unknown storage backend %q (available: %s)", e.Name, strings.Join(sorted, ", "))
}

// Open creates the named backend rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFile(filepath.Join(dir, "kv"))
	case BackendSQLite:
		return NewSQLiteWithRecovery(filepath.Join(dir, "store.db"))
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, &UnknownBackendError{Name: backend}
	}
}
