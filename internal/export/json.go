package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/leeovery/termtodo/internal/task"
)

// Document is the JSON export shape.
type Document struct {
	Version    string      `json:"version"`
	ExportDate time.Time   `json:"exportDate"`
	TaskCount  int         `json:"taskCount"`
	Tasks      []task.Task `json:"tasks"`
}

func renderJSON(tasks []task.Task, now time.Time) (string, error) {
	doc := Document{
		Version:    Version,
		ExportDate: now,
		TaskCount:  len(tasks),
		Tasks:      tasks,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding export: %w", err)
	}
	return string(data), nil
}
