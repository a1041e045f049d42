package storage

import (
	"errors"
	"fmt"
)

// Code is a stable identifier for a class of storage failure.
type Code string

const (
	CodeInit                Code = "INIT_ERROR"
	CodeTaskRead            Code = "TASK_READ_ERROR"
	CodeTaskParse           Code = "TASK_PARSE_ERROR"
	CodeTaskCreate          Code = "TASK_CREATE_ERROR"
	CodeTaskUpdate          Code = "TASK_UPDATE_ERROR"
	CodeTaskDelete          Code = "TASK_DELETE_ERROR"
	CodeTaskNotFound        Code = "TASK_NOT_FOUND"
	CodeSettingsRead        Code = "SETTINGS_READ_ERROR"
	CodeSettingsWrite       Code = "SETTINGS_WRITE_ERROR"
	CodeImportInvalidFormat Code = "IMPORT_INVALID_FORMAT"
	CodeExport              Code = "EXPORT_ERROR"
	CodeClearAll            Code = "CLEAR_ALL_ERROR"
)

// Error is a storage failure carrying a stable Code and the underlying cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Code, so the sentinels below work with
// errors.Is regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrNotFound      = &Error{Code: CodeTaskNotFound}
	ErrParse         = &Error{Code: CodeTaskParse}
	ErrInvalidFormat = &Error{Code: CodeImportInvalidFormat}
)

// CodeOf returns the Code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func newError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

var messages = map[Code]string{
	CodeInit:                "failed to initialize storage",
	CodeTaskRead:            "failed to read tasks",
	CodeTaskParse:           "failed to parse stored tasks",
	CodeTaskCreate:          "failed to create task",
	CodeTaskUpdate:          "failed to update task",
	CodeTaskDelete:          "failed to delete task",
	CodeSettingsRead:        "failed to read settings",
	CodeSettingsWrite:       "failed to save settings",
	CodeImportInvalidFormat: "invalid import data format",
	CodeExport:              "failed to export data",
	CodeClearAll:            "failed to clear data",
}

// wrap returns err unchanged when it is already a storage error, otherwise
// tags it with code.
func wrap(code Code, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return newError(code, messages[code], err)
}

func notFound(id string) *Error {
	return newError(CodeTaskNotFound, fmt.Sprintf("task %s not found", id), nil)
}
