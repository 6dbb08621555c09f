package models

import "errors"

var (
	// ErrTaskNotFound is returned when a task id does not exist in the store
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidState is returned when an operation is not valid for the
	// task's current status (e.g. snoozing a completed task, or the second
	// of two concurrent completions)
	ErrInvalidState = errors.New("operation not valid for task status")
)
