package repository

import "errors"

// Common repository errors
var (
	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrSubtaskNotFound is returned when a subtask is not found
	ErrSubtaskNotFound = errors.New("subtask not found")

	// ErrProjectNotFound is returned when a project is not found
	ErrProjectNotFound = errors.New("project not found")

	// ErrTokenNotFound is returned when a user has no stored Google token
	ErrTokenNotFound = errors.New("google token not found")
)
