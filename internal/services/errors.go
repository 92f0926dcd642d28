// Package services defines the business logic for to-do items.
// This file centralizes the service-level errors returned for predictable
// failure cases. They are taxonomy errors (domain.ApplicationError), so the
// HTTP layer can format them without any further mapping.
package services

import "github.com/tbourn/go-todo-backend/internal/domain"

// To-do errors.
var (
	// ErrTodoNotAdded is returned when the store reports no insert result or
	// rejects the document (e.g. the id already exists).
	ErrTodoNotAdded = domain.NewBadRequestError("Todo not added")

	// ErrTodoNotUpdated is returned when an update produced no result or
	// matched no document.
	ErrTodoNotUpdated = domain.NewBadRequestError("Todo not updated")

	// ErrTodoNotFound is returned when no to-do has the requested id.
	ErrTodoNotFound = domain.NewNotFoundError("Todo not found")
)
